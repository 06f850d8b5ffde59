// Package fwhm profiles the focus of a streak camera from a slit image, for
// optical alignment during calibration.
//
// Every row's intensity cross-section is fit with a Gaussian and the full
// width at half maximum extracted from the fitted sigma. Rows without a
// single clear peak, or whose fit fails, are excluded as values rather than
// errors. The per-row sequence feeds the diagnostic plot; swath averages at
// 25%, 50% and 75% of the usable data extent give the three alignment
// numbers the operator reads off.
package fwhm
