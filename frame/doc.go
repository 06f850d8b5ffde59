// Package frame provides the 2D intensity frame consumed by the calibration
// analyzers, plus loading from the image formats streak cameras are commonly
// saved to (16-bit grayscale TIFF/PNG and FITS).
//
// A Frame is treated as immutable: analyzers derive lineouts and statistics
// from it but never write back. Operations that change the pixel data
// (Rotate90, SubtractOffset) return a new Frame.
package frame
