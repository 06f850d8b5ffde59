// Package ctr maps the contrast transfer ratio of a Ronchi-ruling flatfield
// image, for evaluating streak camera resolution across the sensor.
//
// For every swath of rows the analyzer computes, at each scan position, the
// ratio (Imax-Imin)/(Imax+Imin-2*background) over the ruling peaks and
// troughs inside a sliding window. Background counts are estimated as the
// histogram mode of the whole image. The resulting map is sampled at a 3x3
// grid of points of interest spanning the usable data region.
package ctr
