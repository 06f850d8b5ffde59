// Package intensity provides single-pass statistics over intensity samples,
// including the histogram-mode background estimator used by the CTR and FWHM
// calibration tools.
package intensity

import "math"

// Stats holds intensity-sample statistics.
type Stats struct {
	Length   int
	Mean     float64
	Max      float64
	MaxPos   int
	Min      float64
	MinPos   int
	Range    float64 // max - min
	Variance float64
	StdDev   float64
}

// Calculate computes all statistics in a single pass using Welford's online
// algorithm for numerical stability.
func Calculate(samples []float64) Stats {
	n := len(samples)
	if n == 0 {
		return Stats{}
	}

	var (
		mean   float64
		m2     float64
		maxVal = samples[0]
		maxPos int
		minVal = samples[0]
		minPos int
	)

	for i, x := range samples {
		ni := float64(i + 1)
		delta := x - mean
		deltaN := delta / ni
		m2 += delta * deltaN * float64(i)
		mean += deltaN

		if x > maxVal {
			maxVal = x
			maxPos = i
		}

		if x < minVal {
			minVal = x
			minPos = i
		}
	}

	variance := m2 / float64(n)

	return Stats{
		Length:   n,
		Mean:     mean,
		Max:      maxVal,
		MaxPos:   maxPos,
		Min:      minVal,
		MinPos:   minPos,
		Range:    maxVal - minVal,
		Variance: variance,
		StdDev:   math.Sqrt(variance),
	}
}

// Mean returns the mean of the samples using Kahan summation.
func Mean(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sum, c float64
	for _, x := range samples {
		y := x - c
		t := sum + y
		c = (t - sum) - y
		sum = t
	}

	return sum / float64(len(samples))
}

// Mode estimates the most common intensity value by histogramming the
// samples into bins equally spaced over [lo, hi] and returning the lower
// edge of the fullest bin. Samples outside [lo, hi] are clamped into the
// edge bins. This approximates the mode of quantized camera data and serves
// as the background-count estimate for flatfield and slit images.
func Mode(samples []float64, bins int, lo, hi float64) float64 {
	if len(samples) == 0 || bins <= 0 || hi <= lo {
		return 0
	}

	counts := make([]int, bins)
	width := (hi - lo) / float64(bins)

	for _, x := range samples {
		b := int((x - lo) / width)
		if b < 0 {
			b = 0
		}

		if b >= bins {
			b = bins - 1
		}

		counts[b]++
	}

	best := 0
	for b := 1; b < bins; b++ {
		if counts[b] > counts[best] {
			best = b
		}
	}

	return lo + float64(best)*width
}
