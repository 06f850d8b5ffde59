package ctr

import (
	"math/cmplx"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/streakcal/stats/intensity"
)

// rulingPeriod estimates the dominant spatial period of a lineout, in
// samples, from the peak bin of its FFT magnitude spectrum. The mean is
// removed first so the DC bin does not mask the ruling frequency. Returns 0
// when no period can be estimated.
func rulingPeriod(line []float64) float64 {
	n := nextPowerOf2(len(line))
	if n < 8 {
		return 0
	}

	mean := intensity.Mean(line)

	in := make([]complex128, n)
	for i, v := range line {
		in[i] = complex(v-mean, 0)
	}

	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return 0
	}

	out := make([]complex128, n)
	if err := plan.Forward(out, in); err != nil {
		return 0
	}

	best, bestMag := 0, 0.0
	for k := 1; k <= n/2; k++ {
		if m := cmplx.Abs(out[k]); m > bestMag {
			best, bestMag = k, m
		}
	}

	if best == 0 {
		return 0
	}

	return float64(n) / float64(best)
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}

	return p
}
