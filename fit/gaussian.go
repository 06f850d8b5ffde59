// Package fit provides the Gaussian profile fit used by the FWHM profiler.
//
// Fits run through Levenberg-Marquardt least squares with a numerical
// Jacobian. A failed fit is a value, not an error: per-row failures are
// expected on rows without signal and must compose cleanly into swath
// aggregation.
package fit

import (
	"math"

	"github.com/maorshutman/lm"
)

// FWHMFactor converts a Gaussian sigma to full width at half maximum.
var FWHMFactor = 2 * math.Sqrt(2*math.Ln2) // ~2.3548

// Gaussian holds the parameters of a Gaussian profile with baseline offset:
//
//	f(x) = a * exp(-((x-c)/s)^2 / 2) + b
type Gaussian struct {
	Amplitude float64
	Center    float64
	Sigma     float64
	Offset    float64
}

// Value evaluates the profile at x.
func (g Gaussian) Value(x float64) float64 {
	d := (x - g.Center) / g.Sigma
	return g.Amplitude*math.Exp(-d*d/2) + g.Offset
}

// FWHM returns the full width at half maximum of the profile.
func (g Gaussian) FWHM() float64 {
	return FWHMFactor * g.Sigma
}

// FailReason explains why a fit was rejected.
type FailReason int

const (
	FailNone FailReason = iota
	FailTooFewSamples
	FailNoConvergence
	FailBadSigma
)

func (r FailReason) String() string {
	switch r {
	case FailNone:
		return "ok"
	case FailTooFewSamples:
		return "too few samples"
	case FailNoConvergence:
		return "no convergence"
	case FailBadSigma:
		return "non-physical sigma"
	}

	return "unknown"
}

// Result is the outcome of a Gaussian fit.
type Result struct {
	Gaussian

	// Converged is false when the optimizer failed or produced
	// non-physical parameters; the Gaussian fields are then meaningless.
	Converged bool
	Reason    FailReason

	// Residual is the RMS of the final residuals, for fit-quality checks.
	Residual float64
}

// GaussianFit fits a Gaussian profile to y sampled at integer positions
// 0..len(y)-1, starting from guess.
func GaussianFit(y []float64, guess Gaussian) Result {
	if len(y) < 5 {
		return Result{Reason: FailTooFewSamples}
	}

	f := func(dst, p []float64) {
		amp, cen, sig, off := p[0], p[1], p[2], p[3]
		for i := range y {
			d := (float64(i) - cen) / sig
			dst[i] = amp*math.Exp(-d*d/2) + off - y[i]
		}
	}

	jacobian := lm.NumJac{Func: f}

	problem := lm.LMProblem{
		Dim:        4,
		Size:       len(y),
		Func:       f,
		Jac:        jacobian.Jac,
		InitParams: []float64{guess.Amplitude, guess.Center, guess.Sigma, guess.Offset},
		Tau:        1e-6,
		Eps1:       1e-8,
		Eps2:       1e-8,
	}

	results, err := lm.LM(problem, &lm.Settings{Iterations: 100, ObjectiveTol: 1e-16})
	if err != nil {
		return Result{Reason: FailNoConvergence}
	}

	g := Gaussian{
		Amplitude: results.X[0],
		Center:    results.X[1],
		Sigma:     math.Abs(results.X[2]),
		Offset:    results.X[3],
	}

	// The sign of sigma is degenerate in the model; only its magnitude is
	// physical. Reject widths that cannot describe a slit profile.
	if g.Sigma <= 0 || g.Sigma > float64(len(y)) || math.IsNaN(g.Sigma) {
		return Result{Gaussian: g, Reason: FailBadSigma}
	}

	var ss float64
	res := make([]float64, len(y))
	f(res, results.X)
	for _, r := range res {
		ss += r * r
	}

	return Result{
		Gaussian:  g,
		Converged: true,
		Residual:  math.Sqrt(ss / float64(len(y))),
	}
}
