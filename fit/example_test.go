package fit_test

import (
	"fmt"

	"github.com/cwbudde/streakcal/fit"
)

func ExampleGaussianFit() {
	// Sample a noiseless slit profile.
	truth := fit.Gaussian{Amplitude: 2000, Center: 47.5, Sigma: 6, Offset: 150}
	y := make([]float64, 100)
	for i := range y {
		y[i] = truth.Value(float64(i))
	}

	res := fit.GaussianFit(y, fit.Gaussian{Amplitude: 1800, Center: 45, Sigma: 5})
	if !res.Converged {
		panic(res.Reason)
	}

	fmt.Printf("Center: %.2f px\n", res.Center)
	fmt.Printf("Sigma: %.2f px\n", res.Sigma)
	fmt.Printf("FWHM: %.2f px\n", res.FWHM())

	// Output:
	// Center: 47.50 px
	// Sigma: 6.00 px
	// FWHM: 14.13 px
}
