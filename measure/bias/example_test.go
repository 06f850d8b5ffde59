package bias_test

import (
	"fmt"
	"math"

	"github.com/cwbudde/streakcal/measure/bias"
)

func ExampleAnalyzer_AnalyzeLineout() {
	// Synthesize a comb lineout: 19 pulses, 10 samples apart.
	line := make([]float64, 200)
	for p := 10; p <= 190; p += 10 {
		for i := range line {
			d := (float64(i) - float64(p)) / 1.5
			line[i] += 10000 * math.Exp(-d*d/2)
		}
	}

	a := bias.NewAnalyzer(bias.Config{NumPeaks: 3})

	res, err := a.AnalyzeLineout(line)
	if err != nil {
		panic(err)
	}

	fmt.Printf("Detected peaks: %d\n", len(res.Peaks))
	fmt.Printf("First spacing: %.2f px\n", res.FirstSpacing)
	fmt.Printf("Last spacing: %.2f px\n", res.LastSpacing)
	fmt.Printf("Delta: %.2f px\n", res.Delta)

	// Output:
	// Detected peaks: 19
	// First spacing: 10.00 px
	// Last spacing: 10.00 px
	// Delta: 0.00 px
}
