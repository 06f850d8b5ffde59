// Package bias measures streak camera sweep linearity from a streaked
// comb-pulse image, for setting the sweep bias voltage.
//
// The analyzer extracts the best swath-mean lineout from the image, detects
// the comb pulses, and compares the mean spacing of the first n and last n
// counted peaks. The spacing difference is the linearity metric: the bias
// voltage is adjusted until it reads approximately zero.
//
//	res, err := bias.Analyze(frm, bias.Config{NumPeaks: 5, MinHeight: 5000})
//	if err != nil {
//	    // not enough comb pulses found
//	}
//	fmt.Printf("spacing delta: %.2f px\n", res.Delta)
//
// The lineout and counted peaks in the Result feed the diagnostic plot so
// the operator can verify the correct peaks were used.
package bias
