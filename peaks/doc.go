// Package peaks provides 1D peak detection for intensity lineouts.
//
// Find locates local maxima and filters them by amplitude, mutual distance,
// and width at half prominence. The distance filter keeps the taller of two
// competing peaks, so a noisy shoulder next to a real comb pulse does not
// register as a second peak. LocalMinima returns strict local minima, used
// by the contrast analysis to pair ruling peaks with the troughs between
// them.
//
// Typical use on a comb-pulse lineout:
//
//	found := peaks.Find(lineout, peaks.Options{
//	    MinHeight:   5000,
//	    MinDistance: 3,
//	})
//	for _, p := range found {
//	    fmt.Println(p.Position, p.Amplitude)
//	}
package peaks
