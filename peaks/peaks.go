package peaks

import "sort"

// Peak is a local maximum in a lineout.
type Peak struct {
	Position  int
	Amplitude float64
}

// Options filters detected peaks. Zero values disable the corresponding
// filter.
type Options struct {
	// MinHeight drops peaks whose amplitude is below this value.
	MinHeight float64

	// MinDistance enforces a minimum sample separation between peaks.
	// When two peaks compete, the taller one survives.
	MinDistance int

	// MinWidth drops peaks narrower than this many samples, measured at
	// half the peak's prominence.
	MinWidth float64
}

// Find returns the local maxima of line that satisfy opts, ordered by
// position. Flat-topped peaks report the midpoint of the plateau.
func Find(line []float64, opts Options) []Peak {
	found := localMaxima(line)

	if opts.MinHeight > 0 {
		kept := found[:0]
		for _, p := range found {
			if p.Amplitude >= opts.MinHeight {
				kept = append(kept, p)
			}
		}

		found = kept
	}

	if opts.MinDistance > 1 {
		found = enforceDistance(found, opts.MinDistance)
	}

	if opts.MinWidth > 0 {
		kept := found[:0]
		for _, p := range found {
			if widthAtHalfProminence(line, p) >= opts.MinWidth {
				kept = append(kept, p)
			}
		}

		found = kept
	}

	return found
}

// LocalMinima returns the positions of strict local minima in line.
func LocalMinima(line []float64) []int {
	var out []int
	for i := 1; i < len(line)-1; i++ {
		if line[i] < line[i-1] && line[i] < line[i+1] {
			out = append(out, i)
		}
	}

	return out
}

// localMaxima finds candidate peaks with plateau handling: a run of equal
// samples bounded by strictly lower neighbors counts as one peak at the
// plateau midpoint.
func localMaxima(line []float64) []Peak {
	var out []Peak

	i := 1
	for i < len(line)-1 {
		if line[i] <= line[i-1] {
			i++
			continue
		}

		// Walk across a possible plateau.
		j := i
		for j < len(line)-1 && line[j+1] == line[i] {
			j++
		}

		if j < len(line)-1 && line[j+1] < line[i] {
			mid := (i + j) / 2
			out = append(out, Peak{Position: mid, Amplitude: line[mid]})
		}

		i = j + 1
	}

	return out
}

// enforceDistance removes peaks closer than dist samples to a taller peak.
func enforceDistance(found []Peak, dist int) []Peak {
	order := make([]int, len(found))
	for i := range order {
		order[i] = i
	}

	// Tallest first; ties broken by position for determinism.
	sort.Slice(order, func(a, b int) bool {
		pa, pb := found[order[a]], found[order[b]]
		if pa.Amplitude != pb.Amplitude {
			return pa.Amplitude > pb.Amplitude
		}

		return pa.Position < pb.Position
	})

	removed := make([]bool, len(found))
	for _, idx := range order {
		if removed[idx] {
			continue
		}

		// Suppress lower neighbors within dist on both sides.
		for k := idx - 1; k >= 0 && found[idx].Position-found[k].Position < dist; k-- {
			removed[k] = true
		}

		for k := idx + 1; k < len(found) && found[k].Position-found[idx].Position < dist; k++ {
			removed[k] = true
		}
	}

	out := found[:0]
	for i, p := range found {
		if !removed[i] {
			out = append(out, p)
		}
	}

	return out
}

// widthAtHalfProminence measures the peak's width where the signal crosses
// half way between the peak amplitude and its prominence bases, with linear
// interpolation at the crossings.
func widthAtHalfProminence(line []float64, p Peak) float64 {
	leftBase, rightBase, prom := prominence(line, p)
	if prom <= 0 {
		return 0
	}

	evalHeight := p.Amplitude - prom/2

	// Walk left to the crossing.
	li := float64(leftBase)
	for i := p.Position; i > leftBase; i-- {
		if line[i-1] < evalHeight {
			li = float64(i) - (evalHeight-line[i])/(line[i-1]-line[i])
			break
		}
	}

	ri := float64(rightBase)
	for i := p.Position; i < rightBase; i++ {
		if line[i+1] < evalHeight {
			ri = float64(i) + (evalHeight-line[i])/(line[i+1]-line[i])
			break
		}
	}

	return ri - li
}

// prominence returns the bases and topographic prominence of p: walk out
// from the peak until a taller sample (or the signal edge) is hit, and take
// the higher of the two interval minima as the reference level.
func prominence(line []float64, p Peak) (leftBase, rightBase int, prom float64) {
	leftBase = 0
	leftMin := line[p.Position]
	for i := p.Position - 1; i >= 0; i-- {
		if line[i] > line[p.Position] {
			break
		}

		if line[i] <= leftMin {
			leftMin = line[i]
			leftBase = i
		}
	}

	rightBase = len(line) - 1
	rightMin := line[p.Position]
	for i := p.Position + 1; i < len(line); i++ {
		if line[i] > line[p.Position] {
			break
		}

		if line[i] <= rightMin {
			rightMin = line[i]
			rightBase = i
		}
	}

	ref := leftMin
	if rightMin > ref {
		ref = rightMin
	}

	return leftBase, rightBase, p.Amplitude - ref
}
