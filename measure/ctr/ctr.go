package ctr

import (
	"errors"
	"fmt"

	"github.com/cwbudde/streakcal/frame"
	"github.com/cwbudde/streakcal/peaks"
	"github.com/cwbudde/streakcal/stats/intensity"
)

// Errors returned by the CTR analyzer.
var (
	ErrInsufficientPeaks = errors.New("ctr: insufficient ruling peaks")
	ErrOutOfBounds       = errors.New("ctr: point outside analyzed region")
)

const (
	defaultMinPeaks  = 50
	defaultSwathSize = 40
	defaultWindow    = 40

	// Histogram used for the background estimate: 16-bit data in
	// ~650-count bins, matching the quantization of the original tool.
	histBins = 100
	histMax  = 65000

	// Minimum ruling-line width, in samples, for a peak to count.
	rulingMinWidth = 3

	// Rows averaged for the orientation check lineout.
	orientRows = 20
)

// Config holds CTR analysis parameters.
type Config struct {
	// MinPeaks is the number of ruling peaks a mid-image lineout must
	// show for the orientation to be accepted.
	MinPeaks int

	// SwathSize is the number of rows averaged per map row.
	SwathSize int

	// Window is the width of the sliding window, in samples, that Imax
	// and Imin are taken from at each scan position.
	Window int

	// LeftOffset and RightOffset shift the detected data limits.
	LeftOffset  float64
	RightOffset float64
}

func normalizeConfig(cfg Config) Config {
	if cfg.MinPeaks <= 0 {
		cfg.MinPeaks = defaultMinPeaks
	}

	if cfg.SwathSize <= 0 {
		cfg.SwathSize = defaultSwathSize
	}

	if cfg.Window <= 0 {
		cfg.Window = defaultWindow
	}

	return cfg
}

// PointOfInterest is a named map coordinate with its CTR value.
type PointOfInterest struct {
	Row int
	Col int
	CTR float64
}

// Result holds the contrast transfer ratio map.
type Result struct {
	// Map holds one CTR value per (swath start row, scan position).
	// Row i corresponds to the swath starting at image row i, so image row
	// r maps to i = r - SwathSize/2. Column j corresponds to image column
	// j + Window/2.
	Map [][]float64

	// Window and SwathSize are the analysis window width and swath height
	// the map was built with.
	Window    int
	SwathSize int

	// Width and Height are the dimensions of the analyzed frame, after
	// any orientation rotation.
	Width  int
	Height int

	// LeftLimit and RightLimit bound the usable data region, in image
	// columns (mean first/last scan position with contrast, plus the
	// configured offsets).
	LeftLimit  float64
	RightLimit float64

	// Background and StdDev are the image background counts (histogram
	// mode) and the intensity standard deviation.
	Background float64
	StdDev     float64

	// RulingPeriod is the dominant spatial period of the mid-image
	// lineout in samples, a diagnostic for the ruling pitch on the
	// sensor.
	RulingPeriod float64

	// Rotated reports that the frame was rotated 90 degrees to line the
	// ruling axis up with the rows.
	Rotated bool
}

// At returns the CTR value of the swath centered nearest to the given image
// coordinate.
func (r *Result) At(row, col int) (float64, error) {
	mapRow := row - r.SwathSize/2
	mapCol := col - r.Window/2

	if mapRow < 0 || mapRow >= len(r.Map) || mapCol < 0 || len(r.Map) == 0 || mapCol >= len(r.Map[0]) {
		return 0, fmt.Errorf("%w: (%d, %d)", ErrOutOfBounds, row, col)
	}

	return r.Map[mapRow][mapCol], nil
}

// PointsOfInterest samples the map at a 3x3 grid: rows at 1/4, 1/2 and 3/4
// of the image height, columns at 1/4, 1/2 and 3/4 of the data span.
func (r *Result) PointsOfInterest() ([]PointOfInterest, error) {
	l, rr := r.LeftLimit, r.RightLimit

	rows := []int{r.Height / 4, r.Height / 2, r.Height * 3 / 4}
	cols := []int{
		int((3*l + rr) / 4),
		int((l + rr) / 2),
		int((l + 3*rr) / 4),
	}

	out := make([]PointOfInterest, 0, 9)
	for _, row := range rows {
		for _, col := range cols {
			v, err := r.At(row, col)
			if err != nil {
				return nil, err
			}

			out = append(out, PointOfInterest{Row: row, Col: col, CTR: v})
		}
	}

	return out, nil
}

// Analyzer computes contrast transfer ratio maps.
type Analyzer struct {
	cfg Config
}

// NewAnalyzer creates an analyzer, applying defaults for zero-valued
// config fields.
func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{cfg: normalizeConfig(cfg)}
}

// Analyze is a one-shot CTR analysis of a flatfield frame.
func Analyze(f *frame.Frame, cfg Config) (*Result, error) {
	return NewAnalyzer(cfg).Analyze(f)
}

// Analyze builds the CTR map of a Ronchi-ruling flatfield. The ruling must
// run along the rows; if the mid-image lineout shows too few peaks the
// frame is rotated a quarter turn and rechecked.
func (a *Analyzer) Analyze(f *frame.Frame) (*Result, error) {
	rotated := false

	count, err := a.orientationPeaks(f)
	if err != nil {
		return nil, err
	}

	if count < a.cfg.MinPeaks {
		rf := f.Rotate90()

		rcount, rerr := a.orientationPeaks(rf)
		if rerr != nil {
			return nil, rerr
		}

		if rcount < a.cfg.MinPeaks {
			return nil, fmt.Errorf("%w: found %d (rotated %d), need %d", ErrInsufficientPeaks, count, rcount, a.cfg.MinPeaks)
		}

		f = rf
		rotated = true
	}

	samples := f.Samples()
	st := intensity.Calculate(samples)
	background := intensity.Mode(samples, histBins, 0, histMax)

	res := &Result{
		Window:     a.cfg.Window,
		Width:      f.Width(),
		Height:     f.Height(),
		Background: background,
		StdDev:     st.StdDev,
		Rotated:    rotated,
	}

	mid, err := f.SwathMean(midStart(f.Height(), orientRows), minInt(orientRows, f.Height()))
	if err != nil {
		return nil, err
	}

	res.RulingPeriod = rulingPeriod(mid)

	swath := minInt(a.cfg.SwathSize, f.Height())
	res.SwathSize = swath
	nrows := f.Height() - swath
	if nrows < 1 {
		nrows = 1
	}

	var leftSum, rightSum float64
	var limitCount int

	for i := 0; i < nrows; i++ {
		line, err := f.SwathMean(i, swath)
		if err != nil {
			return nil, err
		}

		row, first, last := a.ctrLine(line, background, st.StdDev)
		res.Map = append(res.Map, row)

		if first >= 0 {
			leftSum += float64(first)
			rightSum += float64(last)
			limitCount++
		}
	}

	if limitCount == 0 {
		return nil, fmt.Errorf("%w: no scan position shows contrast above background", ErrInsufficientPeaks)
	}

	res.LeftLimit = leftSum/float64(limitCount) + a.cfg.LeftOffset
	res.RightLimit = rightSum/float64(limitCount) + a.cfg.RightOffset

	return res, nil
}

// orientationPeaks counts ruling peaks in the mean lineout of the middle
// rows of the frame.
func (a *Analyzer) orientationPeaks(f *frame.Frame) (int, error) {
	size := minInt(orientRows, f.Height())

	line, err := f.SwathMean(midStart(f.Height(), size), size)
	if err != nil {
		return 0, err
	}

	return len(peaks.Find(line, peaks.Options{MinWidth: rulingMinWidth})), nil
}

// ctrLine computes the CTR at every scan position of one lineout. It
// returns the row of map values plus the first and last image columns with
// nonzero contrast (-1 when the whole row is empty).
func (a *Analyzer) ctrLine(line []float64, background, stdev float64) (row []float64, first, last int) {
	ps := peaks.Find(line, peaks.Options{MinWidth: rulingMinWidth})
	mins := peaks.LocalMinima(line)

	half := a.cfg.Window / 2
	first, last = -1, -1

	if len(line) <= a.cfg.Window {
		return nil, -1, -1
	}

	row = make([]float64, 0, len(line)-2*half)

	pi, mi := 0, 0
	for i := half; i < len(line)-half; i++ {
		lo, hi := i-half, i+half

		// Advance the cursors past positions that fell out of the window.
		for pi < len(ps) && ps[pi].Position <= lo {
			pi++
		}

		for mi < len(mins) && mins[mi] <= lo {
			mi++
		}

		maxPeak := 0.0
		havePeak := false
		for k := pi; k < len(ps) && ps[k].Position < hi; k++ {
			if !havePeak || ps[k].Amplitude > maxPeak {
				maxPeak = ps[k].Amplitude
				havePeak = true
			}
		}

		if !havePeak || maxPeak < background+stdev {
			row = append(row, 0)
			continue
		}

		minVal := 0.0
		haveMin := false
		for k := mi; k < len(mins) && mins[k] < hi; k++ {
			if !haveMin || line[mins[k]] < minVal {
				minVal = line[mins[k]]
				haveMin = true
			}
		}

		if !haveMin {
			row = append(row, 0)
			continue
		}

		v := (maxPeak - minVal) / (maxPeak + minVal - 2*background)
		// A ratio above 1 means the background estimate overshot the
		// trough level; record no data rather than an impossible CTR.
		if v > 1 || v < 0 {
			row = append(row, 0)
			continue
		}

		row = append(row, v)

		if first < 0 {
			first = i
		}

		last = i
	}

	return row, first, last
}

func midStart(height, size int) int {
	s := height/2 - size/2
	if s < 0 {
		return 0
	}

	return s
}

func minInt(a, b int) int {
	if a < b {
		return a
	}

	return b
}
