package bias

import (
	"errors"
	"fmt"

	"github.com/cwbudde/streakcal/frame"
	"github.com/cwbudde/streakcal/peaks"
)

// Errors returned by the bias analyzer.
var (
	ErrInsufficientPeaks = errors.New("bias: insufficient peaks")
	ErrEmptyLineout      = errors.New("bias: lineout is empty")
)

const (
	defaultMinHeight   = 5000
	defaultMinDistance = 3
	defaultNumPeaks    = 5
	defaultSwathSize   = 10
)

// Config holds peak-spacing analysis parameters.
type Config struct {
	// MinHeight is the minimum amplitude for a comb pulse to count.
	MinHeight float64

	// MinDistance is the minimum sample separation between counted pulses.
	MinDistance int

	// NumPeaks is the number of peaks counted on each side (n).
	NumPeaks int

	// SwathSize is the number of rows averaged into the lineout.
	SwathSize int

	// SkipLeft and SkipRight drop that many detected peaks at each edge
	// before counting, for combs with distorted edge pulses.
	SkipLeft  int
	SkipRight int

	// EveryN counts every n-th peak instead of consecutive ones.
	EveryN int
}

func normalizeConfig(cfg Config) Config {
	if cfg.MinHeight <= 0 {
		cfg.MinHeight = defaultMinHeight
	}

	if cfg.MinDistance <= 0 {
		cfg.MinDistance = defaultMinDistance
	}

	if cfg.NumPeaks <= 0 {
		cfg.NumPeaks = defaultNumPeaks
	}

	if cfg.SwathSize <= 0 {
		cfg.SwathSize = defaultSwathSize
	}

	if cfg.EveryN <= 0 {
		cfg.EveryN = 1
	}

	return cfg
}

// required returns the minimum detected peak count for the configuration.
func (c Config) required() int {
	return 2*c.NumPeaks*c.EveryN + c.SkipLeft + c.SkipRight
}

// Result holds the sweep-linearity measurement.
type Result struct {
	// Lineout is the swath-mean intensity profile the peaks were found in.
	Lineout []float64

	// SwathStart and SwathSize give the row range of the lineout.
	SwathStart int
	SwathSize  int

	// Rotated reports that the frame was rotated 90 degrees before a
	// usable lineout was found.
	Rotated bool

	// Peaks are all detected peaks; Counted are the ones used for the
	// spacing measurement, ordered by position.
	Peaks   []peaks.Peak
	Counted []peaks.Peak

	// FirstSpacing and LastSpacing are the mean consecutive spacings of
	// the first-n and last-n counted peaks.
	FirstSpacing float64
	LastSpacing  float64

	// Delta = LastSpacing - FirstSpacing. Near zero indicates a linear
	// sweep; positive means the spacing grows along the sweep.
	Delta float64

	// EdgeLeft and EdgeRight are the distances from the lineout edges to
	// the outermost counted peaks.
	EdgeLeft  int
	EdgeRight int
}

// Analyzer performs peak-spacing analysis of comb-pulse images.
type Analyzer struct {
	cfg Config
}

// NewAnalyzer creates an analyzer, applying defaults for zero-valued
// config fields.
func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{cfg: normalizeConfig(cfg)}
}

// Analyze is a one-shot analysis of a comb-pulse frame.
func Analyze(f *frame.Frame, cfg Config) (Result, error) {
	return NewAnalyzer(cfg).Analyze(f)
}

// Analyze locates the best swath lineout of the frame and measures the
// comb-pulse spacing on it. If no swath of the frame holds enough peaks the
// frame is rotated a quarter turn and searched again, handling images
// recorded with the sweep axis vertical.
func (a *Analyzer) Analyze(f *frame.Frame) (Result, error) {
	start, found, err := a.bestSwath(f)
	rotated := false

	if err != nil {
		rf := f.Rotate90()

		var rerr error
		start, _, rerr = a.bestSwath(rf)
		if rerr != nil {
			return Result{}, fmt.Errorf("%w: best swath holds %d, need %d", ErrInsufficientPeaks, found, a.cfg.required())
		}

		f = rf
		rotated = true
	}

	size := a.swathSize(f)

	line, err := f.SwathMean(start, size)
	if err != nil {
		return Result{}, err
	}

	res, err := a.AnalyzeLineout(line)
	if err != nil {
		return Result{}, err
	}

	res.SwathStart = start
	res.SwathSize = size
	res.Rotated = rotated

	return res, nil
}

// AnalyzeLineout measures comb-pulse spacing on a precomputed lineout.
func (a *Analyzer) AnalyzeLineout(line []float64) (Result, error) {
	if len(line) == 0 {
		return Result{}, ErrEmptyLineout
	}

	cfg := a.cfg

	all := peaks.Find(line, peaks.Options{
		MinHeight:   cfg.MinHeight,
		MinDistance: cfg.MinDistance,
	})

	if len(all) < cfg.required() {
		return Result{}, fmt.Errorf("%w: found %d, need %d", ErrInsufficientPeaks, len(all), cfg.required())
	}

	n, step := cfg.NumPeaks, cfg.EveryN

	// First-n counted peaks, left to right.
	first := make([]peaks.Peak, n)
	for k := 0; k < n; k++ {
		idx := cfg.SkipLeft + k*step
		if idx >= len(all) {
			return Result{}, fmt.Errorf("%w: skip/stride runs past %d detected peaks", ErrInsufficientPeaks, len(all))
		}

		first[k] = all[idx]
	}

	// Last-n counted peaks, left to right.
	last := make([]peaks.Peak, n)
	for k := 0; k < n; k++ {
		idx := len(all) - 1 - cfg.SkipRight - (n-1-k)*step
		if idx < 0 {
			return Result{}, fmt.Errorf("%w: skip/stride runs past %d detected peaks", ErrInsufficientPeaks, len(all))
		}

		last[k] = all[idx]
	}

	res := Result{
		Lineout:      line,
		SwathSize:    1,
		Peaks:        all,
		Counted:      append(append([]peaks.Peak{}, first...), last...),
		FirstSpacing: meanSpacing(first),
		LastSpacing:  meanSpacing(last),
		EdgeLeft:     first[0].Position,
		EdgeRight:    len(line) - 1 - last[n-1].Position,
	}
	res.Delta = res.LastSpacing - res.FirstSpacing

	return res, nil
}

// bestSwath slides a swath window down the frame and returns the start row
// with the most detected peaks, provided it meets the required count.
func (a *Analyzer) bestSwath(f *frame.Frame) (start, found int, err error) {
	cfg := a.cfg
	size := a.swathSize(f)

	best, bestCount := -1, 0
	for i := 0; i+size <= f.Height(); i++ {
		line, serr := f.SwathMean(i, size)
		if serr != nil {
			return 0, 0, serr
		}

		count := len(peaks.Find(line, peaks.Options{
			MinHeight:   cfg.MinHeight,
			MinDistance: cfg.MinDistance,
		}))

		if count > bestCount {
			best, bestCount = i, count
		}
	}

	if best < 0 || bestCount < cfg.required() {
		return 0, bestCount, fmt.Errorf("%w: best swath holds %d, need %d", ErrInsufficientPeaks, bestCount, cfg.required())
	}

	return best, bestCount, nil
}

func (a *Analyzer) swathSize(f *frame.Frame) int {
	if a.cfg.SwathSize > f.Height() {
		return f.Height()
	}

	return a.cfg.SwathSize
}

func meanSpacing(ps []peaks.Peak) float64 {
	if len(ps) < 2 {
		return 0
	}

	var sum float64
	for i := 1; i < len(ps); i++ {
		sum += float64(ps[i].Position - ps[i-1].Position)
	}

	return sum / float64(len(ps)-1)
}
