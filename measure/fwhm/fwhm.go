package fwhm

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/streakcal/fit"
	"github.com/cwbudde/streakcal/frame"
	"github.com/cwbudde/streakcal/peaks"
	"github.com/cwbudde/streakcal/stats/intensity"
)

// Errors returned by the FWHM profiler.
var (
	ErrInsufficientData = errors.New("fwhm: insufficient valid fits")
	ErrOutOfBounds      = errors.New("fwhm: swath outside data bounds")
)

const (
	defaultCutoff       = 2000
	defaultMinWidth     = 5
	defaultSwathSize    = 40
	defaultMinValidFits = 5

	// Initial sigma guess for the row fits, in samples.
	seedSigma = 5

	// Rows of consecutive valid fits that mark the start and end of the
	// usable data region.
	edgeRun = 5

	// Histogram used for the background estimate.
	histBins = 100
	histMax  = 65000
)

// Config holds FWHM profiling parameters.
type Config struct {
	// Cutoff is the minimum peak intensity (after background
	// subtraction) for a row to be fit.
	Cutoff float64

	// MinWidth is the minimum peak width, in samples, for a row's peak
	// to be considered a slit profile rather than a noise spike.
	MinWidth float64

	// SwathSize is the number of rows averaged per point of interest.
	SwathSize int

	// MinValidFits is the minimum number of valid row fits a swath must
	// contain for its average to be reported.
	MinValidFits int

	// AllOffset shifts all three swath centers; the per-swath offsets
	// shift them individually.
	AllOffset          int
	QuarterOffset      int
	HalfOffset         int
	ThreeQuarterOffset int
}

func normalizeConfig(cfg Config) Config {
	if cfg.Cutoff <= 0 {
		cfg.Cutoff = defaultCutoff
	}

	if cfg.MinWidth <= 0 {
		cfg.MinWidth = defaultMinWidth
	}

	if cfg.SwathSize <= 0 {
		cfg.SwathSize = defaultSwathSize
	}

	if cfg.MinValidFits <= 0 {
		cfg.MinValidFits = defaultMinValidFits
	}

	return cfg
}

// RowFit is the outcome of one row's Gaussian fit.
type RowFit struct {
	Row   int
	FWHM  float64
	Valid bool

	// Reason explains exclusion for invalid rows.
	Reason string
}

// SwathAverage is the mean FWHM over a band of rows centered at a spatial
// fraction of the data extent.
type SwathAverage struct {
	Fraction float64
	Center   int
	FWHM     float64
	Count    int
}

// Result holds the per-row profile and the swath-averaged measurements.
type Result struct {
	// Rows holds one entry per image row.
	Rows []RowFit

	// Start and End bound the usable data region (first and last run of
	// consecutive valid fits).
	Start int
	End   int

	// Swaths holds the 25%, 50% and 75% swath averages.
	Swaths [3]SwathAverage

	// Background is the subtracted background estimate.
	Background float64

	// ValidCount and StdDev summarize the valid row fits.
	ValidCount int
	StdDev     float64

	// Rotated reports that the frame was rotated 90 degrees to line the
	// slit up with the rows.
	Rotated bool
}

// Sequence returns the per-row FWHM with NaN for invalid rows, for
// plotting.
func (r *Result) Sequence() []float64 {
	out := make([]float64, len(r.Rows))
	for i, rf := range r.Rows {
		if rf.Valid {
			out[i] = rf.FWHM
		} else {
			out[i] = math.NaN()
		}
	}

	return out
}

// Analyzer profiles slit images row by row.
type Analyzer struct {
	cfg Config
}

// NewAnalyzer creates an analyzer, applying defaults for zero-valued
// config fields.
func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{cfg: normalizeConfig(cfg)}
}

// Analyze is a one-shot FWHM profile of a slit frame.
func Analyze(f *frame.Frame, cfg Config) (*Result, error) {
	return NewAnalyzer(cfg).Analyze(f)
}

// Analyze fits every row of the frame and aggregates swath averages at the
// three spatial fractions. If fewer than half the rows fit, the slit is
// assumed to run vertically: the frame is rotated a quarter turn and
// reprocessed.
func (a *Analyzer) Analyze(f *frame.Frame) (*Result, error) {
	background := intensity.Mode(f.Samples(), histBins, 0, histMax)

	rows := a.fitRows(f.SubtractOffset(background))
	rotated := false

	if countValid(rows) < len(rows)/2 {
		rf := f.Rotate90()
		rrows := a.fitRows(rf.SubtractOffset(background))

		if countValid(rrows) < len(rrows)/2 {
			return nil, fmt.Errorf("%w: %d of %d rows fit", ErrInsufficientData, countValid(rows), len(rows))
		}

		rows = rrows
		rotated = true
	}

	start, end, ok := dataBounds(rows)
	if !ok {
		return nil, fmt.Errorf("%w: no run of %d consecutive valid rows", ErrInsufficientData, edgeRun)
	}

	res := &Result{
		Rows:       rows,
		Start:      start,
		End:        end,
		Background: background,
		ValidCount: countValid(rows),
		StdDev:     validStdDev(rows),
		Rotated:    rotated,
	}

	centers := [3]int{
		(3*start + end) / 4,
		(start + end) / 2,
		(start + 3*end) / 4,
	}
	offsets := [3]int{
		a.cfg.QuarterOffset + a.cfg.AllOffset,
		a.cfg.HalfOffset + a.cfg.AllOffset,
		a.cfg.ThreeQuarterOffset + a.cfg.AllOffset,
	}
	fractions := [3]float64{0.25, 0.5, 0.75}

	for i := range centers {
		center := centers[i] + offsets[i]
		if center < start || center >= end {
			return nil, fmt.Errorf("%w: swath center %d outside [%d, %d)", ErrOutOfBounds, center, start, end)
		}

		avg, count, err := a.swathAverage(rows, center)
		if err != nil {
			return nil, err
		}

		res.Swaths[i] = SwathAverage{
			Fraction: fractions[i],
			Center:   center,
			FWHM:     avg,
			Count:    count,
		}
	}

	return res, nil
}

// fitRows fits a Gaussian to every row of the background-subtracted frame.
func (a *Analyzer) fitRows(f *frame.Frame) []RowFit {
	out := make([]RowFit, f.Height())

	for r := 0; r < f.Height(); r++ {
		out[r] = a.fitRow(r, f.Row(r))
	}

	return out
}

func (a *Analyzer) fitRow(row int, line []float64) RowFit {
	found := peaks.Find(line, peaks.Options{
		MinHeight: a.cfg.Cutoff,
		MinWidth:  a.cfg.MinWidth,
	})

	switch {
	case len(found) == 0:
		return RowFit{Row: row, Reason: "no signal above cutoff"}
	case len(found) > 1:
		return RowFit{Row: row, Reason: fmt.Sprintf("%d peaks, want 1", len(found))}
	}

	res := fit.GaussianFit(line, fit.Gaussian{
		Amplitude: found[0].Amplitude,
		Center:    float64(found[0].Position),
		Sigma:     seedSigma,
	})

	if !res.Converged {
		return RowFit{Row: row, Reason: res.Reason.String()}
	}

	return RowFit{Row: row, FWHM: res.FWHM(), Valid: true}
}

// swathAverage averages the valid FWHM values within half a swath of
// center.
func (a *Analyzer) swathAverage(rows []RowFit, center int) (float64, int, error) {
	half := a.cfg.SwathSize / 2

	var sum float64
	var count int

	for r := center - half; r < center+half; r++ {
		if r < 0 || r >= len(rows) || !rows[r].Valid {
			continue
		}

		sum += rows[r].FWHM
		count++
	}

	if count < a.cfg.MinValidFits {
		return 0, count, fmt.Errorf("%w: %d valid fits near row %d, need %d", ErrInsufficientData, count, center, a.cfg.MinValidFits)
	}

	return sum / float64(count), count, nil
}

func countValid(rows []RowFit) int {
	n := 0
	for _, r := range rows {
		if r.Valid {
			n++
		}
	}

	return n
}

// dataBounds finds the first and last runs of edgeRun consecutive valid
// rows.
func dataBounds(rows []RowFit) (start, end int, ok bool) {
	run := 0
	start = -1
	for i, r := range rows {
		if r.Valid {
			run++
		} else {
			run = 0
		}

		if run == edgeRun {
			start = i
			break
		}
	}

	run = 0
	end = -1
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].Valid {
			run++
		} else {
			run = 0
		}

		if run == edgeRun {
			end = i
			break
		}
	}

	return start, end, start >= 0 && end >= 0 && start < end
}

func validStdDev(rows []RowFit) float64 {
	vals := make([]float64, 0, len(rows))
	for _, r := range rows {
		if r.Valid {
			vals = append(vals, r.FWHM)
		}
	}

	return intensity.Calculate(vals).StdDev
}
