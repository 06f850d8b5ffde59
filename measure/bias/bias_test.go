package bias

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/streakcal/internal/testutil"
)

func TestAnalyzeUniformComb(t *testing.T) {
	positions := testutil.UniformCombPositions(10, 10, 19) // 10, 20, ..., 190
	line := testutil.CombLineout(200, positions, 1.5, 10000)
	frm := testutil.FrameFromLineout(line, 40)

	res, err := Analyze(frm, Config{NumPeaks: 3})
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Peaks) != len(positions) {
		t.Fatalf("detected %d peaks, want %d", len(res.Peaks), len(positions))
	}

	for i, p := range res.Peaks {
		if p.Position != positions[i] {
			t.Fatalf("peak %d at %d, want %d", i, p.Position, positions[i])
		}
	}

	if math.Abs(res.Delta) > 1e-9 {
		t.Fatalf("Delta = %v, want ~0 for a uniform comb", res.Delta)
	}

	if math.Abs(res.FirstSpacing-10) > 1e-9 || math.Abs(res.LastSpacing-10) > 1e-9 {
		t.Fatalf("spacings = %v / %v, want 10 / 10", res.FirstSpacing, res.LastSpacing)
	}

	if res.EdgeLeft != 10 || res.EdgeRight != 199-190 {
		t.Fatalf("edges = %d / %d, want 10 / 9", res.EdgeLeft, res.EdgeRight)
	}

	if res.Rotated {
		t.Fatal("uniform horizontal comb should not need rotation")
	}

	testutil.RequireFinite(t, res.Lineout)
}

func TestAnalyzeDriftingComb(t *testing.T) {
	positions := testutil.DriftCombPositions(10, 10, 15, 0.5)
	length := positions[len(positions)-1] + 20
	line := testutil.CombLineout(length, positions, 1.5, 10000)
	frm := testutil.FrameFromLineout(line, 20)

	const n = 4

	res, err := Analyze(frm, Config{NumPeaks: n})
	if err != nil {
		t.Fatal(err)
	}

	// Expected metric straight from the synthetic positions.
	first := meanGap(positions[:n])
	last := meanGap(positions[len(positions)-n:])
	want := last - first

	if math.Abs(res.Delta-want) > 1e-9 {
		t.Fatalf("Delta = %v, want %v", res.Delta, want)
	}

	if res.Delta <= 0 {
		t.Fatalf("Delta = %v, want positive for spacing growing along the sweep", res.Delta)
	}
}

func meanGap(positions []int) float64 {
	var sum float64
	for i := 1; i < len(positions); i++ {
		sum += float64(positions[i] - positions[i-1])
	}

	return sum / float64(len(positions)-1)
}

func TestAnalyzeFlatImageFails(t *testing.T) {
	frm := testutil.FlatFrame(200, 40, 100)

	_, err := Analyze(frm, Config{NumPeaks: 3})
	if !errors.Is(err, ErrInsufficientPeaks) {
		t.Fatalf("expected ErrInsufficientPeaks, got %v", err)
	}
}

func TestAnalyzeRotatedComb(t *testing.T) {
	positions := testutil.UniformCombPositions(10, 10, 19)
	line := testutil.CombLineout(200, positions, 1.5, 10000)
	frm := testutil.FrameFromLineout(line, 40).Rotate90()

	res, err := Analyze(frm, Config{NumPeaks: 3})
	if err != nil {
		t.Fatal(err)
	}

	if !res.Rotated {
		t.Fatal("expected the analyzer to rotate a vertical comb")
	}

	if math.Abs(res.Delta) > 1e-9 {
		t.Fatalf("Delta = %v, want ~0", res.Delta)
	}
}

func TestAnalyzeSkipAndStride(t *testing.T) {
	positions := testutil.UniformCombPositions(10, 10, 19)
	line := testutil.CombLineout(200, positions, 1.5, 10000)
	frm := testutil.FrameFromLineout(line, 20)

	res, err := Analyze(frm, Config{NumPeaks: 3, SkipLeft: 2, SkipRight: 1, EveryN: 2})
	if err != nil {
		t.Fatal(err)
	}

	// Counted on the left: peaks 2, 4, 6 -> spacing 20.
	if math.Abs(res.FirstSpacing-20) > 1e-9 {
		t.Fatalf("FirstSpacing = %v, want 20", res.FirstSpacing)
	}

	// Counted on the right: peaks 13, 15, 17 -> spacing 20.
	if math.Abs(res.LastSpacing-20) > 1e-9 {
		t.Fatalf("LastSpacing = %v, want 20", res.LastSpacing)
	}

	if res.Counted[0].Position != positions[2] {
		t.Fatalf("first counted peak at %d, want %d", res.Counted[0].Position, positions[2])
	}
}

func TestAnalyzeTooManySkipped(t *testing.T) {
	positions := testutil.UniformCombPositions(10, 10, 8)
	line := testutil.CombLineout(120, positions, 1.5, 10000)
	frm := testutil.FrameFromLineout(line, 20)

	_, err := Analyze(frm, Config{NumPeaks: 3, SkipLeft: 5})
	if !errors.Is(err, ErrInsufficientPeaks) {
		t.Fatalf("expected ErrInsufficientPeaks, got %v", err)
	}
}

func TestAnalyzeLineoutDirect(t *testing.T) {
	// The end-to-end acceptance case: peaks at 10, 20, ..., 190 with
	// uniform 10-unit spacing and n=3.
	positions := testutil.UniformCombPositions(10, 10, 19)
	line := testutil.CombLineout(200, positions, 1.5, 10000)

	res, err := NewAnalyzer(Config{NumPeaks: 3}).AnalyzeLineout(line)
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(res.Delta) > 1e-9 {
		t.Fatalf("Delta = %v, want ~0", res.Delta)
	}

	if len(res.Counted) != 6 {
		t.Fatalf("counted %d peaks, want 6", len(res.Counted))
	}
}

func TestAnalyzeLineoutEmpty(t *testing.T) {
	_, err := NewAnalyzer(Config{}).AnalyzeLineout(nil)
	if !errors.Is(err, ErrEmptyLineout) {
		t.Fatalf("expected ErrEmptyLineout, got %v", err)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := normalizeConfig(Config{})

	if cfg.MinHeight != defaultMinHeight || cfg.MinDistance != defaultMinDistance ||
		cfg.NumPeaks != defaultNumPeaks || cfg.SwathSize != defaultSwathSize || cfg.EveryN != 1 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}
