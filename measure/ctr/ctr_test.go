package ctr

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/streakcal/frame"
	"github.com/cwbudde/streakcal/internal/testutil"
)

// rulingFrame builds a flatfield whose middle columns carry a sinusoidal
// ruling on dark margins. The margins keep the histogram-mode background at
// zero, so the ideal CTR of the pattern is close to amplitude/offset.
func rulingFrame(width, height, left, right, period int, offset, amplitude float64) *frame.Frame {
	line := make([]float64, width)
	for x := left; x < right; x++ {
		line[x] = offset + amplitude*math.Sin(2*math.Pi*float64(x)/float64(period))
	}

	return testutil.FrameFromLineout(line, height)
}

func TestAnalyzeSineRuling(t *testing.T) {
	// Period 11 keeps sample phases off the extrema plateaus, so every
	// ruling line has a strict maximum and minimum.
	f := rulingFrame(800, 120, 100, 700, 11, 1000, 500)

	res, err := Analyze(f, Config{})
	if err != nil {
		t.Fatal(err)
	}

	if res.Rotated {
		t.Fatal("horizontal ruling should not need rotation")
	}

	if res.Background != 0 {
		t.Fatalf("Background = %v, want 0 for dark margins", res.Background)
	}

	if math.Abs(res.RulingPeriod-11) > 0.2 {
		t.Fatalf("RulingPeriod = %v, want ~11", res.RulingPeriod)
	}

	if res.LeftLimit < 80 || res.LeftLimit > 140 {
		t.Fatalf("LeftLimit = %v, want near the ruling start at 100", res.LeftLimit)
	}

	if res.RightLimit < 660 || res.RightLimit > 720 {
		t.Fatalf("RightLimit = %v, want near the ruling end at 700", res.RightLimit)
	}

	pois, err := res.PointsOfInterest()
	if err != nil {
		t.Fatal(err)
	}

	if len(pois) != 9 {
		t.Fatalf("got %d points of interest, want 9", len(pois))
	}

	for _, poi := range pois {
		if math.Abs(poi.CTR-0.5) > 0.02 {
			t.Fatalf("CTR at (%d, %d) = %v, want ~0.5", poi.Row, poi.Col, poi.CTR)
		}
	}
}

func TestAnalyzeRotatedRuling(t *testing.T) {
	f := rulingFrame(800, 120, 100, 700, 11, 1000, 500).Rotate90()

	res, err := Analyze(f, Config{})
	if err != nil {
		t.Fatal(err)
	}

	if !res.Rotated {
		t.Fatal("expected the analyzer to rotate a vertical ruling")
	}

	pois, err := res.PointsOfInterest()
	if err != nil {
		t.Fatal(err)
	}

	for _, poi := range pois {
		if math.Abs(poi.CTR-0.5) > 0.02 {
			t.Fatalf("CTR at (%d, %d) = %v, want ~0.5", poi.Row, poi.Col, poi.CTR)
		}
	}
}

func TestAnalyzeFlatImageFails(t *testing.T) {
	f := testutil.FlatFrame(300, 120, 1000)

	_, err := Analyze(f, Config{})
	if !errors.Is(err, ErrInsufficientPeaks) {
		t.Fatalf("expected ErrInsufficientPeaks, got %v", err)
	}
}

func TestResultAtMapping(t *testing.T) {
	res := &Result{
		Map:       [][]float64{{0.1, 0.2}, {0.3, 0.4}},
		Window:    40,
		SwathSize: 10,
	}

	// Image coordinate (5, 21) is map cell (0, 1).
	v, err := res.At(5, 21)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0.2 {
		t.Fatalf("At(5, 21) = %v, want 0.2", v)
	}

	for _, c := range [][2]int{{4, 21}, {7, 21}, {5, 19}, {5, 22}, {-1, 21}} {
		if _, err := res.At(c[0], c[1]); !errors.Is(err, ErrOutOfBounds) {
			t.Fatalf("At(%d, %d): expected ErrOutOfBounds, got %v", c[0], c[1], err)
		}
	}
}

func TestRulingPeriodPureSine(t *testing.T) {
	line := make([]float64, 256)
	for i := range line {
		line[i] = 100 + 50*math.Sin(2*math.Pi*float64(i)/16)
	}

	if got := rulingPeriod(line); math.Abs(got-16) > 1e-9 {
		t.Fatalf("rulingPeriod = %v, want 16", got)
	}
}

func TestRulingPeriodDegenerate(t *testing.T) {
	if got := rulingPeriod(nil); got != 0 {
		t.Fatalf("rulingPeriod(nil) = %v, want 0", got)
	}

	if got := rulingPeriod(make([]float64, 64)); got != 0 {
		t.Fatalf("rulingPeriod(flat) = %v, want 0", got)
	}
}
