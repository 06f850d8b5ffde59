package intensity

import (
	"math"
	"testing"
)

func TestCalculateKnownValues(t *testing.T) {
	s := Calculate([]float64{1, 2, 3, 4})

	if s.Length != 4 {
		t.Fatalf("Length = %d, want 4", s.Length)
	}
	if math.Abs(s.Mean-2.5) > 1e-12 {
		t.Fatalf("Mean = %v, want 2.5", s.Mean)
	}
	if s.Min != 1 || s.MinPos != 0 {
		t.Fatalf("Min = %v at %d, want 1 at 0", s.Min, s.MinPos)
	}
	if s.Max != 4 || s.MaxPos != 3 {
		t.Fatalf("Max = %v at %d, want 4 at 3", s.Max, s.MaxPos)
	}
	if s.Range != 3 {
		t.Fatalf("Range = %v, want 3", s.Range)
	}
	if math.Abs(s.Variance-1.25) > 1e-12 {
		t.Fatalf("Variance = %v, want 1.25", s.Variance)
	}
	if math.Abs(s.StdDev-math.Sqrt(1.25)) > 1e-12 {
		t.Fatalf("StdDev = %v, want %v", s.StdDev, math.Sqrt(1.25))
	}
}

func TestCalculateEmpty(t *testing.T) {
	s := Calculate(nil)
	if s.Length != 0 || s.Mean != 0 || s.StdDev != 0 {
		t.Fatalf("empty stats not zero-valued: %+v", s)
	}
}

func TestMeanMatchesCalculate(t *testing.T) {
	data := []float64{3.25, -1.5, 12, 0.125, 7}
	if got, want := Mean(data), Calculate(data).Mean; math.Abs(got-want) > 1e-12 {
		t.Fatalf("Mean = %v, Calculate.Mean = %v", got, want)
	}
}

func TestModeFindsDominantBin(t *testing.T) {
	// 60 background samples near 500, 20 signal samples near 8000.
	var data []float64
	for i := 0; i < 60; i++ {
		data = append(data, 500+float64(i%5))
	}
	for i := 0; i < 20; i++ {
		data = append(data, 8000+float64(i%7))
	}

	// 100 bins over [0, 10000): 100-count bins, background lands in bin 5.
	got := Mode(data, 100, 0, 10000)
	if got != 500 {
		t.Fatalf("Mode = %v, want 500", got)
	}
}

func TestModeClampsOutliers(t *testing.T) {
	data := []float64{-50, -20, -10, 900000, 5}
	// All negatives clamp into bin 0.
	got := Mode(data, 10, 0, 100)
	if got != 0 {
		t.Fatalf("Mode = %v, want 0", got)
	}
}

func TestModeDegenerateArgs(t *testing.T) {
	if got := Mode(nil, 10, 0, 100); got != 0 {
		t.Fatalf("Mode(nil) = %v, want 0", got)
	}
	if got := Mode([]float64{1}, 0, 0, 100); got != 0 {
		t.Fatalf("Mode with no bins = %v, want 0", got)
	}
	if got := Mode([]float64{1}, 10, 5, 5); got != 0 {
		t.Fatalf("Mode with empty range = %v, want 0", got)
	}
}
