package dsp

import (
	"math"
	"slices"
	"testing"
)

func TestLocalMaxima(t *testing.T) {
	tests := []struct {
		name string
		x    []float64
		want []int
	}{
		{"simple", []float64{0, 2, 1, 3, 0, 1, 0}, []int{1, 3, 5}},
		{"plateau resolves to midpoint", []float64{0, 1, 2, 2, 2, 1}, []int{3}},
		{"even plateau rounds down", []float64{0, 2, 2, 0}, []int{1}},
		{"plateau running into the edge", []float64{0, 1, 1}, nil},
		{"boundaries are never peaks", []float64{3, 1, 2}, nil},
		{"monotonic rise", []float64{0, 1, 2, 3, 4}, nil},
		{"flat", []float64{1, 1, 1, 1}, nil},
		{"too short", []float64{1, 2}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LocalMaxima(tt.x)
			if !slices.Equal(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestProminences(t *testing.T) {
	x := []float64{0, 2, 1, 3, 0, 1, 0}
	got := Prominences(x, []int{1, 3, 5})
	want := []Peak{
		{Index: 1, Prominence: 1, LeftBase: 0, RightBase: 2},
		{Index: 3, Prominence: 3, LeftBase: 0, RightBase: 4},
		{Index: 5, Prominence: 1, LeftBase: 4, RightBase: 6},
	}
	if !slices.Equal(got, want) {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestFindPeaksProminenceThreshold(t *testing.T) {
	x := []float64{0, 0.5, 0.495, 1, 0, 0.3, 0}

	got := FindPeaks(x, 0.01)
	var idx []int
	for _, p := range got {
		idx = append(idx, p.Index)
	}
	if !slices.Equal(idx, []int{3, 5}) {
		t.Errorf("expected peaks [3 5], got %v", idx)
	}

	if n := len(FindPeaks(x, 0)); n != 3 {
		t.Errorf("zero threshold should keep every local maximum, got %d", n)
	}
}

func TestWidths(t *testing.T) {
	x := []float64{0, 2, 1, 3, 0, 1, 0}
	peaks := Prominences(x, []int{3})
	w := Widths(x, peaks, 0.5)[0]

	if w.Height != 1.5 {
		t.Errorf("height: expected 1.5, got %v", w.Height)
	}
	if math.Abs(w.Left-2.25) > 1e-12 || math.Abs(w.Right-3.5) > 1e-12 {
		t.Errorf("bounds: expected [2.25, 3.5], got [%v, %v]", w.Left, w.Right)
	}
	if math.Abs(w.Width-1.25) > 1e-12 {
		t.Errorf("width: expected 1.25, got %v", w.Width)
	}
}

func TestWidthsGaussianFWHM(t *testing.T) {
	const sigma = 10.0
	x := make([]float64, 201)
	for i := range x {
		d := float64(i-100) / sigma
		x[i] = math.Exp(-0.5 * d * d)
	}

	peaks := FindPeaks(x, 0.01)
	if len(peaks) != 1 {
		t.Fatalf("expected one peak, got %d", len(peaks))
	}
	w := Widths(x, peaks, 0.5)[0]

	fwhm := 2 * math.Sqrt(2*math.Ln2) * sigma
	if math.Abs(w.Width-fwhm) > 0.1 {
		t.Errorf("FWHM: expected %.3f, got %.3f", fwhm, w.Width)
	}
	if !(w.Left <= 100 && 100 <= w.Right) {
		t.Errorf("peak 100 outside [%v, %v]", w.Left, w.Right)
	}
}
