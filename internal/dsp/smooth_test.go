package dsp

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
)

func TestGaussianKernel(t *testing.T) {
	tests := []struct {
		name       string
		sigma      float64
		wantLength int
	}{
		{"identity for zero sigma", 0, 1},
		{"sigma 1", 1, 9},
		{"sigma 5", 5, 41},
		{"fractional sigma rounds radius", 1.2, 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := GaussianKernel(tt.sigma)
			if len(k) != tt.wantLength {
				t.Fatalf("expected %d taps, got %d", tt.wantLength, len(k))
			}
			if sum := floats.Sum(k); math.Abs(sum-1) > 1e-12 {
				t.Errorf("kernel sums to %v", sum)
			}
			for i := range k {
				if k[i] != k[len(k)-1-i] {
					t.Fatalf("kernel not symmetric at %d", i)
				}
			}
		})
	}
}

func TestReflectIndex(t *testing.T) {
	// d c b a | a b c d | d c b a
	n := 4
	tests := map[int]int{
		-1: 0, -2: 1, -4: 3, -5: 3,
		0: 0, 3: 3,
		4: 3, 5: 2, 7: 0, 8: 0,
	}
	for in, want := range tests {
		if got := reflectIndex(in, n); got != want {
			t.Errorf("reflectIndex(%d, %d) = %d, expected %d", in, n, got, want)
		}
	}
}

func TestGaussianFilter1D(t *testing.T) {
	t.Run("constant is preserved", func(t *testing.T) {
		x := []float64{3, 3, 3, 3, 3}
		for i, v := range GaussianFilter1D(x, 5) {
			if math.Abs(v-3) > 1e-12 {
				t.Errorf("sample %d: expected 3, got %v", i, v)
			}
		}
	})

	t.Run("zero sigma copies", func(t *testing.T) {
		x := []float64{1, 5, 2}
		out := GaussianFilter1D(x, 0)
		out[0] = 9
		if x[0] != 1 {
			t.Fatal("output aliases input")
		}
		if out[1] != 5 || out[2] != 2 {
			t.Errorf("unexpected output %v", out)
		}
	})

	t.Run("impulse spreads and keeps area", func(t *testing.T) {
		x := make([]float64, 101)
		x[50] = 1
		out := GaussianFilter1D(x, 3)
		if math.Abs(floats.Sum(out)-1) > 1e-12 {
			t.Errorf("area changed: %v", floats.Sum(out))
		}
		if floats.MaxIdx(out) != 50 {
			t.Errorf("peak moved to %d", floats.MaxIdx(out))
		}
		if out[50] >= 1 || out[47] <= 0 {
			t.Errorf("impulse not smoothed: centre %v, neighbour %v", out[50], out[47])
		}
	})

	t.Run("empty", func(t *testing.T) {
		if out := GaussianFilter1D(nil, 2); len(out) != 0 {
			t.Errorf("expected empty output, got %v", out)
		}
	})
}

func TestMinMaxNormalize(t *testing.T) {
	out, ok := MinMaxNormalize([]float64{2, 4, 6})
	if !ok {
		t.Fatal("expected normalization to succeed")
	}
	want := []float64{0, 0.5, 1}
	for i := range want {
		if math.Abs(out[i]-want[i]) > 1e-12 {
			t.Errorf("sample %d: expected %v, got %v", i, want[i], out[i])
		}
	}

	if _, ok := MinMaxNormalize([]float64{7, 7, 7}); ok {
		t.Error("constant input should not normalize")
	}
	if _, ok := MinMaxNormalize(nil); ok {
		t.Error("empty input should not normalize")
	}
}
