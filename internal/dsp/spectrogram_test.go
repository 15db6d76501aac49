package dsp

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
)

func tone(freq, rate float64, n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = math.Sin(2 * math.Pi * freq * float64(i) / rate)
	}
	return x
}

func TestComputeSpectrogramAxes(t *testing.T) {
	spec, err := ComputeSpectrogram(tone(5, 100, 1000), 100, SpectrogramOptions{})
	if err != nil {
		t.Fatalf("ComputeSpectrogram: %v", err)
	}

	// 256-sample segments stepping by 224.
	if len(spec.Times) != 4 {
		t.Fatalf("expected 4 time bins, got %d", len(spec.Times))
	}
	if math.Abs(spec.Times[0]-1.28) > 1e-12 || math.Abs(spec.Times[1]-3.52) > 1e-12 {
		t.Errorf("unexpected time axis %v", spec.Times)
	}
	if math.Abs(spec.BinWidth()-2.24) > 1e-12 {
		t.Errorf("BinWidth = %v, expected 2.24", spec.BinWidth())
	}
	if len(spec.Freqs) != 129 || spec.Freqs[128] != 50 {
		t.Errorf("expected 129 bins up to 50 Hz, got %d ending at %v", len(spec.Freqs), spec.Freqs[len(spec.Freqs)-1])
	}
	for k := range spec.Power {
		if len(spec.Power[k]) != len(spec.Times) {
			t.Fatalf("row %d has %d columns", k, len(spec.Power[k]))
		}
	}
}

func TestComputeSpectrogramLocatesTone(t *testing.T) {
	spec, err := ComputeSpectrogram(tone(5, 100, 2000), 100, SpectrogramOptions{})
	if err != nil {
		t.Fatalf("ComputeSpectrogram: %v", err)
	}

	column := make([]float64, len(spec.Freqs))
	for k := range spec.Freqs {
		column[k] = spec.Power[k][2]
	}
	peak := spec.Freqs[floats.MaxIdx(column)]
	if math.Abs(peak-5) > 100.0/256 {
		t.Errorf("expected the dominant frequency near 5 Hz, got %.3f", peak)
	}
}

func TestComputeSpectrogramShortSignal(t *testing.T) {
	spec, err := ComputeSpectrogram(tone(1, 10, 100), 10, SpectrogramOptions{})
	if err != nil {
		t.Fatalf("ComputeSpectrogram: %v", err)
	}
	if len(spec.Times) != 1 {
		t.Errorf("segment should clamp to the signal, got %d bins", len(spec.Times))
	}
	if spec.BinWidth() != 0 {
		t.Errorf("single bin should have zero width")
	}
}

func TestComputeSpectrogramErrors(t *testing.T) {
	if _, err := ComputeSpectrogram(nil, 10, SpectrogramOptions{}); !errors.Is(err, ErrEmptySignal) {
		t.Errorf("expected ErrEmptySignal, got %v", err)
	}
	if _, err := ComputeSpectrogram(tone(1, 10, 100), 10, SpectrogramOptions{SegmentLength: 16, Overlap: 16}); err == nil {
		t.Error("expected an error when overlap equals the segment length")
	}
}

func TestMaxPowerOfSilence(t *testing.T) {
	spec, err := ComputeSpectrogram(make([]float64, 1024), 20, SpectrogramOptions{})
	if err != nil {
		t.Fatalf("ComputeSpectrogram: %v", err)
	}
	for i, v := range spec.MaxPower() {
		if v != 0 {
			t.Errorf("bin %d: expected 0, got %v", i, v)
		}
	}
}

func TestTukeyWindow(t *testing.T) {
	w := TukeyWindow(256, TukeyAlpha)
	if len(w) != 256 {
		t.Fatalf("expected 256 taps, got %d", len(w))
	}
	if w[0] != 0 {
		t.Errorf("window should start at 0, got %v", w[0])
	}
	if w[128] != 1 {
		t.Errorf("window centre should be flat, got %v", w[128])
	}
	for i := 1; i < 128; i++ {
		if math.Abs(w[i]-w[256-i]) > 1e-12 {
			t.Fatalf("periodic window not symmetric at %d", i)
		}
	}
}
