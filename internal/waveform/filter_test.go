package waveform

import (
	"errors"
	"math"
	"testing"
	"time"
)

func sineChannel(freq, rate float64, n int) *Channel {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * freq * float64(i) / rate)
	}
	return &Channel{ID: "sine", Samples: samples, SampleRate: rate, StartTime: time.Unix(0, 0)}
}

func constantChannel(value, rate float64, n int) *Channel {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = value
	}
	return &Channel{ID: "flat", Samples: samples, SampleRate: rate}
}

func rms(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

func TestFilterRejectsInvalidCorners(t *testing.T) {
	ch := sineChannel(1, 20, 100)

	tests := []struct {
		name   string
		kind   FilterKind
		corner float64
	}{
		{"zero corner", Lowpass, 0},
		{"negative corner", Highpass, -1},
		{"at nyquist", Lowpass, 10},
		{"above nyquist", Highpass, 15},
		{"nan corner", Lowpass, math.NaN()},
		{"unknown kind", FilterKind("bandstop"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Filter(ch, tt.kind, tt.corner)
			if !errors.Is(err, ErrInvalidParameter) {
				t.Fatalf("expected ErrInvalidParameter, got %v", err)
			}
		})
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	ch := sineChannel(3, 20, 400)
	orig := append([]float64(nil), ch.Samples...)

	out, err := BandFilter(ch, 5, 1)
	if err != nil {
		t.Fatalf("BandFilter: %v", err)
	}
	if &out.Samples[0] == &ch.Samples[0] {
		t.Fatal("filtered channel aliases the input buffer")
	}
	for i := range orig {
		if ch.Samples[i] != orig[i] {
			t.Fatalf("input sample %d changed from %v to %v", i, orig[i], ch.Samples[i])
		}
	}
	if out.ID != ch.ID || out.SampleRate != ch.SampleRate {
		t.Errorf("metadata not carried over: %+v", out)
	}
}

func TestFilterDCResponse(t *testing.T) {
	ch := constantChannel(2.5, 20, 4000)

	low, err := Filter(ch, Lowpass, 1)
	if err != nil {
		t.Fatalf("lowpass: %v", err)
	}
	if got := low.Samples[low.Len()-1]; math.Abs(got-2.5) > 1e-6 {
		t.Errorf("lowpass DC gain: expected 2.5, got %v", got)
	}

	high, err := Filter(ch, Highpass, 1)
	if err != nil {
		t.Fatalf("highpass: %v", err)
	}
	if got := high.Samples[high.Len()-1]; math.Abs(got) > 1e-6 {
		t.Errorf("highpass should remove DC, got %v", got)
	}
}

func TestFilterFrequencyResponse(t *testing.T) {
	tests := []struct {
		name    string
		kind    FilterKind
		corner  float64
		freq    float64
		corners int
		wantRMS float64
		epsilon float64
	}{
		{"lowpass passband", Lowpass, 2, 0.2, 4, math.Sqrt2 / 2, 0.02},
		{"lowpass stopband", Lowpass, 2, 20, 4, 0, 0.01},
		{"highpass passband", Highpass, 2, 20, 4, math.Sqrt2 / 2, 0.02},
		{"highpass stopband", Highpass, 2, 0.1, 4, 0, 0.01},
		{"odd order lowpass stopband", Lowpass, 2, 20, 3, 0, 0.02},
		{"lowpass at corner is -3dB", Lowpass, 5, 5, 4, 0.5, 0.02},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := sineChannel(tt.freq, 100, 20000)
			out, err := FilterOrder(ch, tt.kind, tt.corner, tt.corners)
			if err != nil {
				t.Fatalf("FilterOrder: %v", err)
			}
			got := rms(out.Samples[out.Len()/2:])
			if math.Abs(got-tt.wantRMS) > tt.epsilon {
				t.Errorf("steady-state RMS: expected %.3f ± %.3f, got %.4f", tt.wantRMS, tt.epsilon, got)
			}
		})
	}
}

func TestBandFilterPassesCornersThrough(t *testing.T) {
	// Lowpass below highpass is accepted as given, not reordered.
	ch := sineChannel(1.5, 20, 2000)
	out, err := BandFilter(ch, 1, 2)
	if err != nil {
		t.Fatalf("BandFilter: %v", err)
	}
	if out.Len() != ch.Len() {
		t.Fatalf("expected %d samples, got %d", ch.Len(), out.Len())
	}
	if got := rms(out.Samples[out.Len()/2:]); got > rms(ch.Samples)/2 {
		t.Errorf("expected the crossed corners to attenuate a 1.5 Hz tone, RMS %.3f", got)
	}
}

func TestTimes(t *testing.T) {
	ch := sineChannel(1, 4, 9)
	times := ch.Times()
	if len(times) != ch.Len() {
		t.Fatalf("len(times) = %d, len(samples) = %d", len(times), ch.Len())
	}
	if times[0] != 0 || times[8] != 2 {
		t.Errorf("unexpected time axis %v", times)
	}
	if ch.Duration() != 2*time.Second {
		t.Errorf("Duration = %v, expected 2s", ch.Duration())
	}
}

func TestNewRejectsBadRate(t *testing.T) {
	if _, err := New("x", []float64{1}, 0, time.Time{}); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
}
