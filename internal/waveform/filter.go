package waveform

import (
	"fmt"
	"math"
)

// FilterKind selects the response of a Butterworth filter.
type FilterKind string

const (
	Lowpass  FilterKind = "lowpass"
	Highpass FilterKind = "highpass"
)

// DefaultCorners is the Butterworth order used by Filter and BandFilter.
const DefaultCorners = 4

// section is one second-order (or first-order, b2 = a2 = 0) IIR stage in
// transposed direct form II.
type section struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// Filter applies a causal Butterworth filter of DefaultCorners order.
func Filter(c *Channel, kind FilterKind, cornerHz float64) (*Channel, error) {
	return FilterOrder(c, kind, cornerHz, DefaultCorners)
}

// FilterOrder applies a causal Butterworth filter with the given number of
// corners. The corner frequency must lie strictly between 0 and Nyquist.
func FilterOrder(c *Channel, kind FilterKind, cornerHz float64, corners int) (*Channel, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	if corners < 1 {
		return nil, fmt.Errorf("%w: filter order must be at least 1, got %d", ErrInvalidParameter, corners)
	}
	if math.IsNaN(cornerHz) || cornerHz <= 0 || cornerHz >= c.Nyquist() {
		return nil, fmt.Errorf("%w: %s corner %.4g Hz outside (0, %.4g) Hz for channel %s",
			ErrInvalidParameter, kind, cornerHz, c.Nyquist(), c.ID)
	}

	sections, err := butterworth(kind, cornerHz, c.SampleRate, corners)
	if err != nil {
		return nil, err
	}

	out := append([]float64(nil), c.Samples...)
	for _, s := range sections {
		s.apply(out)
	}
	return c.withSamples(out), nil
}

// BandFilter applies a lowpass at lowpassHz followed by a highpass at
// highpassHz. The two corners are passed through as given; their ordering is
// not checked.
func BandFilter(c *Channel, lowpassHz, highpassHz float64) (*Channel, error) {
	low, err := Filter(c, Lowpass, lowpassHz)
	if err != nil {
		return nil, err
	}
	return Filter(low, Highpass, highpassHz)
}

// butterworth designs the cascade through the bilinear transform with the
// corner prewarped, one biquad per conjugate pole pair and a first-order
// stage for odd orders.
func butterworth(kind FilterKind, cornerHz, sampleRate float64, corners int) ([]section, error) {
	if kind != Lowpass && kind != Highpass {
		return nil, fmt.Errorf("%w: unknown filter kind %q", ErrInvalidParameter, kind)
	}

	w0 := 2 * math.Pi * cornerHz / sampleRate
	cosw, sinw := math.Cos(w0), math.Sin(w0)

	sections := make([]section, 0, corners/2+1)
	for k := 0; k < corners/2; k++ {
		q := 1 / (2 * math.Sin(math.Pi*float64(2*k+1)/float64(2*corners)))
		alpha := sinw / (2 * q)
		a0 := 1 + alpha

		var s section
		switch kind {
		case Lowpass:
			s.b0 = (1 - cosw) / 2
			s.b1 = 1 - cosw
			s.b2 = (1 - cosw) / 2
		case Highpass:
			s.b0 = (1 + cosw) / 2
			s.b1 = -(1 + cosw)
			s.b2 = (1 + cosw) / 2
		}
		s.a1 = -2 * cosw
		s.a2 = 1 - alpha

		s.b0 /= a0
		s.b1 /= a0
		s.b2 /= a0
		s.a1 /= a0
		s.a2 /= a0
		sections = append(sections, s)
	}

	if corners%2 == 1 {
		k := math.Tan(w0 / 2)
		var s section
		switch kind {
		case Lowpass:
			s.b0 = k / (1 + k)
			s.b1 = k / (1 + k)
		case Highpass:
			s.b0 = 1 / (1 + k)
			s.b1 = -1 / (1 + k)
		}
		s.a1 = (k - 1) / (k + 1)
		sections = append(sections, s)
	}

	return sections, nil
}

// apply filters x in place starting from a zero state.
func (s section) apply(x []float64) {
	var z1, z2 float64
	for i, in := range x {
		out := s.b0*in + z1
		z1 = s.b1*in - s.a1*out + z2
		z2 = s.b2*in - s.a2*out
		x[i] = out
	}
}
