package waveform

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"
)

// antiAliasRatio places the anti-alias lowpass below the new Nyquist.
const antiAliasRatio = 0.45

// Resample returns the channel on a uniform grid at targetHz. Downsampling
// lowpasses at 0.45*targetHz first; both directions then interpolate
// linearly between the original samples.
func Resample(c *Channel, targetHz float64) (*Channel, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	if math.IsNaN(targetHz) || math.IsInf(targetHz, 0) || targetHz <= 0 {
		return nil, fmt.Errorf("%w: resample rate must be positive, got %v", ErrInvalidParameter, targetHz)
	}
	if targetHz == c.SampleRate {
		return c.Clone(), nil
	}

	src := c
	if targetHz < c.SampleRate {
		var err error
		src, err = Filter(c, Lowpass, antiAliasRatio*targetHz)
		if err != nil {
			return nil, fmt.Errorf("anti-alias filter: %w", err)
		}
	}

	if src.Len() < 2 {
		out := src.Clone()
		out.SampleRate = targetHz
		return out, nil
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(src.Times(), src.Samples); err != nil {
		return nil, fmt.Errorf("fit resampling interpolator: %w", err)
	}

	last := src.TimeAt(src.Len() - 1)
	n := int(math.Floor(last*targetHz+1e-9)) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = pl.Predict(float64(i) / targetHz)
	}

	return &Channel{
		ID:         c.ID,
		Samples:    out,
		SampleRate: targetHz,
		StartTime:  c.StartTime,
	}, nil
}
