// Package waveform holds the single-channel seismic trace model and the
// transforms (filtering, resampling) applied to it ahead of detection.
package waveform

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidParameter is returned when a transform or detector is called with
// rates, lengths or corner frequencies it cannot honour.
var ErrInvalidParameter = errors.New("invalid parameter")

// Channel is one time-ordered amplitude series recorded by a lander
// seismometer. Transforms never modify a Channel in place; they return a new
// one with its own sample buffer.
type Channel struct {
	ID         string
	Samples    []float64
	SampleRate float64 // Hz
	StartTime  time.Time
}

// New builds a channel and checks its invariants.
func New(id string, samples []float64, sampleRate float64, start time.Time) (*Channel, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate must be positive, got %v", ErrInvalidParameter, sampleRate)
	}
	return &Channel{
		ID:         id,
		Samples:    samples,
		SampleRate: sampleRate,
		StartTime:  start,
	}, nil
}

// Len returns the number of samples.
func (c *Channel) Len() int {
	return len(c.Samples)
}

// Delta returns the sample spacing in seconds.
func (c *Channel) Delta() float64 {
	return 1.0 / c.SampleRate
}

// Nyquist returns half the sample rate.
func (c *Channel) Nyquist() float64 {
	return c.SampleRate / 2
}

// Duration returns the time between the first and last sample.
func (c *Channel) Duration() time.Duration {
	if len(c.Samples) < 2 {
		return 0
	}
	return time.Duration(float64(len(c.Samples)-1) / c.SampleRate * float64(time.Second))
}

// Times returns the offset in seconds of every sample from StartTime.
func (c *Channel) Times() []float64 {
	times := make([]float64, len(c.Samples))
	for i := range times {
		times[i] = float64(i) / c.SampleRate
	}
	return times
}

// TimeAt returns the offset in seconds of sample i.
func (c *Channel) TimeAt(i int) float64 {
	return float64(i) / c.SampleRate
}

// Clone returns a deep copy of the channel.
func (c *Channel) Clone() *Channel {
	return c.withSamples(append([]float64(nil), c.Samples...))
}

// withSamples returns a copy of the channel metadata around a new buffer.
func (c *Channel) withSamples(samples []float64) *Channel {
	return &Channel{
		ID:         c.ID,
		Samples:    samples,
		SampleRate: c.SampleRate,
		StartTime:  c.StartTime,
	}
}

func (c *Channel) validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil channel", ErrInvalidParameter)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: channel %s has non-positive sample rate %v", ErrInvalidParameter, c.ID, c.SampleRate)
	}
	return nil
}
