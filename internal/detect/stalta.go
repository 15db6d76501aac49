// Package detect implements the seismic event detectors: an STA/LTA energy
// ratio trigger, a spectrogram peak trigger and high-frequency event
// segmentation. Detectors are stateless and never modify their input.
package detect

import (
	"fmt"
	"math"

	"github.com/quiver-seismic/quiver/internal/waveform"
)

// TriggerOff is the ratio below which an open STA/LTA trigger closes.
const TriggerOff = 1.0

// STALTAParams are the free parameters of the STA/LTA trigger. Window
// lengths are converted to samples at the channel's sample rate.
type STALTAParams struct {
	STASeconds float64
	LTASeconds float64
	TriggerOn  float64
}

// TriggerResult is an arrival estimate plus the curve it was picked from.
type TriggerResult struct {
	ArrivalTime float64   `json:"arrival_time"` // seconds from channel start
	Statistic   []float64 `json:"statistic,omitempty"`
}

// DetectSTALTA reports the onset of the first STA/LTA trigger on c. It
// fails with ErrNoTriggerFound when the ratio never exceeds p.TriggerOn.
func DetectSTALTA(c *waveform.Channel, p STALTAParams) (*TriggerResult, error) {
	params := []Param{
		{"sta_seconds", p.STASeconds},
		{"lta_seconds", p.LTASeconds},
		{"trigger_on", p.TriggerOn},
	}
	fail := func(err error) error {
		return &DetectionError{Op: "sta/lta", ChannelID: channelID(c), Params: params, Err: err}
	}

	if c == nil || c.SampleRate <= 0 {
		return nil, fail(fmt.Errorf("%w: channel needs a positive sample rate", ErrInvalidParameter))
	}
	if !(p.STASeconds > 0) || !(p.LTASeconds > 0) {
		return nil, fail(fmt.Errorf("%w: window lengths must be positive", ErrInvalidParameter))
	}
	if !(p.TriggerOn > 0) || math.IsInf(p.TriggerOn, 0) {
		return nil, fail(fmt.Errorf("%w: trigger_on must be a positive ratio", ErrInvalidParameter))
	}

	nsta := int(p.STASeconds * c.SampleRate)
	nlta := int(p.LTASeconds * c.SampleRate)
	switch {
	case nsta < 1:
		return nil, fail(fmt.Errorf("%w: short window is shorter than one sample", ErrInvalidParameter))
	case nsta > nlta:
		return nil, fail(fmt.Errorf("%w: short window (%d samples) exceeds long window (%d samples)", ErrInvalidParameter, nsta, nlta))
	case nlta > c.Len():
		return nil, fail(fmt.Errorf("%w: long window (%d samples) exceeds channel length (%d samples)", ErrInvalidParameter, nlta, c.Len()))
	}

	ratio := ClassicSTALTA(c.Samples, nsta, nlta)
	onsets := TriggerOnset(ratio, p.TriggerOn, TriggerOff)
	if len(onsets) == 0 {
		return nil, fail(ErrNoTriggerFound)
	}

	return &TriggerResult{
		ArrivalTime: c.TimeAt(onsets[0][0]),
		Statistic:   ratio,
	}, nil
}

// ClassicSTALTA returns, for every sample, the mean squared amplitude of the
// trailing nsta samples divided by that of the trailing nlta samples. The
// first nlta-1 entries, which have no complete long window, are zero.
func ClassicSTALTA(x []float64, nsta, nlta int) []float64 {
	n := len(x)
	ratio := make([]float64, n)
	if nsta < 1 || nlta < 1 || n == 0 {
		return ratio
	}

	cum := make([]float64, n)
	var acc float64
	for i, v := range x {
		acc += v * v
		cum[i] = acc
	}

	window := func(i, length int) float64 {
		if i >= length {
			return (cum[i] - cum[i-length]) / float64(length)
		}
		return cum[i] / float64(length)
	}

	tiny := math.SmallestNonzeroFloat64
	for i := nlta - 1; i < n; i++ {
		lta := window(i, nlta)
		if lta < tiny {
			lta = tiny
		}
		ratio[i] = window(i, nsta) / lta
	}
	return ratio
}

// TriggerOnset scans cft for intervals that open when the value rises above
// on and close once it drops below off. Each interval is returned as
// [onset, offset] sample indices; an interval still open at the end of the
// curve closes at the last sample.
func TriggerOnset(cft []float64, on, off float64) [][2]int {
	var intervals [][2]int
	active := false
	start := 0
	for i, v := range cft {
		switch {
		case !active && v > on:
			active = true
			start = i
		case active && v < off:
			active = false
			intervals = append(intervals, [2]int{start, i - 1})
		}
	}
	if active {
		intervals = append(intervals, [2]int{start, len(cft) - 1})
	}
	return intervals
}
