package detect

import (
	"fmt"
	"math"

	"github.com/quiver-seismic/quiver/internal/dsp"
	"github.com/quiver-seismic/quiver/internal/waveform"
	"gonum.org/v1/gonum/floats"
)

const (
	// DefaultProminence is the minimum peak prominence on the normalized
	// power curve.
	DefaultProminence = 0.01

	// HalfMaximum is the relative height at which event windows are measured.
	HalfMaximum = 0.5
)

// EventWindow is one candidate event: a peak of the normalized power curve
// and the interval over which the curve stays above half the peak's
// prominence. Times are seconds from channel start.
type EventWindow struct {
	PeakTime   float64 `json:"peak_time"`
	LeftBound  float64 `json:"left_bound"`
	RightBound float64 `json:"right_bound"`
	Width      float64 `json:"width"`
	Prominence float64 `json:"prominence"`
}

// SegmentParams configure high-frequency event segmentation.
type SegmentParams struct {
	LowpassHz   float64
	HighpassHz  float64
	Sigma       float64 // time bins; 0 disables smoothing
	Prominence  float64 // on the [0, 1] normalized curve
	Spectrogram dsp.SpectrogramOptions
}

// DefaultSegmentParams returns the default band, smoothing and prominence.
func DefaultSegmentParams() SegmentParams {
	return SegmentParams{
		LowpassHz:  1,
		HighpassHz: 2,
		Sigma:      DefaultSigma,
		Prominence: DefaultProminence,
	}
}

// SegmentHighFrequencyEvents returns an event window for every sufficiently
// prominent peak of the band-limited max-power curve of c, in ascending peak
// time. Windows may overlap. Finding no peaks is not an error; a channel or
// power curve with zero dynamic range fails with ErrDegenerateSignal.
func SegmentHighFrequencyEvents(c *waveform.Channel, p SegmentParams) ([]EventWindow, error) {
	params := []Param{
		{"lowpass_hz", p.LowpassHz},
		{"highpass_hz", p.HighpassHz},
		{"sigma", p.Sigma},
		{"prominence", p.Prominence},
	}
	fail := func(err error) error {
		return &DetectionError{Op: "high-frequency segmentation", ChannelID: channelID(c), Params: params, Err: err}
	}

	if c != nil && c.Len() > 0 && floats.Max(c.Samples) == floats.Min(c.Samples) {
		return nil, fail(fmt.Errorf("%w: channel is constant", ErrDegenerateSignal))
	}

	_, spec, err := bandSpectrogram(c, p.LowpassHz, p.HighpassHz, p.Spectrogram)
	if err != nil {
		return nil, fail(err)
	}

	windows, err := SegmentCurve(spec.Times, spec.MaxPower(), p.Sigma, p.Prominence)
	if err != nil {
		return nil, fail(err)
	}
	return windows, nil
}

// SegmentCurve smooths a power curve sampled at times, normalizes it to
// [0, 1] and measures every peak whose prominence is at least prominence at
// half its height.
func SegmentCurve(times, curve []float64, sigma, prominence float64) ([]EventWindow, error) {
	if len(times) != len(curve) {
		return nil, fmt.Errorf("%w: %d times for %d curve samples", ErrInvalidParameter, len(times), len(curve))
	}
	if sigma < 0 || math.IsNaN(sigma) {
		return nil, fmt.Errorf("%w: sigma must not be negative", ErrInvalidParameter)
	}
	if prominence < 0 || math.IsNaN(prominence) {
		return nil, fmt.Errorf("%w: prominence must not be negative", ErrInvalidParameter)
	}

	normalized, ok := dsp.MinMaxNormalize(dsp.GaussianFilter1D(curve, sigma))
	if !ok {
		return nil, fmt.Errorf("%w: power curve has no dynamic range", ErrDegenerateSignal)
	}

	peaks := dsp.FindPeaks(normalized, prominence)
	widths := dsp.Widths(normalized, peaks, HalfMaximum)

	windows := make([]EventWindow, len(peaks))
	for i, pk := range peaks {
		left := timeAt(times, widths[i].Left)
		right := timeAt(times, widths[i].Right)
		windows[i] = EventWindow{
			PeakTime:   times[pk.Index],
			LeftBound:  left,
			RightBound: right,
			Width:      math.Abs(right - left),
			Prominence: pk.Prominence,
		}
	}
	return windows, nil
}

// timeAt maps a fractional sample position onto the time axis by linear
// interpolation between neighbouring bins.
func timeAt(times []float64, pos float64) float64 {
	i := int(math.Floor(pos))
	if i < 0 {
		return times[0]
	}
	if i >= len(times)-1 {
		return times[len(times)-1]
	}
	frac := pos - float64(i)
	return times[i] + frac*(times[i+1]-times[i])
}
