package detect

import (
	"fmt"
	"math"

	"github.com/quiver-seismic/quiver/internal/dsp"
	"github.com/quiver-seismic/quiver/internal/waveform"
)

// DefaultSigma is the standard deviation, in time bins, of the Gaussian used
// to smooth the max-power curve.
const DefaultSigma = 5.0

// SpectrogramParams configure the spectrogram peak trigger.
type SpectrogramParams struct {
	LowpassHz   float64
	HighpassHz  float64
	Sigma       float64 // time bins; 0 disables smoothing
	Spectrogram dsp.SpectrogramOptions
}

// DefaultSpectrogramParams returns the 1 Hz lowpass / 2 Hz highpass band
// with the default smoothing.
func DefaultSpectrogramParams() SpectrogramParams {
	return SpectrogramParams{
		LowpassHz:  1,
		HighpassHz: 2,
		Sigma:      DefaultSigma,
	}
}

// SpectrogramResult is the output of DetectSpectrogramPeak. Statistic holds
// the smoothed max-power curve on the spectrogram's time axis.
type SpectrogramResult struct {
	TriggerResult
	Filtered    *waveform.Channel
	Spectrogram *dsp.Spectrogram
}

// DetectSpectrogramPeak band-limits c, reduces its spectrogram to the
// maximum power per time bin, smooths that curve and reports the time of
// its highest local maximum. It fails with ErrNoPeakFound when the smoothed
// curve has no interior local maximum, even if it rises monotonically to an
// edge.
func DetectSpectrogramPeak(c *waveform.Channel, p SpectrogramParams) (*SpectrogramResult, error) {
	params := []Param{
		{"lowpass_hz", p.LowpassHz},
		{"highpass_hz", p.HighpassHz},
		{"sigma", p.Sigma},
	}
	fail := func(err error) error {
		return &DetectionError{Op: "spectrogram peak", ChannelID: channelID(c), Params: params, Err: err}
	}

	if p.Sigma < 0 || math.IsNaN(p.Sigma) {
		return nil, fail(fmt.Errorf("%w: sigma must not be negative", ErrInvalidParameter))
	}

	filtered, spec, err := bandSpectrogram(c, p.LowpassHz, p.HighpassHz, p.Spectrogram)
	if err != nil {
		return nil, fail(err)
	}

	smoothed := dsp.GaussianFilter1D(spec.MaxPower(), p.Sigma)
	peak, ok := dominantPeak(smoothed)
	if !ok {
		return nil, fail(ErrNoPeakFound)
	}

	return &SpectrogramResult{
		TriggerResult: TriggerResult{
			ArrivalTime: spec.Times[peak],
			Statistic:   smoothed,
		},
		Filtered:    filtered,
		Spectrogram: spec,
	}, nil
}

// dominantPeak returns the index of the largest local maximum of curve. The
// largest sample overall is only chosen when it is itself a local maximum.
func dominantPeak(curve []float64) (int, bool) {
	peaks := dsp.LocalMaxima(curve)
	if len(peaks) == 0 {
		return 0, false
	}
	best := peaks[0]
	for _, p := range peaks[1:] {
		if curve[p] > curve[best] {
			best = p
		}
	}
	return best, true
}

// bandSpectrogram applies the lowpass/highpass pair and computes the power
// spectrogram of the result.
func bandSpectrogram(c *waveform.Channel, lowpassHz, highpassHz float64, opts dsp.SpectrogramOptions) (*waveform.Channel, *dsp.Spectrogram, error) {
	filtered, err := waveform.BandFilter(c, lowpassHz, highpassHz)
	if err != nil {
		return nil, nil, err
	}
	spec, err := dsp.ComputeSpectrogram(filtered.Samples, filtered.SampleRate, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	return filtered, spec, nil
}
