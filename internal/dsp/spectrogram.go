package dsp

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultSegmentLength is the STFT segment length in samples.
	DefaultSegmentLength = 256

	// TukeyAlpha is the taper fraction of the analysis window.
	TukeyAlpha = 0.25
)

// ErrEmptySignal is returned when a spectrogram is requested for no samples.
var ErrEmptySignal = errors.New("empty signal")

// SpectrogramOptions controls segmentation of the STFT. Zero values select
// DefaultSegmentLength and an overlap of one eighth of the segment.
type SpectrogramOptions struct {
	SegmentLength int
	Overlap       int
}

// Spectrogram is a one-sided power spectral density over time.
type Spectrogram struct {
	Freqs []float64   // Hz
	Times []float64   // seconds, segment centres
	Power [][]float64 // [frequency][time]
}

// ComputeSpectrogram splits x into overlapping Tukey-windowed segments,
// removes each segment's mean and returns the density-scaled one-sided
// periodogram of every segment.
func ComputeSpectrogram(x []float64, sampleRate float64, opts SpectrogramOptions) (*Spectrogram, error) {
	if len(x) == 0 {
		return nil, ErrEmptySignal
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %v", sampleRate)
	}

	nperseg := opts.SegmentLength
	if nperseg <= 0 {
		nperseg = DefaultSegmentLength
	}
	if nperseg > len(x) {
		nperseg = len(x)
	}
	noverlap := opts.Overlap
	if noverlap <= 0 {
		noverlap = nperseg / 8
	}
	if noverlap >= nperseg {
		return nil, fmt.Errorf("overlap %d must be smaller than segment length %d", noverlap, nperseg)
	}
	step := nperseg - noverlap
	nseg := (len(x)-nperseg)/step + 1
	nfreq := nperseg/2 + 1

	window := TukeyWindow(nperseg, TukeyAlpha)
	scale := 1 / (sampleRate * floats.Dot(window, window))

	spec := &Spectrogram{
		Freqs: make([]float64, nfreq),
		Times: make([]float64, nseg),
		Power: make([][]float64, nfreq),
	}
	for k := range spec.Freqs {
		spec.Freqs[k] = float64(k) * sampleRate / float64(nperseg)
		spec.Power[k] = make([]float64, nseg)
	}

	fft := fourier.NewFFT(nperseg)
	segment := make([]float64, nperseg)
	var coeff []complex128

	for t := 0; t < nseg; t++ {
		start := t * step
		spec.Times[t] = (float64(start) + float64(nperseg)/2) / sampleRate

		copy(segment, x[start:start+nperseg])
		floats.AddConst(-stat.Mean(segment, nil), segment)
		floats.Mul(segment, window)

		coeff = fft.Coefficients(coeff, segment)
		for k, c := range coeff {
			p := real(c * cmplx.Conj(c)) * scale
			// Fold the negative frequencies into the one-sided estimate.
			if k != 0 && !(nperseg%2 == 0 && k == nfreq-1) {
				p *= 2
			}
			spec.Power[k][t] = p
		}
	}

	return spec, nil
}

// MaxPower collapses the frequency axis, keeping the largest power in each
// time bin.
func (s *Spectrogram) MaxPower() []float64 {
	out := make([]float64, len(s.Times))
	for t := range out {
		out[t] = math.Inf(-1)
		for k := range s.Power {
			if s.Power[k][t] > out[t] {
				out[t] = s.Power[k][t]
			}
		}
	}
	return out
}

// BinWidth returns the spacing of the time axis in seconds, or 0 when there
// is a single bin.
func (s *Spectrogram) BinWidth() float64 {
	if len(s.Times) < 2 {
		return 0
	}
	return s.Times[1] - s.Times[0]
}

// TukeyWindow returns a periodic tapered-cosine window of length m.
func TukeyWindow(m int, alpha float64) []float64 {
	sym := tukeySymmetric(m+1, alpha)
	return sym[:m]
}

func tukeySymmetric(m int, alpha float64) []float64 {
	w := make([]float64, m)
	if m == 1 {
		w[0] = 1
		return w
	}
	if alpha <= 0 {
		for i := range w {
			w[i] = 1
		}
		return w
	}
	if alpha >= 1 {
		for i := range w {
			w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(m-1))
		}
		return w
	}

	width := int(math.Floor(alpha * float64(m-1) / 2))
	span := alpha * float64(m-1)
	for i := range w {
		n := float64(i)
		switch {
		case i <= width:
			w[i] = 0.5 * (1 + math.Cos(math.Pi*(-1+2*n/span)))
		case i >= m-width-1:
			w[i] = 0.5 * (1 + math.Cos(math.Pi*(-2/alpha+1+2*n/span)))
		default:
			w[i] = 1
		}
	}
	return w
}
