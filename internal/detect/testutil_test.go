package detect

import (
	"math"
	"math/rand"
	"time"

	"github.com/quiver-seismic/quiver/internal/waveform"
)

// burst is a sine tone under a Gaussian envelope.
type burst struct {
	center    float64 // seconds
	width     float64 // envelope standard deviation, seconds
	freq      float64 // Hz
	amplitude float64
}

// synthChannel returns Gaussian noise of the given amplitude with the bursts
// added on top. The noise generator is seeded so results are repeatable.
func synthChannel(id string, rate, seconds, noise float64, seed int64, bursts ...burst) *waveform.Channel {
	rng := rand.New(rand.NewSource(seed))
	n := int(seconds * rate)
	samples := make([]float64, n)
	for i := range samples {
		t := float64(i) / rate
		v := noise * rng.NormFloat64()
		for _, b := range bursts {
			d := (t - b.center) / b.width
			v += b.amplitude * math.Exp(-0.5*d*d) * math.Sin(2*math.Pi*b.freq*t)
		}
		samples[i] = v
	}
	return &waveform.Channel{ID: id, Samples: samples, SampleRate: rate, StartTime: time.Unix(0, 0).UTC()}
}

// stepChannel returns Gaussian noise whose amplitude jumps from before to
// after at onset seconds.
func stepChannel(rate, seconds, onset, before, after float64, seed int64) *waveform.Channel {
	rng := rand.New(rand.NewSource(seed))
	n := int(seconds * rate)
	samples := make([]float64, n)
	for i := range samples {
		amp := before
		if float64(i)/rate >= onset {
			amp = after
		}
		samples[i] = amp * rng.NormFloat64()
	}
	return &waveform.Channel{ID: "step", Samples: samples, SampleRate: rate}
}

func constant(value, rate float64, n int) *waveform.Channel {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = value
	}
	return &waveform.Channel{ID: "flat", Samples: samples, SampleRate: rate}
}

// gaussianCurve returns baseline plus Gaussian bumps given as
// (centre bin, standard deviation in bins, height) triples.
func gaussianCurve(n int, baseline float64, bumps ...[3]float64) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = baseline
		for _, b := range bumps {
			d := (float64(i) - b[0]) / b[1]
			x[i] += b[2] * math.Exp(-0.5*d*d)
		}
	}
	return x
}
