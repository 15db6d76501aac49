package analysis

import (
	"time"

	"github.com/quiver-seismic/quiver/internal/detect"
)

// STALTAReport is the STA/LTA result for one channel. ArrTime is the
// catalogued arrival and is null for unlabelled channels.
type STALTAReport struct {
	Planet      string       `json:"planet"`
	Filename    string       `json:"filename"`
	ArrTime     *float64     `json:"arr_time"`
	ArrTimePred float64      `json:"arr_time_pred"`
	Ratio       []CurvePoint `json:"ratio,omitempty"`
}

// SpectrogramReport is the spectrogram peak result for one channel. Power is
// the smoothed max-power curve on the spectrogram time axis.
type SpectrogramReport struct {
	Planet      string       `json:"planet"`
	Filename    string       `json:"filename"`
	ArrTime     *float64     `json:"arr_time"`
	ArrTimePred float64      `json:"arr_time_pred"`
	BinSeconds  float64      `json:"bin_seconds"`
	Power       []CurvePoint `json:"power,omitempty"`
}

// EventsReport lists the high-frequency event windows of one channel.
type EventsReport struct {
	Planet   string               `json:"planet"`
	Filename string               `json:"filename"`
	ArrTime  *float64             `json:"arr_time"`
	Events   []detect.EventWindow `json:"events"`
}

// WaveformReport is a plot-ready copy of one channel.
type WaveformReport struct {
	Planet     string      `json:"planet"`
	Filename   string      `json:"filename"`
	SampleRate float64     `json:"sample_rate"`
	StartTime  time.Time   `json:"start_time"`
	ArrTime    *float64    `json:"arr_time"`
	Points     []PlotPoint `json:"points"`
}

// CurvePoint is one sample of a curve at Time seconds from channel start.
type CurvePoint struct {
	Time  float64 `json:"time"`
	Value float64 `json:"value"`
}

// PlotPoint is one waveform sample at an absolute Unix time in milliseconds,
// the format charting clients consume.
type PlotPoint struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

// Decimate pairs times with values, keeping every k-th sample so that at
// most maxPoints remain. The first sample is always kept.
func Decimate(times, values []float64, maxPoints int) []CurvePoint {
	n := min(len(times), len(values))
	if n == 0 || maxPoints <= 0 {
		return []CurvePoint{}
	}
	stride := (n + maxPoints - 1) / maxPoints
	out := make([]CurvePoint, 0, (n+stride-1)/stride)
	for i := 0; i < n; i += stride {
		out = append(out, CurvePoint{Time: times[i], Value: values[i]})
	}
	return out
}
