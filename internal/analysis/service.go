// Package analysis runs the detectors against the preloaded catalog using
// each body's configured profile.
package analysis

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"github.com/quiver-seismic/quiver/internal/catalog"
	"github.com/quiver-seismic/quiver/internal/detect"
	"github.com/quiver-seismic/quiver/internal/waveform"
	"github.com/quiver-seismic/quiver/pkg/config"
	"go.uber.org/zap"
)

// Service answers detection requests. It holds no mutable state, so one
// Service may serve any number of concurrent requests.
type Service struct {
	store    *catalog.Store
	profiles map[string]config.BodyData
	workers  int
	logger   *zap.SugaredLogger
}

// NewService binds store to the detector profiles in bodies. Bodies present
// in the store without a profile use config.DefaultBody.
func NewService(store *catalog.Store, bodies []config.BodyData, workers int, logger *zap.SugaredLogger) *Service {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	profiles := make(map[string]config.BodyData, len(bodies))
	for _, b := range bodies {
		profiles[b.Name] = b
	}
	return &Service{
		store:    store,
		profiles: profiles,
		workers:  workers,
		logger:   logger,
	}
}

// Store returns the catalog the service reads from.
func (s *Service) Store() *catalog.Store {
	return s.store
}

// Profile returns the detector profile used for body.
func (s *Service) Profile(body string) config.BodyData {
	if p, ok := s.profiles[body]; ok {
		return p
	}
	return config.DefaultBody(body)
}

// STALTA runs the STA/LTA trigger on one channel. When curvePoints is
// positive the ratio curve is returned, decimated to at most that many
// points.
func (s *Service) STALTA(ctx context.Context, body, id string, curvePoints int) (*STALTAReport, error) {
	entry, err := s.store.Lookup(body, id)
	if err != nil {
		return nil, err
	}
	profile := s.Profile(body).STALTA

	ch, err := prepare(ctx, entry.Channel, profile.ResampleHz)
	if err != nil {
		return nil, err
	}

	res, err := detect.DetectSTALTA(ch, detect.STALTAParams{
		STASeconds: profile.STASeconds,
		LTASeconds: profile.LTASeconds,
		TriggerOn:  profile.TriggerOn,
	})
	if err != nil {
		return nil, err
	}

	report := &STALTAReport{
		Planet:      body,
		Filename:    entry.ID,
		ArrTime:     entry.Arrival,
		ArrTimePred: res.ArrivalTime,
	}
	if curvePoints > 0 {
		report.Ratio = Decimate(ch.Times(), res.Statistic, curvePoints)
	}
	return report, nil
}

// SpectrogramPeak runs the spectrogram peak trigger on one channel.
func (s *Service) SpectrogramPeak(ctx context.Context, body, id string, curvePoints int) (*SpectrogramReport, error) {
	entry, err := s.store.Lookup(body, id)
	if err != nil {
		return nil, err
	}
	profile := s.Profile(body).Spectrogram

	ch, err := prepare(ctx, entry.Channel, profile.ResampleHz)
	if err != nil {
		return nil, err
	}

	res, err := detect.DetectSpectrogramPeak(ch, detect.SpectrogramParams{
		LowpassHz:  profile.LowpassHz,
		HighpassHz: profile.HighpassHz,
		Sigma:      profile.Sigma,
	})
	if err != nil {
		return nil, err
	}

	report := &SpectrogramReport{
		Planet:      body,
		Filename:    entry.ID,
		ArrTime:     entry.Arrival,
		ArrTimePred: res.ArrivalTime,
		BinSeconds:  res.Spectrogram.BinWidth(),
	}
	if curvePoints > 0 {
		report.Power = Decimate(res.Spectrogram.Times, res.Statistic, curvePoints)
	}
	return report, nil
}

// HighFrequencyEvents segments one channel into candidate event windows.
func (s *Service) HighFrequencyEvents(ctx context.Context, body, id string) (*EventsReport, error) {
	entry, err := s.store.Lookup(body, id)
	if err != nil {
		return nil, err
	}
	profile := s.Profile(body).Segmentation

	ch, err := prepare(ctx, entry.Channel, profile.ResampleHz)
	if err != nil {
		return nil, err
	}

	windows, err := detect.SegmentHighFrequencyEvents(ch, detect.SegmentParams{
		LowpassHz:  profile.LowpassHz,
		HighpassHz: profile.HighpassHz,
		Sigma:      profile.Sigma,
		Prominence: profile.Prominence,
	})
	if err != nil {
		return nil, err
	}

	return &EventsReport{
		Planet:   body,
		Filename: entry.ID,
		ArrTime:  entry.Arrival,
		Events:   windows,
	}, nil
}

// Waveform returns one channel as plot points with absolute millisecond
// timestamps, decimated to at most maxPoints when maxPoints is positive.
func (s *Service) Waveform(ctx context.Context, body, id string, maxPoints int) (*WaveformReport, error) {
	entry, err := s.store.Lookup(body, id)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ch := entry.Channel
	limit := maxPoints
	if limit <= 0 {
		limit = ch.Len()
	}
	startMS := ch.StartTime.UnixMilli()
	curve := Decimate(ch.Times(), ch.Samples, limit)
	points := make([]PlotPoint, len(curve))
	for i, p := range curve {
		points[i] = PlotPoint{
			Time:  startMS + int64(math.Round(p.Time*1000)),
			Value: p.Value,
		}
	}

	return &WaveformReport{
		Planet:     body,
		Filename:   entry.ID,
		SampleRate: ch.SampleRate,
		StartTime:  ch.StartTime,
		ArrTime:    entry.Arrival,
		Points:     points,
	}, nil
}

// prepare resamples c when the profile asks for a different rate. It checks
// ctx first so a request that has already timed out does no work.
func prepare(ctx context.Context, c *waveform.Channel, resampleHz float64) (*waveform.Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if resampleHz <= 0 || resampleHz == c.SampleRate {
		return c, nil
	}
	out, err := waveform.Resample(c, resampleHz)
	if err != nil {
		return nil, fmt.Errorf("resampling %s to %g Hz: %w", c.ID, resampleHz, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
