package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/quiver-seismic/quiver/internal/catalog"
	"github.com/quiver-seismic/quiver/internal/detect"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// Detector names accepted by Evaluate.
const (
	DetectorSTALTA      = "stalta"
	DetectorSpectrogram = "spectrogram"
)

// ErrUnknownDetector is returned by Evaluate for an unrecognised detector name.
var ErrUnknownDetector = errors.New("unknown detector")

// EvaluationResult compares one labelled channel's prediction with its
// catalogued arrival. Failure holds the detection failure kind when the
// detector produced no arrival.
type EvaluationResult struct {
	Filename    string   `json:"filename"`
	ArrTime     float64  `json:"arr_time"`
	ArrTimePred *float64 `json:"arr_time_pred"`
	AbsError    *float64 `json:"abs_error"`
	Failure     string   `json:"failure,omitempty"`
}

// EvaluationSummary aggregates absolute arrival errors over the channels
// where the detector produced an arrival.
type EvaluationSummary struct {
	Channels       int     `json:"channels"`
	Detected       int     `json:"detected"`
	MeanAbsError   float64 `json:"mean_abs_error"`
	StdAbsError    float64 `json:"std_abs_error"`
	MedianAbsError float64 `json:"median_abs_error"`
}

// EvaluationReport is the outcome of running one detector over every
// labelled channel of a body.
type EvaluationReport struct {
	Planet   string             `json:"planet"`
	Detector string             `json:"detector"`
	Results  []EvaluationResult `json:"results"`
	Summary  EvaluationSummary  `json:"summary"`
}

// Evaluate runs detector over every channel of body that has a catalogued
// arrival, in parallel, and summarizes the absolute arrival errors.
// Detection failures are recorded per channel; only cancellation and
// unexpected errors abort the run.
func (s *Service) Evaluate(ctx context.Context, body, detector string) (*EvaluationReport, error) {
	var predict func(context.Context, string) (float64, error)
	switch detector {
	case DetectorSTALTA:
		predict = func(ctx context.Context, id string) (float64, error) {
			r, err := s.STALTA(ctx, body, id, 0)
			if err != nil {
				return 0, err
			}
			return r.ArrTimePred, nil
		}
	case DetectorSpectrogram:
		predict = func(ctx context.Context, id string) (float64, error) {
			r, err := s.SpectrogramPeak(ctx, body, id, 0)
			if err != nil {
				return 0, err
			}
			return r.ArrTimePred, nil
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDetector, detector)
	}

	entries, err := s.store.Entries(body)
	if err != nil {
		return nil, err
	}
	var labelled []*catalog.Entry
	for _, e := range entries {
		if e.HasArrival() {
			labelled = append(labelled, e)
		}
	}

	results := make([]EvaluationResult, len(labelled))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, e := range labelled {
		g.Go(func() error {
			results[i] = EvaluationResult{Filename: e.ID, ArrTime: *e.Arrival}
			pred, err := predict(ctx, e.ID)
			if err != nil {
				kind := detect.Kind(err)
				if kind == "" {
					return fmt.Errorf("evaluating %s: %w", e.ID, err)
				}
				s.logger.Debugf("%s %s: %v", detector, e.ID, err)
				results[i].Failure = kind
				return nil
			}
			absErr := math.Abs(pred - *e.Arrival)
			results[i].ArrTimePred = &pred
			results[i].AbsError = &absErr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &EvaluationReport{
		Planet:   body,
		Detector: detector,
		Results:  results,
		Summary:  summarize(results),
	}
	s.logger.Infof("evaluated %s on %s: %d/%d detected, mean abs error %.1f s",
		detector, body, report.Summary.Detected, report.Summary.Channels, report.Summary.MeanAbsError)
	return report, nil
}

func summarize(results []EvaluationResult) EvaluationSummary {
	sum := EvaluationSummary{Channels: len(results)}

	var errs []float64
	for _, r := range results {
		if r.AbsError != nil {
			errs = append(errs, *r.AbsError)
		}
	}
	sum.Detected = len(errs)
	if len(errs) == 0 {
		return sum
	}

	sum.MeanAbsError = stat.Mean(errs, nil)
	if len(errs) > 1 {
		sum.StdAbsError = stat.StdDev(errs, nil)
	}
	sort.Float64s(errs)
	sum.MedianAbsError = stat.Quantile(0.5, stat.Empirical, errs, nil)
	return sum
}
