// Command quiver-eval scores the detectors against catalogued arrivals and
// runs them on single waveform files.
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/alecthomas/kong"
	"github.com/quiver-seismic/quiver/internal/analysis"
	"github.com/quiver-seismic/quiver/internal/catalog"
	"github.com/quiver-seismic/quiver/internal/constants"
	"github.com/quiver-seismic/quiver/internal/detect"
	"github.com/quiver-seismic/quiver/internal/log"
	"github.com/quiver-seismic/quiver/internal/managers"
	"github.com/quiver-seismic/quiver/pkg/config"
)

// CLI defines the command-line interface
type CLI struct {
	Debug   bool             `help:"Turn on debugging output"`
	Version kong.VersionFlag `short:"v" help:"Show version information"`

	Evaluate EvaluateCmd `cmd:"" help:"Score a detector against the catalogued arrivals of one body"`
	Detect   DetectCmd   `cmd:"" help:"Run every detector on one waveform CSV"`
}

// EvaluateCmd runs one detector over every labelled channel of a body.
type EvaluateCmd struct {
	Config        string `short:"c" type:"path" default:"quiver.yaml" help:"Path to configuration source"`
	ConfigBackend string `default:"yaml" enum:"yaml,sqlite" help:"Configuration backend (yaml or sqlite)"`
	Body          string `short:"b" required:"" help:"Planetary body to evaluate"`
	Detector      string `short:"d" default:"stalta" enum:"stalta,spectrogram" help:"Detector to score (stalta or spectrogram)"`
	Workers       int    `short:"w" help:"Parallel workers (default: number of CPUs)"`
	CSV           string `type:"path" help:"Also write per-channel results to this CSV file"`
}

func (e *EvaluateCmd) Run() error {
	cfg, err := config.Load(e.ConfigBackend, e.Config)
	if err != nil {
		return err
	}
	body, ok := cfg.Body(e.Body)
	if !ok {
		return fmt.Errorf("%w: %q is not configured in %s", catalog.ErrUnknownBody, e.Body, e.Config)
	}
	cfg.Bodies = []config.BodyData{body}
	if e.Workers > 0 {
		cfg.Server.Workers = e.Workers
	}

	ctx := context.Background()
	logger := log.GetSugaredLogger()
	store, err := managers.LoadCatalog(ctx, cfg, logger)
	if err != nil {
		return err
	}

	svc := analysis.NewService(store, cfg.Bodies, cfg.Server.Workers, logger)
	report, err := svc.Evaluate(ctx, body.Name, e.Detector)
	if err != nil {
		return err
	}

	printEvaluation(report)
	if e.CSV != "" {
		if err := writeEvaluationCSV(e.CSV, report); err != nil {
			return err
		}
		fmt.Printf("\nResults written to %s\n", e.CSV)
	}
	return nil
}

// DetectCmd runs every detector on one waveform file.
type DetectCmd struct {
	File       string  `arg:"" type:"existingfile" help:"Waveform CSV (lunar or martian layout)"`
	STA        float64 `default:"120" help:"STA window in seconds"`
	LTA        float64 `default:"600" help:"LTA window in seconds"`
	TriggerOn  float64 `default:"3" help:"STA/LTA on threshold"`
	Lowpass    float64 `default:"1" help:"Lowpass corner in Hz"`
	Highpass   float64 `default:"2" help:"Highpass corner in Hz"`
	Sigma      float64 `default:"5" help:"Gaussian smoothing of the power curve, in time bins"`
	Prominence float64 `default:"0.01" help:"Minimum normalized peak prominence for event windows"`
}

func (d *DetectCmd) Run() error {
	f, err := os.Open(d.File)
	if err != nil {
		return err
	}
	defer f.Close()

	ch, err := catalog.ReadWaveform(f, catalog.StemID(filepath.Base(d.File)))
	if err != nil {
		return fmt.Errorf("reading %s: %w", d.File, err)
	}
	fmt.Printf("%s: %d samples at %.3f Hz starting %s\n\n", ch.ID, ch.Len(), ch.SampleRate, ch.StartTime.Format("2006-01-02T15:04:05.000"))

	// Detection failures are results here, not reasons to stop
	if res, err := detect.DetectSTALTA(ch, detect.STALTAParams{STASeconds: d.STA, LTASeconds: d.LTA, TriggerOn: d.TriggerOn}); err != nil {
		fmt.Printf("STA/LTA:      %v\n", err)
	} else {
		fmt.Printf("STA/LTA:      arrival at %.2f s\n", res.ArrivalTime)
	}

	if res, err := detect.DetectSpectrogramPeak(ch, detect.SpectrogramParams{LowpassHz: d.Lowpass, HighpassHz: d.Highpass, Sigma: d.Sigma}); err != nil {
		fmt.Printf("Spectrogram:  %v\n", err)
	} else {
		fmt.Printf("Spectrogram:  arrival at %.2f s\n", res.ArrivalTime)
	}

	windows, err := detect.SegmentHighFrequencyEvents(ch, detect.SegmentParams{
		LowpassHz:  d.Lowpass,
		HighpassHz: d.Highpass,
		Sigma:      d.Sigma,
		Prominence: d.Prominence,
	})
	if err != nil {
		fmt.Printf("Events:       %v\n", err)
		return nil
	}
	fmt.Printf("Events:       %d window(s)\n", len(windows))
	if len(windows) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tpeak (s)\tleft (s)\tright (s)\twidth (s)\tprominence")
	for _, w := range windows {
		fmt.Fprintf(tw, "\t%.1f\t%.1f\t%.1f\t%.1f\t%.3f\n", w.PeakTime, w.LeftBound, w.RightBound, w.Width, w.Prominence)
	}
	return tw.Flush()
}

func printEvaluation(r *analysis.EvaluationReport) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "filename\tarrival (s)\tpredicted (s)\tabs error (s)")
	for _, res := range r.Results {
		pred, absErr := res.Failure, ""
		if res.ArrTimePred != nil {
			pred = strconv.FormatFloat(*res.ArrTimePred, 'f', 1, 64)
			absErr = strconv.FormatFloat(*res.AbsError, 'f', 1, 64)
		}
		fmt.Fprintf(tw, "%s\t%.1f\t%s\t%s\n", res.Filename, res.ArrTime, pred, absErr)
	}
	tw.Flush()

	s := r.Summary
	fmt.Printf("\n%s on %s: %d of %d channels detected\n", r.Detector, r.Planet, s.Detected, s.Channels)
	if s.Detected > 0 {
		fmt.Printf("absolute error: mean %.1f s, std %.1f s, median %.1f s\n", s.MeanAbsError, s.StdAbsError, s.MedianAbsError)
	}
}

func writeEvaluationCSV(path string, r *analysis.EvaluationReport) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"filename", "arr_time", "arr_time_pred", "abs_error", "failure"}); err != nil {
		return err
	}
	for _, res := range r.Results {
		row := []string{res.Filename, strconv.FormatFloat(res.ArrTime, 'f', -1, 64), "", "", res.Failure}
		if res.ArrTimePred != nil {
			row[2] = strconv.FormatFloat(*res.ArrTimePred, 'f', -1, 64)
			row[3] = strconv.FormatFloat(*res.AbsError, 'f', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("quiver-eval"),
		kong.Description("Evaluate and run planetary seismic event detectors"),
		kong.UsageOnError(),
		kong.Vars{
			"version": constants.Version,
		},
	)

	if err := log.Init(log.Options{Debug: cli.Debug}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx.FatalIfErrorf(ctx.Run())
}
