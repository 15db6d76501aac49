package detect

import (
	"errors"
	"fmt"
	"strings"

	"github.com/quiver-seismic/quiver/internal/waveform"
)

var (
	// ErrInvalidParameter covers non-positive rates or lengths and corner
	// frequencies at or above Nyquist.
	ErrInvalidParameter = waveform.ErrInvalidParameter

	// ErrNoTriggerFound means the STA/LTA ratio never rose above the on
	// threshold.
	ErrNoTriggerFound = errors.New("no trigger found")

	// ErrNoPeakFound means the smoothed power curve has no interior maximum.
	ErrNoPeakFound = errors.New("no peak found")

	// ErrDegenerateSignal means the power curve has zero dynamic range and
	// cannot be normalized.
	ErrDegenerateSignal = errors.New("degenerate signal")
)

// Param is one named parameter reported alongside a failed detection.
type Param struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// DetectionError records which detector failed on which channel and with
// which parameters, so the caller can retry with different settings.
type DetectionError struct {
	Op        string
	ChannelID string
	Params    []Param
	Err       error
}

func (e *DetectionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s on channel %q: %v", e.Op, e.ChannelID, e.Err)
	if len(e.Params) > 0 {
		b.WriteString(" (")
		for i, p := range e.Params {
			if i > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "%s=%g", p.Name, p.Value)
		}
		b.WriteString(")")
	}
	return b.String()
}

func (e *DetectionError) Unwrap() error {
	return e.Err
}

// Kind returns a stable machine-readable name for the detection failure in
// err's chain, or "" if err is not a detection failure.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidParameter):
		return "invalid_parameter"
	case errors.Is(err, ErrNoTriggerFound):
		return "no_trigger_found"
	case errors.Is(err, ErrNoPeakFound):
		return "no_peak_found"
	case errors.Is(err, ErrDegenerateSignal):
		return "degenerate_signal"
	default:
		return ""
	}
}

func channelID(c *waveform.Channel) string {
	if c == nil {
		return ""
	}
	return c.ID
}
