package config

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	DefaultListenAddr     = "0.0.0.0"
	DefaultPort           = 8000
	DefaultRequestTimeout = 60 * time.Second

	// TriggerOff is the fixed STA/LTA release threshold; trigger_on must
	// exceed it.
	TriggerOff = 1.0
)

// DefaultBody returns the detector profile used for a body when the
// configuration does not override it. The moon's long-period coda gets
// wider STA/LTA windows; every other body uses the martian windows.
func DefaultBody(name string) BodyData {
	b := BodyData{
		Name: name,
		STALTA: STALTAData{
			STASeconds: 120,
			LTASeconds: 600,
			TriggerOn:  3,
		},
		Spectrogram: SpectrogramData{
			LowpassHz:  1,
			HighpassHz: 2,
			Sigma:      5,
		},
		Segmentation: SegmentationData{
			LowpassHz:  1,
			HighpassHz: 2,
			Sigma:      5,
			Prominence: 0.01,
		},
	}
	if name == "moon" {
		b.STALTA.STASeconds = 600
		b.STALTA.LTASeconds = 10000
	}
	return b
}

// ApplyDefaults fills unset server settings
func (c *ConfigData) ApplyDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = DefaultListenAddr
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = DefaultRequestTimeout
	}
}

// Validate reports every problem in the configuration at once
func (c *ConfigData) Validate() error {
	var errs []error

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server: port %d out of range", c.Server.Port))
	}
	if c.Server.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("server: request timeout must not be negative"))
	}
	if c.Server.Workers < 0 {
		errs = append(errs, fmt.Errorf("server: workers must not be negative"))
	}
	if (c.Server.Cert == "") != (c.Server.Key == "") {
		errs = append(errs, fmt.Errorf("server: cert and key must be set together"))
	}

	if len(c.Bodies) == 0 {
		errs = append(errs, fmt.Errorf("no bodies configured"))
	}
	seen := make(map[string]bool)
	for i, b := range c.Bodies {
		if b.Name == "" {
			errs = append(errs, fmt.Errorf("body %d: name is required", i))
			continue
		}
		if seen[b.Name] {
			errs = append(errs, fmt.Errorf("body %s: duplicate name", b.Name))
		}
		seen[b.Name] = true
		errs = append(errs, b.validate()...)
	}

	return errors.Join(errs...)
}

func (b BodyData) validate() []error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("body %s: "+format, append([]any{b.Name}, args...)...))
	}

	s := b.STALTA
	if !positive(s.STASeconds) || !positive(s.LTASeconds) {
		bad("stalta windows must be positive (sta %v, lta %v)", s.STASeconds, s.LTASeconds)
	} else if s.STASeconds > s.LTASeconds {
		bad("stalta sta %v s exceeds lta %v s", s.STASeconds, s.LTASeconds)
	}
	if !(s.TriggerOn > TriggerOff) || math.IsInf(s.TriggerOn, 0) {
		bad("stalta trigger_on %v must exceed %v", s.TriggerOn, TriggerOff)
	}

	if !positive(b.Spectrogram.LowpassHz) || !positive(b.Spectrogram.HighpassHz) {
		bad("spectrogram corner frequencies must be positive")
	}
	if !(b.Spectrogram.Sigma >= 0) {
		bad("spectrogram sigma %v must not be negative", b.Spectrogram.Sigma)
	}

	g := b.Segmentation
	if !positive(g.LowpassHz) || !positive(g.HighpassHz) {
		bad("segmentation corner frequencies must be positive")
	}
	if !(g.Sigma >= 0) {
		bad("segmentation sigma %v must not be negative", g.Sigma)
	}
	if !(g.Prominence > 0 && g.Prominence <= 1) {
		bad("segmentation prominence %v must be in (0, 1]", g.Prominence)
	}

	for _, r := range []struct {
		stage string
		hz    float64
	}{
		{"stalta", s.ResampleHz},
		{"spectrogram", b.Spectrogram.ResampleHz},
		{"segmentation", g.ResampleHz},
	} {
		if !(r.hz >= 0) {
			bad("%s resample_hz %v must not be negative", r.stage, r.hz)
		}
	}
	return errs
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
