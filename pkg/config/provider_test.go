package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

const sampleYAML = `
data:
  base_dir: /data/space_apps_2024_seismic_detection
server:
  port: 9000
  request_timeout: 30s
  workers: 4
bodies:
  - name: moon
    catalog_file: data/lunar/training/catalogs/apollo12_catalog_GradeA_final.csv
    train_dir: data/lunar/training/data/S12_GradeA
    test_dir: data/lunar/test/data
  - name: mars
    test_dir: data/mars/test/data
    stalta:
      trigger_on: 4
      resample_hz: 10
    spectrogram:
      sigma: 0
    segmentation:
      prominence: 0.2
`

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quiver.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestYAMLProviderLoadConfig(t *testing.T) {
	p := NewYAMLProvider(writeYAML(t, sampleYAML))
	cfg, err := p.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Server.Port != 9000 || cfg.Server.RequestTimeout != 30*time.Second || cfg.Server.Workers != 4 {
		t.Errorf("unexpected server config %+v", cfg.Server)
	}
	if cfg.Server.ListenAddr != DefaultListenAddr {
		t.Errorf("expected default listen address, got %q", cfg.Server.ListenAddr)
	}

	moon, ok := cfg.Body("moon")
	if !ok {
		t.Fatal("moon missing")
	}
	if moon.STALTA.STASeconds != 600 || moon.STALTA.LTASeconds != 10000 || moon.STALTA.TriggerOn != 3 {
		t.Errorf("moon should get the lunar default windows, got %+v", moon.STALTA)
	}

	mars, _ := cfg.Body("mars")
	want := DefaultBody("mars")
	want.TestDir = "data/mars/test/data"
	want.STALTA.TriggerOn = 4
	want.STALTA.ResampleHz = 10
	want.Spectrogram.Sigma = 0
	want.Segmentation.Prominence = 0.2
	if !reflect.DeepEqual(mars, want) {
		t.Errorf("mars:\n got %+v\nwant %+v", mars, want)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("sample config should validate: %v", err)
	}

	bodies, err := p.GetBodies()
	if err != nil || len(bodies) != 2 {
		t.Errorf("GetBodies = %d, %v", len(bodies), err)
	}
	if !p.IsReadOnly() {
		t.Error("YAML provider should be read-only")
	}
}

func TestYAMLProviderErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown key", "bodies:\n  - name: moon\n    colour: grey\n"},
		{"bad duration", "server:\n  request_timeout: soon\nbodies:\n  - name: moon\n"},
		{"not yaml", "bodies: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewYAMLProvider(writeYAML(t, tt.content)).LoadConfig(); err == nil {
				t.Error("expected an error")
			}
		})
	}

	if _, err := NewYAMLProvider(filepath.Join(t.TempDir(), "missing.yaml")).LoadConfig(); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestDefaultBody(t *testing.T) {
	tests := []struct {
		body     string
		sta, lta float64
	}{
		{"moon", 600, 10000},
		{"mars", 120, 600},
		{"titan", 120, 600},
	}
	for _, tt := range tests {
		b := DefaultBody(tt.body)
		if b.STALTA.STASeconds != tt.sta || b.STALTA.LTASeconds != tt.lta || b.STALTA.TriggerOn != 3 {
			t.Errorf("%s: unexpected windows %+v", tt.body, b.STALTA)
		}
		if b.Spectrogram.LowpassHz != 1 || b.Spectrogram.HighpassHz != 2 || b.Spectrogram.Sigma != 5 {
			t.Errorf("%s: unexpected spectrogram profile %+v", tt.body, b.Spectrogram)
		}
	}
}

func TestValidate(t *testing.T) {
	valid := func() *ConfigData {
		c := &ConfigData{Bodies: []BodyData{DefaultBody("moon"), DefaultBody("mars")}}
		c.ApplyDefaults()
		return c
	}

	tests := []struct {
		name   string
		mutate func(*ConfigData)
		want   []string
	}{
		{"valid", func(*ConfigData) {}, nil},
		{"no bodies", func(c *ConfigData) { c.Bodies = nil }, []string{"no bodies"}},
		{"empty name", func(c *ConfigData) { c.Bodies[0].Name = "" }, []string{"name is required"}},
		{"duplicate", func(c *ConfigData) { c.Bodies[1].Name = "moon" }, []string{"duplicate"}},
		{"sta above lta", func(c *ConfigData) { c.Bodies[0].STALTA.STASeconds = 20000 }, []string{"exceeds lta"}},
		{"zero window", func(c *ConfigData) { c.Bodies[0].STALTA.LTASeconds = 0 }, []string{"must be positive"}},
		{"trigger at off threshold", func(c *ConfigData) { c.Bodies[0].STALTA.TriggerOn = 1 }, []string{"trigger_on"}},
		{"negative sigma", func(c *ConfigData) { c.Bodies[0].Spectrogram.Sigma = -1 }, []string{"sigma"}},
		{"prominence above one", func(c *ConfigData) { c.Bodies[0].Segmentation.Prominence = 1.5 }, []string{"prominence"}},
		{"negative resample", func(c *ConfigData) { c.Bodies[1].Segmentation.ResampleHz = -5 }, []string{"resample_hz"}},
		{"cert without key", func(c *ConfigData) { c.Server.Cert = "cert.pem" }, []string{"cert and key"}},
		{
			"several problems reported together",
			func(c *ConfigData) {
				c.Server.Port = 70000
				c.Bodies[0].Spectrogram.LowpassHz = 0
				c.Bodies[1].Segmentation.Prominence = 0
			},
			[]string{"port 70000", "spectrogram corner", "prominence 0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if len(tt.want) == 0 {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected an error")
			}
			for _, w := range tt.want {
				if !strings.Contains(err.Error(), w) {
					t.Errorf("error %q does not mention %q", err, w)
				}
			}
		})
	}
}

func TestSQLiteProviderRoundTrip(t *testing.T) {
	yamlCfg, err := NewYAMLProvider(writeYAML(t, sampleYAML)).LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	dbPath := filepath.Join(t.TempDir(), "config.db")
	p, err := NewSQLiteProvider(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteProvider: %v", err)
	}
	defer p.Close()

	if _, err := p.LoadConfig(); err == nil {
		t.Error("expected an error loading an empty database")
	}

	if err := p.SaveConfig(yamlCfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	// Saving twice replaces rather than duplicates.
	if err := p.SaveConfig(yamlCfg); err != nil {
		t.Fatalf("second SaveConfig: %v", err)
	}

	got, err := p.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig from SQLite: %v", err)
	}
	if !reflect.DeepEqual(got, yamlCfg) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, yamlCfg)
	}
}

func TestSQLiteProviderNullParametersUseDefaults(t *testing.T) {
	p, err := NewSQLiteProvider(filepath.Join(t.TempDir(), "config.db"))
	if err != nil {
		t.Fatalf("NewSQLiteProvider: %v", err)
	}
	defer p.Close()

	if _, err := p.db.Exec(`INSERT INTO configs (name) VALUES ('default')`); err != nil {
		t.Fatal(err)
	}
	if _, err := p.db.Exec(`INSERT INTO data_configs (config_id, base_dir) VALUES (1, '/data')`); err != nil {
		t.Fatal(err)
	}
	if _, err := p.db.Exec(`INSERT INTO bodies (config_id, name, stalta_trigger_on) VALUES (1, 'moon', 2.5)`); err != nil {
		t.Fatal(err)
	}

	cfg, err := p.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	want := DefaultBody("moon")
	want.STALTA.TriggerOn = 2.5
	if len(cfg.Bodies) != 1 || !reflect.DeepEqual(cfg.Bodies[0], want) {
		t.Errorf("expected %+v, got %+v", want, cfg.Bodies)
	}
	if cfg.Server.Port != DefaultPort || cfg.Server.RequestTimeout != DefaultRequestTimeout {
		t.Errorf("server defaults not applied: %+v", cfg.Server)
	}
}

func TestMarshalYAMLReloads(t *testing.T) {
	cfg, err := NewYAMLProvider(writeYAML(t, sampleYAML)).LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	out, err := MarshalYAML(cfg)
	if err != nil {
		t.Fatalf("MarshalYAML: %v", err)
	}
	again, err := parseYAML(out)
	if err != nil {
		t.Fatalf("parse: %v\n%s", err, out)
	}
	if !reflect.DeepEqual(again, cfg) {
		t.Errorf("reloaded config differs:\n got %+v\nwant %+v", again, cfg)
	}
}
