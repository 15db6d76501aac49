package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	config, err := parseYAML(cfgFile)
	if err != nil {
		return nil, err
	}

	y.config = config
	return config, nil
}

func parseYAML(in []byte) (*ConfigData, error) {
	// Load into temporary struct with YAML tags
	var yamlConfig struct {
		Data   DataYAML   `yaml:"data"`
		Server ServerYAML `yaml:"server,omitempty"`
		Bodies []BodyYAML `yaml:"bodies"`
	}

	if err := yaml.UnmarshalStrict(in, &yamlConfig); err != nil {
		return nil, err
	}

	config := &ConfigData{
		Data: DataConfig{BaseDir: yamlConfig.Data.BaseDir},
		Server: ServerData{
			ListenAddr: yamlConfig.Server.ListenAddr,
			Port:       yamlConfig.Server.Port,
			Cert:       yamlConfig.Server.Cert,
			Key:        yamlConfig.Server.Key,
			Workers:    yamlConfig.Server.Workers,
		},
		Bodies: make([]BodyData, len(yamlConfig.Bodies)),
	}

	if yamlConfig.Server.RequestTimeout != "" {
		timeout, err := time.ParseDuration(yamlConfig.Server.RequestTimeout)
		if err != nil {
			return nil, fmt.Errorf("server.request_timeout: %w", err)
		}
		config.Server.RequestTimeout = timeout
	}

	// Start every body from its default profile and apply overrides
	for i, body := range yamlConfig.Bodies {
		b := DefaultBody(body.Name)
		b.CatalogFile = body.CatalogFile
		b.TrainDir = body.TrainDir
		b.TestDir = body.TestDir

		set(&b.STALTA.STASeconds, body.STALTA.STASeconds)
		set(&b.STALTA.LTASeconds, body.STALTA.LTASeconds)
		set(&b.STALTA.TriggerOn, body.STALTA.TriggerOn)
		set(&b.STALTA.ResampleHz, body.STALTA.ResampleHz)

		set(&b.Spectrogram.LowpassHz, body.Spectrogram.LowpassHz)
		set(&b.Spectrogram.HighpassHz, body.Spectrogram.HighpassHz)
		set(&b.Spectrogram.Sigma, body.Spectrogram.Sigma)
		set(&b.Spectrogram.ResampleHz, body.Spectrogram.ResampleHz)

		set(&b.Segmentation.LowpassHz, body.Segmentation.LowpassHz)
		set(&b.Segmentation.HighpassHz, body.Segmentation.HighpassHz)
		set(&b.Segmentation.Sigma, body.Segmentation.Sigma)
		set(&b.Segmentation.Prominence, body.Segmentation.Prominence)
		set(&b.Segmentation.ResampleHz, body.Segmentation.ResampleHz)

		config.Bodies[i] = b
	}

	config.ApplyDefaults()
	return config, nil
}

// set overwrites dst when the YAML field was present
func set(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// GetBodies returns body configurations
func (y *YAMLProvider) GetBodies() ([]BodyData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return y.config.Bodies, nil
}

// GetServerConfig returns server configuration
func (y *YAMLProvider) GetServerConfig() (*ServerData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return &y.config.Server, nil
}

// IsReadOnly returns true since YAML files are read-only through this interface
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}

// YAML-specific structs. Detector parameters are pointers so an explicit
// zero (sigma: 0 disables smoothing) can be told apart from an absent key.
type DataYAML struct {
	BaseDir string `yaml:"base_dir"`
}

type ServerYAML struct {
	ListenAddr     string `yaml:"listen_addr,omitempty"`
	Port           int    `yaml:"port,omitempty"`
	Cert           string `yaml:"cert,omitempty"`
	Key            string `yaml:"key,omitempty"`
	RequestTimeout string `yaml:"request_timeout,omitempty"`
	Workers        int    `yaml:"workers,omitempty"`
}

type BodyYAML struct {
	Name         string           `yaml:"name"`
	CatalogFile  string           `yaml:"catalog_file,omitempty"`
	TrainDir     string           `yaml:"train_dir,omitempty"`
	TestDir      string           `yaml:"test_dir,omitempty"`
	STALTA       STALTAYAML       `yaml:"stalta,omitempty"`
	Spectrogram  SpectrogramYAML  `yaml:"spectrogram,omitempty"`
	Segmentation SegmentationYAML `yaml:"segmentation,omitempty"`
}

type STALTAYAML struct {
	STASeconds *float64 `yaml:"sta_seconds,omitempty"`
	LTASeconds *float64 `yaml:"lta_seconds,omitempty"`
	TriggerOn  *float64 `yaml:"trigger_on,omitempty"`
	ResampleHz *float64 `yaml:"resample_hz,omitempty"`
}

type SpectrogramYAML struct {
	LowpassHz  *float64 `yaml:"lowpass_hz,omitempty"`
	HighpassHz *float64 `yaml:"highpass_hz,omitempty"`
	Sigma      *float64 `yaml:"sigma,omitempty"`
	ResampleHz *float64 `yaml:"resample_hz,omitempty"`
}

type SegmentationYAML struct {
	LowpassHz  *float64 `yaml:"lowpass_hz,omitempty"`
	HighpassHz *float64 `yaml:"highpass_hz,omitempty"`
	Sigma      *float64 `yaml:"sigma,omitempty"`
	Prominence *float64 `yaml:"prominence,omitempty"`
	ResampleHz *float64 `yaml:"resample_hz,omitempty"`
}

// MarshalYAML renders a configuration in the format LoadConfig reads
func MarshalYAML(c *ConfigData) ([]byte, error) {
	out := struct {
		Data   DataYAML   `yaml:"data"`
		Server ServerYAML `yaml:"server"`
		Bodies []BodyYAML `yaml:"bodies"`
	}{
		Data: DataYAML{BaseDir: c.Data.BaseDir},
		Server: ServerYAML{
			ListenAddr: c.Server.ListenAddr,
			Port:       c.Server.Port,
			Cert:       c.Server.Cert,
			Key:        c.Server.Key,
			Workers:    c.Server.Workers,
		},
	}
	if c.Server.RequestTimeout != 0 {
		out.Server.RequestTimeout = c.Server.RequestTimeout.String()
	}

	for _, b := range c.Bodies {
		out.Bodies = append(out.Bodies, BodyYAML{
			Name:        b.Name,
			CatalogFile: b.CatalogFile,
			TrainDir:    b.TrainDir,
			TestDir:     b.TestDir,
			STALTA: STALTAYAML{
				STASeconds: ptr(b.STALTA.STASeconds),
				LTASeconds: ptr(b.STALTA.LTASeconds),
				TriggerOn:  ptr(b.STALTA.TriggerOn),
				ResampleHz: ptr(b.STALTA.ResampleHz),
			},
			Spectrogram: SpectrogramYAML{
				LowpassHz:  ptr(b.Spectrogram.LowpassHz),
				HighpassHz: ptr(b.Spectrogram.HighpassHz),
				Sigma:      ptr(b.Spectrogram.Sigma),
				ResampleHz: ptr(b.Spectrogram.ResampleHz),
			},
			Segmentation: SegmentationYAML{
				LowpassHz:  ptr(b.Segmentation.LowpassHz),
				HighpassHz: ptr(b.Segmentation.HighpassHz),
				Sigma:      ptr(b.Segmentation.Sigma),
				Prominence: ptr(b.Segmentation.Prominence),
				ResampleHz: ptr(b.Segmentation.ResampleHz),
			},
		})
	}
	return yaml.Marshal(out)
}

func ptr(v float64) *float64 {
	return &v
}
