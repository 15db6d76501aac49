package config

import "time"

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration, with defaults applied
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetBodies() ([]BodyData, error)
	GetServerConfig() (*ServerData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Data   DataConfig `json:"data"`
	Server ServerData `json:"server"`
	Bodies []BodyData `json:"bodies"`
}

// DataConfig locates the seismic data set on disk
type DataConfig struct {
	BaseDir string `json:"base_dir"`
}

// ServerData holds the API server and worker settings
type ServerData struct {
	ListenAddr     string        `json:"listen_addr,omitempty"`
	Port           int           `json:"port,omitempty"`
	Cert           string        `json:"cert,omitempty"`
	Key            string        `json:"key,omitempty"`
	RequestTimeout time.Duration `json:"request_timeout,omitempty"`
	Workers        int           `json:"workers,omitempty"`
}

// BodyData is the data layout and detector profile of one planetary body
type BodyData struct {
	Name         string           `json:"name"`
	CatalogFile  string           `json:"catalog_file,omitempty"`
	TrainDir     string           `json:"train_dir,omitempty"`
	TestDir      string           `json:"test_dir,omitempty"`
	STALTA       STALTAData       `json:"stalta"`
	Spectrogram  SpectrogramData  `json:"spectrogram"`
	Segmentation SegmentationData `json:"segmentation"`
}

// STALTAData configures the STA/LTA trigger. Window lengths are seconds.
type STALTAData struct {
	STASeconds float64 `json:"sta_seconds"`
	LTASeconds float64 `json:"lta_seconds"`
	TriggerOn  float64 `json:"trigger_on"`
	ResampleHz float64 `json:"resample_hz,omitempty"`
}

// SpectrogramData configures the spectrogram peak trigger
type SpectrogramData struct {
	LowpassHz  float64 `json:"lowpass_hz"`
	HighpassHz float64 `json:"highpass_hz"`
	Sigma      float64 `json:"sigma"`
	ResampleHz float64 `json:"resample_hz,omitempty"`
}

// SegmentationData configures high-frequency event segmentation
type SegmentationData struct {
	LowpassHz  float64 `json:"lowpass_hz"`
	HighpassHz float64 `json:"highpass_hz"`
	Sigma      float64 `json:"sigma"`
	Prominence float64 `json:"prominence"`
	ResampleHz float64 `json:"resample_hz,omitempty"`
}

// Body returns the configuration of the named body
func (c *ConfigData) Body(name string) (BodyData, bool) {
	for _, b := range c.Bodies {
		if b.Name == name {
			return b, true
		}
	}
	return BodyData{}, false
}
