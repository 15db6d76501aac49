package config

import (
	"fmt"
	"path/filepath"
)

// Backend names accepted by Open.
const (
	BackendYAML   = "yaml"
	BackendSQLite = "sqlite"
)

// Open returns the provider for backend reading from path.
func Open(backend, path string) (ConfigProvider, error) {
	filename, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	switch backend {
	case BackendYAML:
		return NewYAMLProvider(filename), nil
	case BackendSQLite:
		provider, err := NewSQLiteProvider(filename)
		if err != nil {
			return nil, fmt.Errorf("error creating SQLite provider: %w", err)
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("unsupported configuration backend: %s. Use '%s' or '%s'", backend, BackendYAML, BackendSQLite)
	}
}

// Load opens backend at path, reads the configuration and validates it.
func Load(backend, path string) (*ConfigData, error) {
	provider, err := Open(backend, path)
	if err != nil {
		return nil, err
	}
	defer provider.Close()

	cfg, err := provider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error reading config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return cfg, nil
}
