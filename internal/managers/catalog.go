package managers

import (
	"context"
	"fmt"

	"github.com/quiver-seismic/quiver/internal/catalog"
	"github.com/quiver-seismic/quiver/pkg/config"
	"go.uber.org/zap"
)

// LoadCatalog reads every configured body's catalog and waveforms into an
// immutable store. Bodies without a catalog file are known but empty.
func LoadCatalog(ctx context.Context, c *config.ConfigData, logger *zap.SugaredLogger) (*catalog.Store, error) {
	sources := make([]catalog.Source, 0, len(c.Bodies))
	for _, b := range c.Bodies {
		sources = append(sources, catalog.Source{
			Body:        b.Name,
			CatalogFile: b.CatalogFile,
			TrainDir:    b.TrainDir,
			TestDir:     b.TestDir,
		})
	}

	loader := catalog.NewLoader(c.Data.BaseDir, c.Server.Workers, logger)
	store, err := loader.Load(ctx, sources)
	if err != nil {
		return nil, fmt.Errorf("could not load seismic catalog: %w", err)
	}

	for _, body := range store.Bodies() {
		logger.Infof("loaded %d channels for %s", store.Len(body), body)
	}
	return store, nil
}
