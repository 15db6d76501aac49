// Package app wires the catalog, the detectors and the API server together
// and runs them until shutdown.
package app

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/quiver-seismic/quiver/internal/analysis"
	"github.com/quiver-seismic/quiver/internal/log"
	"github.com/quiver-seismic/quiver/internal/managers"
	"github.com/quiver-seismic/quiver/pkg/config"
	"go.uber.org/zap"
)

// App represents the main application
type App struct {
	config *config.ConfigData
	logger *zap.SugaredLogger
}

// New creates a new application instance
func New(cfg *config.ConfigData, logger *zap.SugaredLogger) *App {
	return &App{
		config: cfg,
		logger: logger,
	}
}

// Run loads the catalog, starts the API server and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Catalog loading honours SIGINT too; it can take a while for large data sets
	loadCtx, stopLoad := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	store, err := managers.LoadCatalog(loadCtx, a.config, a.logger)
	stopLoad()
	if err != nil {
		return err
	}

	svc := analysis.NewService(store, a.config.Bodies, a.config.Server.Workers, a.logger)

	cm, err := managers.NewControllerManager(ctx, &wg, a.config, svc, a.logger)
	if err != nil {
		return err
	}
	if err := cm.StartControllers(); err != nil {
		return err
	}

	log.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	// Wait for shutdown signal
	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	log.Info("shutdown complete")

	return nil
}
