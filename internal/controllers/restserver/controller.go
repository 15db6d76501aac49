// Package restserver serves the detectors over HTTP.
package restserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/quiver-seismic/quiver/internal/analysis"
	"github.com/quiver-seismic/quiver/pkg/config"
	"go.uber.org/zap"
)

// Controller represents the REST server controller
type Controller struct {
	ctx          context.Context
	wg           *sync.WaitGroup
	serverConfig config.ServerData
	Server       http.Server
	service      *analysis.Service
	logger       *zap.SugaredLogger
	handlers     *Handlers
}

// NewController creates a new REST server controller
func NewController(ctx context.Context, wg *sync.WaitGroup, svc *analysis.Service, sc config.ServerData, logger *zap.SugaredLogger) (*Controller, error) {
	if svc == nil {
		return nil, fmt.Errorf("REST server requires an analysis service")
	}

	if sc.ListenAddr == "" {
		logger.Infof("server.listen_addr not provided; defaulting to %s (all interfaces)", config.DefaultListenAddr)
		sc.ListenAddr = config.DefaultListenAddr
	}
	if sc.Port == 0 {
		logger.Infof("server.port not provided; defaulting to %d", config.DefaultPort)
		sc.Port = config.DefaultPort
	}
	if sc.RequestTimeout == 0 {
		sc.RequestTimeout = config.DefaultRequestTimeout
	}

	ctrl := &Controller{
		ctx:          ctx,
		wg:           wg,
		serverConfig: sc,
		service:      svc,
		logger:       logger,
	}
	ctrl.handlers = NewHandlers(ctrl)

	ctrl.Server.Addr = fmt.Sprintf("%v:%v", sc.ListenAddr, sc.Port)
	ctrl.Server.Handler = ctrl.Handler()
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl, nil
}

// Handler returns the full middleware chain wrapped around the router.
func (c *Controller) Handler() http.Handler {
	var h http.Handler = c.setupRouter()
	h = http.TimeoutHandler(h, c.serverConfig.RequestTimeout, timeoutBody)
	h = c.loggingMiddleware(h)
	h = requestIDMiddleware(h)
	h = c.recoveryMiddleware(h)
	return corsMiddleware(h)
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	c.logger.Infof("Starting REST server on %s...", c.Server.Addr)
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		if c.serverConfig.Cert != "" && c.serverConfig.Key != "" {
			if err := c.Server.ListenAndServeTLS(c.serverConfig.Cert, c.serverConfig.Key); err != http.ErrServerClosed {
				c.logger.Errorf("REST server error: %v", err)
			}
		} else {
			if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
				c.logger.Errorf("REST server error: %v", err)
			}
		}
	}()

	go func() {
		<-c.ctx.Done()
		c.logger.Info("Shutting down the REST server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.Server.Shutdown(shutdownCtx); err != nil {
			c.logger.Errorf("REST server shutdown: %v", err)
		}
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/", c.handlers.GetIndex).Methods(http.MethodGet)
	router.HandleFunc("/bodies", c.handlers.GetBodies).Methods(http.MethodGet)
	router.HandleFunc("/channels/{body}", c.handlers.GetChannels).Methods(http.MethodGet)
	router.HandleFunc("/stalta/{body}", c.handlers.GetSTALTA).Methods(http.MethodGet)
	router.HandleFunc("/spectrogram/{body}", c.handlers.GetSpectrogram).Methods(http.MethodGet)
	router.HandleFunc("/events/{body}", c.handlers.GetEvents).Methods(http.MethodGet)
	router.HandleFunc("/waveform/{body}", c.handlers.GetWaveform).Methods(http.MethodGet)
	router.HandleFunc("/evaluate/{body}", c.handlers.GetEvaluation).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(c.handlers.NotFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(c.handlers.MethodNotAllowed)

	return router
}
