package restserver

import (
	"context"
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/quiver-seismic/quiver/internal/log"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

const timeoutBody = `{"error":"request timed out","kind":"timeout"}`

type contextKey string

const requestIDContextKey contextKey = "request_id"

// RequestID returns the id assigned to the request by the request id
// middleware, or "" outside of it.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDContextKey).(string); ok {
		return id
	}
	return ""
}

// requestIDMiddleware keeps a client-supplied X-Request-ID or assigns a new
// one, and echoes it on the response.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDContextKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (c *Controller) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		log.LogHTTPRequest(c.logger, log.HTTPLogEntry{
			RequestID:  RequestID(r.Context()),
			Method:     r.Method,
			Path:       r.URL.Path,
			Status:     m.Code,
			Duration:   m.Duration,
			Size:       int(m.Written),
			RemoteAddr: r.RemoteAddr,
			UserAgent:  r.UserAgent(),
		})
	})
}

// recoveryLogger adapts zap to the Println logger gorilla/handlers expects.
type recoveryLogger struct {
	logger *zap.SugaredLogger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.logger.Error(v...)
}

func (c *Controller) recoveryMiddleware(next http.Handler) http.Handler {
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{logger: c.logger}),
		handlers.PrintRecoveryStack(c.logger.Desugar().Core().Enabled(zap.DebugLevel)),
	)(next)
}

func corsMiddleware(next http.Handler) http.Handler {
	return handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
		handlers.AllowedHeaders([]string{RequestIDHeader}),
		handlers.ExposedHeaders([]string{RequestIDHeader}),
	)(next)
}
