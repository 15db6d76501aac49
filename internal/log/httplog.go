package log

import (
	"time"

	"go.uber.org/zap"
)

// HTTPLogEntry describes one served request
type HTTPLogEntry struct {
	RequestID  string
	Method     string
	Path       string
	Status     int
	Duration   time.Duration
	Size       int
	RemoteAddr string
	UserAgent  string
}

// LogHTTPRequest writes one structured line for a served request to logger.
// Server errors are logged at error level.
func LogHTTPRequest(logger *zap.SugaredLogger, e HTTPLogEntry) {
	fields := []interface{}{
		"request_id", e.RequestID,
		"method", e.Method,
		"path", e.Path,
		"status", e.Status,
		"duration_ms", e.Duration.Milliseconds(),
		"size", e.Size,
		"remote_addr", e.RemoteAddr,
		"user_agent", e.UserAgent,
	}
	if e.Status >= 500 {
		logger.Errorw("http request", fields...)
		return
	}
	logger.Infow("http request", fields...)
}
