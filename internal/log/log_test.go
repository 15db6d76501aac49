package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quiver.log")
	if err := Init(Options{File: path, MaxSizeMB: 1}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	Infof("loaded %d channels", 42)
	Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "loaded 42 channels") {
		t.Errorf("log file missing entry: %s", data)
	}
}

func TestLogHTTPRequest(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core).Sugar()

	LogHTTPRequest(logger, HTTPLogEntry{RequestID: "abc", Method: "GET", Path: "/stalta/moon", Status: 200, Duration: 15 * time.Millisecond})
	LogHTTPRequest(logger, HTTPLogEntry{RequestID: "def", Method: "GET", Path: "/events/mars", Status: 500})

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Level != zap.InfoLevel || entries[0].ContextMap()["request_id"] != "abc" {
		t.Errorf("unexpected first entry %+v", entries[0])
	}
	if entries[0].ContextMap()["duration_ms"] != int64(15) {
		t.Errorf("duration_ms = %v", entries[0].ContextMap()["duration_ms"])
	}
	if entries[1].Level != zap.ErrorLevel {
		t.Errorf("server error should be logged at error level, got %v", entries[1].Level)
	}
}
