package restserver

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/quiver-seismic/quiver/internal/analysis"
	"github.com/quiver-seismic/quiver/internal/catalog"
	"github.com/quiver-seismic/quiver/internal/constants"
	"github.com/quiver-seismic/quiver/pkg/config"
	"github.com/quiver-seismic/quiver/pkg/responseformat"
)

// defaultCurvePoints bounds returned detector curves when the client asks
// for one without max_points.
const defaultCurvePoints = 2000

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// BodyInfo summarizes one planetary body for /bodies.
type BodyInfo struct {
	Name     string          `json:"name"`
	Channels int             `json:"channels"`
	Labelled int             `json:"labelled"`
	Profile  config.BodyData `json:"profile"`
}

// ChannelInfo describes one catalogued channel for /channels.
type ChannelInfo struct {
	ID         string        `json:"id"`
	Split      catalog.Split `json:"split"`
	SampleRate float64       `json:"sample_rate"`
	Samples    int           `json:"samples"`
	Duration   float64       `json:"duration_seconds"`
	StartTime  time.Time     `json:"start_time"`
	ArrTime    *float64      `json:"arr_time"`
}

func (h *Handlers) respond(w http.ResponseWriter, req *http.Request, data any) {
	if err := h.formatter.WriteResponse(w, req, data, nil); err != nil {
		h.controller.logger.Debugf("writing response for %s: %v", req.URL.Path, err)
	}
}

// GetIndex greets API clients
func (h *Handlers) GetIndex(w http.ResponseWriter, req *http.Request) {
	h.respond(w, req, map[string]string{
		"message": "Welcome to the Quiver API",
		"version": constants.Version,
	})
}

// GetBodies lists the bodies in the catalog with their channel counts and
// detector profiles
func (h *Handlers) GetBodies(w http.ResponseWriter, req *http.Request) {
	svc := h.controller.service
	store := svc.Store()

	bodies := []BodyInfo{}
	for _, name := range store.Bodies() {
		entries, err := store.Entries(name)
		if err != nil {
			h.writeError(w, req, err)
			return
		}
		info := BodyInfo{Name: name, Channels: len(entries), Profile: svc.Profile(name)}
		for _, e := range entries {
			if e.HasArrival() {
				info.Labelled++
			}
		}
		bodies = append(bodies, info)
	}
	h.respond(w, req, bodies)
}

// GetChannels lists every channel of one body
func (h *Handlers) GetChannels(w http.ResponseWriter, req *http.Request) {
	entries, err := h.controller.service.Store().Entries(mux.Vars(req)["body"])
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	channels := make([]ChannelInfo, len(entries))
	for i, e := range entries {
		channels[i] = ChannelInfo{
			ID:         e.ID,
			Split:      e.Split,
			SampleRate: e.Channel.SampleRate,
			Samples:    e.Channel.Len(),
			Duration:   e.Channel.Duration().Seconds(),
			StartTime:  e.Channel.StartTime,
			ArrTime:    e.Arrival,
		}
	}
	h.respond(w, req, channels)
}

// GetSTALTA runs the STA/LTA trigger on ?q=<channel>
func (h *Handlers) GetSTALTA(w http.ResponseWriter, req *http.Request) {
	id, curve, err := channelQuery(req)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	report, err := h.controller.service.STALTA(req.Context(), mux.Vars(req)["body"], id, curve)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	h.respond(w, req, report)
}

// GetSpectrogram runs the spectrogram peak trigger on ?q=<channel>
func (h *Handlers) GetSpectrogram(w http.ResponseWriter, req *http.Request) {
	id, curve, err := channelQuery(req)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	report, err := h.controller.service.SpectrogramPeak(req.Context(), mux.Vars(req)["body"], id, curve)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	h.respond(w, req, report)
}

// GetEvents segments ?q=<channel> into high-frequency event windows
func (h *Handlers) GetEvents(w http.ResponseWriter, req *http.Request) {
	id, err := requireQuery(req, "q")
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	report, err := h.controller.service.HighFrequencyEvents(req.Context(), mux.Vars(req)["body"], id)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	h.respond(w, req, report)
}

// GetWaveform returns ?q=<channel> as plot points. max_points defaults to
// every sample.
func (h *Handlers) GetWaveform(w http.ResponseWriter, req *http.Request) {
	id, err := requireQuery(req, "q")
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	maxPoints, err := intQuery(req, "max_points", 0)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	report, err := h.controller.service.Waveform(req.Context(), mux.Vars(req)["body"], id, maxPoints)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	h.respond(w, req, report)
}

// GetEvaluation scores a detector against the catalogued arrivals of a body
func (h *Handlers) GetEvaluation(w http.ResponseWriter, req *http.Request) {
	detector := req.URL.Query().Get("detector")
	if detector == "" {
		detector = analysis.DetectorSTALTA
	}
	report, err := h.controller.service.Evaluate(req.Context(), mux.Vars(req)["body"], detector)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	h.respond(w, req, report)
}

// NotFound answers unknown routes with a JSON error
func (h *Handlers) NotFound(w http.ResponseWriter, req *http.Request) {
	_ = h.formatter.WriteError(w, req, http.StatusNotFound, responseformat.ErrorResponse{
		Error: fmt.Sprintf("no route for %s", req.URL.Path),
		Kind:  "not_found",
	})
}

// MethodNotAllowed answers non-GET requests on known routes
func (h *Handlers) MethodNotAllowed(w http.ResponseWriter, req *http.Request) {
	_ = h.formatter.WriteError(w, req, http.StatusMethodNotAllowed, responseformat.ErrorResponse{
		Error: fmt.Sprintf("method %s not allowed", req.Method),
		Kind:  "method_not_allowed",
	})
}

// channelQuery reads q and, when curve=true, the number of curve points to
// return (max_points, default defaultCurvePoints).
func channelQuery(req *http.Request) (string, int, error) {
	id, err := requireQuery(req, "q")
	if err != nil {
		return "", 0, err
	}

	raw := req.URL.Query().Get("curve")
	if raw == "" {
		return id, 0, nil
	}
	want, err := strconv.ParseBool(raw)
	if err != nil {
		return "", 0, fmt.Errorf("%w: curve must be a boolean, got %q", errBadRequest, raw)
	}
	if !want {
		return id, 0, nil
	}
	points, err := intQuery(req, "max_points", defaultCurvePoints)
	if err != nil {
		return "", 0, err
	}
	if points == 0 {
		points = defaultCurvePoints
	}
	return id, points, nil
}

func requireQuery(req *http.Request, name string) (string, error) {
	v := req.URL.Query().Get(name)
	if v == "" {
		return "", fmt.Errorf("%w: missing query parameter %q", errBadRequest, name)
	}
	return v, nil
}

func intQuery(req *http.Request, name string, def int) (int, error) {
	raw := req.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer, got %q", errBadRequest, name, raw)
	}
	return v, nil
}
