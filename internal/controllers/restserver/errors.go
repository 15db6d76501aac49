package restserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/quiver-seismic/quiver/internal/analysis"
	"github.com/quiver-seismic/quiver/internal/catalog"
	"github.com/quiver-seismic/quiver/internal/detect"
	"github.com/quiver-seismic/quiver/pkg/responseformat"
)

// errBadRequest marks malformed query parameters.
var errBadRequest = errors.New("bad request")

// errorStatus maps an error from the analysis layer to an HTTP status and
// response body. Detection failures carry their kind, channel and the
// parameters that were used.
func errorStatus(err error) (int, responseformat.ErrorResponse) {
	body := responseformat.ErrorResponse{Error: err.Error()}

	var de *detect.DetectionError
	if errors.As(err, &de) {
		body.Channel = de.ChannelID
		if len(de.Params) > 0 {
			body.Params = de.Params
		}
	}

	switch {
	case errors.Is(err, errBadRequest):
		body.Kind = "bad_request"
		return http.StatusBadRequest, body
	case errors.Is(err, analysis.ErrUnknownDetector):
		body.Kind = "unknown_detector"
		return http.StatusBadRequest, body
	case errors.Is(err, detect.ErrInvalidParameter):
		body.Kind = detect.Kind(err)
		return http.StatusBadRequest, body
	case errors.Is(err, catalog.ErrUnknownBody):
		body.Kind = "unknown_body"
		return http.StatusNotFound, body
	case errors.Is(err, catalog.ErrUnknownChannel):
		body.Kind = "unknown_channel"
		return http.StatusNotFound, body
	case detect.Kind(err) != "":
		body.Kind = detect.Kind(err)
		return http.StatusUnprocessableEntity, body
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		body.Kind = "timeout"
		return http.StatusServiceUnavailable, body
	default:
		return http.StatusInternalServerError, responseformat.ErrorResponse{Error: "internal server error"}
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, req *http.Request, err error) {
	status, body := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.controller.logger.Errorw("request failed",
			"request_id", RequestID(req.Context()), "path", req.URL.Path, "error", err)
	}
	if werr := h.formatter.WriteError(w, req, status, body); werr != nil {
		h.controller.logger.Debugf("writing error response: %v", werr)
	}
}
