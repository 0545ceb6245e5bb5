// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ManuGH/futureme/internal/capture"
	"github.com/ManuGH/futureme/internal/log"
	"github.com/ManuGH/futureme/internal/recording"
	"github.com/ManuGH/futureme/internal/remote"
	"github.com/ManuGH/futureme/internal/store"
)

// Problem is the error body of every non-2xx response.
type Problem struct {
	Error     string `json:"error"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, r *http.Request, code int, kind, detail string) {
	writeJSON(w, code, Problem{
		Error:     kind,
		Detail:    detail,
		RequestID: log.RequestIDFromContext(r.Context()),
	})
}

// writeError maps domain errors onto status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, kind := classify(err)
	if code >= http.StatusInternalServerError {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().Err(err).Msg("request failed")
	}
	writeProblem(w, r, code, kind, err.Error())
}

func classify(err error) (int, string) {
	var de *capture.DeviceError
	switch {
	case errors.As(err, &de):
		if de.Kind == capture.DeviceDenied {
			return http.StatusForbidden, "device_" + string(de.Kind)
		}
		return http.StatusServiceUnavailable, "device_" + string(de.Kind)
	case errors.Is(err, capture.ErrIllegalTransition):
		return http.StatusConflict, "illegal_transition"
	case errors.Is(err, capture.ErrBusy):
		return http.StatusConflict, "busy"
	case errors.Is(err, capture.ErrCancelled):
		return http.StatusConflict, "cancelled"
	case errors.Is(err, capture.ErrPauseUnsupported):
		return http.StatusNotImplemented, "pause_unsupported"
	case errors.Is(err, capture.ErrRecordingUnsupported), errors.Is(err, recording.ErrUnsupported):
		return http.StatusServiceUnavailable, "recording_unsupported"
	case errors.Is(err, capture.ErrRecorderStart):
		return http.StatusServiceUnavailable, "recording_unavailable"
	case errors.Is(err, remote.ErrUnsupported):
		return http.StatusNotImplemented, "remote_unsupported"
	case errors.Is(err, remote.ErrUnknownCommand), errors.Is(err, remote.ErrInvalidValue):
		return http.StatusBadRequest, "invalid_command"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, capture.ErrClosed):
		return http.StatusServiceUnavailable, "shutting_down"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
