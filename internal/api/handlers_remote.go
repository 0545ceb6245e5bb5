// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"net/http"

	"github.com/ManuGH/futureme/internal/remote"
)

// handleRemote publishes one command on the broadcast channel.
func (s *Server) handleRemote(w http.ResponseWriter, r *http.Request) {
	if !s.d.Remote.Supported() {
		writeError(w, r, remote.ErrUnsupported)
		return
	}
	var cmd remote.Command
	if err := decodeBody(w, r, &cmd); err != nil {
		writeProblem(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	if err := s.d.Remote.Send(r.Context(), cmd); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
