// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"bytes"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleArtifact serves a recording by its revocable reference. Revoked
// references answer 404.
func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	a, ok := s.d.Registry.Get(chi.URLParam(r, "id"))
	if !ok {
		writeProblem(w, r, http.StatusNotFound, "not_found", "recording reference revoked or unknown")
		return
	}
	w.Header().Set("Content-Type", a.MIME)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.Filename}))
	w.Header().Set("Cache-Control", "private, no-store")
	http.ServeContent(w, r, a.Filename, a.CreatedAt, bytes.NewReader(a.Data))
}
