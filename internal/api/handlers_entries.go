// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/futureme/internal/pacing"
	"github.com/ManuGH/futureme/internal/script"
	"github.com/ManuGH/futureme/internal/store"
)

func pacingDuration(sc script.Script, wpm int) time.Duration {
	return pacing.ScriptDuration(sc.TotalWords(), wpm)
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	if s.d.Entries == nil {
		writeProblem(w, r, http.StatusNotImplemented, "entries_unavailable", "entry store not configured")
		return
	}
	limit := 50
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = min(v, 500)
	}
	entries, err := s.d.Entries.List(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []store.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	if s.d.Entries == nil {
		writeProblem(w, r, http.StatusNotImplemented, "entries_unavailable", "entry store not configured")
		return
	}
	e, err := s.d.Entries.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	if s.d.Entries == nil {
		writeProblem(w, r, http.StatusNotImplemented, "entries_unavailable", "entry store not configured")
		return
	}
	if err := s.d.Entries.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAddEntry journals the current session. Unset fields default to the
// current script, speed, pacing estimate and recording filename.
func (s *Server) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	if s.d.Entries == nil {
		writeProblem(w, r, http.StatusNotImplemented, "entries_unavailable", "entry store not configured")
		return
	}
	var body struct {
		Title  string `json:"title"`
		Script string `json:"script"`
		Notes  string `json:"notes"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		writeProblem(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	wpm := s.d.Settings.Get().WordsPerMinute
	e := store.Entry{
		Title:  body.Title,
		Script: body.Script,
		WPM:    wpm,
		Notes:  body.Notes,
	}
	if e.Script == "" {
		e.Script = s.d.Script.Raw()
	}
	e.Duration = pacingDuration(script.Tokenize(e.Script), wpm)
	if out := s.d.Session.Snapshot().Output; out != nil {
		e.Recording = out.Filename
	}

	saved, err := s.d.Entries.Add(r.Context(), e)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}
