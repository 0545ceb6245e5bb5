// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/ManuGH/futureme/internal/log"
	"github.com/ManuGH/futureme/internal/script"
	"github.com/ManuGH/futureme/internal/settings"
)

const maxBodyBytes = 1 << 20

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.d.Settings.Get())
}

// handlePutSettings applies a partial update; out-of-range values are clamped.
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var p settings.Patch
	if err := decodeBody(w, r, &p); err != nil {
		writeProblem(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.d.Settings.Patch(p))
}

// ScriptView is the GET/PUT /script body.
type ScriptView struct {
	Text       string   `json:"text"`
	Lines      []string `json:"lines"`
	TotalWords int      `json:"total_words"`
	DurationMS int64    `json:"duration_ms"`
	Revision   uint64   `json:"revision"`
	AutoStart  bool     `json:"autostart,omitempty"`
}

func (s *Server) scriptView() ScriptView {
	sc := s.d.Script.Current()
	return ScriptView{
		Text:       s.d.Script.Raw(),
		Lines:      sc.Lines,
		TotalWords: sc.TotalWords(),
		DurationMS: pacingDuration(sc, s.d.Settings.Get().WordsPerMinute).Milliseconds(),
		Revision:   s.d.Script.Revision(),
	}
}

func (s *Server) handleGetScript(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.scriptView())
}

// handlePutScript replaces the script from a JSON {text} body or the
// ?script= parameter. ?autostart=true arms a single automatic start.
func (s *Server) handlePutScript(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var body struct {
		Text *string `json:"text"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		writeProblem(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	text, ok := "", false
	switch {
	case body.Text != nil:
		text, ok = *body.Text, true
	case q.Has("script"):
		text, ok = q.Get("script"), true
	}
	if !ok {
		writeProblem(w, r, http.StatusBadRequest, "missing_script", "provide {\"text\": ...} or ?script=")
		return
	}
	s.setScript(w, r, text)
}

// handleAssemble builds the script from generator blocks and installs it.
func (s *Server) handleAssemble(w http.ResponseWriter, r *http.Request) {
	var b script.Blocks
	if err := decodeBody(w, r, &b); err != nil {
		writeProblem(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	s.setScript(w, r, script.Assemble(b))
}

// handleClearScript empties the script and drops the saved draft.
func (s *Server) handleClearScript(w http.ResponseWriter, r *http.Request) {
	rev := s.d.Script.Set("")
	if s.d.Drafts != nil {
		if err := s.d.Drafts.Clear(); err != nil {
			writeError(w, r, err)
			return
		}
	}
	logger := log.WithComponentFromContext(r.Context(), "api")
	logger.Info().Uint64("revision", rev).Msg("script cleared")
	writeJSON(w, http.StatusOK, s.scriptView())
}

func (s *Server) setScript(w http.ResponseWriter, r *http.Request, text string) {
	logger := log.WithComponentFromContext(r.Context(), "api")
	rev := s.d.Script.Set(text)
	if s.d.Drafts != nil {
		if err := s.d.Drafts.Save(text); err != nil {
			logger.Warn().Err(err).Msg("script draft not saved")
		}
	}
	logger.Info().Uint64("revision", rev).Int("lines", s.d.Script.Current().Len()).Msg("script updated")

	view := s.scriptView()
	if auto, _ := strconv.ParseBool(r.URL.Query().Get("autostart")); auto {
		view.AutoStart = s.d.Session.ArmAutoStart(s.d.BaseContext, s.d.AutoStartDelay)
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	devs, err := s.d.Session.Devices(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	snap := s.d.Session.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"devices":       devs,
		"camera_id":     snap.CameraID,
		"microphone_id": snap.MicrophoneID,
	})
}

// handleSelectDevices selects the devices for the next start. Ids that are
// not enumerated at start time fall back to the default device.
func (s *Server) handleSelectDevices(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CameraID     string `json:"camera_id"`
		MicrophoneID string `json:"microphone_id"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		writeProblem(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	if err := s.d.Session.SelectDevices(body.CameraID, body.MicrophoneID); err != nil {
		writeError(w, r, err)
		return
	}
	s.handleDevices(w, r)
}
