// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"context"
	"image/jpeg"
	"net/http"
	"strconv"

	"github.com/ManuGH/futureme/internal/capture"
	"github.com/ManuGH/futureme/internal/log"
	"github.com/ManuGH/futureme/internal/pacing"
	"github.com/ManuGH/futureme/internal/telemetry"
)

// SessionView is the GET /session body.
type SessionView struct {
	capture.Snapshot
	Line       int     `json:"line"`
	Lines      int     `json:"lines"`
	Progress   float64 `json:"progress"`
	ScriptRev  uint64  `json:"script_revision"`
	RemoteLive bool    `json:"remote"`
}

func (s *Server) view() SessionView {
	snap := s.d.Session.Snapshot()
	sc := s.d.Script.Current()
	wpm := s.d.Settings.Get().WordsPerMinute
	return SessionView{
		Snapshot:   snap,
		Line:       pacing.LineIndex(snap.Elapsed, wpm, sc.Cumulative()),
		Lines:      sc.Len(),
		Progress:   pacing.Progress(snap.Elapsed, wpm, sc.TotalWords()),
		ScriptRev:  s.d.Script.Revision(),
		RemoteLive: s.d.Remote.Supported(),
	}
}

func (s *Server) handleSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.view())
}

// action runs one session operation in a span. The request context is
// detached from cancellation so devices and the recorder outlive the request.
func (s *Server) action(name string, fn func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		before := s.d.Session.Snapshot()
		ctx := context.WithoutCancel(r.Context())
		if before.ID != "" {
			ctx = log.ContextWithSessionID(ctx, before.ID)
		}
		ctx, span := telemetry.StartSpan(ctx, "session."+name,
			telemetry.SessionAttributes(before.ID, string(before.State), name)...)
		err := fn(ctx)
		telemetry.EndSpan(span, err)
		if err != nil {
			logger := log.WithComponentFromContext(ctx, "api")
			logger.Info().Err(err).Str(log.FieldEvent, "session."+name).Msg("session action rejected")
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, s.view())
	}
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.action("start", s.d.Session.Start)(w, r)
}

func (s *Server) handlePauseResume(w http.ResponseWriter, r *http.Request) {
	s.action("pause_resume", s.d.Session.PauseResume)(w, r)
}

func (s *Server) handleFinish(w http.ResponseWriter, r *http.Request) {
	s.action("finish", s.d.Session.Finish)(w, r)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.action("reset", s.d.Session.Reset)(w, r)
}

// handleOpenPreview opens the camera preview while idle or finished. The
// preview is reopened after each reset until it is closed again.
func (s *Server) handleOpenPreview(w http.ResponseWriter, r *http.Request) {
	s.action("preview_open", s.d.Session.OpenPreview)(w, r)
}

func (s *Server) handleClosePreview(w http.ResponseWriter, _ *http.Request) {
	s.d.Session.ClosePreview()
	writeJSON(w, http.StatusOK, s.view())
}

// handlePreview serves the latest composited frame.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	img, seq, _, ok := s.d.Slot.Snapshot()
	if !ok {
		writeProblem(w, r, http.StatusServiceUnavailable, "no_frame", "no frame rendered yet")
		return
	}
	quality := 80
	if q, err := strconv.Atoi(r.URL.Query().Get("q")); err == nil && q >= 1 && q <= 100 {
		quality = q
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Frame-Seq", strconv.FormatUint(seq, 10))
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: quality}); err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Debug().Err(err).Msg("preview write failed")
	}
}
