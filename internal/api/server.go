// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package api exposes the teleprompter session over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/futureme/internal/api/middleware"
	"github.com/ManuGH/futureme/internal/capture"
	"github.com/ManuGH/futureme/internal/compositor"
	"github.com/ManuGH/futureme/internal/health"
	"github.com/ManuGH/futureme/internal/recording"
	"github.com/ManuGH/futureme/internal/remote"
	"github.com/ManuGH/futureme/internal/script"
	"github.com/ManuGH/futureme/internal/settings"
	"github.com/ManuGH/futureme/internal/store"
)

// SessionService is the capture session as driven by HTTP clients.
type SessionService interface {
	Snapshot() capture.Snapshot
	Start(ctx context.Context) error
	PauseResume(ctx context.Context) error
	Finish(ctx context.Context) error
	Reset(ctx context.Context) error
	ArmAutoStart(ctx context.Context, delay time.Duration) bool
	Devices(ctx context.Context) ([]capture.Device, error)
	SelectDevices(cameraID, microphoneID string) error
	OpenPreview(ctx context.Context) error
	ClosePreview()
}

// DraftSaver persists the script draft.
type DraftSaver interface {
	Save(text string) error
	Clear() error
}

// EntryRepository is the journaling history.
type EntryRepository interface {
	Add(ctx context.Context, e store.Entry) (store.Entry, error)
	Get(ctx context.Context, id string) (store.Entry, error)
	List(ctx context.Context, limit int) ([]store.Entry, error)
	Delete(ctx context.Context, id string) error
}

// Deps wires the server. Entries, Drafts, Health and Remote are optional.
type Deps struct {
	Session  SessionService
	Script   *script.Holder
	Settings *settings.Store
	Slot     *compositor.FrameSlot
	Registry *recording.Registry
	Remote   *remote.Controller
	Entries  EntryRepository
	Drafts   DraftSaver
	Health   *health.Manager

	// BaseContext outlives requests; background work started by a request
	// (auto-start timers) is bound to it.
	BaseContext    context.Context
	AutoStartDelay time.Duration
	WSRate         float64
	WSBurst        int

	Stack middleware.StackConfig
}

// Server holds the HTTP handlers.
type Server struct {
	d Deps
}

// New returns a server. It panics when a required dependency is missing.
func New(d Deps) *Server {
	if d.Session == nil || d.Script == nil || d.Settings == nil || d.Slot == nil || d.Registry == nil {
		panic("api: incomplete dependencies")
	}
	if d.BaseContext == nil {
		d.BaseContext = context.Background()
	}
	if d.Health == nil {
		d.Health = health.NewManager("")
	}
	if d.Remote == nil {
		d.Remote = remote.NewController(nil)
	}
	return &Server{d: d}
}

// Handler returns the routed handler with the middleware stack applied.
func (s *Server) Handler() http.Handler {
	r := middleware.NewRouter(s.d.Stack)

	r.Get("/healthz", s.d.Health.ServeHealth)
	r.Get("/readyz", s.d.Health.ServeReady)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/artifacts/{id}", s.handleArtifact)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/session", s.handleSession)
		r.Post("/session/start", s.handleStart)
		r.Post("/session/pause", s.handlePauseResume)
		r.Post("/session/finish", s.handleFinish)
		r.Post("/session/reset", s.handleReset)

		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handlePutSettings)
		r.Get("/script", s.handleGetScript)
		r.Put("/script", s.handlePutScript)
		r.Delete("/script", s.handleClearScript)
		r.Post("/script/assemble", s.handleAssemble)
		r.Get("/devices", s.handleDevices)
		r.Put("/devices", s.handleSelectDevices)
		r.Get("/preview.jpg", s.handlePreview)
		r.Post("/preview/open", s.handleOpenPreview)
		r.Post("/preview/close", s.handleClosePreview)

		r.Post("/remote", s.handleRemote)
		r.Handle("/remote/ws", remote.WebSocketHandler(s.d.Remote, s.d.WSRate, s.d.WSBurst))

		r.Get("/entries", s.handleListEntries)
		r.Post("/entries", s.handleAddEntry)
		r.Get("/entries/{id}", s.handleGetEntry)
		r.Delete("/entries/{id}", s.handleDeleteEntry)
	})
	return r
}
