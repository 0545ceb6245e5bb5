// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package daemon builds the runtime from configuration and owns its
// lifecycle.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ShutdownHook is a function that performs cleanup during graceful shutdown.
// Hooks are executed in reverse registration order (LIFO).
type ShutdownHook func(ctx context.Context) error

// Manager runs the HTTP server and the shutdown hooks.
type Manager interface {
	// Start serves until ctx is cancelled or the server fails, then shuts down.
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
	RegisterShutdownHook(name string, hook ShutdownHook)
}

// ServerConfig holds the HTTP server limits.
type ServerConfig struct {
	ListenAddr      string
	ReadTimeout     time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxHeaderBytes  int
}

// DefaultServerConfig returns production defaults for addr. WriteTimeout is
// left unset so recording downloads and WebSocket sessions are not cut.
func DefaultServerConfig(addr string) ServerConfig {
	return ServerConfig{
		ListenAddr:      addr,
		ReadTimeout:     30 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		MaxHeaderBytes:  1 << 20,
	}
}

type namedHook struct {
	name string
	hook ShutdownHook
}

type manager struct {
	cfg     ServerConfig
	handler http.Handler
	logger  zerolog.Logger

	mu       sync.Mutex
	server   *http.Server
	addr     net.Addr
	hooks    []namedHook
	started  bool
	stopping bool
	ready    chan struct{}
}

// NewManager creates a manager serving handler.
func NewManager(cfg ServerConfig, handler http.Handler, logger zerolog.Logger) (Manager, error) {
	if handler == nil {
		return nil, ErrMissingAPIHandler
	}
	return &manager{
		cfg:     cfg,
		handler: handler,
		logger:  logger.With().Str("component", "manager").Logger(),
		ready:   make(chan struct{}),
	}, nil
}

func (m *manager) RegisterShutdownHook(name string, hook ShutdownHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, namedHook{name: name, hook: hook})
}

// Addr blocks until the listener is bound and returns its address.
func (m *manager) Addr(ctx context.Context) (net.Addr, error) {
	select {
	case <-m.ready:
		m.mu.Lock()
		defer m.mu.Unlock()
		return m.addr, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return fmt.Errorf("manager already started")
	}
	m.started = true
	ln, err := net.Listen("tcp", m.cfg.ListenAddr)
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("listen %s: %w", m.cfg.ListenAddr, err)
	}
	m.server = &http.Server{
		Handler:           m.handler,
		ReadTimeout:       m.cfg.ReadTimeout,
		ReadHeaderTimeout: m.cfg.ReadTimeout / 2,
		IdleTimeout:       m.cfg.IdleTimeout,
		MaxHeaderBytes:    m.cfg.MaxHeaderBytes,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	m.addr = ln.Addr()
	srv := m.server
	close(m.ready)
	m.mu.Unlock()

	m.logger.Info().Str("addr", ln.Addr().String()).Msg("API server listening (HTTP)")

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error().Err(err).Str("event", "api.server.failed").Msg("API server failed")
			errChan <- fmt.Errorf("API server: %w", err)
		}
	}()

	// Detached-but-bounded so shutdown completes after the parent is cancelled.
	shutdown := func() error {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.ShutdownTimeout)
		defer cancel()
		return m.Shutdown(sctx)
	}
	select {
	case err := <-errChan:
		if serr := shutdown(); serr != nil {
			return fmt.Errorf("server error and shutdown failure: %w", errors.Join(err, serr))
		}
		return err
	case <-ctx.Done():
		m.logger.Info().Msg("Shutdown signal received")
		return shutdown()
	}
}

// Shutdown stops the server, then runs hooks in reverse order. Hook errors are
// collected; every hook runs.
func (m *manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return ErrManagerNotStarted
	}
	if m.stopping {
		m.mu.Unlock()
		return nil
	}
	m.stopping = true
	srv := m.server
	hooks := append([]namedHook(nil), m.hooks...)
	m.mu.Unlock()

	var errs []error
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	for i := len(hooks) - 1; i >= 0; i-- {
		h := hooks[i]
		if err := h.hook(ctx); err != nil {
			m.logger.Warn().Err(err).Str("hook", h.name).Msg("shutdown hook failed")
			errs = append(errs, fmt.Errorf("%s: %w", h.name, err))
			continue
		}
		m.logger.Debug().Str("hook", h.name).Msg("shutdown hook done")
	}
	m.logger.Info().Msg("shutdown complete")
	return errors.Join(errs...)
}
