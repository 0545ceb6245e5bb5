// SPDX-License-Identifier: MIT

// Package middleware holds the HTTP ingress middleware stack.
package middleware

import (
	"github.com/go-chi/chi/v5"

	xglog "github.com/ManuGH/futureme/internal/log"
)

// StackConfig configures the canonical middleware stack.
type StackConfig struct {
	EnableSecurityHeaders bool
	CSP                   string

	EnableMetrics bool
	// TracingService enables otelhttp spans; empty disables tracing.
	TracingService string
	EnableLogging  bool

	EnableRateLimit bool
	RateLimitRPM    int
}

// NewRouter constructs a chi router with the stack applied.
func NewRouter(cfg StackConfig) *chi.Mux {
	r := chi.NewRouter()
	ApplyStack(r, cfg)
	return r
}

// ApplyStack applies the middleware in order, outermost first.
func ApplyStack(r chi.Router, cfg StackConfig) {
	r.Use(Recoverer)
	r.Use(RequestID)
	if cfg.EnableSecurityHeaders {
		r.Use(SecurityHeaders(cfg.CSP))
	}
	if cfg.EnableMetrics {
		r.Use(Metrics())
	}
	if cfg.TracingService != "" {
		r.Use(OTelHTTP(cfg.TracingService))
	}
	if cfg.EnableLogging {
		r.Use(xglog.Middleware())
	}
	if cfg.EnableRateLimit {
		r.Use(APIRateLimit(cfg.RateLimitRPM))
	}
}
