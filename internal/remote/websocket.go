// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package remote

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/net/websocket"
	"golang.org/x/time/rate"

	xglog "github.com/ManuGH/futureme/internal/log"
)

// Reply acknowledges one command received over a WebSocket.
type Reply struct {
	Type  CommandType `json:"type,omitempty"`
	OK    bool        `json:"ok"`
	Error string      `json:"error,omitempty"`
}

// WebSocketHandler serves a controller connection: each text frame is a JSON
// Command, answered with a Reply. Commands beyond perSecond (with burst) are
// refused per connection.
func WebSocketHandler(ctrl *Controller, perSecond float64, burst int) http.Handler {
	if perSecond <= 0 {
		perSecond = 10
	}
	if burst <= 0 {
		burst = 5
	}
	return websocket.Server{
		Handshake: sameOrigin,
		Handler: func(ws *websocket.Conn) {
			defer func() { _ = ws.Close() }()
			ctx := ws.Request().Context()
			logger := xglog.WithContext(ctx, xglog.WithComponent("remote"))
			limiter := rate.NewLimiter(rate.Limit(perSecond), burst)

			for {
				var cmd Command
				if err := websocket.JSON.Receive(ws, &cmd); err != nil {
					if !errors.Is(err, io.EOF) {
						logger.Debug().Err(err).Msg("remote websocket closed")
					}
					return
				}
				reply := Reply{Type: cmd.Type, OK: true}
				switch {
				case !limiter.Allow():
					reply.OK, reply.Error = false, "rate limited"
				default:
					if err := ctrl.Send(ctx, cmd); err != nil {
						reply.OK, reply.Error = false, err.Error()
					}
				}
				_ = ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := websocket.JSON.Send(ws, reply); err != nil {
					return
				}
			}
		},
	}
}

// sameOrigin accepts non-browser clients without an Origin header and browser
// clients from the serving host only.
func sameOrigin(cfg *websocket.Config, r *http.Request) error {
	if r.Header.Get("Origin") == "" {
		return nil
	}
	origin, err := websocket.Origin(cfg, r)
	if err != nil {
		return err
	}
	if origin == nil || origin.Host != r.Host {
		return fmt.Errorf("cross-origin controller rejected")
	}
	return nil
}
