// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package remote

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/futureme/internal/log"
	"github.com/ManuGH/futureme/internal/metrics"
	"github.com/ManuGH/futureme/internal/settings"
)

// SessionControl is the part of the capture session driven by commands.
type SessionControl interface {
	Start(ctx context.Context) error
	PauseResume(ctx context.Context) error
	Finish(ctx context.Context) error
}

// Listener subscribes to the channel and applies commands to the session and
// the settings store.
type Listener struct {
	bus      Bus
	topic    string
	session  SessionControl
	settings *settings.Store
	logger   zerolog.Logger
}

// NewListener wires a listener on the default channel.
func NewListener(bus Bus, session SessionControl, store *settings.Store) *Listener {
	return &Listener{
		bus:      bus,
		topic:    Channel,
		session:  session,
		settings: store,
		logger:   xglog.WithComponent("remote"),
	}
}

// Run applies commands until ctx ends. Command failures are logged and do not
// stop the listener.
func (l *Listener) Run(ctx context.Context) error {
	if l.bus == nil {
		return ErrUnsupported
	}
	sub, err := l.bus.Subscribe(ctx, l.topic)
	if err != nil {
		return err
	}
	defer func() { _ = sub.Close() }()
	l.logger.Info().Str("channel", l.topic).Msg("remote listener started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd, ok := <-sub.C():
			if !ok {
				return errors.New("remote channel closed")
			}
			if err := l.Apply(ctx, cmd); err != nil {
				l.logger.Warn().Err(err).Str(xglog.FieldEvent, string(cmd.Type)).Msg("remote command not applied")
			}
		}
	}
}

// Apply executes one command. Numeric payloads are clamped to the settings
// bounds. Unknown types are ignored.
func (l *Listener) Apply(ctx context.Context, cmd Command) error {
	typ := string(cmd.Type)
	if !cmd.Type.Known() {
		metrics.IncRemoteCommand("unknown", "ignored")
		l.logger.Debug().Str(xglog.FieldEvent, typ).Msg("ignoring unknown remote command")
		return nil
	}
	if err := cmd.Validate(); err != nil {
		metrics.IncRemoteCommand(typ, "invalid")
		return err
	}

	var err error
	switch cmd.Type {
	case CmdStart:
		err = l.session.Start(ctx)
	case CmdPauseResume:
		err = l.session.PauseResume(ctx)
	case CmdFinish:
		err = l.session.Finish(ctx)
	case CmdSpeed:
		v, _ := cmd.Number()
		l.settings.Update(func(s *settings.TeleSettings) {
			s.WordsPerMinute = settings.ClampInt(round(v), settings.MinWPM, settings.MaxWPM)
		})
	case CmdFont:
		v, _ := cmd.Number()
		l.settings.Update(func(s *settings.TeleSettings) {
			s.FontSize = settings.ClampInt(round(v), settings.MinFontSize, settings.MaxFontSize)
		})
	case CmdPIP:
		v, _ := cmd.Number()
		l.settings.Update(func(s *settings.TeleSettings) {
			s.PIPSizePercent = settings.ClampInt(round(v), settings.MinPIPPercent, settings.MaxPIPPercent)
		})
	case CmdMirror:
		want, explicit := cmd.Bool()
		l.settings.Update(func(s *settings.TeleSettings) {
			if explicit {
				s.Mirror = want
			} else {
				s.Mirror = !s.Mirror
			}
		})
	}
	if err != nil {
		metrics.IncRemoteCommand(typ, "rejected")
		return fmt.Errorf("apply %s: %w", typ, err)
	}
	metrics.IncRemoteCommand(typ, "applied")
	return nil
}

func round(v float64) int {
	switch {
	case math.IsNaN(v):
		return 0
	case v > math.MaxInt32:
		return math.MaxInt32
	case v < math.MinInt32:
		return math.MinInt32
	}
	return int(math.Round(v))
}
