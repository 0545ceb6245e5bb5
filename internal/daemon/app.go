// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package daemon

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/futureme/internal/config"
	xglog "github.com/ManuGH/futureme/internal/log"
	"github.com/ManuGH/futureme/internal/remote"
)

const closeTimeout = 20 * time.Second

// App owns the long-lived runtime lifecycle (render loop, remote listener,
// config reload) and delegates server management to Manager.
type App struct {
	logger       zerolog.Logger
	manager      Manager
	cfgHolder    *config.Holder
	rt           *Runtime
	opts         Options
	reloadSignal os.Signal
}

// NewApp creates the orchestrator. cfgHolder may be nil to disable reload.
func NewApp(logger zerolog.Logger, manager Manager, cfgHolder *config.Holder, rt *Runtime, opts Options) *App {
	return &App{
		logger:       logger,
		manager:      manager,
		cfgHolder:    cfgHolder,
		rt:           rt,
		opts:         opts,
		reloadSignal: syscall.SIGHUP,
	}
}

// Run starts all owned background subsystems and blocks until ctx is
// cancelled or a fatal error occurs.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	g, ctx := errgroup.WithContext(ctx)

	if a.rt != nil {
		g.Go(func() error { return a.rt.Loop.Run(ctx) })

		g.Go(func() error {
			err := a.rt.Listener.Run(ctx)
			if errors.Is(err, remote.ErrUnsupported) {
				a.logger.Info().Msg("remote control channel disabled")
				return nil
			}
			return err
		})

		if err := a.rt.Session.OpenPreview(ctx); err != nil {
			a.logger.Warn().Err(err).Str(xglog.FieldEvent, "capture.preview_failed").Msg("camera preview unavailable")
		}
		if a.opts.AutoStart || a.rt.Settings.Get().AutoStart {
			a.rt.Session.ArmAutoStart(ctx, a.rt.Config.Capture.AutoStartDelay)
		}
	}

	if a.cfgHolder != nil {
		g.Go(func() error {
			if err := a.cfgHolder.Watch(ctx); err != nil {
				a.logger.Warn().Err(err).Str(xglog.FieldEvent, "config.watcher_start_failed").Msg("config watcher stopped")
			}
			return nil
		})

		applyCh := make(chan config.AppConfig, 1)
		a.cfgHolder.Subscribe(applyCh)
		g.Go(func() error {
			prev := a.cfgHolder.Get()
			for {
				select {
				case <-ctx.Done():
					return nil
				case next := <-applyCh:
					a.apply(prev, next)
					prev = next
				}
			}
		})
	}

	// SIGHUP trigger for manual reload.
	if a.cfgHolder != nil && a.reloadSignal != nil {
		g.Go(func() error {
			hupChan := make(chan os.Signal, 1)
			signal.Notify(hupChan, a.reloadSignal)
			defer signal.Stop(hupChan)

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-hupChan:
					a.logger.Info().
						Str(xglog.FieldEvent, "config.reload_signal").
						Str("signal", a.reloadSignal.String()).
						Msg("received reload signal, reloading config")
					if err := a.cfgHolder.Reload(ctx); err != nil {
						a.logger.Warn().Err(err).Str(xglog.FieldEvent, "config.reload_failed").Msg("config reload failed")
					}
				}
			}
		})
	}

	// Main server lifecycle.
	g.Go(func() error {
		return a.manager.Start(ctx)
	})

	err := g.Wait()
	if a.rt != nil {
		// Components are released only after the render loop and listener
		// have returned.
		cctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if cerr := a.rt.Close(cctx); cerr != nil {
			a.logger.Warn().Err(cerr).Msg("runtime close incomplete")
		}
	}
	return err
}

// apply pushes hot-reloadable values into the running components. Only tele
// values that changed in the file replace the live settings; everything else
// needs a restart.
func (a *App) apply(prev, next config.AppConfig) {
	if prev.Log.Level != next.Log.Level {
		xglog.Configure(xglog.Config{Level: next.Log.Level, Service: "futureme", Version: next.Version})
	}
	if a.rt != nil && prev.Tele != next.Tele {
		a.rt.Settings.Set(next.Tele)
		a.logger.Info().Str(xglog.FieldEvent, "config.tele_applied").Msg("display settings reloaded")
	}
	if prev.ListenAddr != next.ListenAddr || prev.Capture != next.Capture || prev.Remote != next.Remote ||
		prev.Recording != next.Recording || prev.DataDir != next.DataDir || prev.FFmpeg != next.FFmpeg {
		a.logger.Warn().Str(xglog.FieldEvent, "config.restart_required").Msg("changed settings take effect after restart")
	}
}
