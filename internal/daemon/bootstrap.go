// SPDX-License-Identifier: MIT

package daemon

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/futureme/internal/api"
	"github.com/ManuGH/futureme/internal/api/middleware"
	"github.com/ManuGH/futureme/internal/capture"
	"github.com/ManuGH/futureme/internal/compositor"
	"github.com/ManuGH/futureme/internal/config"
	devff "github.com/ManuGH/futureme/internal/device/ffmpeg"
	"github.com/ManuGH/futureme/internal/device/synthetic"
	"github.com/ManuGH/futureme/internal/health"
	ff "github.com/ManuGH/futureme/internal/infra/ffmpeg"
	xglog "github.com/ManuGH/futureme/internal/log"
	"github.com/ManuGH/futureme/internal/pacing"
	"github.com/ManuGH/futureme/internal/recording"
	"github.com/ManuGH/futureme/internal/remote"
	"github.com/ManuGH/futureme/internal/script"
	"github.com/ManuGH/futureme/internal/settings"
	"github.com/ManuGH/futureme/internal/store"
	"github.com/ManuGH/futureme/internal/telemetry"
)

// Options are the command-line inputs that are not part of the config file.
type Options struct {
	// Script replaces the saved draft when non-empty.
	Script string
	// AutoStart arms a single automatic start once the daemon runs.
	AutoStart bool
}

// Runtime is every long-lived component built from one configuration.
type Runtime struct {
	Config   config.AppConfig
	Settings *settings.Store
	Script   *script.Holder
	Drafts   *store.DraftStore
	Entries  *store.EntryStore
	Devices  capture.DeviceProvider
	Session  *capture.Session
	Slot     *compositor.FrameSlot
	Loop     *compositor.Loop
	Pipeline *recording.Pipeline
	Registry *recording.Registry
	Bus      remote.Bus
	Listener *remote.Listener
	Health   *health.Manager
	Handler  *api.Server
	Tracing  *telemetry.Provider

	closers []namedHook
}

func (rt *Runtime) onClose(name string, fn ShutdownHook) {
	rt.closers = append(rt.closers, namedHook{name: name, hook: fn})
}

// Close releases everything Build acquired, in reverse order.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i].hook(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", rt.closers[i].name, err))
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}

// Build constructs the runtime. On error everything already opened is
// released.
func Build(ctx context.Context, cfg config.AppConfig, opts Options) (rt *Runtime, err error) {
	logger := xglog.WithComponent("daemon")
	rt = &Runtime{Config: cfg}
	defer func() {
		if err != nil {
			_ = rt.Close(context.WithoutCancel(ctx))
			rt = nil
		}
	}()

	if err := health.CheckDataDir(cfg.DataDir); err != nil {
		return nil, err
	}

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: cfg.Version,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	rt.Tracing = tp
	rt.onClose("telemetry", tp.Shutdown)

	rt.Drafts, err = store.OpenDraftStore(filepath.Join(cfg.DataDir, "drafts"))
	if err != nil {
		return nil, err
	}
	rt.onClose("drafts", func(context.Context) error { return rt.Drafts.Close() })

	rt.Entries, err = store.OpenEntryStore(ctx, filepath.Join(cfg.DataDir, "entries.db"))
	if err != nil {
		return nil, err
	}
	rt.onClose("entries", func(context.Context) error { return rt.Entries.Close() })

	initial := opts.Script
	if initial == "" {
		var lerr error
		initial, lerr = rt.Drafts.Load()
		if lerr != nil && !errors.Is(lerr, store.ErrNotFound) {
			logger.Warn().Err(lerr).Msg("script draft not loaded")
		}
	} else if err := rt.Drafts.Save(initial); err != nil {
		logger.Warn().Err(err).Msg("script draft not saved")
	}
	rt.Script = script.NewHolder(initial)
	rt.Settings = settings.NewStore(cfg.Tele)

	rt.Devices, err = newDeviceProvider(cfg)
	if err != nil {
		return nil, err
	}

	saveDir := ""
	if cfg.Recording.Save {
		saveDir = cfg.Recording.Dir
	}
	rt.Registry = recording.NewRegistry("/artifacts/", saveDir)
	rt.Slot = compositor.NewFrameSlot()

	enc := recording.NewFFmpegEncoder(cfg.FFmpeg.Bin)
	enc.VideoBitrate = cfg.Recording.VideoBitrate
	enc.AudioBitrate = cfg.Recording.AudioBitrate
	if err := enc.Available(); err != nil {
		logger.Warn().Err(err).Msg("encoder unavailable, capture start will report recording unsupported")
	}
	probeBin := cfg.FFmpeg.FFprobeBin
	rt.Pipeline, err = recording.NewPipeline(recording.Config{
		Frames:           rt.Slot,
		Encoder:          enc,
		Registry:         rt.Registry,
		Width:            cfg.Capture.Width,
		Height:           cfg.Capture.Height,
		FPS:              cfg.Capture.FPS,
		ChunkBytes:       cfg.Recording.ChunkBytes,
		StopTimeout:      cfg.Recording.StopTimeout,
		PauseUnsupported: cfg.Recording.PauseUnsupported,
		Save:             cfg.Recording.Save,
		Probe: func(ctx context.Context, path string) (*ff.StreamInfo, error) {
			return ff.Probe(ctx, probeBin, path)
		},
	})
	if err != nil {
		return nil, err
	}
	rt.onClose("recording", rt.Pipeline.Close)

	rt.Session = capture.NewSession(capture.Config{
		Devices:      rt.Devices,
		Recorder:     rt.Pipeline,
		Countdown:    time.Duration(cfg.Capture.CountdownSeconds) * time.Second,
		CameraID:     deviceID(cfg.Capture.Camera),
		MicrophoneID: deviceID(cfg.Capture.Microphone),
		ScriptDuration: func() time.Duration {
			return pacing.ScriptDuration(rt.Script.Current().TotalWords(), rt.Settings.Get().WordsPerMinute)
		},
	})
	rt.onClose("session", rt.Session.Close)

	renderer, err := compositor.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("compositor: %w", err)
	}
	rt.onClose("renderer", func(context.Context) error { renderer.Close(); return nil })
	rt.Loop, err = compositor.NewLoop(compositor.LoopConfig{
		FPS:      cfg.Render.FPS,
		Renderer: renderer,
		Session:  rt.Session,
		Script:   rt.Script,
		Settings: rt.Settings,
		Slot:     rt.Slot,
	})
	if err != nil {
		return nil, err
	}

	rt.Bus, err = newBus(ctx, cfg.Remote, logger)
	if err != nil {
		return nil, err
	}
	if closer, ok := rt.Bus.(interface{ Close() error }); ok {
		rt.onClose("remote", func(context.Context) error { return closer.Close() })
	}
	rt.Listener = remote.NewListener(rt.Bus, rt.Session, rt.Settings)

	rt.Health = newHealth(cfg, rt, enc)

	stack := middleware.StackConfig{
		EnableSecurityHeaders: true,
		EnableMetrics:         true,
		EnableLogging:         true,
		EnableRateLimit:       cfg.RateLimit.Enabled,
		RateLimitRPM:          cfg.RateLimit.RPM,
	}
	if cfg.Telemetry.Enabled {
		stack.TracingService = cfg.Telemetry.ServiceName
	}
	rt.Handler = api.New(api.Deps{
		Session:        rt.Session,
		Script:         rt.Script,
		Settings:       rt.Settings,
		Slot:           rt.Slot,
		Registry:       rt.Registry,
		Remote:         remote.NewController(rt.Bus),
		Entries:        rt.Entries,
		Drafts:         rt.Drafts,
		Health:         rt.Health,
		BaseContext:    context.WithoutCancel(ctx),
		AutoStartDelay: cfg.Capture.AutoStartDelay,
		WSRate:         cfg.Remote.WSRate,
		WSBurst:        cfg.Remote.WSBurst,
		Stack:          stack,
	})
	return rt, nil
}

// deviceID maps the configured "default" to the provider default.
func deviceID(v string) string {
	if v == "default" {
		return ""
	}
	return v
}

func newDeviceProvider(cfg config.AppConfig) (capture.DeviceProvider, error) {
	c := cfg.Capture
	switch c.Provider {
	case "ffmpeg", "":
		return devff.New(devff.Config{
			Binary:     cfg.FFmpeg.Bin,
			Width:      c.Width,
			Height:     c.Height,
			FPS:        c.FPS,
			SampleRate: c.SampleRate,
			Channels:   c.Channels,
		}), nil
	case "synthetic":
		return synthetic.New(synthetic.Config{
			Width:      c.Width,
			Height:     c.Height,
			SampleRate: c.SampleRate,
			Channels:   c.Channels,
		}), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, c.Provider)
	}
}

// newBus returns nil for the "none" backend so the channel reports
// unsupported.
func newBus(ctx context.Context, cfg config.RemoteConfig, logger zerolog.Logger) (remote.Bus, error) {
	switch cfg.Backend {
	case "none":
		return nil, nil
	case "redis":
		b, err := remote.NewRedisBus(ctx, remote.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("remote: %w", err)
		}
		return b, nil
	default:
		return remote.NewMemoryBus(), nil
	}
}

func newHealth(cfg config.AppConfig, rt *Runtime, enc *recording.FFmpegEncoder) *health.Manager {
	m := health.NewManager(cfg.Version)
	m.RegisterChecker(health.Func{
		CheckName: "data_dir",
		Fn:        func(context.Context) error { return health.CheckDataDir(cfg.DataDir) },
	})
	m.RegisterChecker(health.Func{
		CheckName: "entries",
		Fn: func(ctx context.Context) error {
			_, err := rt.Entries.List(ctx, 1)
			return err
		},
	})
	m.RegisterChecker(health.Func{
		CheckName: "encoder",
		OnError:   health.StatusDegraded,
		Fn:        func(context.Context) error { return enc.Available() },
	})
	maxAge := 10 * time.Second / time.Duration(max(cfg.Render.FPS, 1))
	m.RegisterChecker(health.Freshness{
		CheckName: "render",
		MaxAge:    max(maxAge, time.Second),
		Last:      rt.Slot.LastPublished,
	})
	return m
}
