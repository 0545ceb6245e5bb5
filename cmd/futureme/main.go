// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Command futureme runs the teleprompter recording daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ManuGH/futureme/internal/config"
	"github.com/ManuGH/futureme/internal/daemon"
	xglog "github.com/ManuGH/futureme/internal/log"
	buildinfo "github.com/ManuGH/futureme/internal/version"
)

var version = buildinfo.Version

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "config":
			os.Exit(runConfigCLI(os.Args[2:]))
		case "healthcheck":
			os.Exit(runHealthcheckCLI(os.Args[2:]))
		}
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	scriptText := flag.String("script", "", "script text to load (replaces the saved draft)")
	scriptFile := flag.String("script-file", "", "read the script from a file")
	autoStart := flag.Bool("autostart", false, "start recording automatically once")
	flag.Parse()

	if *showVersion {
		fmt.Println(buildinfo.String())
		os.Exit(0)
	}

	// Safe defaults until config is loaded
	xglog.Configure(xglog.Config{Level: "info", Service: "futureme", Version: version})
	logger := xglog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path := strings.TrimSpace(*configPath)
	if path == "" {
		path = resolveDefaultConfigPath()
	}
	loader := config.NewLoader(path, version)
	cfg, err := loader.Load()
	if err != nil {
		logger.Fatal().Err(err).Str("event", "config.load_failed").Str("config_path", path).Msg("failed to load configuration")
	}
	xglog.Configure(xglog.Config{Level: cfg.Log.Level, Service: "futureme", Version: cfg.Version})
	if path != "" {
		logger.Info().Str("event", "config.loaded").Str("source", "file").Str("path", path).Msg("loaded configuration from file")
	} else {
		logger.Info().Str("event", "config.loaded").Str("source", "env+defaults").Msg("loaded configuration from environment and defaults")
	}

	opts := daemon.Options{Script: *scriptText, AutoStart: *autoStart}
	if *scriptFile != "" {
		b, err := os.ReadFile(*scriptFile)
		if err != nil {
			logger.Fatal().Err(err).Str("path", *scriptFile).Msg("failed to read script file")
		}
		opts.Script = string(b)
	}

	rt, err := daemon.Build(ctx, cfg, opts)
	if err != nil {
		logger.Fatal().Err(err).Str("event", "startup.failed").Msg("failed to build runtime")
	}

	mgr, err := daemon.NewManager(daemon.DefaultServerConfig(cfg.ListenAddr), rt.Handler.Handler(), logger)
	if err != nil {
		_ = rt.Close(context.Background())
		logger.Fatal().Err(err).Msg("failed to create daemon manager")
	}

	app := daemon.NewApp(logger, mgr, config.NewHolder(cfg, loader), rt, opts)
	logger.Info().Str("version", version).Str("commit", buildinfo.Commit).Str("listen", cfg.ListenAddr).Msg("starting futureme")
	if err := app.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("daemon stopped with error")
		os.Exit(1)
	}
	logger.Info().Msg("daemon stopped")
}

// resolveDefaultConfigPath returns ${FUTUREME_DATA_DIR}/config.yaml when it
// exists.
func resolveDefaultConfigPath() string {
	dataDir := strings.TrimSpace(os.Getenv(config.EnvPrefix + "DATA_DIR"))
	if dataDir == "" {
		dataDir = "./data"
	}
	autoPath := filepath.Join(dataDir, "config.yaml")
	if _, err := os.Stat(autoPath); err == nil {
		return autoPath
	}
	return ""
}
