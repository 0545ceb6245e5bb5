// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/futureme/internal/log"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FUTUREME_"

func isSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	return strings.Contains(k, "token") || strings.Contains(k, "password") || strings.Contains(k, "secret")
}

// lookup returns the value of key and whether it should be used. Empty
// values fall back to the default.
func lookup(logger zerolog.Logger, key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	if v == "" {
		logger.Debug().Str("key", key).Str("source", "default").Msg("using default value (environment variable is empty)")
		return "", false
	}
	return v, true
}

func usedEnv(logger zerolog.Logger, key string) *zerolog.Event {
	return logger.Debug().Str("key", key).Str("source", "environment")
}

// ParseString reads a string from the environment or returns defaultValue.
// Sensitive values are never logged.
func ParseString(key, defaultValue string) string {
	logger := log.WithComponent("config")
	v, ok := lookup(logger, key)
	if !ok {
		return defaultValue
	}
	if isSensitiveKey(key) {
		usedEnv(logger, key).Bool("sensitive", true).Msg("using environment variable")
	} else {
		usedEnv(logger, key).Str("value", v).Msg("using environment variable")
	}
	return v
}

// ParseInt reads an integer, falling back to defaultValue on parse errors.
func ParseInt(key string, defaultValue int) int {
	logger := log.WithComponent("config")
	v, ok := lookup(logger, key)
	if !ok {
		return defaultValue
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		logger.Warn().Str("key", key).Str("value", v).Int("default", defaultValue).Msg("invalid integer in environment variable, using default")
		return defaultValue
	}
	usedEnv(logger, key).Int("value", i).Msg("using environment variable")
	return i
}

// ParseFloat reads a float64, falling back to defaultValue on parse errors.
func ParseFloat(key string, defaultValue float64) float64 {
	logger := log.WithComponent("config")
	v, ok := lookup(logger, key)
	if !ok {
		return defaultValue
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		logger.Warn().Str("key", key).Str("value", v).Float64("default", defaultValue).Msg("invalid float in environment variable, using default")
		return defaultValue
	}
	usedEnv(logger, key).Float64("value", f).Msg("using environment variable")
	return f
}

// ParseDuration reads a Go duration such as "5s".
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	logger := log.WithComponent("config")
	v, ok := lookup(logger, key)
	if !ok {
		return defaultValue
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		logger.Warn().Str("key", key).Str("value", v).Dur("default", defaultValue).Msg("invalid duration in environment variable, using default")
		return defaultValue
	}
	usedEnv(logger, key).Dur("value", d).Msg("using environment variable")
	return d
}

// ParseBool accepts true/false, 1/0 and yes/no, case-insensitively.
func ParseBool(key string, defaultValue bool) bool {
	logger := log.WithComponent("config")
	v, ok := lookup(logger, key)
	if !ok {
		return defaultValue
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes":
		usedEnv(logger, key).Bool("value", true).Msg("using environment variable")
		return true
	case "false", "0", "no":
		usedEnv(logger, key).Bool("value", false).Msg("using environment variable")
		return false
	}
	logger.Warn().Str("key", key).Str("value", v).Bool("default", defaultValue).Msg("invalid boolean in environment variable, using default")
	return defaultValue
}
