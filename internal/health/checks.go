// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package health

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Func adapts a function to a Checker. A nil error is healthy; otherwise the
// result carries OnError.
type Func struct {
	CheckName string
	OnError   Status
	Fn        func(ctx context.Context) error
}

func (f Func) Name() string { return f.CheckName }

func (f Func) Check(ctx context.Context) CheckResult {
	if err := f.Fn(ctx); err != nil {
		status := f.OnError
		if status == "" {
			status = StatusUnhealthy
		}
		return CheckResult{Status: status, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy}
}

// Freshness reports degraded when the timestamp returned by Last is older
// than MaxAge, e.g. a stalled render loop.
type Freshness struct {
	CheckName string
	MaxAge    time.Duration
	Last      func() (time.Time, bool)
	Now       func() time.Time
}

func (f Freshness) Name() string { return f.CheckName }

func (f Freshness) Check(context.Context) CheckResult {
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	at, ok := f.Last()
	if !ok {
		return CheckResult{Status: StatusDegraded, Message: "no data yet"}
	}
	if age := now().Sub(at); age > f.MaxAge {
		return CheckResult{Status: StatusDegraded, Message: fmt.Sprintf("last update %s ago", age.Truncate(time.Millisecond))}
	}
	return CheckResult{Status: StatusHealthy}
}

// CheckDataDir creates dir if needed and verifies it is writable.
func CheckDataDir(dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", dir)
	}
	probe := filepath.Join(dir, ".write_test")
	if err := os.WriteFile(probe, []byte("ok"), 0o600); err != nil {
		return fmt.Errorf("directory is not writable: %s: %w", dir, err)
	}
	_ = os.Remove(probe)
	return nil
}
