// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(context.Context) error { return nil }

func TestManager_NoCheckers(t *testing.T) {
	m := NewManager("v1.0.0")
	resp := m.Evaluate(context.Background(), true)
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.True(t, resp.Ready)
	assert.Equal(t, "v1.0.0", resp.Version)
	assert.Nil(t, resp.Checks)
}

func TestManager_WorstStatusWins(t *testing.T) {
	m := NewManager("v1")
	m.RegisterChecker(Func{CheckName: "a", Fn: ok})
	m.RegisterChecker(Func{CheckName: "b", OnError: StatusDegraded, Fn: func(context.Context) error { return errors.New("slow") }})

	resp := m.Evaluate(context.Background(), false)
	assert.Nil(t, resp.Checks)
	assert.Equal(t, StatusHealthy, resp.Status)

	resp = m.Evaluate(context.Background(), true)
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.True(t, resp.Ready)
	require.Len(t, resp.Checks, 2)
	assert.Equal(t, "slow", resp.Checks["b"].Error)

	m.RegisterChecker(Func{CheckName: "c", Fn: func(context.Context) error { return errors.New("down") }})
	resp = m.Evaluate(context.Background(), true)
	assert.Equal(t, StatusUnhealthy, resp.Status)
	assert.False(t, resp.Ready)
}

func TestServeReady_Unavailable(t *testing.T) {
	m := NewManager("v1")
	m.RegisterChecker(Func{CheckName: "store", Fn: func(context.Context) error { return errors.New("closed") }})

	w := httptest.NewRecorder()
	m.ServeReady(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	m.ServeHealth(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, StatusHealthy, resp.Status)
}

func TestFreshness(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	last := now.Add(-time.Second)
	seen := true
	f := Freshness{
		CheckName: "render",
		MaxAge:    2 * time.Second,
		Last:      func() (time.Time, bool) { return last, seen },
		Now:       func() time.Time { return now },
	}
	assert.Equal(t, StatusHealthy, f.Check(context.Background()).Status)

	last = now.Add(-5 * time.Second)
	assert.Equal(t, StatusDegraded, f.Check(context.Background()).Status)

	seen = false
	assert.Equal(t, "no data yet", f.Check(context.Background()).Message)
}

func TestCheckDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	require.NoError(t, CheckDataDir(dir))
	_, err := os.Stat(filepath.Join(dir, ".write_test"))
	assert.True(t, os.IsNotExist(err))

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o600))
	assert.Error(t, CheckDataDir(file))
}
