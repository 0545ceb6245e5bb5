// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestConfigValidate(t *testing.T) {
	good := writeConfig(t, "listen_addr: \":9000\"\ntele:\n  wpm: 150\n")
	var out, errOut bytes.Buffer
	assert.Equal(t, 0, configCLI([]string{"validate", "-f", good}, &out, &errOut))
	assert.Contains(t, out.String(), "is valid")

	bad := writeConfig(t, "listen_addr: \":9000\"\nnot_a_key: 1\n")
	out.Reset()
	errOut.Reset()
	assert.Equal(t, 1, configCLI([]string{"validate", "--file", bad}, &out, &errOut))
	assert.Contains(t, errOut.String(), "not_a_key")
}

func TestConfigDump_RedactsSecrets(t *testing.T) {
	path := writeConfig(t, "remote:\n  backend: redis\n  redis:\n    addr: localhost:6379\n    password: hunter2\n")
	var out, errOut bytes.Buffer
	require.Equal(t, 0, configCLI([]string{"dump", "-f", path}, &out, &errOut), errOut.String())
	assert.NotContains(t, out.String(), "hunter2")

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &doc))
	assert.Equal(t, ":8088", doc["listen_addr"])
}

func TestConfigCLI_UnknownSubcommand(t *testing.T) {
	var out, errOut bytes.Buffer
	assert.Equal(t, 2, configCLI([]string{"frobnicate"}, &out, &errOut))
	assert.Equal(t, 2, configCLI([]string{"dump", "--format=toml"}, &out, &errOut))
}

func TestHealthcheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/readyz" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	assert.Equal(t, 0, runHealthcheckCLI([]string{"-mode", "live", "-addr", srv.URL}))
	assert.Equal(t, 1, runHealthcheckCLI([]string{"-addr", srv.URL}))
}
