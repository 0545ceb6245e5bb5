// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package recording

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"

	xglog "github.com/ManuGH/futureme/internal/log"
	"github.com/ManuGH/futureme/internal/metrics"
)

// MIMEType is the container type of every recording.
const MIMEType = "video/webm"

// Artifact is one assembled recording held in memory.
type Artifact struct {
	ID        string
	MIME      string
	Filename  string
	Data      []byte
	CreatedAt time.Time
	// Path is the on-disk copy, when one was saved.
	Path string
}

// Ref is the revocable reference handed to clients.
type Ref struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Filename returns the suggested download name for a recording made at t.
func Filename(t time.Time) string {
	return "futureme-" + t.UTC().Format("20060102-150405") + ".webm"
}

// Registry maps revocable references to in-memory artifacts. Each reference
// can be revoked exactly once; afterwards it resolves to nothing.
type Registry struct {
	baseURL string
	saveDir string

	mu      sync.Mutex
	items   map[string]*Artifact
	current string
}

// NewRegistry serves references under baseURL (e.g. "/artifacts/"). When
// saveDir is non-empty, Save writes copies there.
func NewRegistry(baseURL, saveDir string) *Registry {
	if baseURL == "" {
		baseURL = "/artifacts/"
	}
	return &Registry{baseURL: baseURL, saveDir: saveDir, items: make(map[string]*Artifact)}
}

// Replace revokes the current reference, if any, and registers a as the new
// current one.
func (r *Registry) Replace(a *Artifact) Ref {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != "" {
		r.revokeLocked(r.current)
	}
	ref := r.registerLocked(a)
	r.current = ref.ID
	return ref
}

func (r *Registry) registerLocked(a *Artifact) Ref {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.MIME == "" {
		a.MIME = MIMEType
	}
	r.items[a.ID] = a
	metrics.ArtifactsLive.Set(float64(len(r.items)))
	return Ref{ID: a.ID, URL: r.baseURL + a.ID}
}

// Revoke drops the reference. It reports false when id was not live.
func (r *Registry) Revoke(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.revokeLocked(id)
}

// RevokeCurrent drops the current reference, if any.
func (r *Registry) RevokeCurrent() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == "" {
		return false
	}
	return r.revokeLocked(r.current)
}

func (r *Registry) revokeLocked(id string) bool {
	if _, ok := r.items[id]; !ok {
		return false
	}
	delete(r.items, id)
	if r.current == id {
		r.current = ""
	}
	metrics.ArtifactsRevokedTotal.Inc()
	metrics.ArtifactsLive.Set(float64(len(r.items)))
	return true
}

// Get resolves a live reference.
func (r *Registry) Get(id string) (*Artifact, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	return a, ok
}

// Current returns the current reference.
func (r *Registry) Current() (Ref, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == "" {
		return Ref{}, false
	}
	return Ref{ID: r.current, URL: r.baseURL + r.current}, true
}

// Live returns the number of live references.
func (r *Registry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Save writes a durable copy of a into the save directory and records its
// path. It is a no-op without a save directory.
func (r *Registry) Save(ctx context.Context, a *Artifact) (string, error) {
	if r.saveDir == "" {
		return "", nil
	}
	logger := xglog.FromContext(ctx)
	if err := os.MkdirAll(r.saveDir, 0o750); err != nil {
		return "", fmt.Errorf("create recordings dir: %w", err)
	}
	path := filepath.Join(r.saveDir, filepath.Base(a.Filename))

	pendingFile, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o640))
	if err != nil {
		return "", fmt.Errorf("create pending recording file: %w", err)
	}
	defer func() {
		if err := pendingFile.Cleanup(); err != nil {
			logger.Debug().Err(err).Msg("cleanup pending recording file")
		}
	}()

	if _, err := pendingFile.Write(a.Data); err != nil {
		return "", fmt.Errorf("write recording data: %w", err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return "", fmt.Errorf("atomically replace recording file: %w", err)
	}

	r.mu.Lock()
	a.Path = path
	r.mu.Unlock()
	logger.Info().Str(xglog.FieldArtifactID, a.ID).Str(xglog.FieldPath, path).Int("bytes", len(a.Data)).Msg("recording saved")
	return path, nil
}
