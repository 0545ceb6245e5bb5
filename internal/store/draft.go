// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package store

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// DraftKey is the fixed key holding the working script.
const DraftKey = "tfm-script"

// DraftStore keeps the script draft in Badger so it survives restarts.
type DraftStore struct {
	db *badger.DB
}

// OpenDraftStore opens the store in dir. An empty dir keeps the draft in
// memory only.
func OpenDraftStore(dir string) (*DraftStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open draft store: %w", err)
	}
	return &DraftStore{db: db}, nil
}

func (s *DraftStore) Close() error { return s.db.Close() }

// Save replaces the draft.
func (s *DraftStore) Save(text string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(DraftKey), []byte(text))
	})
}

// Load returns the draft or ErrNotFound.
func (s *DraftStore) Load() (string, error) {
	var out string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(DraftKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			out = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load draft: %w", err)
	}
	return out, nil
}

// Clear removes the draft.
func (s *DraftStore) Clear() error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(DraftKey))
	})
}
