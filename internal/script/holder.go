// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package script

import "sync"

// Holder keeps the raw script text and its tokenized form. The script is
// re-tokenized on every Set; readers always see a consistent pair.
type Holder struct {
	mu     sync.RWMutex
	raw    string
	script Script
	rev    uint64
}

// NewHolder tokenizes raw as the initial script.
func NewHolder(raw string) *Holder {
	return &Holder{raw: raw, script: Tokenize(raw)}
}

// Set replaces the script text and returns the new revision.
func (h *Holder) Set(raw string) uint64 {
	s := Tokenize(raw)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.raw = raw
	h.script = s
	h.rev++
	return h.rev
}

// Current returns the tokenized script.
func (h *Holder) Current() Script {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.script
}

// Raw returns the text as last set.
func (h *Holder) Raw() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.raw
}

// Revision increments on every Set.
func (h *Holder) Revision() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rev
}
