// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package script

import "strings"

// Blocks is the structured output of the affirmation generator. The generator
// itself lives outside this module; only its result shape is consumed here.
type Blocks struct {
	Identity  []string `json:"identity"`
	Gratitude []string `json:"gratitude"`
	Actions   []string `json:"actions"`
	Prayers   []string `json:"prayers"`
	Quote     string   `json:"quote"`
	Scripture string   `json:"scripture,omitempty"`
}

// Assemble concatenates the selected blocks into a line-delimited script in
// reading order: identity, gratitude, actions, prayers, quote, scripture.
func Assemble(b Blocks) string {
	var lines []string
	add := func(items ...string) {
		for _, it := range items {
			if it = strings.TrimSpace(it); it != "" {
				lines = append(lines, it)
			}
		}
	}
	add(b.Identity...)
	add(b.Gratitude...)
	add(b.Actions...)
	add(b.Prayers...)
	add(b.Quote)
	add(b.Scripture)
	return strings.Join(lines, "\n")
}
