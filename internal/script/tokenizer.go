// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package script turns raw teleprompter text into display lines and the
// per-line word counts the pacing clock runs on.
package script

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Placeholder is the single line shown when the input has no readable text.
const Placeholder = "(empty script)"

// wordPattern keeps apostrophes and hyphens inside a word ("don't", "well-known").
var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+(?:['’\-][\p{L}\p{N}_]+)*`)

var lineBreak = regexp.MustCompile(`\r\n|\r|\n`)

// LineMeta holds the word accounting for one display line.
type LineMeta struct {
	WordCount  int `json:"word_count"`
	Cumulative int `json:"cumulative"`
}

// Script is an immutable tokenized script. Lines and Meta always have the
// same, non-zero length.
type Script struct {
	Lines []string   `json:"lines"`
	Meta  []LineMeta `json:"meta"`
}

// Tokenize splits raw text into trimmed, non-blank lines and computes word counts.
func Tokenize(raw string) Script {
	text := norm.NFC.String(raw)

	var lines []string
	for _, line := range lineBreak.Split(text, -1) {
		line = strings.TrimSpace(strings.TrimRightFunc(line, unicode.IsSpace))
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		lines = []string{Placeholder}
	}

	meta := make([]LineMeta, len(lines))
	total := 0
	for i, line := range lines {
		n := CountWords(line)
		total += n
		meta[i] = LineMeta{WordCount: n, Cumulative: total}
	}
	return Script{Lines: lines, Meta: meta}
}

// CountWords counts words in a single line. Lines without any word count as
// one so that no line has zero duration.
func CountWords(line string) int {
	n := len(wordPattern.FindAllStringIndex(line, -1))
	if n < 1 {
		return 1
	}
	return n
}

// Cumulative returns the cumulative word counts, one per line.
func (s Script) Cumulative() []int {
	out := make([]int, len(s.Meta))
	for i, m := range s.Meta {
		out[i] = m.Cumulative
	}
	return out
}

// TotalWords returns the total word count, never less than one.
func (s Script) TotalWords() int {
	if len(s.Meta) == 0 {
		return 1
	}
	if total := s.Meta[len(s.Meta)-1].Cumulative; total > 0 {
		return total
	}
	return 1
}

// Len returns the number of display lines.
func (s Script) Len() int {
	return len(s.Lines)
}

// Text joins the display lines back into newline-delimited text.
func (s Script) Text() string {
	return strings.Join(s.Lines, "\n")
}
