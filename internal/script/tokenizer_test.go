// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package script

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		lines []string
		words []int
	}{
		{
			name:  "three lines",
			raw:   "Line one.\nLine two.\nLine three.",
			lines: []string{"Line one.", "Line two.", "Line three."},
			words: []int{2, 2, 2},
		},
		{
			name:  "blank lines and padding dropped",
			raw:   "\n   I am calm.  \n\n\t\r\nI am   focused today\r\n   ",
			lines: []string{"I am calm.", "I am   focused today"},
			words: []int{3, 4},
		},
		{
			name:  "apostrophes and hyphens stay inside words",
			raw:   "I don't fear well-known paths.",
			lines: []string{"I don't fear well-known paths."},
			words: []int{5},
		},
		{
			name:  "punctuation only line still counts once",
			raw:   "...\nok",
			lines: []string{"...", "ok"},
			words: []int{1, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Tokenize(tt.raw)
			if diff := cmp.Diff(tt.lines, s.Lines); diff != "" {
				t.Fatalf("lines mismatch (-want +got):\n%s", diff)
			}
			got := make([]int, len(s.Meta))
			for i, m := range s.Meta {
				got[i] = m.WordCount
			}
			if diff := cmp.Diff(tt.words, got); diff != "" {
				t.Fatalf("word counts mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTokenizeBlankInputYieldsPlaceholder(t *testing.T) {
	for _, raw := range []string{"", "   ", "\n\n\t\n", "\r\n \r\n"} {
		s := Tokenize(raw)
		require.Equal(t, []string{Placeholder}, s.Lines)
		require.Equal(t, []LineMeta{{WordCount: 1, Cumulative: 1}}, s.Meta)
		require.Equal(t, 1, s.TotalWords())
	}
}

func TestTokenizeLineCountMatchesNonBlankLines(t *testing.T) {
	raw := "a\n\n b c \n\n\nd-e f'g\n   \nlast line here"
	nonBlank := 0
	for _, l := range strings.Split(raw, "\n") {
		if strings.TrimSpace(l) != "" {
			nonBlank++
		}
	}
	require.Equal(t, nonBlank, Tokenize(raw).Len())
}

func TestCumulativeIsNonDecreasingAndEndsAtTotal(t *testing.T) {
	s := Tokenize("I am grateful for this morning\nI choose patience\n\nI act with courage and kindness today")
	cum := s.Cumulative()
	total := 0
	for i, m := range s.Meta {
		total += m.WordCount
		require.GreaterOrEqual(t, m.WordCount, 1)
		if i > 0 {
			require.GreaterOrEqual(t, cum[i], cum[i-1])
		}
	}
	require.Equal(t, total, cum[len(cum)-1])
	require.Equal(t, total, s.TotalWords())
}

func TestTokenizeNormalizesDecomposedText(t *testing.T) {
	s := Tokenize("Cafe\u0301 mornings")
	require.Equal(t, "Caf\u00e9 mornings", s.Lines[0])
	require.Equal(t, 2, s.Meta[0].WordCount)
}

func TestAssemble(t *testing.T) {
	got := Assemble(Blocks{
		Identity:  []string{"I am disciplined.", "  "},
		Gratitude: []string{"I am grateful for my family."},
		Actions:   []string{"Today I will walk for thirty minutes."},
		Prayers:   nil,
		Quote:     "  Well begun is half done.  ",
	})
	want := "I am disciplined.\nI am grateful for my family.\nToday I will walk for thirty minutes.\nWell begun is half done."
	require.Equal(t, want, got)
	require.Equal(t, 4, Tokenize(got).Len())
}

func TestHolder_SetRetokenizes(t *testing.T) {
	h := NewHolder("")
	require.Equal(t, []string{Placeholder}, h.Current().Lines)
	require.Zero(t, h.Revision())

	rev := h.Set("one two\n\nthree")
	require.Equal(t, uint64(1), rev)
	require.Equal(t, "one two\n\nthree", h.Raw())
	require.Equal(t, []string{"one two", "three"}, h.Current().Lines)
	require.Equal(t, 3, h.Current().TotalWords())
}
