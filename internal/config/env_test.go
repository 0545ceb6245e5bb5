// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseString(t *testing.T) {
	t.Setenv("TEST_STRING", "from-env")
	t.Setenv("TEST_STRING_EMPTY", "")

	assert.Equal(t, "from-env", ParseString("TEST_STRING", "default"))
	assert.Equal(t, "default", ParseString("TEST_STRING_EMPTY", "default"))
	assert.Equal(t, "default", ParseString("TEST_STRING_UNSET_XYZ", "default"))
}

func TestParseInt(t *testing.T) {
	t.Setenv("TEST_INT", " 42 ")
	t.Setenv("TEST_INT_BAD", "forty")

	assert.Equal(t, 42, ParseInt("TEST_INT", 7))
	assert.Equal(t, 7, ParseInt("TEST_INT_BAD", 7))
	assert.Equal(t, 7, ParseInt("TEST_INT_UNSET_XYZ", 7))
}

func TestParseFloat(t *testing.T) {
	t.Setenv("TEST_FLOAT", "1.5")
	t.Setenv("TEST_FLOAT_BAD", "x")

	assert.Equal(t, 1.5, ParseFloat("TEST_FLOAT", 1))
	assert.Equal(t, 1.0, ParseFloat("TEST_FLOAT_BAD", 1))
}

func TestParseDuration(t *testing.T) {
	t.Setenv("TEST_DUR", "250ms")
	t.Setenv("TEST_DUR_BAD", "soon")

	assert.Equal(t, 250*time.Millisecond, ParseDuration("TEST_DUR", time.Second))
	assert.Equal(t, time.Second, ParseDuration("TEST_DUR_BAD", time.Second))
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		value string
		def   bool
		want  bool
	}{
		{"true", false, true},
		{"YES", false, true},
		{"1", false, true},
		{"false", true, false},
		{"No", true, false},
		{"0", true, false},
		{"maybe", true, true},
		{"", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.value)
			assert.Equal(t, tt.want, ParseBool("TEST_BOOL", tt.def))
		})
	}
}
