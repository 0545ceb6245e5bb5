// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

func newStrictDecoder(r io.Reader) *yaml.Decoder {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	return dec
}

func isUnknownFieldError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "field") && strings.Contains(msg, "not found")
}
