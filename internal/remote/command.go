// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package remote carries control commands from companion controllers to the
// recording session over a named broadcast channel.
package remote

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Channel is the versioned broadcast channel name shared by controllers and
// listeners.
const Channel = "tfm-remote-v1"

// CommandType names a remote-control action.
type CommandType string

const (
	CmdStart       CommandType = "start"
	CmdPauseResume CommandType = "pauseResume"
	CmdFinish      CommandType = "finish"
	CmdSpeed       CommandType = "speed"
	CmdFont        CommandType = "font"
	CmdMirror      CommandType = "mirror"
	CmdPIP         CommandType = "pip"
)

var (
	// ErrUnsupported is returned when no broadcast channel is configured.
	ErrUnsupported = errors.New("remote control channel unsupported")
	// ErrUnknownCommand rejects a command type outside the known set.
	ErrUnknownCommand = errors.New("unknown remote command")
	// ErrInvalidValue rejects a payload of the wrong kind.
	ErrInvalidValue = errors.New("invalid remote command value")
)

// Command is the wire message: {"type": "...", "value": number|boolean}.
type Command struct {
	Type  CommandType     `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

// NumberCommand builds a command with a numeric payload.
func NumberCommand(t CommandType, v float64) Command {
	b, _ := json.Marshal(v)
	return Command{Type: t, Value: b}
}

// BoolCommand builds a command with a boolean payload.
func BoolCommand(t CommandType, v bool) Command {
	b, _ := json.Marshal(v)
	return Command{Type: t, Value: b}
}

// Known reports whether t is a recognized command type.
func (t CommandType) Known() bool {
	switch t {
	case CmdStart, CmdPauseResume, CmdFinish, CmdSpeed, CmdFont, CmdMirror, CmdPIP:
		return true
	}
	return false
}

func (t CommandType) numeric() bool {
	return t == CmdSpeed || t == CmdFont || t == CmdPIP
}

func (c Command) hasValue() bool {
	return len(c.Value) > 0 && string(c.Value) != "null"
}

// Number decodes a numeric payload.
func (c Command) Number() (float64, bool) {
	if !c.hasValue() {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(c.Value, &v); err != nil {
		return 0, false
	}
	return v, true
}

// Bool decodes a boolean payload.
func (c Command) Bool() (bool, bool) {
	if !c.hasValue() {
		return false, false
	}
	var v bool
	if err := json.Unmarshal(c.Value, &v); err != nil {
		return false, false
	}
	return v, true
}

// Validate checks the type and payload kind.
func (c Command) Validate() error {
	if !c.Type.Known() {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, c.Type)
	}
	if c.Type.numeric() {
		if _, ok := c.Number(); !ok {
			return fmt.Errorf("%w: %s needs a number", ErrInvalidValue, c.Type)
		}
	}
	if c.Type == CmdMirror && c.hasValue() {
		if _, ok := c.Bool(); !ok {
			return fmt.Errorf("%w: mirror takes a boolean", ErrInvalidValue)
		}
	}
	return nil
}
