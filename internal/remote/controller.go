// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package remote

import (
	"context"
	"fmt"

	"github.com/ManuGH/futureme/internal/metrics"
)

// Controller sends commands onto the channel.
type Controller struct {
	bus   Bus
	topic string
}

// NewController returns a controller on the default channel. A nil bus yields
// a controller whose Send reports ErrUnsupported.
func NewController(bus Bus) *Controller {
	return &Controller{bus: bus, topic: Channel}
}

// Supported reports whether a channel is available.
func (c *Controller) Supported() bool {
	return c != nil && c.bus != nil
}

// Send validates and publishes cmd. Nothing is published when the channel is
// unsupported or the command is invalid.
func (c *Controller) Send(ctx context.Context, cmd Command) error {
	if !c.Supported() {
		metrics.IncRemoteCommand(string(cmd.Type), "unsupported")
		return ErrUnsupported
	}
	if err := cmd.Validate(); err != nil {
		metrics.IncRemoteCommand(string(cmd.Type), "invalid")
		return err
	}
	if err := c.bus.Publish(ctx, c.topic, cmd); err != nil {
		metrics.IncRemoteCommand(string(cmd.Type), "dropped")
		return fmt.Errorf("send %s: %w", cmd.Type, err)
	}
	metrics.IncRemoteCommand(string(cmd.Type), "sent")
	return nil
}
