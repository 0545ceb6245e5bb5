// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package remote

import "context"

// Bus is a broadcast channel: every subscriber of a topic sees every command
// published after it subscribed.
type Bus interface {
	Publish(ctx context.Context, topic string, cmd Command) error
	Subscribe(ctx context.Context, topic string) (Subscriber, error)
}

// Subscriber receives commands until closed.
type Subscriber interface {
	C() <-chan Command
	Close() error
}
