// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package procgroup starts helper processes (ffmpeg capture and encoding) in
// their own process group so the whole tree can be signalled at once.
package procgroup

import "errors"

var ErrKillFailed = errors.New("kill operation failed")
