// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ResolveFFprobeBin picks the ffprobe used to inspect saved recordings: an
// explicit value wins, otherwise an ffprobe next to a concrete ffmpeg path,
// otherwise "" so the caller falls back to PATH.
func ResolveFFprobeBin(ffprobeBin, ffmpegBin string) string {
	return resolveFFprobe(ffprobeBin, ffmpegBin, os.Stat)
}

func resolveFFprobe(explicit, ffmpegBin string, stat func(string) (os.FileInfo, error)) string {
	if v := strings.TrimSpace(explicit); v != "" {
		return v
	}
	ffmpegBin = strings.TrimSpace(ffmpegBin)
	dir, base := filepath.Split(ffmpegBin)
	// A bare name is resolved through PATH; guessing a sibling is pointless.
	if dir == "" || !strings.HasPrefix(base, "ffmpeg") {
		return ""
	}
	candidate := filepath.Join(dir, "ffprobe"+strings.TrimPrefix(base, "ffmpeg"))
	if fi, err := stat(candidate); err == nil && !fi.IsDir() {
		return candidate
	}
	return ""
}
