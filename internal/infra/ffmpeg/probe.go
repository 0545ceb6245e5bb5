// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

// ErrNoStreams is returned when ffprobe finds no playable stream.
var ErrNoStreams = errors.New("ffprobe returned no playable streams")

// StreamInfo summarizes a finished recording.
type StreamInfo struct {
	Container  string        `json:"container"`
	Duration   time.Duration `json:"duration"`
	VideoCodec string        `json:"video_codec,omitempty"`
	AudioCodec string        `json:"audio_codec,omitempty"`
	Width      int           `json:"width,omitempty"`
	Height     int           `json:"height,omitempty"`
}

// Probe runs ffprobe on a file.
func Probe(ctx context.Context, ffprobe, path string) (*StreamInfo, error) {
	if ffprobe == "" {
		ffprobe = "ffprobe"
	}
	args := []string{
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}

	// #nosec G204 -- binary from config; path is a file this process wrote
	cmd := exec.CommandContext(ctx, ffprobe, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil && len(out) == 0 {
		errStr := stderr.String()
		if len(errStr) > 4096 {
			errStr = errStr[:4096] + "..."
		}
		return nil, fmt.Errorf("ffprobe failed: %w (stderr: %s)", err, errStr)
	}
	return parseProbe(out)
}

func parseProbe(out []byte) (*StreamInfo, error) {
	var data probeData
	if err := json.Unmarshal(out, &data); err != nil {
		return nil, fmt.Errorf("json decode: %w", err)
	}

	info := &StreamInfo{Container: data.Format.FormatName}
	for _, s := range data.Streams {
		switch s.CodecType {
		case "video":
			if info.VideoCodec == "" {
				info.VideoCodec = s.CodecName
				info.Width, info.Height = s.Width, s.Height
			}
		case "audio":
			if info.AudioCodec == "" {
				info.AudioCodec = s.CodecName
			}
		}
	}
	if info.VideoCodec == "" && info.AudioCodec == "" {
		return nil, ErrNoStreams
	}
	if d, err := strconv.ParseFloat(data.Format.Duration, 64); err == nil && d > 0 {
		info.Duration = time.Duration(d * float64(time.Second))
	}
	return info, nil
}

type probeData struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
		Width     int    `json:"width,omitempty"`
		Height    int    `json:"height,omitempty"`
	} `json:"streams"`
	Format struct {
		Duration   string `json:"duration"`
		FormatName string `json:"format_name"`
	} `json:"format"`
}
