// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ffmpeg

import (
	"fmt"
	"strconv"
)

// CameraSpec describes a camera capture producing raw RGBA frames on stdout.
type CameraSpec struct {
	InputFormat string // v4l2 by default
	Device      string
	Width       int
	Height      int
	FPS         int
}

// MicrophoneSpec describes a microphone capture producing s16le PCM on stdout.
type MicrophoneSpec struct {
	InputFormat string // alsa by default
	Device      string
	SampleRate  int
	Channels    int
}

// EncodeSpec describes the WebM encoder fed with raw RGBA frames on pipe:0
// and optionally PCM audio on pipe:3.
type EncodeSpec struct {
	Width        int
	Height       int
	FPS          int
	Audio        bool
	SampleRate   int
	Channels     int
	VideoBitrate string
	AudioBitrate string
	// ClusterMillis bounds the WebM cluster duration so output arrives in
	// regular chunks.
	ClusterMillis int
}

func baseArgs() []string {
	return []string{"-hide_banner", "-loglevel", "error"}
}

// CameraArgs builds the capture command for a camera.
func CameraArgs(s CameraSpec) []string {
	format := s.InputFormat
	if format == "" {
		format = "v4l2"
	}
	device := s.Device
	if device == "" {
		device = "/dev/video0"
	}
	args := append(baseArgs(), "-nostdin", "-f", format)
	if s.FPS > 0 {
		args = append(args, "-framerate", strconv.Itoa(s.FPS))
	}
	args = append(args,
		"-i", device,
		"-vf", fmt.Sprintf("scale=%d:%d", s.Width, s.Height),
		"-pix_fmt", "rgba",
		"-f", "rawvideo",
		"pipe:1",
	)
	return args
}

// MicrophoneArgs builds the capture command for a microphone.
func MicrophoneArgs(s MicrophoneSpec) []string {
	format := s.InputFormat
	if format == "" {
		format = "alsa"
	}
	device := s.Device
	if device == "" {
		device = "default"
	}
	return append(baseArgs(),
		"-nostdin",
		"-f", format,
		"-i", device,
		"-ac", strconv.Itoa(s.Channels),
		"-ar", strconv.Itoa(s.SampleRate),
		"-f", "s16le",
		"pipe:1",
	)
}

// EncoderArgs builds the VP8/Opus WebM encoder command.
func EncoderArgs(s EncodeSpec) []string {
	args := append(baseArgs(),
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", s.Width, s.Height),
		"-framerate", strconv.Itoa(s.FPS),
		"-i", "pipe:0",
	)
	if s.Audio {
		args = append(args,
			"-f", "s16le",
			"-ar", strconv.Itoa(s.SampleRate),
			"-ac", strconv.Itoa(s.Channels),
			"-i", "pipe:3",
		)
	}

	vb := s.VideoBitrate
	if vb == "" {
		vb = "2M"
	}
	args = append(args,
		"-c:v", "libvpx",
		"-b:v", vb,
		"-deadline", "realtime",
		"-cpu-used", "8",
		"-pix_fmt", "yuv420p",
	)
	if s.Audio {
		ab := s.AudioBitrate
		if ab == "" {
			ab = "96k"
		}
		args = append(args, "-c:a", "libopus", "-b:a", ab)
	} else {
		args = append(args, "-an")
	}
	if s.ClusterMillis > 0 {
		args = append(args, "-cluster_time_limit", strconv.Itoa(s.ClusterMillis))
	}
	return append(args, "-f", "webm", "pipe:1")
}
