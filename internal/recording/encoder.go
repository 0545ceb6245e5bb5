// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package recording

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	ff "github.com/ManuGH/futureme/internal/infra/ffmpeg"
	xglog "github.com/ManuGH/futureme/internal/log"
	"github.com/ManuGH/futureme/internal/metrics"
)

// EncodeSpec is the stream layout handed to an encoder.
type EncodeSpec struct {
	Width, Height int
	FPS           int
	Audio         bool
	SampleRate    int
	Channels      int
}

// Encoder starts encoding sessions.
type Encoder interface {
	Start(ctx context.Context, spec EncodeSpec) (EncoderSession, error)
}

// EncoderSession accepts raw RGBA frames and PCM audio and produces the
// encoded container stream on Output.
type EncoderSession interface {
	WriteFrame(pix []byte) error
	// Audio is nil when the session was started without audio.
	Audio() io.Writer
	Output() io.Reader
	// Finish ends input and waits for the encoder to flush and exit.
	Finish(ctx context.Context) error
	// Abort kills the encoder without waiting for a flush.
	Abort() error
	// Done is closed when the encoder exits for any reason.
	Done() <-chan struct{}
	// Diagnostics returns recent encoder log lines.
	Diagnostics() []string
}

// FFmpegEncoder encodes VP8/Opus WebM through an ffmpeg child process.
type FFmpegEncoder struct {
	Binary        string
	VideoBitrate  string
	AudioBitrate  string
	ClusterMillis int
	// KillGrace is the SIGTERM grace when a flush times out.
	KillGrace time.Duration
	Logger    zerolog.Logger
}

// NewFFmpegEncoder returns an encoder using bin (ffmpeg by default).
func NewFFmpegEncoder(bin string) *FFmpegEncoder {
	return &FFmpegEncoder{
		Binary:        bin,
		ClusterMillis: 1000,
		KillGrace:     2 * time.Second,
		Logger:        xglog.WithComponent("encoder"),
	}
}

// Available reports whether the ffmpeg binary can be found.
func (e *FFmpegEncoder) Available() error {
	bin := e.Binary
	if bin == "" {
		bin = ff.DefaultBinary
	}
	if _, err := exec.LookPath(bin); err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return nil
}

func (e *FFmpegEncoder) Start(ctx context.Context, spec EncodeSpec) (EncoderSession, error) {
	extra := 0
	if spec.Audio {
		extra = 1
	}
	proc, err := ff.Start(ctx, ff.Options{
		Binary: e.Binary,
		Args: ff.EncoderArgs(ff.EncodeSpec{
			Width:         spec.Width,
			Height:        spec.Height,
			FPS:           spec.FPS,
			Audio:         spec.Audio,
			SampleRate:    spec.SampleRate,
			Channels:      spec.Channels,
			VideoBitrate:  e.VideoBitrate,
			AudioBitrate:  e.AudioBitrate,
			ClusterMillis: e.ClusterMillis,
		}),
		Stdin:       true,
		Stdout:      true,
		ExtraInputs: extra,
		Logger:      e.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("start encoder: %w", err)
	}
	e.Logger.Info().
		Str(xglog.FieldCodec, "vp8+opus").
		Str(xglog.FieldResolution, fmt.Sprintf("%dx%d", spec.Width, spec.Height)).
		Int(xglog.FieldFPS, spec.FPS).
		Bool("audio", spec.Audio).
		Msg("encoder started")
	return &ffmpegSession{proc: proc, grace: e.KillGrace, audio: spec.Audio}, nil
}

type ffmpegSession struct {
	proc  *ff.Process
	grace time.Duration
	audio bool
}

func (s *ffmpegSession) WriteFrame(pix []byte) error {
	_, err := s.proc.Stdin.Write(pix)
	return err
}

func (s *ffmpegSession) Audio() io.Writer {
	if !s.audio || len(s.proc.Extra) == 0 {
		return nil
	}
	return s.proc.Extra[0]
}

func (s *ffmpegSession) Output() io.Reader     { return s.proc.Stdout }
func (s *ffmpegSession) Done() <-chan struct{} { return s.proc.Done() }
func (s *ffmpegSession) Diagnostics() []string { return s.proc.Diagnostics() }

func (s *ffmpegSession) Finish(ctx context.Context) error {
	s.proc.CloseInputs()
	select {
	case <-s.proc.Done():
		err := s.proc.Err()
		observeExit(err, "finished")
		if err != nil {
			return fmt.Errorf("encoder exit: %w: %s", err, lastLine(s.proc.Diagnostics()))
		}
		return nil
	case <-ctx.Done():
		metrics.EncoderExitTotal.WithLabelValues("flush_timeout").Inc()
		_ = s.proc.Stop(s.grace)
		return fmt.Errorf("encoder flush: %w", ctx.Err())
	}
}

func (s *ffmpegSession) Abort() error {
	err := s.proc.Stop(s.grace)
	observeExit(err, "aborted")
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}

func observeExit(err error, reason string) {
	if err != nil {
		reason += "_error"
	}
	metrics.EncoderExitTotal.WithLabelValues(reason).Inc()
}

func lastLine(lines []string) string {
	if len(lines) == 0 {
		return "no encoder output"
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
