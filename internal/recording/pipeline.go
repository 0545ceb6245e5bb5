// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package recording encodes the composited frames and microphone audio into
// a WebM artifact exposed through revocable references.
package recording

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/futureme/internal/capture"
	ff "github.com/ManuGH/futureme/internal/infra/ffmpeg"
	xglog "github.com/ManuGH/futureme/internal/log"
	"github.com/ManuGH/futureme/internal/metrics"
)

var (
	ErrUnsupported      = errors.New("recording not supported on this host")
	ErrAlreadyRecording = errors.New("recording already in progress")
	ErrNotRecording     = errors.New("not recording")
	ErrEmptyRecording   = errors.New("recording produced no data")
	ErrEncoderExited    = errors.New("encoder exited unexpectedly")
)

// FrameSource yields the latest composited frame.
type FrameSource interface {
	CopyTo(dst *image.RGBA) (*image.RGBA, uint64, bool)
}

// ProbeFunc inspects a saved recording.
type ProbeFunc func(ctx context.Context, path string) (*ff.StreamInfo, error)

// Config wires a Pipeline.
type Config struct {
	Frames   FrameSource
	Encoder  Encoder
	Registry *Registry

	Width, Height int
	FPS           int
	// ChunkBytes is the read size for encoder output.
	ChunkBytes  int
	StopTimeout time.Duration
	// PauseUnsupported makes Pause report capture.ErrPauseUnsupported.
	PauseUnsupported bool
	// Save writes a durable copy of each recording through the registry.
	Save  bool
	Probe ProbeFunc

	Now    func() time.Time
	Logger *zerolog.Logger
}

// Pipeline implements capture.Recorder. One recording runs at a time.
type Pipeline struct {
	cfg    Config
	logger zerolog.Logger

	mu   sync.Mutex
	run  *run
	last *capture.Output
}

var (
	_ capture.Recorder            = (*Pipeline)(nil)
	_ capture.AvailabilityChecker = (*Pipeline)(nil)
)

// NewPipeline fills defaults and validates cfg.
func NewPipeline(cfg Config) (*Pipeline, error) {
	if cfg.Frames == nil || cfg.Encoder == nil || cfg.Registry == nil {
		return nil, fmt.Errorf("recording: incomplete pipeline config")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = 1280, 720
	}
	// Encoders reject odd dimensions for 4:2:0 output.
	cfg.Width &^= 1
	cfg.Height &^= 1
	if cfg.FPS <= 0 {
		cfg.FPS = 30
	}
	if cfg.ChunkBytes <= 0 {
		cfg.ChunkBytes = 256 << 10
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = 10 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := xglog.WithComponent("recording")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	return &Pipeline{cfg: cfg, logger: logger}, nil
}

type run struct {
	id        string
	enc       EncoderSession
	cancel    context.CancelFunc
	pumps     *errgroup.Group
	pumpsDone chan struct{}
	collected chan struct{}
	startedAt time.Time

	chunks     [][]byte
	size       int64
	collectErr error

	paused   atomic.Bool
	stopping atomic.Bool
	failOnce sync.Once
	done     chan error
}

// Available reports ErrUnsupported when the encoder cannot run on this host.
// Encoders without a check are assumed available.
func (p *Pipeline) Available() error {
	if ac, ok := p.cfg.Encoder.(capture.AvailabilityChecker); ok {
		return ac.Available()
	}
	return nil
}

// SupportsPause reports whether Pause can succeed.
func (p *Pipeline) SupportsPause() bool { return !p.cfg.PauseUnsupported }

// Start begins encoding frames from the configured source and audio from mic
// (which may be nil for a silent recording).
func (p *Pipeline) Start(ctx context.Context, mic capture.AudioSource) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.run != nil {
		return ErrAlreadyRecording
	}

	spec := EncodeSpec{Width: p.cfg.Width, Height: p.cfg.Height, FPS: p.cfg.FPS, Audio: mic != nil}
	if mic != nil {
		spec.SampleRate, spec.Channels = mic.SampleRate(), mic.Channels()
	}
	enc, err := p.cfg.Encoder.Start(ctx, spec)
	if err != nil {
		return err
	}

	rctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	g, gctx := errgroup.WithContext(rctx)
	r := &run{
		id:        uuid.NewString(),
		enc:       enc,
		cancel:    cancel,
		pumps:     g,
		pumpsDone: make(chan struct{}),
		collected: make(chan struct{}),
		startedAt: p.cfg.Now(),
		done:      make(chan error, 1),
	}

	g.Go(func() error { return r.pumpVideo(gctx, p.cfg) })
	if audio := enc.Audio(); mic != nil && audio != nil {
		g.Go(func() error { return r.pumpAudio(gctx, mic, audio) })
	}
	go func() {
		if err := g.Wait(); err != nil && !r.stopping.Load() {
			r.fail(err)
		}
		close(r.pumpsDone)
	}()
	go r.collect(p.cfg.ChunkBytes)
	go func() {
		<-enc.Done()
		if !r.stopping.Load() {
			r.fail(fmt.Errorf("%w: %s", ErrEncoderExited, lastLine(enc.Diagnostics())))
		}
	}()

	p.run = r
	p.logger.Info().Str("recording_id", r.id).Bool("audio", spec.Audio).Msg("recording started")
	return nil
}

func (r *run) fail(err error) {
	r.failOnce.Do(func() {
		r.done <- err
	})
}

func (r *run) pumpVideo(ctx context.Context, cfg Config) error {
	ticker := time.NewTicker(time.Second / time.Duration(cfg.FPS))
	defer ticker.Stop()

	out := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	var latest *image.RGBA
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		// Paused time is excluded from the output by not emitting frames.
		if r.paused.Load() {
			continue
		}

		frame := out
		var ok bool
		latest, _, ok = cfg.Frames.CopyTo(latest)
		if ok {
			if latest.Bounds().Dx() == cfg.Width && latest.Bounds().Dy() == cfg.Height {
				frame = latest
			} else {
				xdraw.ApproxBiLinear.Scale(out, out.Bounds(), latest, latest.Bounds(), xdraw.Src, nil)
			}
		}
		if err := r.enc.WriteFrame(frame.Pix); err != nil {
			metrics.RecordingFramesTotal.WithLabelValues("error").Inc()
			return fmt.Errorf("write frame: %w", err)
		}
		metrics.RecordingFramesTotal.WithLabelValues("written").Inc()
	}
}

func (r *run) pumpAudio(ctx context.Context, mic io.Reader, dst io.Writer) error {
	buf := make([]byte, 4096)
	for {
		if ctx.Err() != nil {
			return nil
		}
		n, err := mic.Read(buf)
		if n > 0 && !r.paused.Load() && ctx.Err() == nil {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return fmt.Errorf("write audio: %w", werr)
			}
		}
		if err != nil {
			if ctx.Err() != nil || r.stopping.Load() {
				return nil
			}
			if errors.Is(err, io.EOF) {
				// A microphone that ends mid-recording fails the run.
				return fmt.Errorf("microphone stream ended: %w", io.ErrUnexpectedEOF)
			}
			return fmt.Errorf("read microphone: %w", err)
		}
	}
}

// collect buffers encoder output until EOF.
func (r *run) collect(chunkBytes int) {
	defer close(r.collected)
	out := r.enc.Output()
	for {
		b := make([]byte, chunkBytes)
		n, err := io.ReadFull(out, b)
		if n > 0 {
			r.chunks = append(r.chunks, b[:n])
			r.size += int64(n)
			metrics.RecordingBytesTotal.Add(float64(n))
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
				r.collectErr = fmt.Errorf("read encoder output: %w", err)
			}
			return
		}
	}
}

// Pause stops emitting frames and audio until Resume.
func (p *Pipeline) Pause() error {
	return p.setPaused(true)
}

// Resume continues a paused recording.
func (p *Pipeline) Resume() error {
	return p.setPaused(false)
}

func (p *Pipeline) setPaused(v bool) error {
	if p.cfg.PauseUnsupported {
		return capture.ErrPauseUnsupported
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.run == nil {
		return ErrNotRecording
	}
	p.run.paused.Store(v)
	return nil
}

// Done delivers a mid-recording failure of the current run. It returns nil
// when nothing is recording.
func (p *Pipeline) Done() <-chan error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.run == nil {
		return nil
	}
	return p.run.done
}

// Stop finalizes the recording and registers the artifact, revoking the
// previous one. Calling Stop when nothing is recording returns the last
// output and no error.
func (p *Pipeline) Stop(ctx context.Context) (*capture.Output, error) {
	p.mu.Lock()
	r := p.run
	if r == nil {
		out := p.last
		p.mu.Unlock()
		return out, nil
	}
	p.run = nil
	p.mu.Unlock()

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.StopTimeout)
	defer cancel()
	logger := p.logger.With().Str("recording_id", r.id).Logger()

	r.stopping.Store(true)
	r.cancel()
	// A pump blocked on a full encoder pipe is released by Finish.
	select {
	case <-r.pumpsDone:
	case <-time.After(time.Second):
		logger.Debug().Msg("pumps still draining, finishing encoder")
	}
	finishErr := r.enc.Finish(stopCtx)

	select {
	case <-r.collected:
	case <-stopCtx.Done():
		_ = r.enc.Abort()
		<-r.collected
	}
	select {
	case <-r.pumpsDone:
	case <-stopCtx.Done():
		logger.Warn().Msg("recording pumps did not stop in time")
	}

	stopErr := errors.Join(finishErr, r.collectErr)
	if stopErr != nil {
		logger.Warn().Err(stopErr).Strs("encoder_log", r.enc.Diagnostics()).Msg("encoder finished with errors")
	}
	if r.size == 0 {
		return nil, errors.Join(ErrEmptyRecording, stopErr)
	}

	a := &Artifact{
		MIME:      MIMEType,
		Filename:  Filename(r.startedAt),
		Data:      bytes.Join(r.chunks, nil),
		CreatedAt: p.cfg.Now(),
	}
	ref := p.cfg.Registry.Replace(a)
	logger = logger.With().Str(xglog.FieldArtifactID, ref.ID).Logger()

	if p.cfg.Save {
		ctx := logger.WithContext(stopCtx)
		if path, err := p.cfg.Registry.Save(ctx, a); err != nil {
			logger.Warn().Err(err).Msg("saving recording failed")
		} else if p.cfg.Probe != nil && path != "" {
			if info, err := p.cfg.Probe(stopCtx, path); err != nil {
				logger.Warn().Err(err).Msg("probing recording failed")
			} else {
				logger.Info().Dur("duration", info.Duration).Str(xglog.FieldCodec, info.VideoCodec+"+"+info.AudioCodec).Msg("recording probed")
			}
		}
	}

	out := &capture.Output{
		ID:        ref.ID,
		URL:       ref.URL,
		Filename:  a.Filename,
		MIME:      a.MIME,
		Size:      int64(len(a.Data)),
		CreatedAt: a.CreatedAt,
	}
	p.mu.Lock()
	p.last = out
	p.mu.Unlock()
	logger.Info().Int64("bytes", out.Size).Str("filename", out.Filename).Msg("recording finished")
	return out, stopErr
}

// Discard revokes the current artifact reference.
func (p *Pipeline) Discard(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg.Registry.RevokeCurrent()
	p.last = nil
	return nil
}

// Close stops any running recording.
func (p *Pipeline) Close(ctx context.Context) error {
	p.mu.Lock()
	running := p.run != nil
	p.mu.Unlock()
	if !running {
		return nil
	}
	_, err := p.Stop(ctx)
	return err
}
