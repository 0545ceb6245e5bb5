// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/futureme/internal/log"
	"github.com/ManuGH/futureme/internal/metrics"
)

// ErrCancelled is returned by Start when the attempt was cancelled by Finish
// or Close while devices were still being acquired.
var ErrCancelled = errors.New("capture start cancelled")

// Config wires a Session to its collaborators.
type Config struct {
	Devices  DeviceProvider
	Recorder Recorder
	Clock    Clock

	// Countdown before recording begins; zero starts immediately.
	Countdown time.Duration

	CameraID     string
	MicrophoneID string

	// ScriptDuration is the pacing estimate reported as elapsed time once the
	// session has finished.
	ScriptDuration func() time.Duration

	Logger *zerolog.Logger
}

// Snapshot is a consistent view of the session for the API and compositor.
type Snapshot struct {
	ID              string        `json:"id,omitempty"`
	State           State         `json:"state"`
	Elapsed         time.Duration `json:"-"`
	ElapsedMS       int64         `json:"elapsed_ms"`
	Error           string        `json:"error,omitempty"`
	Output          *Output       `json:"output,omitempty"`
	CameraID        string        `json:"camera_id"`
	MicrophoneID    string        `json:"microphone_id"`
	CountdownEndsAt *time.Time    `json:"countdown_ends_at,omitempty"`
}

// Session is the single owner of the capture state machine, the device
// handles and the timing anchor. All transitions are serialized by mu; slow
// work (device acquisition, recorder finalization) runs outside the lock.
type Session struct {
	cfg    Config
	logger zerolog.Logger

	mu            sync.Mutex
	id            string
	state         State
	anchor        TimingAnchor
	camera        VideoSource
	mic           AudioSource
	output        *Output
	lastErr       error
	acquiring     bool
	userStarted   bool
	autoArmed     bool
	autoGen       uint64
	previewWanted bool
	closed        bool
	cameraID      string
	micID         string
	countdownEnds time.Time
	cancelCount   context.CancelFunc
	watchStop     chan struct{}

	closeCh chan struct{}
	wg      sync.WaitGroup
}

// NewSession creates an idle session.
func NewSession(cfg Config) *Session {
	if cfg.Clock == nil {
		cfg.Clock = RealClock()
	}
	logger := xglog.WithComponent("capture")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	metrics.SetCaptureState(string(StateIdle))
	return &Session{
		cfg:      cfg,
		logger:   logger,
		state:    StateIdle,
		cameraID: cfg.CameraID,
		micID:    cfg.MicrophoneID,
		closeCh:  make(chan struct{}),
	}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start begins a capture: devices are acquired, then the countdown (if any)
// runs and recording starts.
func (s *Session) Start(ctx context.Context) error {
	return s.start(ctx, true)
}

func (s *Session) start(ctx context.Context, manual bool) error {
	unsupported := s.recorderUnavailable()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if unsupported != nil {
		if s.state == StateIdle || s.state == StateFinished {
			s.lastErr = unsupported
		}
		s.mu.Unlock()
		s.logger.Warn().Err(unsupported).Str(xglog.FieldEvent, "capture.recording_unsupported").Msg("recording unavailable, devices left untouched")
		return unsupported
	}
	if s.acquiring {
		s.mu.Unlock()
		return ErrBusy
	}
	if err := s.transitionLocked(EvStart); err != nil {
		s.mu.Unlock()
		return err
	}
	if manual {
		s.userStarted = true
	}
	s.acquiring = true
	s.id = uuid.NewString()
	s.lastErr = nil
	s.output = nil
	id := s.id
	camID, micID := s.cameraID, s.micID
	preview := s.camera
	s.camera = nil
	s.mu.Unlock()

	logger := s.logger.With().Str(xglog.FieldSessionID, id).Logger()
	cam, mic, failed, err := s.acquire(ctx, camID, micID, preview)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.acquiring = false

	if err != nil {
		// acquire already released the preview camera and partial handles.
		s.lastErr = err
		metrics.IncDeviceError(string(failed), string(DeviceErrorKindOf(err)))
		logger.Warn().Err(err).Str(xglog.FieldEvent, "capture.device_failed").Msg("device acquisition failed")
		if s.state == StateCountdown && s.id == id {
			_ = s.transitionLocked(EvStartFailed)
		}
		return fmt.Errorf("start capture: %w", err)
	}

	if s.closed || s.state != StateCountdown || s.id != id {
		go releaseAll(logger, cam, mic)
		return ErrCancelled
	}

	s.camera, s.mic = cam, mic
	if s.cfg.Countdown > 0 {
		cctx, cancel := context.WithCancel(context.Background())
		s.cancelCount = cancel
		s.countdownEnds = s.cfg.Clock.Now().Add(s.cfg.Countdown)
		s.wg.Add(1)
		go s.runCountdown(cctx, id)
		logger.Info().Dur("countdown", s.cfg.Countdown).Msg("countdown started")
		return nil
	}
	return s.beginRecordingLocked(ctx)
}

// recorderUnavailable reports why the recorder cannot record on this host, or
// nil when it can or cannot tell.
func (s *Session) recorderUnavailable() error {
	ac, ok := s.cfg.Recorder.(AvailabilityChecker)
	if !ok {
		return nil
	}
	if err := ac.Available(); err != nil {
		return fmt.Errorf("%w: %w", ErrRecordingUnsupported, err)
	}
	return nil
}

// acquire opens camera and microphone, releasing whatever it opened (and the
// preview camera) if any step fails.
func (s *Session) acquire(ctx context.Context, camID, micID string, preview VideoSource) (VideoSource, AudioSource, DeviceKind, error) {
	cam := preview
	if cam != nil && ended(cam) {
		closeQuietly(s.logger, "camera", cam)
		cam = nil
	}
	if cam == nil {
		c, err := s.cfg.Devices.OpenCamera(ctx, s.resolve(ctx, KindCamera, camID))
		if err != nil {
			return nil, nil, KindCamera, asDeviceError(err, camID)
		}
		cam = c
	}
	mic, err := s.cfg.Devices.OpenMicrophone(ctx, s.resolve(ctx, KindMicrophone, micID))
	if err != nil {
		closeQuietly(s.logger, "camera", cam)
		return nil, nil, KindMicrophone, asDeviceError(err, micID)
	}
	return cam, mic, "", nil
}

// resolve falls back to the platform default device ("") when the selected
// device is not currently enumerated.
func (s *Session) resolve(ctx context.Context, kind DeviceKind, want string) string {
	if want == "" {
		return ""
	}
	devs, err := s.cfg.Devices.Devices(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Str(xglog.FieldDevice, want).Msg("device enumeration failed, using default device")
		return ""
	}
	for _, d := range devs {
		if d.Kind == kind && d.ID == want {
			return want
		}
	}
	s.logger.Warn().Str(xglog.FieldDevice, want).Str("kind", string(kind)).Msg("selected device not present, using default device")
	return ""
}

func asDeviceError(err error, device string) error {
	var de *DeviceError
	if errors.As(err, &de) {
		return err
	}
	return &DeviceError{Kind: DeviceUnavailable, Device: device, Err: err}
}

func (s *Session) runCountdown(ctx context.Context, id string) {
	defer s.wg.Done()
	select {
	case <-s.cfg.Clock.After(s.cfg.Countdown):
	case <-ctx.Done():
		return
	case <-s.closeCh:
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.id != id || s.state != StateCountdown {
		return
	}
	s.cancelCount = nil
	if err := s.beginRecordingLocked(context.Background()); err != nil {
		s.logger.Warn().Err(err).Str(xglog.FieldSessionID, id).Msg("recording did not start after countdown")
	}
}

// beginRecordingLocked starts the recorder and the timing anchor. On failure
// the microphone is released and the session returns to idle; the camera is
// kept so preview keeps working.
func (s *Session) beginRecordingLocked(ctx context.Context) error {
	if err := s.cfg.Recorder.Start(context.WithoutCancel(ctx), s.mic); err != nil {
		mic := s.mic
		s.mic = nil
		go closeQuietly(s.logger, "microphone", mic)
		s.lastErr = fmt.Errorf("%w: %v", ErrRecorderStart, err)
		_ = s.transitionLocked(EvStartFailed)
		return s.lastErr
	}
	if err := s.transitionLocked(EvCountdownElapsed); err != nil {
		return err
	}
	s.countdownEnds = time.Time{}
	s.anchor.Begin(s.cfg.Clock.Now())
	s.watchStop = make(chan struct{})
	s.wg.Add(1)
	go s.watchRecorder(s.id, s.cfg.Recorder.Done(), streamEnded(s.camera), s.watchStop)
	return nil
}

func ended(src VideoSource) bool {
	ch := streamEnded(src)
	if ch == nil {
		return false
	}
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// streamEnded returns the end-of-stream channel of src, or nil when src
// cannot end on its own.
func streamEnded(src VideoSource) <-chan struct{} {
	if e, ok := src.(StreamEnder); ok {
		return e.Ended()
	}
	return nil
}

// watchRecorder finishes the session when the recorder dies or the camera
// stream ends while recording.
func (s *Session) watchRecorder(id string, done <-chan error, camEnded <-chan struct{}, stop <-chan struct{}) {
	defer s.wg.Done()
	select {
	case <-stop:
		return
	case err := <-done:
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		s.recorderFailed(id, err)
	case <-camEnded:
		s.recorderFailed(id, fmt.Errorf("%w: %w", ErrStreamEnded, io.ErrUnexpectedEOF))
	}
}

// recorderFailed treats a recorder or camera that died on its own as an
// implicit finish.
func (s *Session) recorderFailed(id string, cause error) {
	s.mu.Lock()
	if s.id != id || !s.state.IsActive() {
		s.mu.Unlock()
		return
	}
	if errors.Is(cause, ErrStreamEnded) {
		s.lastErr = cause
	} else {
		s.lastErr = fmt.Errorf("%w: %v", ErrRecorderFailed, cause)
	}
	s.logger.Error().Err(cause).Str(xglog.FieldSessionID, id).Str(xglog.FieldEvent, "capture.recorder_failed").Msg("recorder failed, finishing session")
	_ = s.transitionLocked(EvRecorderFailed)
	s.anchor.Stop(s.cfg.Clock.Now())
	s.watchStop = nil
	s.mu.Unlock()

	s.finalize(context.Background(), id)
}

// PauseResume toggles between recording and paused.
func (s *Session) PauseResume(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateRecording:
		if err := s.cfg.Recorder.Pause(); err != nil {
			if errors.Is(err, ErrPauseUnsupported) {
				return err
			}
			return fmt.Errorf("pause recorder: %w", err)
		}
		if err := s.transitionLocked(EvPauseResume); err != nil {
			return err
		}
		s.anchor.Pause(s.cfg.Clock.Now())
		return nil
	case StatePaused:
		if err := s.cfg.Recorder.Resume(); err != nil {
			return fmt.Errorf("resume recorder: %w", err)
		}
		if err := s.transitionLocked(EvPauseResume); err != nil {
			return err
		}
		s.anchor.Resume(s.cfg.Clock.Now())
		return nil
	default:
		return s.reject(EvPauseResume)
	}
}

// Finish stops the recording (or cancels a countdown) and releases devices.
func (s *Session) Finish(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateCountdown:
		_ = s.transitionLocked(EvFinish)
		if s.cancelCount != nil {
			s.cancelCount()
			s.cancelCount = nil
		}
		s.countdownEnds = time.Time{}
		cam, mic := s.camera, s.mic
		s.camera, s.mic = nil, nil
		s.mu.Unlock()
		releaseAll(s.logger, cam, mic)
		return nil
	case StateRecording, StatePaused:
		_ = s.transitionLocked(EvFinish)
		s.anchor.Stop(s.cfg.Clock.Now())
		if s.watchStop != nil {
			close(s.watchStop)
			s.watchStop = nil
		}
		id := s.id
		s.mu.Unlock()
		s.finalize(ctx, id)
		return nil
	default:
		err := s.reject(EvFinish)
		s.mu.Unlock()
		return err
	}
}

// finalize stops the recorder, releases the devices and enters finished.
func (s *Session) finalize(ctx context.Context, id string) {
	out, stopErr := s.cfg.Recorder.Stop(ctx)

	s.mu.Lock()
	cam, mic := s.camera, s.mic
	s.camera, s.mic = nil, nil
	s.mu.Unlock()
	releaseAll(s.logger, cam, mic)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id != id || s.state != StateFinishing {
		return
	}
	if stopErr != nil {
		s.logger.Error().Err(stopErr).Str(xglog.FieldSessionID, id).Msg("recorder stop failed")
		if s.lastErr == nil {
			s.lastErr = stopErr
		}
	}
	s.output = out
	_ = s.transitionLocked(EvFinalized)
	metrics.RecordedSeconds.Observe(s.anchor.Elapsed(s.cfg.Clock.Now()).Seconds())
}

// Reset discards the finished session's output and returns to idle. The
// next script load may arm auto-start again, and a preview that was open
// before recording is reopened.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.transitionLocked(EvReset); err != nil {
		return err
	}
	if err := s.cfg.Recorder.Discard(ctx); err != nil {
		metrics.IncCleanupError("artifact")
		s.logger.Warn().Err(err).Msg("discarding recording failed")
	}
	s.output = nil
	s.anchor = TimingAnchor{}
	s.lastErr = nil
	s.id = ""
	s.autoGen++
	s.autoArmed = false
	s.userStarted = false

	if s.previewWanted && s.camera == nil && !s.closed {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.OpenPreview(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn().Err(err).Msg("reopening preview failed")
			}
		}()
	}
	return nil
}

// Elapsed returns the active elapsed time used for pacing: zero before
// recording, live while recording, frozen while paused, and the full script
// duration estimate once finished.
func (s *Session) Elapsed(now time.Time) time.Duration {
	s.mu.Lock()
	state := s.state
	anchor := s.anchor
	s.mu.Unlock()
	return s.elapsed(state, anchor, now)
}

func (s *Session) elapsed(state State, anchor TimingAnchor, now time.Time) time.Duration {
	switch state {
	case StateIdle, StateCountdown:
		return 0
	case StateFinished:
		if s.cfg.ScriptDuration != nil {
			return s.cfg.ScriptDuration()
		}
		return anchor.Elapsed(now)
	default:
		return anchor.Elapsed(now)
	}
}

// Snapshot returns the session view at the current clock instant.
func (s *Session) Snapshot() Snapshot {
	now := s.cfg.Clock.Now()
	s.mu.Lock()
	snap := Snapshot{
		ID:           s.id,
		State:        s.state,
		Output:       s.output,
		CameraID:     s.cameraID,
		MicrophoneID: s.micID,
	}
	if s.lastErr != nil {
		snap.Error = s.lastErr.Error()
	}
	if !s.countdownEnds.IsZero() {
		t := s.countdownEnds
		snap.CountdownEndsAt = &t
	}
	anchor := s.anchor
	s.mu.Unlock()

	snap.Elapsed = s.elapsed(snap.State, anchor, now)
	snap.ElapsedMS = snap.Elapsed.Milliseconds()
	return snap
}

// Camera returns the held camera source for read-only use, or nil.
func (s *Session) Camera() VideoSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.camera
}

// OpenPreview acquires the camera while idle so the compositor can show it
// before recording. It is a no-op when a camera is already held.
func (s *Session) OpenPreview(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.state != StateIdle && s.state != StateFinished {
		s.mu.Unlock()
		return s.reject(EvStart)
	}
	s.previewWanted = true
	if s.camera != nil && !ended(s.camera) {
		s.mu.Unlock()
		return nil
	}
	stale := s.camera
	s.camera = nil
	camID := s.cameraID
	s.mu.Unlock()
	closeQuietly(s.logger, "camera", stale)

	cam, err := s.cfg.Devices.OpenCamera(ctx, s.resolve(ctx, KindCamera, camID))
	if err != nil {
		err = asDeviceError(err, camID)
		metrics.IncDeviceError(string(KindCamera), string(DeviceErrorKindOf(err)))
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		return fmt.Errorf("open preview: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.camera != nil || (s.state != StateIdle && s.state != StateFinished) {
		go closeQuietly(s.logger, "camera", cam)
		return nil
	}
	s.camera = cam
	return nil
}

// ClosePreview releases a preview camera held while idle or finished. The
// preview stays closed after later resets until OpenPreview is called.
func (s *Session) ClosePreview() {
	s.mu.Lock()
	if s.state.HoldsDevices() {
		s.mu.Unlock()
		return
	}
	s.previewWanted = false
	if s.camera == nil {
		s.mu.Unlock()
		return
	}
	cam := s.camera
	s.camera = nil
	s.mu.Unlock()
	closeQuietly(s.logger, "camera", cam)
}

// SelectDevices changes the camera/microphone used by the next start.
func (s *Session) SelectDevices(cameraID, microphoneID string) error {
	s.mu.Lock()
	if s.state.HoldsDevices() {
		err := fmt.Errorf("%w: devices can only change while idle", ErrIllegalTransition)
		s.mu.Unlock()
		return err
	}
	var stale VideoSource
	if cameraID != s.cameraID && s.camera != nil {
		stale = s.camera
		s.camera = nil
	}
	s.cameraID, s.micID = cameraID, microphoneID
	s.mu.Unlock()
	if stale != nil {
		closeQuietly(s.logger, "camera", stale)
	}
	return nil
}

// Devices lists the provider's devices.
func (s *Session) Devices(ctx context.Context) ([]Device, error) {
	return s.cfg.Devices.Devices(ctx)
}

// ArmAutoStart schedules a single automatic start after delay. It fires only
// if the session is still idle and the user has not started manually. It can
// be armed once per capture; Reset allows arming again and voids a timer that
// has not fired yet.
func (s *Session) ArmAutoStart(ctx context.Context, delay time.Duration) bool {
	s.mu.Lock()
	if s.autoArmed || s.closed {
		s.mu.Unlock()
		return false
	}
	s.autoArmed = true
	gen := s.autoGen
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		select {
		case <-s.cfg.Clock.After(delay):
		case <-ctx.Done():
			return
		case <-s.closeCh:
			return
		}
		s.mu.Lock()
		skip := s.autoGen != gen || s.userStarted || s.state != StateIdle || s.acquiring
		s.mu.Unlock()
		if skip {
			s.logger.Debug().Msg("auto-start skipped")
			return
		}
		if err := s.start(ctx, false); err != nil {
			s.logger.Warn().Err(err).Str(xglog.FieldEvent, "capture.autostart_failed").Msg("auto-start failed")
		}
	}()
	return true
}

// Close finishes any running capture, releases every handle and waits for
// background goroutines. The session cannot be used afterwards.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.closeCh)
	if s.cancelCount != nil {
		s.cancelCount()
		s.cancelCount = nil
	}

	var finalizeID string
	switch s.state {
	case StateRecording, StatePaused:
		_ = s.transitionLocked(EvFinish)
		s.anchor.Stop(s.cfg.Clock.Now())
		if s.watchStop != nil {
			close(s.watchStop)
			s.watchStop = nil
		}
		finalizeID = s.id
	case StateCountdown:
		_ = s.transitionLocked(EvFinish)
	}
	s.mu.Unlock()

	if finalizeID != "" {
		s.finalize(ctx, finalizeID)
	}

	s.mu.Lock()
	cam, mic := s.camera, s.mic
	s.camera, s.mic = nil, nil
	s.mu.Unlock()
	releaseAll(s.logger, cam, mic)

	s.wg.Wait()
	return nil
}

func (s *Session) transitionLocked(ev EventKind) error {
	tr, ok := TransitionFor(s.state, ev)
	if !ok {
		return s.reject(ev)
	}
	old := s.state
	s.state = tr.To
	metrics.CaptureTransitionsTotal.WithLabelValues(string(old), string(tr.To)).Inc()
	metrics.SetCaptureState(string(tr.To))
	s.logger.Info().
		Str(xglog.FieldEvent, "capture.transition").
		Str(xglog.FieldSessionID, s.id).
		Str(xglog.FieldOldState, string(old)).
		Str(xglog.FieldNewState, string(tr.To)).
		Str("trigger", ev.String()).
		Msg("capture state changed")
	return nil
}

func (s *Session) reject(ev EventKind) error {
	metrics.CaptureRejectedTotal.WithLabelValues(string(s.state), ev.String()).Inc()
	return illegal(s.state, ev)
}

func releaseAll(logger zerolog.Logger, cam VideoSource, mic AudioSource) {
	if mic != nil {
		closeQuietly(logger, "microphone", mic)
	}
	if cam != nil {
		closeQuietly(logger, "camera", cam)
	}
}

// closeQuietly releases a handle; failures are logged and swallowed.
func closeQuietly(logger zerolog.Logger, resource string, c io.Closer) {
	if c == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			metrics.IncCleanupError(resource)
			logger.Warn().Interface("panic", r).Str("resource", resource).Msg("release panicked")
		}
	}()
	if err := c.Close(); err != nil {
		metrics.IncCleanupError(resource)
		logger.Warn().Err(err).Str("resource", resource).Msg("release failed")
	}
}
