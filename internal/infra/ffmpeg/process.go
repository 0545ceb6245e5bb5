// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ffmpeg

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/futureme/internal/procgroup"
)

// DefaultBinary is used when no ffmpeg path is configured.
const DefaultBinary = "ffmpeg"

// Options describes one ffmpeg invocation and the pipes wired to it.
type Options struct {
	Binary string
	Args   []string

	// Stdin exposes pipe:0 for writing.
	Stdin bool
	// Stdout exposes pipe:1 for reading.
	Stdout bool
	// ExtraInputs exposes writable pipes mapped to fd 3, 4, ... in the child.
	ExtraInputs int

	Logger zerolog.Logger
}

// Process is a running ffmpeg child in its own process group. Stderr is kept
// in a ring buffer for diagnostics.
type Process struct {
	cmd    *exec.Cmd
	logger zerolog.Logger

	Stdin  io.WriteCloser
	Stdout io.ReadCloser
	Extra  []io.WriteCloser

	ring *RingBuffer
	done chan struct{}
	err  error

	stopOnce sync.Once
	stopErr  error
}

// Start spawns ffmpeg. The process is not bound to ctx: it lives until Stop
// or until it exits on its own. ctx only bounds the spawn itself.
func Start(ctx context.Context, opts Options) (*Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bin := opts.Binary
	if bin == "" {
		bin = DefaultBinary
	}

	// #nosec G204 -- binary comes from config; args are built by this package
	cmd := exec.Command(bin, opts.Args...)
	procgroup.Set(cmd)

	p := &Process{
		cmd:    cmd,
		logger: opts.Logger,
		ring:   NewRingBuffer(100),
		done:   make(chan struct{}),
	}

	// Child-side pipe ends, closed in the parent once the child has them.
	var childEnds []*os.File
	closeChildEnds := func() {
		for _, f := range childEnds {
			_ = f.Close()
		}
	}
	var parentEnds []io.Closer
	fail := func(err error) (*Process, error) {
		closeChildEnds()
		for _, c := range parentEnds {
			_ = c.Close()
		}
		return nil, err
	}

	if opts.Stdin {
		r, w, err := os.Pipe()
		if err != nil {
			return fail(fmt.Errorf("stdin pipe: %w", err))
		}
		cmd.Stdin = r
		childEnds = append(childEnds, r)
		parentEnds = append(parentEnds, w)
		p.Stdin = w
	}
	if opts.Stdout {
		// An explicit pipe instead of StdoutPipe: Wait must not close the
		// read side before the trailing output has been consumed.
		r, w, err := os.Pipe()
		if err != nil {
			return fail(fmt.Errorf("stdout pipe: %w", err))
		}
		cmd.Stdout = w
		childEnds = append(childEnds, w)
		parentEnds = append(parentEnds, r)
		p.Stdout = r
	}
	for i := 0; i < opts.ExtraInputs; i++ {
		r, w, err := os.Pipe()
		if err != nil {
			return fail(fmt.Errorf("extra pipe %d: %w", i, err))
		}
		cmd.ExtraFiles = append(cmd.ExtraFiles, r)
		childEnds = append(childEnds, r)
		parentEnds = append(parentEnds, w)
		p.Extra = append(p.Extra, w)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fail(fmt.Errorf("stderr pipe: %w", err))
	}
	if err := cmd.Start(); err != nil {
		return fail(fmt.Errorf("exec start failed: %w", err))
	}
	closeChildEnds()

	p.logger.Debug().Int("pid", cmd.Process.Pid).Strs("args", opts.Args).Msg("ffmpeg started")
	go p.monitor(stderr)
	return p, nil
}

func (p *Process) monitor(stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		p.ring.Add(scanner.Text())
	}
	p.err = p.cmd.Wait()
	close(p.done)
}

// Done is closed once the process has exited and stderr is drained.
func (p *Process) Done() <-chan struct{} { return p.done }

// Err returns the exit error; valid after Done is closed.
func (p *Process) Err() error {
	<-p.done
	return p.err
}

// Exited reports whether the process has already exited.
func (p *Process) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Diagnostics returns the most recent stderr lines.
func (p *Process) Diagnostics() []string {
	return p.ring.GetAll()
}

// Stop closes the input pipes and terminates the process group, escalating
// to SIGKILL after grace. Repeated calls return the first result.
func (p *Process) Stop(grace time.Duration) error {
	p.stopOnce.Do(func() {
		p.closeInputs()
		waitCh := make(chan error, 1)
		go func() {
			<-p.done
			waitCh <- p.err
		}()
		p.stopErr = procgroup.Terminate(p.cmd, waitCh, grace)
	})
	return p.stopErr
}

// CloseInputs signals end of input so ffmpeg can flush and exit on its own.
func (p *Process) CloseInputs() {
	p.closeInputs()
}

func (p *Process) closeInputs() {
	if p.Stdin != nil {
		_ = p.Stdin.Close()
	}
	for _, w := range p.Extra {
		_ = w.Close()
	}
}
