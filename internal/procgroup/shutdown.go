// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package procgroup

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/ManuGH/futureme/internal/metrics"
)

// Terminate stops a process group: SIGTERM, wait up to grace on waitCh, then
// SIGKILL. It always drains waitCh and returns the Wait error. Safe on nil
// commands.
func Terminate(cmd *exec.Cmd, waitCh <-chan error, grace time.Duration) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}

	signal(cmd, syscall.SIGTERM)

	select {
	case err := <-waitCh:
		observeExit("exit", err)
		return err
	case <-time.After(grace):
		signal(cmd, syscall.SIGKILL)
		err := <-waitCh
		observeExit("forced", err)
		return err
	}
}

func signal(cmd *exec.Cmd, sig syscall.Signal) {
	name := "SIGTERM"
	if sig == syscall.SIGKILL {
		name = "SIGKILL"
	}
	err := Kill(cmd, sig)
	switch {
	case err == nil:
		metrics.IncProcSignal(name, "sent")
	case errors.Is(err, os.ErrProcessDone), errors.Is(err, syscall.ESRCH):
		metrics.IncProcSignal(name, "esrch")
	default:
		metrics.IncProcSignal(name, "error")
	}
}

func observeExit(kind string, err error) {
	if err == nil {
		metrics.IncProcExit(kind + "_ok")
		return
	}
	metrics.IncProcExit(kind + "_error")
}
