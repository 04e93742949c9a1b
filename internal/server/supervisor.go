// Package server runs the project's hot-reload dev server in the
// foreground and, when the config asks for it, supervises the process
// with a file watcher that restarts it on source changes.
//
// Three reload strategies exist, mirroring the config values:
//
//   - builtin: the command reloads itself (uvicorn --reload, vite).
//     The supervisor runs it once and follows it.
//   - watch: the supervisor owns reloading — it watches the source
//     trees and restarts the process after each change burst.
//   - off: run once, no reloading at all.
//
// In every mode the server process inherits the terminal's stdout and
// stderr, receives SIGINT on context cancellation (so uvicorn and
// friends can shut down cleanly), and is hard-killed only after a
// grace period.
package server

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/shinji-kodama/devstrap/internal/model"
	"github.com/shinji-kodama/devstrap/internal/runner"
)

// stopGrace is how long a server process gets between the interrupt
// signal and a hard kill. uvicorn completes in-flight requests during
// this window.
const stopGrace = 10 * time.Second

// Supervisor runs and optionally restarts the dev server process.
type Supervisor struct {
	// Command is the server argv, run from Dir.
	Command []string

	// Dir is the working directory for the server process, normally
	// the backend directory.
	Dir string

	// Env holds extra environment variables merged over the inherited
	// environment — the project's .env contents plus the venv PATH
	// prefix.
	Env map[string]string

	// WatchDirs are the directory trees observed in watch mode.
	WatchDirs []string

	// Watch enables the restart supervisor. False means run once.
	Watch bool

	// Stdout and Stderr receive the server's output. Defaulted to the
	// devstrap process's own streams by Run.
	Stdout io.Writer
	Stderr io.Writer

	// Log receives supervisor progress messages. Nil disables them.
	Log func(format string, args ...any)
}

// Run executes the server until the context is cancelled or, in
// non-watch mode, until the process exits on its own.
//
// In watch mode the process is restarted after every debounced change
// burst; a server that exits by itself between changes is also
// restarted on the next change, so a syntax error does not end the
// session — fixing the file brings the server back.
//
// The returned error is nil for a clean interrupt (the user hit
// Ctrl-C) and a CLIError with ExitStepFailed when the server process
// failed in non-watch mode.
func (s *Supervisor) Run(ctx context.Context) error {
	if s.Stdout == nil {
		s.Stdout = os.Stdout
	}
	if s.Stderr == nil {
		s.Stderr = os.Stderr
	}

	if !s.Watch {
		return s.runOnce(ctx)
	}

	watcher, err := NewWatcher(s.WatchDirs)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to start file watcher", err)
	}
	defer func() { _ = watcher.Close() }()

	return s.supervise(ctx, watcher.Changes, watcher.Errors)
}

// supervise is the watch-mode restart loop, split from Run so the
// process-lifecycle behavior can be driven through plain channels.
func (s *Supervisor) supervise(ctx context.Context, changes <-chan string, watchErrs <-chan error) error {
	for {
		// Each iteration owns one process lifetime. The child context
		// lets a change event stop just this process without tearing
		// down the whole supervisor.
		procCtx, stopProc := context.WithCancel(ctx)

		exited := make(chan error, 1)
		go func() {
			exited <- s.startAndWait(procCtx)
		}()

		waiting := true
		for waiting {
			select {
			case <-ctx.Done():
				// User interrupt: stop the process and follow it down.
				stopProc()
				<-exited
				return nil

			case path := <-changes:
				s.logf("change detected: %s — restarting", path)
				stopProc()
				<-exited
				// Leave the wait loop and start a fresh process.
				waiting = false

			case werr := <-watchErrs:
				// A watch failure degrades to no-reload rather than
				// killing a running server: log it and keep waiting.
				s.logf("watch error: %v", werr)

			case err := <-exited:
				stopProc()
				if ctx.Err() != nil {
					return nil
				}
				if err == nil {
					// Clean voluntary exit ends the session.
					return nil
				}
				// Crashed server: report it, then wait for the next
				// source change to try again.
				s.logf("server exited: %v — waiting for changes", err)
				select {
				case <-ctx.Done():
					return nil
				case path := <-changes:
					s.logf("change detected: %s — restarting", path)
				}
				waiting = false
			}
		}
	}
}

// runOnce runs the server a single time and classifies the outcome.
func (s *Supervisor) runOnce(ctx context.Context) error {
	err := s.startAndWait(ctx)
	if ctx.Err() != nil {
		// Interrupted by the user — not a failure.
		return nil
	}
	if err != nil {
		return model.WrapCLIError(model.ExitStepFailed, "dev server failed", err)
	}
	return nil
}

// startAndWait starts the server process and blocks until it exits.
// Context cancellation delivers SIGINT and escalates to SIGKILL after
// the grace period, via exec.Cmd's Cancel/WaitDelay mechanism.
func (s *Supervisor) startAndWait(ctx context.Context) error {
	if len(s.Command) == 0 {
		return errors.New("server command is empty")
	}

	// #nosec G204 — the command comes from the validated project config
	cmd := exec.CommandContext(ctx, s.Command[0], s.Command[1:]...)
	cmd.Dir = s.Dir
	cmd.Stdout = s.Stdout
	cmd.Stderr = s.Stderr
	cmd.Env = runner.MergeEnv(os.Environ(), s.Env)

	// Cancel replaces the default SIGKILL with SIGINT so the server
	// can shut down gracefully; WaitDelay bounds how long we wait for
	// it before the runtime hard-kills the process.
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = stopGrace

	s.logf("starting: %s", strings.Join(s.Command, " "))
	return cmd.Run()
}

// logf forwards a progress message to the configured log sink.
func (s *Supervisor) logf(format string, args ...any) {
	if s.Log != nil {
		s.Log(format, args...)
	}
}
