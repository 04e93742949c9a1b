// Package runner executes a bootstrap plan: an ordered list of steps,
// each a single delegation to an external tool (python, pip, npm,
// docker, the dev server command).
//
// Design decisions:
//   - Steps run strictly sequentially; each blocks until its process
//     exits. There is nothing to parallelize — installs mutate the
//     same working tree and the server must start after them.
//   - The runner never changes the devstrap process's working
//     directory. Each step's directory goes into exec.Cmd.Dir, so an
//     interrupted run leaves the process where it started.
//   - Fail-fast is the default. A failing step marks the remaining
//     steps skipped and the run returns a CLIError with ExitStepFailed.
//     KeepGoing restores continue-on-failure for users who want the
//     historical shell-script behavior.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/shinji-kodama/devstrap/internal/model"
)

// Options configures a plan execution.
type Options struct {
	// KeepGoing continues executing later steps after a failure
	// instead of skipping them. The run still reports failure.
	KeepGoing bool

	// Stdout and Stderr receive the child processes' output streams.
	// Install tools print meaningful progress, so the default wiring
	// passes them through to the user's terminal.
	Stdout io.Writer
	Stderr io.Writer

	// Log receives runner progress messages ("==> npm install").
	// Nil disables progress output.
	Log func(format string, args ...any)
}

// Runner executes bootstrap plans. It is stateless; the struct exists
// as a receiver so options like a dry-run mode can be added without
// breaking callers.
type Runner struct {
	opts Options
}

// New creates a Runner with the given options, defaulting the output
// streams to the devstrap process's own stdout/stderr.
func New(opts Options) *Runner {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	return &Runner{opts: opts}
}

// Run executes the steps in order and returns one StepResult per
// step. The results slice always has len(steps) entries, including
// skipped ones, so callers can render a complete report.
//
// The returned error is nil only when every step succeeded. On
// failure it is a CLIError with ExitStepFailed describing the first
// failing step; the per-step causes live in the results.
func (r *Runner) Run(ctx context.Context, steps []model.Step) ([]model.StepResult, error) {
	results := make([]model.StepResult, 0, len(steps))
	var firstFailure *model.StepResult

	for i := range steps {
		step := steps[i]

		// Once a step has failed in fail-fast mode, the rest of the
		// plan is recorded as skipped rather than silently dropped.
		if firstFailure != nil && !r.opts.KeepGoing {
			results = append(results, model.StepResult{
				Kind:       step.Kind,
				Name:       step.Name,
				Status:     model.StepSkipped,
				ExitStatus: -1,
			})
			continue
		}

		res := r.runStep(ctx, step)
		results = append(results, res)

		if res.Status == model.StepFailed && firstFailure == nil {
			failed := res
			firstFailure = &failed
		}

		// A cancelled context aborts the plan outright — the user hit
		// Ctrl-C, and keep-going does not apply to interrupts.
		if ctx.Err() != nil {
			break
		}
	}

	if firstFailure != nil {
		return results, model.WrapCLIError(model.ExitStepFailed,
			fmt.Sprintf("step %q failed", firstFailure.Name), firstFailure.Err)
	}
	return results, nil
}

// runStep executes a single step and classifies its outcome.
func (r *Runner) runStep(ctx context.Context, step model.Step) model.StepResult {
	res := model.StepResult{Kind: step.Kind, Name: step.Name}

	if len(step.Command) == 0 {
		res.Status = model.StepFailed
		res.ExitStatus = -1
		res.Err = fmt.Errorf("step %q has no command", step.Name)
		return res
	}

	r.logf("==> %s", step.Name)
	start := time.Now()

	// #nosec G204 — commands come from the validated project config,
	// not from untrusted input.
	cmd := exec.CommandContext(ctx, step.Command[0], step.Command[1:]...)
	cmd.Dir = step.Dir
	cmd.Stdout = r.opts.Stdout
	cmd.Stderr = r.opts.Stderr
	cmd.Env = MergeEnv(os.Environ(), step.Env)

	err := cmd.Run()
	res.Duration = time.Since(start)

	if err != nil {
		res.Status = model.StepFailed
		res.ExitStatus = exitStatus(err)
		res.Err = fmt.Errorf("%s: %w", strings.Join(step.Command, " "), err)
		r.logf("==> %s failed (exit %d)", step.Name, res.ExitStatus)
		return res
	}

	res.Status = model.StepOK
	res.ExitStatus = 0
	return res
}

// logf forwards a progress message to the configured log sink.
func (r *Runner) logf(format string, args ...any) {
	if r.opts.Log != nil {
		r.opts.Log(format, args...)
	}
}

// exitStatus extracts the process exit status from a command error.
// Returns -1 when the process never started (LookPath failure,
// permission error) or was killed by a signal.
func exitStatus(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// MergeEnv combines a base environment (os.Environ form, "K=V"
// strings) with an override map. Overrides win over base entries with
// the same key. The base slice is not modified.
func MergeEnv(base []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return base
	}

	merged := make([]string, 0, len(base)+len(overrides))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, ok := overrides[key]; ok {
			continue
		}
		merged = append(merged, kv)
	}
	for k, v := range overrides {
		merged = append(merged, k+"="+v)
	}
	return merged
}
