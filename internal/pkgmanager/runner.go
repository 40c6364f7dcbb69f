package pkgmanager

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// waitDelay bounds how long output pipes may stay open after the process
// is killed, e.g. by a grandchild that inherited them.
const waitDelay = time.Second

// Command describes a single process invocation. Args are passed to the
// process as-is; no shell is involved.
type Command struct {
	Name string
	Args []string
	Dir  string
}

// Result carries the exit status and combined stdout/stderr of a process.
type Result struct {
	ExitCode int
	Output   string
}

// Runner executes external commands.
type Runner interface {
	// Run executes cmd. A process that starts and exits non-zero is not an
	// error; the exit code is reported in Result. Failing to start the
	// process, or ctx ending first, returns an error with ExitCode -1.
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...) //nolint:gosec // argv is built from configuration, never through a shell.
	c.Dir = cmd.Dir
	c.WaitDelay = waitDelay

	out, err := c.CombinedOutput()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result{ExitCode: -1, Output: string(out)}, fmt.Errorf("running %s: %w", cmd.Name, ctxErr)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{ExitCode: exitErr.ExitCode(), Output: string(out)}, nil
		}
		return Result{ExitCode: -1, Output: string(out)}, fmt.Errorf("running %s: %w", cmd.Name, err)
	}

	return Result{ExitCode: 0, Output: string(out)}, nil
}
