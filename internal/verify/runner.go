package verify

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a check that sets no timeout of its own.
const DefaultTimeout = 5 * time.Minute

// Check is a boost-supplied self-check: a shell command run in the project root.
type Check struct {
	Name    string
	Command string
	Timeout time.Duration
}

// Result is the classified outcome of running a Check.
type Result struct {
	Check    string        `json:"check"`
	Verified bool          `json:"verified"`
	TimedOut bool          `json:"timed_out,omitempty"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
	Output   string        `json:"output,omitempty"` // only kept on failure
}

// Summary is a one-line description of the result.
func (r *Result) Summary() string {
	switch {
	case r.Verified:
		return "verified"
	case r.TimedOut:
		return fmt.Sprintf("timed out after %s", r.Duration.Round(time.Millisecond))
	default:
		return fmt.Sprintf("exit code %d", r.ExitCode)
	}
}

// CommandRunner abstracts command execution for testability.
type CommandRunner interface {
	Run(ctx context.Context, dir string, command string) (stdout string, stderr string, exitCode int, err error)
}

// ExecRunner implements CommandRunner by shelling out.
type ExecRunner struct{}

func (e *ExecRunner) Run(ctx context.Context, dir string, command string) (string, string, int, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = dir
	// Children that inherit the pipes must not keep a killed check alive.
	cmd.WaitDelay = 2 * time.Second

	var stdoutBuf, stderrBuf strings.Builder
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			return stdoutBuf.String(), stderrBuf.String(), -1, fmt.Errorf("exec: %w", err)
		}
	}
	return stdoutBuf.String(), stderrBuf.String(), exitCode, nil
}

// Runner executes checks with a bounded wall-clock timeout.
type Runner struct {
	cmd     CommandRunner
	timeout time.Duration
}

// NewRunner creates a Runner. A non-positive timeout selects DefaultTimeout.
func NewRunner(cmd CommandRunner, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{cmd: cmd, timeout: timeout}
}

// Run executes a check in dir. A check that exceeds its timeout is a failed
// result, not an error. Cancellation of ctx itself is returned as an error so
// the caller can stop without recording anything.
func (r *Runner) Run(ctx context.Context, dir string, chk Check) (*Result, error) {
	if strings.TrimSpace(chk.Command) == "" {
		return nil, fmt.Errorf("check %q has no command", chk.Name)
	}
	timeout := chk.Timeout
	if timeout <= 0 {
		timeout = r.timeout
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	stdout, stderr, exitCode, err := r.cmd.Run(runCtx, dir, chk.Command)
	elapsed := time.Since(start)

	if ctx.Err() != nil {
		return nil, fmt.Errorf("check %q interrupted: %w", chk.Name, ctx.Err())
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return &Result{
			Check:    chk.Name,
			TimedOut: true,
			ExitCode: -1,
			Duration: elapsed,
			Output:   CombineOutput(stdout, stderr),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("run check %q: %w", chk.Name, err)
	}

	res := &Result{
		Check:    chk.Name,
		Verified: exitCode == 0,
		ExitCode: exitCode,
		Duration: elapsed,
	}
	if !res.Verified {
		res.Output = CombineOutput(stdout, stderr)
	}
	return res, nil
}
