// Package boosts holds the concrete tool integrations: Python packaging
// and linting tools plus boosts declared in the run configuration.
package boosts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/lucasnoah/repoboost/internal/config"
	"github.com/lucasnoah/repoboost/internal/verify"
)

// Toolbox is what every boost shares: a way to run tools in the project,
// a way to find them on PATH, and where template overrides live.
type Toolbox struct {
	Cmd          verify.CommandRunner
	LookPath     func(file string) (string, error)
	ApplyTimeout time.Duration
	TemplatesDir string
	Logger       *slog.Logger
}

// NewToolbox builds a Toolbox that shells out for real.
func NewToolbox(cfg *config.Config, logger *slog.Logger) *Toolbox {
	return &Toolbox{
		Cmd:          &verify.ExecRunner{},
		LookPath:     exec.LookPath,
		ApplyTimeout: cfg.ApplyTimeoutDuration(),
		TemplatesDir: cfg.TemplatesDir,
		Logger:       logger,
	}
}

func (tb *Toolbox) logger() *slog.Logger {
	if tb.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return tb.Logger
}

func (tb *Toolbox) has(tool string) bool {
	lookPath := tb.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	_, err := lookPath(tool)
	return err == nil
}

// exec runs command in dir and returns its combined output and exit code.
// A non-zero exit is not an error; a timeout or a failure to start is.
func (tb *Toolbox) exec(ctx context.Context, dir string, command string) (string, int, error) {
	timeout := tb.ApplyTimeout
	if timeout <= 0 {
		timeout = config.DefaultApplyTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	stdout, stderr, exitCode, err := tb.Cmd.Run(runCtx, dir, command)
	tb.logger().Debug("command finished", "command", command, "exit_code", exitCode, "duration", time.Since(start).Round(time.Millisecond))

	if ctx.Err() != nil {
		return "", -1, ctx.Err()
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return stdout + stderr, -1, fmt.Errorf("%s: timed out after %s", command, timeout)
	}
	if err != nil {
		return "", -1, fmt.Errorf("%s: %w", command, err)
	}
	return stdout + stderr, exitCode, nil
}

// run is exec for commands that must succeed.
func (tb *Toolbox) run(ctx context.Context, dir string, command string) error {
	out, exitCode, err := tb.exec(ctx, dir, command)
	if err != nil {
		return err
	}
	if exitCode != 0 {
		return fmt.Errorf("%s exited with code %d:\n%s", command, exitCode, verify.CombineOutput(out, ""))
	}
	return nil
}

func fileExists(root string, name string) bool {
	_, err := os.Stat(filepath.Join(root, name))
	return err == nil
}

func anyExists(root string, names ...string) (string, bool) {
	for _, name := range names {
		if fileExists(root, name) {
			return name, true
		}
	}
	return "", false
}

func writeFile(root string, name string, content string) error {
	if err := os.WriteFile(filepath.Join(root, name), []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
