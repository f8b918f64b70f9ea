package runner

// This file contains the execution of a single benchmark script as a php
// subprocess and the recording of its outcome.

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/perfgo/tracebench/model"
	"github.com/perfgo/tracebench/phpcmd"
	"github.com/rs/zerolog"
)

// Grace period for output pipes held open by orphaned grandchildren.
const waitDelay = 5 * time.Second

// Defaults are the environment and php.ini settings every request starts
// from. Suite configuration is merged over them.
type Defaults struct {
	Env model.Env
	Ini model.IniSettings
}

// Config contains options for a Runner.
type Config struct {
	Shell    string        // Shell used to run the composed command line
	Timeout  time.Duration // Per-script timeout, 0 disables it
	Defaults Defaults
	Echo     io.Writer // Optional writer receiving script output as it is produced
}

// DefaultConfig returns the configuration used by the CLI.
func DefaultConfig() Config {
	return Config{
		Shell:   "/bin/sh",
		Timeout: 10 * time.Minute,
		Defaults: Defaults{
			Env: model.Env{
				{Name: "DD_TRACE_CLI_ENABLED", Value: "1"},
			},
			Ini: model.IniSettings{
				model.Ini("memory_limit", "-1"),
				model.Ini("display_errors", "stderr"),
				model.Ini("error_reporting", "-1"),
			},
		},
	}
}

// Runner executes Requests one at a time. It holds no per-run state and can
// be shared between goroutines.
type Runner struct {
	logger zerolog.Logger
	cfg    Config
}

// New creates a Runner.
func New(logger zerolog.Logger, cfg Config) *Runner {
	if cfg.Shell == "" {
		cfg.Shell = "/bin/sh"
	}
	return &Runner{
		logger: logger,
		cfg:    cfg,
	}
}

// Run executes req and blocks until the process exits. A non-zero exit code
// is reported through the Result, not as an error. Errors are returned when
// the process cannot be spawned (*SpawnError), when ctx is cancelled, or when
// the error log cannot be maintained.
func (r *Runner) Run(ctx context.Context, req *Request) (*Result, error) {
	logPath := req.LogPath()

	// Stale log from a previous run
	if err := os.Remove(logPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to remove stale error log: %w", err)
	}

	if err := checkExecutable(req.Interpreter); err != nil {
		return nil, &SpawnError{Path: req.Interpreter, Err: err}
	}

	command := phpcmd.BuildCommand(req.Env, req.Interpreter, req.Ini, req.Script)

	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if r.cfg.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
	}
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.cfg.Shell, "-c", command)
	cmd.Dir = filepath.Dir(req.Script)
	Isolate(cmd)

	// Capture stdout and stderr in a single stream
	var output bytes.Buffer
	var w io.Writer = &output
	if r.cfg.Echo != nil {
		w = io.MultiWriter(&output, r.cfg.Echo)
	}
	cmd.Stdout = w
	cmd.Stderr = w

	r.logger.Debug().
		Str("script", req.Script).
		Str("command", command).
		Msg("Running benchmark script")

	result := &Result{
		Command: command,
		LogPath: logPath,
	}

	result.Start = time.Now()
	err := cmd.Run()
	result.End = time.Now()
	result.Output = splitLines(output.String())

	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case errors.Is(runCtx.Err(), context.DeadlineExceeded):
			result.TimedOut = true
			result.ExitCode = -1
			result.Output = append(result.Output, fmt.Sprintf("tracebench: killed after %s timeout", r.cfg.Timeout))
		case errors.As(err, &exitErr):
			result.ExitCode = exitErr.ExitCode()
		case errors.Is(err, exec.ErrWaitDelay):
			result.ExitCode = cmd.ProcessState.ExitCode()
		case cmd.Process == nil:
			return nil, &SpawnError{Path: r.cfg.Shell, Err: err}
		default:
			return nil, fmt.Errorf("failed to run %s: %w", req.Script, err)
		}
	}

	if result.Succeeded() {
		r.logger.Debug().
			Str("script", req.Script).
			Dur("duration", result.Duration()).
			Msg("Benchmark script succeeded")
		return result, nil
	}

	if err := os.WriteFile(logPath, []byte(strings.Join(result.Output, "\n")), 0644); err != nil {
		return nil, fmt.Errorf("failed to write error log: %w", err)
	}

	r.logger.Debug().
		Str("script", req.Script).
		Int("exit_code", result.ExitCode).
		Bool("timed_out", result.TimedOut).
		Str("log", logPath).
		Msg("Benchmark script failed")

	return result, nil
}

// Isolate runs cmd in its own process group that is killed as a whole when
// the command context is done. Waiting for output pipes held open by
// orphaned grandchildren is bounded.
func Isolate(cmd *exec.Cmd) {
	cmd.WaitDelay = waitDelay
	setProcessGroup(cmd)
}

func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if info.Mode().Perm()&0111 == 0 {
		return fmt.Errorf("%s is not executable", path)
	}
	return nil
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
