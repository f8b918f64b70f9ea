package extension

// This file contains the on-demand build of tracer extensions.

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/perfgo/tracebench/runner"
)

// CompileError reports that building a tracer version failed. The build
// output is kept in LogPath.
type CompileError struct {
	Version  string
	ExitCode int
	LogPath  string
	Err      error
}

func (e *CompileError) Error() string {
	if e.LogPath != "" {
		return fmt.Sprintf("failed to compile tracer %s (exit code %d), see %s", e.Version, e.ExitCode, e.LogPath)
	}
	return fmt.Sprintf("failed to compile tracer %s: %v", e.Version, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// Config contains options for a Builder.
type Config struct {
	SourceRoot   string   // Directory with one source checkout per tracer version
	BuildCommand []string // Command run inside the version directory
	ArtifactPath string   // Built extension, relative to the version directory
	Rebuild      bool     // Build even if the artifact already exists
}

// DefaultConfig returns the configuration used by the CLI.
func DefaultConfig() Config {
	return Config{
		SourceRoot:   "tracers",
		BuildCommand: []string{"make", "-j4"},
		ArtifactPath: filepath.Join("modules", "ddtrace.so"),
	}
}

// Builder compiles tracer versions on demand.
type Builder struct {
	logger zerolog.Logger
	cfg    Config
}

// New creates a Builder.
func New(logger zerolog.Logger, cfg Config) *Builder {
	defaults := DefaultConfig()
	if len(cfg.BuildCommand) == 0 {
		cfg.BuildCommand = defaults.BuildCommand
	}
	if cfg.ArtifactPath == "" {
		cfg.ArtifactPath = defaults.ArtifactPath
	}
	return &Builder{
		logger: logger,
		cfg:    cfg,
	}
}

// SourceDir returns the checkout directory of a tracer version.
func (b *Builder) SourceDir(version string) string {
	return filepath.Join(b.cfg.SourceRoot, version)
}

// LogPath returns where the build output of a failed build is written.
func (b *Builder) LogPath(version string) string {
	return filepath.Join(b.SourceDir(version), "build.log")
}

// Ensure returns the absolute path of the built extension for version,
// compiling it first when needed. Build failures are a *CompileError; a done
// ctx is returned as ctx.Err().
func (b *Builder) Ensure(ctx context.Context, version string) (string, error) {
	srcDir, err := filepath.Abs(b.SourceDir(version))
	if err != nil {
		return "", &CompileError{Version: version, Err: err}
	}
	artifact := filepath.Join(srcDir, b.cfg.ArtifactPath)

	if !b.cfg.Rebuild {
		if info, err := os.Stat(artifact); err == nil && info.Mode().IsRegular() {
			b.logger.Debug().
				Str("version", version).
				Str("artifact", artifact).
				Msg("Tracer extension already built")
			return artifact, nil
		}
	}

	if info, err := os.Stat(srcDir); err != nil || !info.IsDir() {
		return "", &CompileError{Version: version, Err: fmt.Errorf("source directory %s not found", srcDir)}
	}

	logPath := filepath.Join(srcDir, "build.log")
	if err := os.Remove(logPath); err != nil && !os.IsNotExist(err) {
		return "", &CompileError{Version: version, Err: fmt.Errorf("failed to remove stale build log: %w", err)}
	}

	b.logger.Info().
		Str("version", version).
		Strs("command", b.cfg.BuildCommand).
		Str("dir", srcDir).
		Msg("Building tracer extension")

	cmd := exec.CommandContext(ctx, b.cfg.BuildCommand[0], b.cfg.BuildCommand[1:]...)
	cmd.Dir = srcDir
	runner.Isolate(cmd)

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		// An interrupted build says nothing about the tracer
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}

		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return "", &CompileError{Version: version, Err: fmt.Errorf("failed to execute build: %w", err)}
		}
		if werr := os.WriteFile(logPath, output.Bytes(), 0644); werr != nil {
			return "", &CompileError{Version: version, ExitCode: exitErr.ExitCode(), Err: werr}
		}
		return "", &CompileError{
			Version:  version,
			ExitCode: exitErr.ExitCode(),
			LogPath:  logPath,
			Err:      err,
		}
	}

	if _, err := os.Stat(artifact); err != nil {
		return "", &CompileError{Version: version, Err: fmt.Errorf("artifact not found after build: %w", err)}
	}

	b.logger.Info().
		Str("version", version).
		Str("artifact", artifact).
		Msg("Tracer extension built successfully")

	return artifact, nil
}
