package cli

// This file contains the run command executing all benchmark passes.

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/perfgo/tracebench/extension"
	"github.com/perfgo/tracebench/history"
	"github.com/perfgo/tracebench/model"
	"github.com/perfgo/tracebench/orchestrator"
	"github.com/perfgo/tracebench/phpcmd"
	"github.com/perfgo/tracebench/runner"
	"github.com/perfgo/tracebench/suite"
	"github.com/perfgo/tracebench/teamcity"
)

const baselineLabel = "baseline"

// pass is one run over all suites, optionally with a tracer loaded.
type pass struct {
	tracer    string
	extension string
	summary   *orchestrator.Summary
}

func (p *pass) label() string {
	if p.tracer == "" {
		return baselineLabel
	}
	return p.tracer
}

func (a *App) run(ctx *cli.Context) error {
	startTime := time.Now()

	runCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Generate random 16-byte ID
	idBytes := make([]byte, 16)
	if _, err := rand.Read(idBytes); err != nil {
		return fmt.Errorf("failed to generate run ID: %w", err)
	}

	record := &model.History{
		ID:        hex.EncodeToString(idBytes),
		Type:      model.HistoryTypeRun,
		Timestamp: startTime,
		Args:      os.Args,
	}
	if cwd, err := os.Getwd(); err == nil {
		record.WorkDir = cwd
	}
	if git, err := history.GitInfo(""); err == nil {
		record.Git = git
	} else {
		a.logger.Debug().Err(err).Msg("No git information")
	}

	passes, runErr := a.runPasses(runCtx, ctx, record)
	code := exitCode(passes, runErr)

	record.Duration = time.Since(startTime)
	record.ExitCode = code
	for _, p := range passes {
		record.Passes = append(record.Passes, passFromSummary(p))
	}

	if !ctx.Bool("no-history") {
		if err := a.recordHistory(record, passes, ctx.Bool("pprof")); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to record history")
		}
	} else if ctx.Bool("pprof") {
		if err := a.writeWallProfile("wall.pb.gz", passes); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to write wall-time profile")
		}
	}

	return exitError(code, passes, runErr)
}

// runPasses runs one pass per requested tracer, or a single baseline pass.
// It stops at the first error.
func (a *App) runPasses(ctx context.Context, c *cli.Context, record *model.History) ([]*pass, error) {
	interpreter, err := phpcmd.ResolveInterpreter(c.String("php-binary"), c.String("php"))
	if err != nil {
		path := c.String("php-binary")
		if path == "" {
			path = "php" + c.String("php")
		}
		return nil, &runner.SpawnError{Path: path, Err: err}
	}
	record.PHP = &model.PHP{
		Version: c.String("php"),
		Binary:  interpreter,
	}

	a.logger.Info().Str("interpreter", interpreter).Msg("Using PHP interpreter")

	runnerCfg := runner.DefaultConfig()
	runnerCfg.Timeout = c.Duration("timeout")
	if c.Bool("echo") {
		runnerCfg.Echo = os.Stdout
	}
	r := runner.New(a.logger, runnerCfg)

	var observers []orchestrator.Observer
	if c.Bool("teamcity") {
		observers = append(observers, teamcity.NewLogger(os.Stdout))
	}

	builder := extension.New(a.logger, extension.Config{
		SourceRoot:   c.String("tracer-src"),
		BuildCommand: strings.Fields(c.String("build-cmd")),
		ArtifactPath: c.String("artifact"),
		Rebuild:      c.Bool("rebuild"),
	})

	tracers := c.StringSlice("tracer")
	if len(tracers) == 0 {
		tracers = []string{""}
	}

	var passes []*pass
	for _, tracer := range tracers {
		p := &pass{tracer: tracer}

		var extraIni model.IniSettings
		if tracer != "" {
			artifact, err := builder.Ensure(ctx, tracer)
			if err != nil {
				return passes, err
			}
			p.extension = artifact
			extraIni = model.IniSettings{model.Ini("extension", artifact)}
		}

		orch := orchestrator.New(a.logger, orchestrator.Config{
			Root:        c.String("root"),
			Interpreter: interpreter,
			ExtraIni:    extraIni,
			Label:       p.label(),
			Jobs:        c.Int("jobs"),
		}, r, observers...)

		summary, err := orch.Run(ctx)
		if err != nil {
			return passes, err
		}
		p.summary = summary
		passes = append(passes, p)

		summary.Render(os.Stdout)
	}

	return passes, nil
}

// exitCode maps the outcome of all passes to the process exit code.
func exitCode(passes []*pass, err error) int {
	if err != nil {
		var spawnErr *runner.SpawnError
		var compileErr *extension.CompileError
		switch {
		case errors.As(err, &spawnErr), errors.As(err, &compileErr):
			return ExitEnvironment
		case errors.Is(err, context.Canceled):
			return ExitInterrupted
		case errors.Is(err, suite.ErrNoRoot):
			return ExitNoSuites
		default:
			return ExitFailures
		}
	}

	loaded := 0
	failed := false
	for _, p := range passes {
		loaded += p.summary.Loaded()
		if p.summary.HasFailures() {
			failed = true
		}
	}

	switch {
	case loaded == 0:
		return ExitNoSuites
	case failed:
		return ExitFailures
	default:
		return ExitOK
	}
}

func exitError(code int, passes []*pass, err error) error {
	switch {
	case code == ExitOK:
		return nil
	case err != nil:
		return cli.Exit(err.Error(), code)
	case code == ExitNoSuites:
		return cli.Exit("no benchmark suite could be discovered or loaded", code)
	default:
		failed := 0
		for _, p := range passes {
			failed += p.summary.Failed
		}
		return cli.Exit(fmt.Sprintf("%d benchmark script(s) failed", failed), code)
	}
}

func passFromSummary(p *pass) model.Pass {
	s := p.summary
	out := model.Pass{
		Tracer:    p.tracer,
		Extension: p.extension,
		Succeeded: s.Succeeded,
		Failed:    s.Failed,
		Total:     s.Total,
		Skipped:   s.Skipped,
		Failures:  s.Failures,
		Timings:   make(map[string]time.Duration, len(s.Timings)),
	}
	for script, timing := range s.Timings {
		out.Timings[script] = timing.Duration()
	}
	return out
}
