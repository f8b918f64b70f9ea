package orchestrator

// This file contains the driver of one benchmark pass: suite discovery,
// script execution and aggregation of the results.

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/perfgo/tracebench/model"
	"github.com/perfgo/tracebench/runner"
	"github.com/perfgo/tracebench/suite"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Executor builds and runs script requests. *runner.Runner implements it.
type Executor interface {
	NewRequest(interpreter, script string, env model.Env, ini model.IniSettings) (*runner.Request, error)
	Run(ctx context.Context, req *runner.Request) (*runner.Result, error)
}

// Observer receives progress events. With Jobs > 1 events of different
// suites arrive concurrently. The suite is identified by its Dir; its Name is
// a display label and need not be unique. It must not be retained or
// modified.
type Observer interface {
	SuiteStarted(suite *SuiteSummary)
	ScriptFinished(suite *SuiteSummary, script string, result *runner.Result)
	SuiteFinished(suite *SuiteSummary)
}

// Config contains options for one benchmark pass.
type Config struct {
	Root        string            // Directory containing one subdirectory per suite
	Interpreter string            // Absolute path of the php binary
	ExtraIni    model.IniSettings // Appended after suite settings (e.g. the tracer extension)
	Label       string            // Pass label used in reports
	Jobs        int               // Number of suites run concurrently, <= 1 means sequential
	ScriptExt   string            // Script extension, defaults to .php
}

// Orchestrator runs every script of every suite under Config.Root.
type Orchestrator struct {
	logger    zerolog.Logger
	cfg       Config
	executor  Executor
	observers []Observer
}

// New creates an Orchestrator.
func New(logger zerolog.Logger, cfg Config, executor Executor, observers ...Observer) *Orchestrator {
	if cfg.ScriptExt == "" {
		cfg.ScriptExt = suite.DefaultScriptExt
	}
	if cfg.Label == "" {
		cfg.Label = "baseline"
	}
	return &Orchestrator{
		logger:    logger.With().Str("pass", cfg.Label).Logger(),
		cfg:       cfg,
		executor:  executor,
		observers: observers,
	}
}

// Run executes the pass. Failing scripts and skipped suites are recorded in
// the Summary; an error is only returned when the root cannot be read, a
// process cannot be spawned, or ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context) (*Summary, error) {
	dirs, err := suite.DiscoverDirectories(o.cfg.Root)
	if err != nil {
		return nil, err
	}

	o.logger.Info().
		Str("root", o.cfg.Root).
		Int("suites", len(dirs)).
		Msg("Discovered benchmark suites")

	suites := make([]*SuiteSummary, len(dirs))

	if o.cfg.Jobs <= 1 {
		for i, dir := range dirs {
			s, err := o.runSuite(ctx, dir)
			if err != nil {
				return nil, err
			}
			suites[i] = s
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(o.cfg.Jobs)
		for i, dir := range dirs {
			i, dir := i, dir
			g.Go(func() error {
				s, err := o.runSuite(gctx, dir)
				if err != nil {
					return err
				}
				// Each goroutine owns its own slot
				suites[i] = s
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	summary := NewSummary(o.cfg.Label)
	for _, s := range suites {
		summary.Add(s)
	}

	o.logger.Info().
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Int("total", summary.Total).
		Int("skipped_suites", len(summary.Skipped)).
		Msg("Benchmark pass finished")

	return summary, nil
}

func (o *Orchestrator) runSuite(ctx context.Context, dir string) (*SuiteSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg, err := suite.ReadConfig(dir)
	if cfg == nil {
		reason := "no config file"
		if err != nil {
			reason = err.Error()
		}
		return o.skip(dir, reason), nil
	}

	scripts, err := suite.DiscoverScripts(dir, o.cfg.ScriptExt)
	if err != nil {
		return nil, err
	}

	// Build every request up front so invalid settings skip the whole suite
	ini := cfg.Ini.Merge(o.cfg.ExtraIni)
	requests := make([]*runner.Request, 0, len(scripts))
	for _, script := range scripts {
		req, err := o.executor.NewRequest(o.cfg.Interpreter, script, cfg.Env, ini)
		if err != nil {
			return o.skip(dir, err.Error()), nil
		}
		requests = append(requests, req)
	}

	log := o.logger.With().Str("suite", cfg.Name).Logger()
	log.Info().Int("scripts", len(scripts)).Msg("Running suite")

	summary := newSuiteSummary(cfg.Name, dir)
	for _, obs := range o.observers {
		obs.SuiteStarted(summary)
	}

	start := time.Now()
	for _, req := range requests {
		result, err := o.executor.Run(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("suite %s: %w", cfg.Name, err)
		}

		summary.Record(req.Script, result)
		for _, obs := range o.observers {
			obs.ScriptFinished(summary, req.Script, result)
		}

		name := filepath.Base(req.Script)
		if result.Succeeded() {
			log.Info().
				Str("script", name).
				Dur("duration", result.Duration()).
				Msg("Benchmark passed")
		} else {
			log.Warn().
				Str("script", name).
				Int("exit_code", result.ExitCode).
				Bool("timed_out", result.TimedOut).
				Str("last_line", result.LastLine()).
				Str("log", result.LogPath).
				Msg("Benchmark failed")
		}
	}
	summary.Duration = time.Since(start)

	for _, obs := range o.observers {
		obs.SuiteFinished(summary)
	}

	return summary, nil
}

func (o *Orchestrator) skip(dir, reason string) *SuiteSummary {
	o.logger.Info().
		Str("dir", dir).
		Str("reason", reason).
		Msg("Skipping suite")

	s := newSuiteSummary(filepath.Base(dir), dir)
	s.Skipped = true
	s.SkipReason = reason
	return s
}
