package orchestrator

import (
	"time"

	"github.com/perfgo/tracebench/runner"
)

// Timing is the wall-clock window of a successful script run.
type Timing struct {
	Start time.Time
	End   time.Time
}

// Duration returns End - Start.
func (t Timing) Duration() time.Duration {
	return t.End.Sub(t.Start)
}

// SuiteSummary aggregates the results of one suite directory.
type SuiteSummary struct {
	Name       string
	Dir        string
	Skipped    bool
	SkipReason string

	Succeeded int
	Failed    int
	Total     int

	// Failed script path -> error log path
	Failures map[string]string
	// Successful script path -> timing
	Timings map[string]Timing
	// Scripts in execution order
	Scripts []string
	// Wall-clock time of the whole suite
	Duration time.Duration
}

func newSuiteSummary(name, dir string) *SuiteSummary {
	return &SuiteSummary{
		Name:     name,
		Dir:      dir,
		Failures: make(map[string]string),
		Timings:  make(map[string]Timing),
	}
}

// Record folds one result into the suite. Only the derived fields are kept.
func (s *SuiteSummary) Record(script string, result *runner.Result) {
	s.Total++
	s.Scripts = append(s.Scripts, script)

	if result.Succeeded() {
		s.Succeeded++
		s.Timings[script] = Timing{Start: result.Start, End: result.End}
		return
	}

	s.Failed++
	s.Failures[script] = result.LogPath
}

// Summary aggregates a full orchestrator run.
type Summary struct {
	// Label of the pass (tracer version or "baseline")
	Label string

	Succeeded int
	Failed    int
	Total     int

	// Suite directories skipped because their config was missing or invalid
	Skipped []string
	// Failed script path -> error log path
	Failures map[string]string
	// Successful script path -> timing
	Timings map[string]Timing
	// Suites in discovery order, skipped ones included
	Suites []*SuiteSummary
}

// NewSummary returns an empty summary for a pass.
func NewSummary(label string) *Summary {
	return &Summary{
		Label:    label,
		Failures: make(map[string]string),
		Timings:  make(map[string]Timing),
	}
}

// Add merges a suite summary into s.
func (s *Summary) Add(suite *SuiteSummary) {
	s.Suites = append(s.Suites, suite)

	if suite.Skipped {
		s.Skipped = append(s.Skipped, suite.Dir)
		return
	}

	s.Succeeded += suite.Succeeded
	s.Failed += suite.Failed
	s.Total += suite.Total
	for script, log := range suite.Failures {
		s.Failures[script] = log
	}
	for script, timing := range suite.Timings {
		s.Timings[script] = timing
	}
}

// HasFailures reports whether any script failed.
func (s *Summary) HasFailures() bool {
	return s.Failed > 0
}

// Loaded returns the number of suites that had a usable config.
func (s *Summary) Loaded() int {
	return len(s.Suites) - len(s.Skipped)
}
