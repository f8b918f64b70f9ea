package wallprof

// This file contains the conversion of benchmark timings into a pprof profile.

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/pprof/profile"

	"github.com/perfgo/tracebench/orchestrator"
)

// Builder accumulates the timings of one or more passes into a single
// wall-time profile. Every successful script becomes one sample whose stack
// is script <- suite <- pass label.
type Builder struct {
	profile   *profile.Profile
	functions map[string]*profile.Function
	locations map[string]*profile.Location
	start     time.Time
	end       time.Time
}

// New creates an empty profile builder.
func New() *Builder {
	return &Builder{
		profile: &profile.Profile{
			SampleType: []*profile.ValueType{{Type: "wall", Unit: "nanoseconds"}},
			PeriodType: &profile.ValueType{Type: "wall", Unit: "nanoseconds"},
			Period:     1,
		},
		functions: make(map[string]*profile.Function),
		locations: make(map[string]*profile.Location),
	}
}

// Add adds all successful scripts of a pass.
func (b *Builder) Add(summary *orchestrator.Summary) {
	for _, suite := range summary.Suites {
		if suite.Skipped {
			continue
		}
		for _, script := range suite.Scripts {
			timing, ok := suite.Timings[script]
			if !ok {
				continue
			}
			b.addSample(summary.Label, suite, script, timing)
		}
	}
}

// Profile returns the accumulated profile.
func (b *Builder) Profile() *profile.Profile {
	if !b.start.IsZero() {
		b.profile.TimeNanos = b.start.UnixNano()
		b.profile.DurationNanos = int64(b.end.Sub(b.start))
	}
	return b.profile
}

// Write writes the profile gzip-compressed to path.
func (b *Builder) Write(path string) error {
	prof := b.Profile()
	if err := prof.CheckValid(); err != nil {
		return fmt.Errorf("invalid wall-time profile: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create profile file: %w", err)
	}
	defer f.Close()

	// profile.Write compresses on its own
	if err := prof.Write(f); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return f.Close()
}

// Read loads a profile written by Write.
func Read(path string) (*profile.Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile: %w", err)
	}
	defer f.Close()

	prof, err := profile.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	return prof, nil
}

// addSample keys frames on the suite directory and script path. Suite names are
// display labels only and may repeat across directories.
func (b *Builder) addSample(label string, suite *orchestrator.SuiteSummary, script string, timing orchestrator.Timing) {
	name := strings.TrimSuffix(filepath.Base(script), filepath.Ext(script))

	// Leaf first
	stack := []*profile.Location{
		b.getOrCreateLocation(label+"/"+script, name, script),
		b.getOrCreateLocation(label+"/"+suite.Dir, suite.Name, suite.Dir),
		b.getOrCreateLocation(label, label, ""),
	}

	if b.start.IsZero() || timing.Start.Before(b.start) {
		b.start = timing.Start
	}
	if timing.End.After(b.end) {
		b.end = timing.End
	}

	b.profile.Sample = append(b.profile.Sample, &profile.Sample{
		Location: stack,
		Value:    []int64{int64(timing.Duration())},
		Label:    map[string][]string{"pass": {label}, "suite": {suite.Name}},
	})
}

func (b *Builder) getOrCreateLocation(key, name, filename string) *profile.Location {
	if loc, exists := b.locations[key]; exists {
		return loc
	}

	loc := &profile.Location{
		ID: uint64(len(b.profile.Location) + 1),
		Line: []profile.Line{
			{Function: b.getOrCreateFunction(key, name, filename)},
		},
	}
	b.locations[key] = loc
	b.profile.Location = append(b.profile.Location, loc)
	return loc
}

func (b *Builder) getOrCreateFunction(key, name, filename string) *profile.Function {
	if fn, exists := b.functions[key]; exists {
		return fn
	}

	fn := &profile.Function{
		ID:         uint64(len(b.profile.Function) + 1),
		Name:       name,
		SystemName: key,
		Filename:   filename,
	}
	b.functions[key] = fn
	b.profile.Function = append(b.profile.Function, fn)
	return fn
}
