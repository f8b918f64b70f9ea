package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/perfgo/tracebench/extension"
	"github.com/perfgo/tracebench/orchestrator"
	"github.com/perfgo/tracebench/runner"
	"github.com/perfgo/tracebench/runner/runnertest"
	"github.com/perfgo/tracebench/suite"
)

func summaryWith(loaded, failed int) *orchestrator.Summary {
	s := orchestrator.NewSummary("baseline")
	for i := 0; i < loaded; i++ {
		suite := &orchestrator.SuiteSummary{Name: fmt.Sprintf("s%d", i), Total: 1, Succeeded: 1}
		if i < failed {
			suite.Succeeded, suite.Failed = 0, 1
		}
		s.Add(suite)
	}
	s.Add(&orchestrator.SuiteSummary{Name: "skipped", Dir: "/b/skipped", Skipped: true})
	return s
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name   string
		passes []*pass
		err    error
		want   int
	}{
		{
			name:   "all passed",
			passes: []*pass{{summary: summaryWith(2, 0)}},
			want:   ExitOK,
		},
		{
			name:   "failure in second pass",
			passes: []*pass{{summary: summaryWith(2, 0)}, {tracer: "1.0.0", summary: summaryWith(2, 1)}},
			want:   ExitFailures,
		},
		{
			name:   "nothing loaded",
			passes: []*pass{{summary: summaryWith(0, 0)}},
			want:   ExitNoSuites,
		},
		{
			name: "spawn error",
			err:  fmt.Errorf("suite a: %w", &runner.SpawnError{Path: "/usr/bin/php", Err: os.ErrNotExist}),
			want: ExitEnvironment,
		},
		{
			name: "compile error",
			err:  &extension.CompileError{Version: "1.0.0", ExitCode: 2},
			want: ExitEnvironment,
		},
		{
			name: "missing root",
			err:  fmt.Errorf("%w: %w", suite.ErrNoRoot, os.ErrNotExist),
			want: ExitNoSuites,
		},
		{
			name: "missing file inside a suite",
			err:  fmt.Errorf("suite a: %w", os.ErrNotExist),
			want: ExitFailures,
		},
		{
			name: "interrupted",
			err:  context.Canceled,
			want: ExitInterrupted,
		},
		{
			name: "other error",
			err:  errors.New("boom"),
			want: ExitFailures,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, exitCode(tt.passes, tt.err))
		})
	}
}

func TestPassFromSummary(t *testing.T) {
	start := time.Now()
	s := orchestrator.NewSummary("1.0.0")
	s.Add(&orchestrator.SuiteSummary{
		Name:      "a",
		Succeeded: 1,
		Failed:    1,
		Total:     2,
		Failures:  map[string]string{"/b/a/bad.php": "/b/a/bad.log"},
		Timings:   map[string]orchestrator.Timing{"/b/a/ok.php": {Start: start, End: start.Add(time.Second)}},
	})

	got := passFromSummary(&pass{tracer: "1.0.0", extension: "/t/1.0.0/modules/ddtrace.so", summary: s})
	require.Equal(t, "1.0.0", got.Tracer)
	require.Equal(t, 2, got.Total)
	require.Equal(t, time.Second, got.Timings["/b/a/ok.php"])
	require.Equal(t, "/b/a/bad.log", got.Failures["/b/a/bad.php"])
}

// runApp runs the CLI and returns the exit code it requested.
func runApp(t *testing.T, args ...string) int {
	t.Helper()

	code := ExitOK
	oldExiter, oldErrWriter := cli.OsExiter, cli.ErrWriter
	cli.OsExiter = func(c int) { code = c }
	cli.ErrWriter = io.Discard
	t.Cleanup(func() {
		cli.OsExiter, cli.ErrWriter = oldExiter, oldErrWriter
	})

	err := New().Run(append([]string{AppName}, args...))
	if err != nil {
		var exitErr cli.ExitCoder
		require.True(t, errors.As(err, &exitErr), "unexpected error: %v", err)
		return exitErr.ExitCode()
	}
	return code
}

func TestRunCommand(t *testing.T) {
	php := runnertest.Interpreter(t)

	root := t.TempDir()
	runnertest.Script(t, filepath.Join(root, "demo"), "config.yaml", "name: demo")
	runnertest.Script(t, filepath.Join(root, "demo"), "ok.php", "exit 0")

	t.Run("passing baseline", func(t *testing.T) {
		require.Equal(t, ExitOK, runApp(t, "run", "--php-binary", php, "--root", root, "--no-history"))
	})

	t.Run("failing script", func(t *testing.T) {
		failRoot := t.TempDir()
		runnertest.Script(t, filepath.Join(failRoot, "demo"), "config.yaml", "name: demo")
		runnertest.Script(t, filepath.Join(failRoot, "demo"), "bad.php", "exit 3")
		require.Equal(t, ExitFailures, runApp(t, "run", "--php-binary", php, "--root", failRoot, "--no-history"))
		require.FileExists(t, filepath.Join(failRoot, "demo", "bad.log"))
	})

	t.Run("root is a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "benchmark-scripts")
		require.NoError(t, os.WriteFile(file, []byte("not a directory"), 0644))
		require.Equal(t, ExitNoSuites, runApp(t, "run", "--php-binary", php, "--root", file, "--no-history"))
	})

	t.Run("no suites", func(t *testing.T) {
		require.Equal(t, ExitNoSuites, runApp(t, "run", "--php-binary", php, "--root", t.TempDir(), "--no-history"))
	})

	t.Run("missing interpreter", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "php")
		require.Equal(t, ExitEnvironment, runApp(t, "run", "--php-binary", missing, "--root", root, "--no-history"))
	})

	t.Run("tracer compile failure", func(t *testing.T) {
		src := t.TempDir()
		runnertest.Script(t, filepath.Join(src, "1.0.0"), "build.sh", "echo broken; exit 1")
		require.Equal(t, ExitEnvironment, runApp(t,
			"run", "--php-binary", php, "--root", root, "--no-history",
			"--tracer", "1.0.0", "--tracer-src", src, "--build-cmd", "/bin/sh build.sh",
		))
		require.FileExists(t, filepath.Join(src, "1.0.0", "build.log"))
	})

	t.Run("tracer pass", func(t *testing.T) {
		src := t.TempDir()
		runnertest.Script(t, filepath.Join(src, "1.0.0"), "build.sh", "mkdir -p modules && touch modules/ddtrace.so")
		require.Equal(t, ExitOK, runApp(t,
			"run", "--php-binary", php, "--root", root, "--no-history",
			"--tracer", "1.0.0", "--tracer-src", src, "--build-cmd", "/bin/sh build.sh",
		))
		require.FileExists(t, filepath.Join(src, "1.0.0", "modules", "ddtrace.so"))
	})
}

func TestBuildCommandDefault(t *testing.T) {
	for _, f := range runFlags() {
		if sf, ok := f.(*cli.StringFlag); ok && sf.Name == "build-cmd" {
			require.Equal(t, extension.DefaultConfig().BuildCommand, strings.Fields(sf.Value))
			return
		}
	}
	t.Fatal("build-cmd flag not found")
}
