package cli

// This file contains the view command for displaying benchmark results from history.

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/perfgo/tracebench/history"
	"github.com/perfgo/tracebench/model"
	"github.com/perfgo/tracebench/orchestrator"
)

func removeFirstDashDash(in []string) []string {
	if len(in) > 0 && in[0] == "--" {
		return in[1:]
	}
	return in
}

func parseViewArgs(in []string) (idArg string, pprofArgs []string) {
	if len(in) == 0 {
		return "0", nil
	}

	// If first arg is "--", use default "0" and rest are pprof args
	if in[0] == "--" {
		return "0", in[1:]
	}

	// A negative index is "-" followed by only digits (e.g. "-1"), anything
	// else starting with "-" is a pprof flag (e.g. "-http=:8080", "-top")
	if len(in[0]) > 1 && in[0][0] == '-' {
		if _, err := strconv.ParseInt(in[0], 10, 64); err != nil {
			return "0", in
		}
	}

	// First arg is the ID/index, rest are pprof args (with optional "--" removed)
	return in[0], removeFirstDashDash(in[1:])
}

func (a *App) view(ctx *cli.Context) error {
	arg, pprofArgs := parseViewArgs(ctx.Args().Slice())

	root, err := history.Root()
	if err != nil {
		return err
	}

	historyEntries, err := history.LoadEntries(a.logger, root)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	entry, err := history.Find(historyEntries, arg)
	if err != nil {
		return err
	}

	renderHistory(os.Stdout, entry)

	for i := range entry.History.Artifacts {
		artifact := &entry.History.Artifacts[i]
		if artifact.Type == model.ArtifactTypeWallProfile {
			return a.displayProfile(entry.FullPath, artifact, pprofArgs)
		}
	}

	fmt.Printf("History directory: %s\n", entry.FullPath)
	return nil
}

func renderHistory(w io.Writer, entry *history.Entry) {
	h := entry.History

	fmt.Fprintf(w, "=== Benchmark Run: %s ===\n", shortID(h.ID))
	fmt.Fprintf(w, "Time: %s\n", h.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Duration: %s\n", h.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "Exit Code: %d\n", h.ExitCode)
	if h.WorkDir != "" {
		fmt.Fprintf(w, "Working Dir: %s\n", h.WorkDir)
	}
	if h.PHP != nil {
		fmt.Fprintf(w, "PHP: %s\n", h.PHP.Binary)
	}
	if h.Git != nil && h.Git.Commit != "" {
		fmt.Fprintf(w, "Git Commit: %s", shortID(h.Git.Commit))
		if h.Git.Branch != "" {
			fmt.Fprintf(w, " (%s)", h.Git.Branch)
		}
		fmt.Fprintln(w)
	}

	for _, p := range h.Passes {
		fmt.Fprintf(w, "\n=== %s ===\n", passLabel(p))
		if p.Extension != "" {
			fmt.Fprintf(w, "Extension: %s\n", p.Extension)
		}
		fmt.Fprintln(w)

		scripts := make([]string, 0, len(p.Timings))
		for script := range p.Timings {
			scripts = append(scripts, script)
		}
		sort.Strings(scripts)

		rows := make([][]string, 0, len(scripts)+1)
		for _, script := range scripts {
			rows = append(rows, []string{
				filepath.Base(filepath.Dir(script)),
				filepath.Base(script),
				p.Timings[script].String(),
			})
		}
		rows = append(rows, []string{
			"TOTAL",
			fmt.Sprintf("%d/%d passed", p.Succeeded, p.Total),
			"",
		})
		orchestrator.RenderTable(w, []string{"Suite", "Script", "Wall time"}, rows)

		if len(p.Failures) > 0 {
			fmt.Fprintf(w, "\nFailed scripts:\n")
			failed := make([]string, 0, len(p.Failures))
			for script := range p.Failures {
				failed = append(failed, script)
			}
			sort.Strings(failed)
			for _, script := range failed {
				fmt.Fprintf(w, "  ✗ %s\n    log: %s\n", script, p.Failures[script])
			}
		}
	}

	var logs []model.Artifact
	for _, artifact := range h.Artifacts {
		if artifact.Type == model.ArtifactTypeErrorLog {
			logs = append(logs, artifact)
		}
	}
	if len(logs) > 0 {
		fmt.Fprintf(w, "\nArchived error logs:\n")
		for _, artifact := range logs {
			fmt.Fprintf(w, "  %s (%.1f KB)\n", filepath.Join(entry.FullPath, artifact.File), float64(artifact.Size)/1024)
		}
	}
	fmt.Fprintln(w)
}

func (a *App) displayProfile(runDir string, artifact *model.Artifact, pprofArgs []string) error {
	profilePath := filepath.Join(runDir, artifact.File)
	fmt.Printf("Profile: %s (%.1f KB)\n", profilePath, float64(artifact.Size)/1024)

	// Build pprof command with any additional args
	args := []string{"tool", "pprof"}
	args = append(args, pprofArgs...)
	args = append(args, profilePath)

	cmd := exec.Command("go", args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Dir = runDir

	return cmd.Run()
}
