package cli

// This file contains the list command for displaying previous benchmark runs.

import (
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/perfgo/tracebench/history"
	"github.com/perfgo/tracebench/model"
)

func (a *App) list(ctx *cli.Context) error {
	filterPath := ctx.String("path")
	limit := ctx.Int("limit")

	root, err := history.Root()
	if err != nil {
		return err
	}

	// Newest first
	historyEntries, err := history.LoadEntries(a.logger, root)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	// Apply path filter if specified
	var filteredEntries []history.Entry
	for _, entry := range historyEntries {
		if filterPath == "" || strings.Contains(entry.History.WorkDir, filterPath) {
			filteredEntries = append(filteredEntries, entry)
		}
	}

	if len(filteredEntries) == 0 {
		if filterPath != "" {
			fmt.Printf("No history entries found matching path: %s\n", filterPath)
		} else {
			fmt.Println("No history entries found")
			fmt.Printf("Runs are saved to %s/history/<timestamp>-<commit>-<id>/\n", root)
		}
		return nil
	}

	// Apply limit
	displayRuns := filteredEntries
	if limit > 0 && limit < len(displayRuns) {
		displayRuns = displayRuns[:limit]
	}

	fmt.Printf("\n=== History (%d total) ===\n\n", len(filteredEntries))

	for _, entry := range displayRuns {
		h := entry.History
		timestamp := h.Timestamp.Format("2006-01-02 15:04:05")
		duration := h.Duration.Round(time.Millisecond)

		status := "✓"
		if h.ExitCode != 0 {
			status = "✗"
		}

		// Format args (skip the program name)
		args := ""
		if len(h.Args) > 1 {
			args = strings.Join(h.Args[1:], " ")
		}

		fmt.Printf("%s  %s  [%s]  exit=%d  id=%s\n", status, timestamp, duration, h.ExitCode, shortID(h.ID))
		if args != "" {
			fmt.Printf("   Args: %s\n", args)
		}
		if h.WorkDir != "" {
			fmt.Printf("   Path: %s\n", h.WorkDir)
		}
		if h.PHP != nil {
			fmt.Printf("   PHP: %s\n", h.PHP.Binary)
		}
		if h.Git != nil && h.Git.Commit != "" {
			fmt.Printf("   Commit: %s", shortID(h.Git.Commit))
			if h.Git.Branch != "" {
				fmt.Printf(" (%s)", h.Git.Branch)
			}
			fmt.Println()
		}
		for _, p := range h.Passes {
			fmt.Printf("   %s: %d/%d passed", passLabel(p), p.Succeeded, p.Total)
			if p.Failed > 0 {
				fmt.Printf(", %d failed", p.Failed)
			}
			fmt.Println()
		}
		for _, artifact := range h.Artifacts {
			if artifact.Type == model.ArtifactTypeWallProfile {
				fmt.Printf("   profile: %s (%.1f KB)\n", artifact.File, float64(artifact.Size)/1024)
			}
		}
		fmt.Printf("   %s\n", entry.FullPath)
		fmt.Println()
	}

	fmt.Println("\nView run: tracebench view <ID>")

	return nil
}

func passLabel(p model.Pass) string {
	if p.Tracer == "" {
		return baselineLabel
	}
	return p.Tracer
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
