package history

// This file contains shared history utilities for storing, loading and
// looking up recorded benchmark runs.

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/perfgo/tracebench/model"
)

const (
	dirName  = ".tracebench"
	fileName = "history.json"
)

type Entry struct {
	History  model.History
	FullPath string
}

// RepoRoot returns the top level of the enclosing git repository, or the
// current working directory outside of one.
func RepoRoot() (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	output, err := cmd.Output()
	if err == nil {
		return strings.TrimSpace(string(output)), nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return cwd, nil
}

// GitInfo returns commit, branch and repository name of the git checkout
// containing dir. An empty dir means the working directory.
func GitInfo(dir string) (*model.Git, error) {
	git := func(args ...string) (string, error) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		output, err := cmd.Output()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(output)), nil
	}

	commit, err := git("rev-parse", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("failed to get git commit: %w", err)
	}
	branch, err := git("rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("failed to get git branch: %w", err)
	}
	toplevel, err := git("rev-parse", "--show-toplevel")
	if err != nil {
		return nil, fmt.Errorf("failed to get repository root: %w", err)
	}

	return &model.Git{
		Commit: commit,
		Branch: branch,
		Repo:   filepath.Base(toplevel),
	}, nil
}

// Root returns the .tracebench directory below the repository root.
func Root() (string, error) {
	repoRoot, err := RepoRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(repoRoot, dirName), nil
}

// RunDir returns the directory a run is recorded in:
// <root>/history/<timestamp>-<commit>-<id>.
func RunDir(root string, h *model.History) string {
	timestamp := h.Timestamp.Format("20060102-150405")

	shortCommit := "nogit"
	if h.Git != nil && h.Git.Commit != "" {
		shortCommit = shorten(h.Git.Commit)
	}

	runName := fmt.Sprintf("%s-%s-%s", timestamp, shortCommit, shorten(h.ID))
	return filepath.Join(root, "history", runName)
}

// Write stores h as history.json inside runDir.
func Write(runDir string, h *model.History) error {
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}

	if err := os.WriteFile(filepath.Join(runDir, fileName), data, 0644); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return nil
}

// LoadEntries loads all history entries below root, newest first. A missing
// root yields no entries.
func LoadEntries(logger zerolog.Logger, root string) ([]Entry, error) {
	var entries []Entry

	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			historyPath := filepath.Join(path, fileName)
			if _, err := os.Stat(historyPath); err == nil {
				history, err := parseHistoryJSON(historyPath)
				if err != nil {
					logger.Warn().Err(err).Str("path", historyPath).Msg("Failed to parse history.json")
					return nil
				}

				entries = append(entries, Entry{
					History:  history,
					FullPath: path,
				})
			}
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to walk %s directory: %w", dirName, err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].History.Timestamp.After(entries[j].History.Timestamp)
	})

	return entries, nil
}

// Find selects an entry from entries sorted newest first. arg is either an
// index counted from the newest run (0, -1, -2, ...) or a hex ID prefix.
func Find(entries []Entry, arg string) (*Entry, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("no history entries found")
	}

	if parsed, err := strconv.ParseInt(arg, 10, 64); err == nil {
		if parsed > 0 {
			return nil, fmt.Errorf("invalid index: %s (use 0 for last, -1 for second-to-last, -2 for third-to-last, etc.)", arg)
		}
		index := int(-parsed)
		if index >= len(entries) {
			return nil, fmt.Errorf("index %s out of range (only %d history entries)", arg, len(entries))
		}
		return &entries[index], nil
	}

	hexID := strings.ToLower(arg)
	for i := range entries {
		if strings.HasPrefix(strings.ToLower(entries[i].History.ID), hexID) {
			return &entries[i], nil
		}
	}
	return nil, fmt.Errorf("no history entry found matching ID: %s", arg)
}

// parseHistoryJSON parses a history.json file.
func parseHistoryJSON(historyPath string) (model.History, error) {
	data, err := os.ReadFile(historyPath)
	if err != nil {
		return model.History{}, err
	}

	var history model.History
	if err := json.Unmarshal(data, &history); err != nil {
		return model.History{}, err
	}

	return history, nil
}

func shorten(s string) string {
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
