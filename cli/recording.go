package cli

// This file contains run recording functionality for saving run metadata
// and artifacts to the history directory.

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/perfgo/tracebench/history"
	"github.com/perfgo/tracebench/model"
	"github.com/perfgo/tracebench/wallprof"
)

const wallProfileName = "wall.pb.gz"

func (a *App) recordHistory(h *model.History, passes []*pass, withProfile bool) error {
	repoRoot, err := history.RepoRoot()
	if err != nil {
		return err
	}

	// Store WorkDir relative to the repository root
	if h.WorkDir != "" {
		if rel, err := filepath.Rel(repoRoot, h.WorkDir); err == nil {
			h.WorkDir = rel
		}
	}

	runDir := history.RunDir(filepath.Join(repoRoot, ".tracebench"), h)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}

	// Archive artifacts, a failing copy does not fail the run
	if err := a.saveErrorLogs(runDir, h, passes); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to save some error logs")
	}

	if withProfile {
		profilePath := filepath.Join(runDir, wallProfileName)
		if err := a.writeWallProfile(profilePath, passes); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to write wall-time profile")
		} else if info, err := os.Stat(profilePath); err == nil {
			h.Artifacts = append(h.Artifacts, model.Artifact{
				Type: model.ArtifactTypeWallProfile,
				Size: uint64(info.Size()),
				File: wallProfileName,
			})
		}
	}

	if err := history.Write(runDir, h); err != nil {
		return err
	}

	a.logger.Info().Str("dir", runDir).Str("id", h.ID).Msg("Recorded benchmark run")
	return nil
}

func (a *App) writeWallProfile(path string, passes []*pass) error {
	b := wallprof.New()
	for _, p := range passes {
		b.Add(p.summary)
	}
	if err := b.Write(path); err != nil {
		return err
	}
	a.logger.Debug().Str("profile", path).Msg("Wrote wall-time profile")
	return nil
}

// saveErrorLogs copies the log of every failed script to
// <runDir>/logs/<pass>/<suite dir>/<log name>.
func (a *App) saveErrorLogs(runDir string, h *model.History, passes []*pass) error {
	var firstErr error
	for _, p := range passes {
		for _, logPath := range sortedValues(p.summary.Failures) {
			rel := filepath.Join("logs", p.label(), filepath.Base(filepath.Dir(logPath)), filepath.Base(logPath))
			dst := filepath.Join(runDir, rel)

			size, err := copyFile(logPath, dst)
			if err != nil {
				a.logger.Warn().Err(err).Str("file", logPath).Msg("Failed to copy error log")
				if firstErr == nil {
					firstErr = err
				}
				continue
			}

			h.Artifacts = append(h.Artifacts, model.Artifact{
				Type: model.ArtifactTypeErrorLog,
				Size: uint64(size),
				File: rel,
			})
		}
	}
	return firstErr
}

func copyFile(src, dst string) (int64, error) {
	sourceFile, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer sourceFile.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return 0, err
	}

	destFile, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	defer destFile.Close()

	n, err := io.Copy(destFile, sourceFile)
	if err != nil {
		return 0, err
	}
	return n, destFile.Close()
}

func sortedValues(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([]string, 0, len(keys))
	for _, k := range keys {
		values = append(values, m[k])
	}
	return values
}
