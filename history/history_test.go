package history

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/perfgo/tracebench/model"
)

func record(t *testing.T, root, id string, ts time.Time) string {
	t.Helper()
	h := &model.History{
		ID:        id,
		Type:      model.HistoryTypeRun,
		Timestamp: ts,
		Git:       &model.Git{Commit: "0123456789abcdef", Branch: "main"},
		Passes: []model.Pass{{
			Succeeded: 2,
			Total:     2,
			Timings:   map[string]time.Duration{"/b/a/x.php": time.Second},
		}},
	}
	dir := RunDir(root, h)
	require.NoError(t, Write(dir, h))
	return dir
}

func TestRunDir(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 5, 0, time.UTC)
	h := &model.History{ID: "deadbeefcafebabe", Timestamp: ts}
	require.Equal(t, filepath.Join("/r", "history", "20240301-123005-nogit-deadbeef"), RunDir("/r", h))

	h.Git = &model.Git{Commit: "0123456789abcdef"}
	require.Equal(t, filepath.Join("/r", "history", "20240301-123005-01234567-deadbeef"), RunDir("/r", h))
}

func TestLoadEntries(t *testing.T) {
	root := t.TempDir()
	now := time.Now().UTC().Truncate(time.Second)

	record(t, root, "aaaa0000", now.Add(-2*time.Hour))
	newest := record(t, root, "bbbb0000", now)
	record(t, root, "cccc0000", now.Add(-time.Hour))

	broken := filepath.Join(root, "history", "broken")
	require.NoError(t, os.MkdirAll(broken, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(broken, "history.json"), []byte("{"), 0644))

	entries, err := LoadEntries(zerolog.Nop(), root)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, "bbbb0000", entries[0].History.ID)
	require.Equal(t, newest, entries[0].FullPath)
	require.Equal(t, "cccc0000", entries[1].History.ID)
	require.Equal(t, time.Second, entries[0].History.Passes[0].Timings["/b/a/x.php"])
}

func TestLoadEntriesMissingRoot(t *testing.T) {
	entries, err := LoadEntries(zerolog.Nop(), filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestFind(t *testing.T) {
	entries := []Entry{
		{History: model.History{ID: "abc123"}},
		{History: model.History{ID: "def456"}},
	}

	tests := []struct {
		arg     string
		wantID  string
		wantErr bool
	}{
		{arg: "0", wantID: "abc123"},
		{arg: "-1", wantID: "def456"},
		{arg: "-2", wantErr: true},
		{arg: "1", wantErr: true},
		{arg: "DEF", wantID: "def456"},
		{arg: "ffff", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			entry, err := Find(entries, tt.arg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantID, entry.History.ID)
		})
	}

	_, err := Find(nil, "0")
	require.Error(t, err)
}

func TestGitInfo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	dir := filepath.Join(t.TempDir(), "checkout")
	require.NoError(t, os.Mkdir(dir, 0755))

	_, err := GitInfo(dir)
	if err == nil {
		t.Skip("temporary directory is inside a git repository")
	}

	for _, args := range [][]string{
		{"init", "-q"},
		{"-c", "user.name=tracebench", "-c", "user.email=tracebench@example.com", "-c", "commit.gpgsign=false", "commit", "-q", "--allow-empty", "-m", "init"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}

	git, err := GitInfo(dir)
	require.NoError(t, err)
	require.Regexp(t, "^[0-9a-f]{40,64}$", git.Commit)
	require.NotEmpty(t, git.Branch)
	require.Equal(t, "checkout", git.Repo)
}
