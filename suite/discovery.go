package suite

// discovery.go enumerates suite directories and benchmark scripts. Every call
// reads the filesystem again; nothing is cached.

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultScriptExt is the extension of runnable benchmark scripts.
const DefaultScriptExt = ".php"

// legacyConfigName is never treated as a benchmark script.
const legacyConfigName = "config.php"

// ErrNoRoot is returned when the benchmark root cannot be listed.
var ErrNoRoot = errors.New("benchmark root not readable")

// DiscoverDirectories returns the immediate subdirectories of root, sorted.
// Hidden directories are ignored.
func DiscoverDirectories(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoRoot, err)
	}

	dirs := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if !isDir(root, e) {
			continue
		}
		dirs = append(dirs, filepath.Join(root, e.Name()))
	}

	sort.Strings(dirs)
	return dirs, nil
}

// DiscoverScripts returns the files in dir ending in ext, sorted. Config
// files are excluded.
func DiscoverScripts(dir, ext string) ([]string, error) {
	if ext == "" {
		ext = DefaultScriptExt
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite directory: %w", err)
	}

	scripts := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if filepath.Ext(name) != ext || isConfigFile(name) {
			continue
		}
		if isDir(dir, e) {
			continue
		}
		scripts = append(scripts, filepath.Join(dir, name))
	}

	sort.Strings(scripts)
	return scripts, nil
}

func isConfigFile(name string) bool {
	if name == legacyConfigName {
		return true
	}
	for _, c := range configFiles {
		if name == c {
			return true
		}
	}
	return false
}

// isDir follows symlinks, unlike DirEntry.IsDir.
func isDir(parent string, e os.DirEntry) bool {
	if e.IsDir() {
		return true
	}
	if e.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(parent, e.Name()))
	return err == nil && info.IsDir()
}
