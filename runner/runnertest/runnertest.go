// Package runnertest provides a fake php interpreter for tests that need to
// spawn real benchmark processes.
package runnertest

import (
	"os"
	"path/filepath"
	"testing"
)

// fakePHP drops -d flags and runs the script with /bin/sh, so test scripts
// are shell scripts with a .php extension.
const fakePHP = `#!/bin/sh
while [ $# -gt 0 ]; do
	case "$1" in
		-d*) shift ;;
		*) break ;;
	esac
done
exec /bin/sh "$@"
`

// Interpreter writes the fake interpreter into a temporary directory and
// returns its absolute path. The test is skipped when /bin/sh is missing.
func Interpreter(t testing.TB) string {
	t.Helper()

	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}

	path := filepath.Join(t.TempDir(), "php")
	if err := os.WriteFile(path, []byte(fakePHP), 0755); err != nil {
		t.Fatalf("failed to write fake interpreter: %v", err)
	}
	return path
}

// Script writes a benchmark script with the given shell body.
func Script(t testing.TB, dir, name, body string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create %s: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(body+"\n"), 0644); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}
