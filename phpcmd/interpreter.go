package phpcmd

import (
	"fmt"
	"os/exec"
	"path/filepath"
)

// ResolveInterpreter returns the absolute path of the php binary to use. An
// explicit binary wins; otherwise php<version> and then php are looked up in
// PATH.
func ResolveInterpreter(binary, version string) (string, error) {
	if binary != "" {
		abs, err := filepath.Abs(binary)
		if err != nil {
			return "", fmt.Errorf("failed to resolve interpreter %q: %w", binary, err)
		}
		return abs, nil
	}

	candidates := []string{"php"}
	if version != "" {
		candidates = []string{"php" + version, "php"}
	}

	for _, name := range candidates {
		path, err := exec.LookPath(name)
		if err != nil {
			continue
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to resolve interpreter %q: %w", path, err)
		}
		return abs, nil
	}

	return "", fmt.Errorf("no php interpreter found in PATH (tried %v)", candidates)
}
