package runner

import "fmt"

// SpawnError reports that a benchmark process could not be started at all.
// It means the harness environment is broken, not the benchmarked script.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn %s: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}
