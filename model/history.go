package model

import "time"

// HistoryType represents the type of history entry
type HistoryType string

const (
	HistoryTypeRun HistoryType = "run"
)

// History represents a single tracebench run over all suites.
type History struct {
	// Unique ID for this run (16 random bytes, hex encoded)
	ID string `json:"id"`
	// Type of execution
	Type HistoryType `json:"type"`
	// Timestamp when the run started
	Timestamp time.Time `json:"timestamp"`
	// Command-line arguments (including command name)
	Args []string `json:"args"`
	// Working directory where command was run (relative to repo root)
	WorkDir string `json:"workdir"`
	// Exit code of the harness
	ExitCode int `json:"exit_code"`
	// Duration of the whole run
	Duration time.Duration `json:"duration"`
	// Git information
	Git *Git `json:"git,omitempty"`
	// Interpreter used for all passes
	PHP *PHP `json:"php,omitempty"`
	// One entry per tracer version (or a single baseline pass)
	Passes []Pass `json:"passes,omitempty"`
	// Artifacts generated during this run
	Artifacts []Artifact `json:"artifacts,omitempty"`
}

// Git contains git repository information
type Git struct {
	// Git commit hash at time of execution
	Commit string `json:"commit,omitempty"`
	// Git branch at time of execution
	Branch string `json:"branch,omitempty"`
	// Repository name
	Repo string `json:"repo,omitempty"`
}

// PHP describes the interpreter the scripts ran under.
type PHP struct {
	// Requested version (e.g. "8.2"), may be empty
	Version string `json:"version,omitempty"`
	// Absolute path of the interpreter binary
	Binary string `json:"binary"`
}

// Pass is the recorded outcome of running every suite once.
type Pass struct {
	// Tracer version, empty for the baseline pass
	Tracer string `json:"tracer,omitempty"`
	// Path of the tracer extension that was loaded
	Extension string `json:"extension,omitempty"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Total     int    `json:"total"`
	// Suite directories skipped because of a missing or invalid config
	Skipped []string `json:"skipped,omitempty"`
	// Failed script path -> error log path
	Failures map[string]string `json:"failures,omitempty"`
	// Successful script path -> wall time
	Timings map[string]time.Duration `json:"timings,omitempty"`
}

// ArtifactType identifies the type of artifact
type ArtifactType uint8

const (
	ArtifactTypeWallProfile ArtifactType = iota
	ArtifactTypeErrorLog
)

// Artifact represents a file generated during execution
type Artifact struct {
	Type ArtifactType `json:"type"`
	Size uint64       `json:"size"`
	File string       `json:"file"` // relative to run dir
}
