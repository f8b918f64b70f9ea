package runner

import "time"

// processStart anchors the monotonic nanosecond offsets reported by Result.
var processStart = time.Now()

// Result is the recorded outcome of one Request.
type Result struct {
	// Composed shell command line
	Command string
	// Combined stdout and stderr, one entry per line
	Output []string
	// Exit code of the process, -1 when it was killed
	ExitCode int
	// Taken right before spawning and right after exit
	Start time.Time
	End   time.Time
	// Error log path; the file only exists when the run failed
	LogPath string
	// Whether the per-script timeout killed the process
	TimedOut bool
}

// Succeeded reports whether the process exited with status 0.
func (r *Result) Succeeded() bool {
	return r.ExitCode == 0
}

// Duration returns the wall-clock time of the run.
func (r *Result) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// StartNanos returns the monotonic start time in nanoseconds.
func (r *Result) StartNanos() int64 {
	return int64(r.Start.Sub(processStart))
}

// EndNanos returns the monotonic end time in nanoseconds.
func (r *Result) EndNanos() int64 {
	return int64(r.End.Sub(processStart))
}

// LastLine returns the last line of output, or "" if there was none.
func (r *Result) LastLine() string {
	if len(r.Output) == 0 {
		return ""
	}
	return r.Output[len(r.Output)-1]
}
