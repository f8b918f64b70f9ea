package teamcity

// This file contains an orchestrator observer printing TeamCity service
// messages.

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/perfgo/tracebench/orchestrator"
	"github.com/perfgo/tracebench/runner"
)

var escaper = strings.NewReplacer(
	"|", "||",
	"'", "|'",
	"\n", "|n",
	"\r", "|r",
	"[", "|[",
	"]", "|]",
)

// Escape escapes a value for use inside a service message attribute.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Logger writes service messages. Suites use their name as flowId so
// messages from suites running in parallel can be told apart.
type Logger struct {
	mu     sync.Mutex
	writer io.Writer
}

func NewLogger(writer io.Writer) *Logger {
	return &Logger{writer: writer}
}

func (l *Logger) message(name string, attrs ...string) {
	var b strings.Builder
	b.WriteString("##teamcity[")
	b.WriteString(name)
	for i := 0; i+1 < len(attrs); i += 2 {
		fmt.Fprintf(&b, " %s='%s'", attrs[i], Escape(attrs[i+1]))
	}
	b.WriteString("]\n")

	l.mu.Lock()
	defer l.mu.Unlock()
	io.WriteString(l.writer, b.String())
}

// flowID identifies a suite. Display names are not unique, directories are.
func flowID(suite *orchestrator.SuiteSummary) string {
	if suite.Dir == "" {
		return suite.Name
	}
	return suite.Dir
}

func (l *Logger) SuiteStarted(suite *orchestrator.SuiteSummary) {
	l.message("testSuiteStarted", "name", suite.Name, "flowId", flowID(suite))
}

func (l *Logger) SuiteFinished(suite *orchestrator.SuiteSummary) {
	l.message("testSuiteFinished", "name", suite.Name, "flowId", flowID(suite), "duration", millis(suite.Duration))
}

func (l *Logger) ScriptFinished(suite *orchestrator.SuiteSummary, script string, result *runner.Result) {
	name := strings.TrimSuffix(filepath.Base(script), filepath.Ext(script))
	flow := flowID(suite)

	l.message("testStarted", "name", name, "flowId", flow)
	if !result.Succeeded() {
		details := result.LastLine()
		if result.LogPath != "" {
			details = fmt.Sprintf("%s (log: %s)", details, result.LogPath)
		}
		l.message("testFailed",
			"name", name,
			"flowId", flow,
			"message", fmt.Sprintf("exit code %d", result.ExitCode),
			"details", details,
		)
	}
	l.message("testFinished", "name", name, "flowId", flow, "duration", millis(result.Duration()))
}

func millis(d time.Duration) string {
	return fmt.Sprintf("%d", d.Milliseconds())
}
