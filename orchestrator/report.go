package orchestrator

// report.go renders a Summary as human readable tables.

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
)

// Render writes the per-suite table, the skipped suites and the failed
// scripts with their log paths.
func (s *Summary) Render(w io.Writer) {
	fmt.Fprintf(w, "\n=== %s ===\n\n", s.Label)

	rows := make([][]string, 0, len(s.Suites)+1)
	var total time.Duration
	for _, suite := range s.Suites {
		if suite.Skipped {
			continue
		}
		total += suite.Duration
		rows = append(rows, []string{
			suite.Name,
			strconv.Itoa(suite.Succeeded),
			strconv.Itoa(suite.Failed),
			strconv.Itoa(suite.Total),
			suite.Duration.Round(time.Millisecond).String(),
		})
	}
	rows = append(rows, []string{
		"TOTAL",
		strconv.Itoa(s.Succeeded),
		strconv.Itoa(s.Failed),
		strconv.Itoa(s.Total),
		total.Round(time.Millisecond).String(),
	})

	RenderTable(w, []string{"Suite", "Succeeded", "Failed", "Total", "Duration"}, rows)

	if len(s.Skipped) > 0 {
		fmt.Fprintf(w, "\nSkipped suites (no usable config):\n")
		for _, dir := range s.Skipped {
			fmt.Fprintf(w, "  %s\n", dir)
		}
	}

	if len(s.Failures) > 0 {
		fmt.Fprintf(w, "\nFailed scripts:\n")
		for _, script := range sortedKeys(s.Failures) {
			fmt.Fprintf(w, "  ✗ %s\n    log: %s\n", script, s.Failures[script])
		}
	}
}

// RenderTimings writes one row per successful script with its wall time.
func (s *Summary) RenderTimings(w io.Writer) {
	scripts := make([]string, 0, len(s.Timings))
	for script := range s.Timings {
		scripts = append(scripts, script)
	}
	sort.Strings(scripts)

	rows := make([][]string, 0, len(scripts))
	for _, script := range scripts {
		rows = append(rows, []string{
			filepath.Base(filepath.Dir(script)),
			filepath.Base(script),
			s.Timings[script].Duration().String(),
		})
	}

	RenderTable(w, []string{"Suite", "Script", "Wall time"}, rows)
}

// RenderTable writes rows in the table style used by all reports.
func RenderTable(w io.Writer, headers []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(headers)

	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("│")
	table.SetRowSeparator("─")
	table.SetHeaderLine(true)
	table.SetBorder(true)
	table.SetTablePadding(" ")
	table.SetNoWhiteSpace(false)

	table.AppendBulk(rows)
	table.Render()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
