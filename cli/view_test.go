package cli

import (
	"bytes"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/perfgo/tracebench/history"
	"github.com/perfgo/tracebench/model"
)

func TestRemoveFirstDashDash(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "empty slice",
			in:   []string{},
			want: []string{},
		},
		{
			name: "starts with --",
			in:   []string{"--", "-http=:8080", "-top"},
			want: []string{"-http=:8080", "-top"},
		},
		{
			name: "no --",
			in:   []string{"-http=:8080", "-top"},
			want: []string{"-http=:8080", "-top"},
		},
		{
			name: "only --",
			in:   []string{"--"},
			want: []string{},
		},
		{
			name: "-- in middle",
			in:   []string{"-top", "--", "-http=:8080"},
			want: []string{"-top", "--", "-http=:8080"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := removeFirstDashDash(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("removeFirstDashDash() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseViewArgs(t *testing.T) {
	tests := []struct {
		name          string
		in            []string
		wantID        string
		wantPprofArgs []string
	}{
		{
			name:          "empty args - default to 0",
			in:            []string{},
			wantID:        "0",
			wantPprofArgs: nil,
		},
		{
			name:          "only ID - index 0",
			in:            []string{"0"},
			wantID:        "0",
			wantPprofArgs: []string{},
		},
		{
			name:          "only ID - negative index",
			in:            []string{"-1"},
			wantID:        "-1",
			wantPprofArgs: []string{},
		},
		{
			name:          "only ID - hex string",
			in:            []string{"abc123"},
			wantID:        "abc123",
			wantPprofArgs: []string{},
		},
		{
			name:          "only pprof args",
			in:            []string{"-http=:8080"},
			wantID:        "0",
			wantPprofArgs: []string{"-http=:8080"},
		},
		{
			name:          "ID with pprof args",
			in:            []string{"0", "-http=:8080"},
			wantID:        "0",
			wantPprofArgs: []string{"-http=:8080"},
		},
		{
			name:          "ID with -- separator and pprof args",
			in:            []string{"0", "--", "-http=:8080", "-top"},
			wantID:        "0",
			wantPprofArgs: []string{"-http=:8080", "-top"},
		},
		{
			name:          "negative index with -- and pprof args",
			in:            []string{"-1", "--", "-top"},
			wantID:        "-1",
			wantPprofArgs: []string{"-top"},
		},
		{
			name:          "hex ID with pprof args no separator",
			in:            []string{"abc123", "-list=main"},
			wantID:        "abc123",
			wantPprofArgs: []string{"-list=main"},
		},
		{
			name:          "only -- uses default 0",
			in:            []string{"--", "-http=:8080"},
			wantID:        "0",
			wantPprofArgs: []string{"-http=:8080"},
		},
		{
			name:          "negative index with multiple pprof args",
			in:            []string{"-2", "-http=:8080", "-nodefraction=0.1"},
			wantID:        "-2",
			wantPprofArgs: []string{"-http=:8080", "-nodefraction=0.1"},
		},
		{
			name:          "ID 0 with -- and multiple pprof args",
			in:            []string{"0", "--", "-http=:8080", "-top", "-cum"},
			wantID:        "0",
			wantPprofArgs: []string{"-http=:8080", "-top", "-cum"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotID, gotPprofArgs := parseViewArgs(tt.in)
			if gotID != tt.wantID {
				t.Errorf("parseViewArgs() gotID = %v, want %v", gotID, tt.wantID)
			}
			if !reflect.DeepEqual(gotPprofArgs, tt.wantPprofArgs) {
				t.Errorf("parseViewArgs() gotPprofArgs = %v, want %v", gotPprofArgs, tt.wantPprofArgs)
			}
		})
	}
}

func TestRenderHistory(t *testing.T) {
	entry := &history.Entry{
		FullPath: "/repo/.tracebench/history/run",
		History: model.History{
			ID:        "0123456789abcdef",
			Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
			Duration:  3 * time.Second,
			ExitCode:  1,
			PHP:       &model.PHP{Binary: "/usr/bin/php8.2"},
			Passes: []model.Pass{
				{
					Succeeded: 1,
					Failed:    1,
					Total:     2,
					Failures:  map[string]string{"/b/laravel/route.php": "/b/laravel/route.log"},
					Timings:   map[string]time.Duration{"/b/laravel/boot.php": 1500 * time.Millisecond},
				},
				{Tracer: "1.2.0", Extension: "/t/1.2.0/modules/ddtrace.so", Succeeded: 2, Total: 2},
			},
			Artifacts: []model.Artifact{
				{Type: model.ArtifactTypeErrorLog, Size: 2048, File: "logs/baseline/laravel/route.log"},
			},
		},
	}

	var buf bytes.Buffer
	renderHistory(&buf, entry)
	out := buf.String()

	require.Contains(t, out, "=== Benchmark Run: 01234567 ===")
	require.Contains(t, out, "=== baseline ===")
	require.Contains(t, out, "=== 1.2.0 ===")
	require.Contains(t, out, "Extension: /t/1.2.0/modules/ddtrace.so")
	require.Contains(t, out, "boot.php")
	require.Contains(t, out, "1.5s")
	require.Contains(t, out, "✗ /b/laravel/route.php")
	require.Contains(t, out, "/repo/.tracebench/history/run/logs/baseline/laravel/route.log (2.0 KB)")
}
