package phpcmd

// command.go contains utilities for building shell command lines that run a
// php interpreter with environment and php.ini overrides.

import (
	"strings"

	"al.essio.dev/pkg/shellescape"
	"github.com/perfgo/tracebench/model"
)

// SerializeEnv renders env as KEY=value assignments suitable for prefixing a
// shell command. Values are always quoted as shell literals.
func SerializeEnv(env model.Env) string {
	parts := make([]string, 0, len(env))
	for _, v := range env {
		parts = append(parts, v.Name+"="+shellescape.Quote(v.Value))
	}
	return strings.Join(parts, " ")
}

// SerializeFlags renders ini as -dKEY=value interpreter flags. A nil value is
// rendered as the empty string, which quotes to ''.
func SerializeFlags(ini model.IniSettings) string {
	parts := make([]string, 0, len(ini))
	for _, s := range ini {
		value := ""
		if s.Value != nil {
			value = *s.Value
		}
		parts = append(parts, "-d"+s.Key+"="+shellescape.Quote(value))
	}
	return strings.Join(parts, " ")
}

// BuildCommand composes the full command line for a single script run. The
// interpreter's stderr is redirected into stdout.
func BuildCommand(env model.Env, interpreter string, ini model.IniSettings, script string) string {
	parts := make([]string, 0, 5)

	if e := SerializeEnv(env); e != "" {
		parts = append(parts, e)
	}
	parts = append(parts, shellescape.Quote(interpreter))
	if f := SerializeFlags(ini); f != "" {
		parts = append(parts, f)
	}
	parts = append(parts, shellescape.Quote(script), "2>&1")

	return strings.Join(parts, " ")
}
