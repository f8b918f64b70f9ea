package runner

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/perfgo/tracebench/model"
)

var (
	envNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	iniKeyPattern  = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)
)

// Request is the fully resolved description of one script invocation.
type Request struct {
	// Absolute path of the php binary
	Interpreter string
	// php.ini overrides, defaults first
	Ini model.IniSettings
	// Environment overrides, defaults first
	Env model.Env
	// Absolute path of the benchmark script
	Script string
}

// LogPath returns where the error log for the script is written on failure:
// the script directory plus the basename without extension and ".log".
func (r *Request) LogPath() string {
	return LogPathFor(r.Script)
}

// LogPathFor returns the error log path for a script.
func LogPathFor(script string) string {
	base := filepath.Base(script)
	name := base[:len(base)-len(filepath.Ext(base))]
	return filepath.Join(filepath.Dir(script), name+".log")
}

// NewRequest builds a Request with the runner defaults merged under the given
// overrides.
func (r *Runner) NewRequest(interpreter, script string, env model.Env, ini model.IniSettings) (*Request, error) {
	if interpreter == "" {
		return nil, fmt.Errorf("no interpreter given")
	}

	absScript, err := filepath.Abs(script)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve script path %q: %w", script, err)
	}

	mergedEnv := r.cfg.Defaults.Env.Merge(env)
	for _, v := range mergedEnv {
		if !envNamePattern.MatchString(v.Name) {
			return nil, fmt.Errorf("invalid environment variable name %q", v.Name)
		}
	}

	mergedIni := r.cfg.Defaults.Ini.Merge(ini)
	for _, s := range mergedIni {
		if !iniKeyPattern.MatchString(s.Key) {
			return nil, fmt.Errorf("invalid ini key %q", s.Key)
		}
	}

	return &Request{
		Interpreter: interpreter,
		Ini:         mergedIni,
		Env:         mergedEnv,
		Script:      absScript,
	}, nil
}
