package suite

// config.go loads the declarative per-suite configuration. A missing or
// malformed config means the suite is skipped, never that the run fails.

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/perfgo/tracebench/model"
	"gopkg.in/yaml.v3"
)

// configFiles are tried in order; the first one that exists is used.
var configFiles = []string{"config.yaml", "config.yml", "config.toml"}

// ConfigPath returns the config file used for dir, or "" if there is none.
func ConfigPath(dir string) string {
	for _, name := range configFiles {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path
		}
	}
	return ""
}

// LoadConfig loads the suite configuration for dir. It returns false when the
// directory has no config or the config is not a valid mapping.
func LoadConfig(dir string) (*model.SuiteConfig, bool) {
	cfg, err := ReadConfig(dir)
	if err != nil || cfg == nil {
		return nil, false
	}
	return cfg, true
}

// ReadConfig is LoadConfig with the reason for a skip. It returns nil, nil
// when dir has no config file.
func ReadConfig(dir string) (*model.SuiteConfig, error) {
	path := ConfigPath(dir)
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var cfg *model.SuiteConfig
	if filepath.Ext(path) == ".toml" {
		cfg, err = parseTOML(data)
	} else {
		cfg, err = parseYAML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if len(cfg.Flags) > 0 {
		cfg.Ini = cfg.Ini.Merge(cfg.Flags)
		cfg.Flags = nil
	}

	if cfg.EnvFile != "" {
		envPath := cfg.EnvFile
		if !filepath.IsAbs(envPath) {
			envPath = filepath.Join(dir, envPath)
		}
		fileEnv, err := readEnvFile(envPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", envPath, err)
		}
		// Explicit env entries win over the env file
		cfg.Env = fileEnv.Merge(cfg.Env)
	}

	if cfg.Name == "" {
		cfg.Name = filepath.Base(dir)
	}

	return cfg, nil
}

func parseYAML(data []byte) (*model.SuiteConfig, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("config is not a mapping")
	}

	// Reject unknown keys like the TOML loader does
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg model.SuiteConfig
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// tomlConfig mirrors model.SuiteConfig with plain maps; key order is
// recovered from the decoder metadata.
type tomlConfig struct {
	Name    string         `toml:"name"`
	Env     map[string]any `toml:"env"`
	Ini     map[string]any `toml:"ini"`
	Flags   map[string]any `toml:"flags"`
	EnvFile string         `toml:"env_file"`
}

func parseTOML(data []byte) (*model.SuiteConfig, error) {
	var raw tomlConfig
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown keys: %v", undecoded)
	}

	cfg := &model.SuiteConfig{
		Name:    raw.Name,
		EnvFile: raw.EnvFile,
	}
	for _, name := range orderedKeys(md, "env", raw.Env) {
		v, err := scalarString("env", name, raw.Env[name])
		if err != nil {
			return nil, err
		}
		cfg.Env = append(cfg.Env, model.EnvVar{Name: name, Value: v})
	}
	for _, table := range []struct {
		name   string
		values map[string]any
		out    *model.IniSettings
	}{
		{"ini", raw.Ini, &cfg.Ini},
		{"flags", raw.Flags, &cfg.Flags},
	} {
		for _, key := range orderedKeys(md, table.name, table.values) {
			v, err := scalarString(table.name, key, table.values[key])
			if err != nil {
				return nil, err
			}
			*table.out = append(*table.out, model.Ini(key, v))
		}
	}

	return cfg, nil
}

func scalarString(table, key string, value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int64, float64, bool:
		return fmt.Sprint(v), nil
	default:
		return "", fmt.Errorf("%s %q must be a scalar", table, key)
	}
}

// orderedKeys returns the keys of a table in document order.
func orderedKeys(md toml.MetaData, table string, values map[string]any) []string {
	keys := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, k := range md.Keys() {
		if len(k) == 2 && k[0] == table {
			if _, ok := values[k[1]]; ok && !seen[k[1]] {
				keys = append(keys, k[1])
				seen[k[1]] = true
			}
		}
	}

	// Anything the metadata did not list goes last, sorted
	var rest []string
	for k := range values {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)

	return append(keys, rest...)
}

func readEnvFile(path string) (model.Env, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	values, err := godotenv.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	// godotenv returns a map; keep a stable order
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	env := make(model.Env, 0, len(names))
	for _, name := range names {
		env = append(env, model.EnvVar{Name: name, Value: values[name]})
	}
	return env, nil
}
