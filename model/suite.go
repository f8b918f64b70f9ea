package model

// SuiteConfig is the per-directory configuration of a benchmark suite.
// It is loaded once per directory and not modified afterwards.
type SuiteConfig struct {
	// Display name of the suite (defaults to the directory name)
	Name string `yaml:"name" toml:"name" json:"name"`
	// Environment variable overrides, merged over the runner defaults
	Env Env `yaml:"env" toml:"-" json:"env,omitempty"`
	// php.ini overrides passed as -d flags, merged over the runner defaults
	Ini IniSettings `yaml:"ini" toml:"-" json:"ini,omitempty"`
	// Optional dotenv file, relative to the suite directory
	EnvFile string `yaml:"env_file" toml:"env_file" json:"env_file,omitempty"`

	// Flags is accepted as an alias of Ini.
	Flags IniSettings `yaml:"flags" toml:"-" json:"-"`
}
