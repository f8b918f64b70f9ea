package model

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestEnvMerge(t *testing.T) {
	base := Env{{Name: "A", Value: "1"}, {Name: "B", Value: "2"}}
	merged := base.Merge(Env{{Name: "C", Value: "3"}, {Name: "A", Value: "override"}})

	require.Equal(t, Env{{Name: "A", Value: "override"}, {Name: "B", Value: "2"}, {Name: "C", Value: "3"}}, merged)
	// base is untouched
	require.Equal(t, Env{{Name: "A", Value: "1"}, {Name: "B", Value: "2"}}, base)

	v, ok := merged.Get("C")
	require.True(t, ok)
	require.Equal(t, "3", v)
}

func TestIniMerge(t *testing.T) {
	base := IniSettings{Ini("memory_limit", "-1"), Ini("extension", "redis.so")}

	merged := base.Merge(IniSettings{
		Ini("memory_limit", "512M"),
		Ini("extension", "/opt/ddtrace.so"),
		Ini("extension", "redis.so"),
		{Key: "datadog.trace.enabled"},
	})

	require.Equal(t, IniSettings{
		Ini("memory_limit", "512M"),
		Ini("extension", "redis.so"),
		Ini("extension", "/opt/ddtrace.so"),
		{Key: "datadog.trace.enabled"},
	}, merged)
	require.Equal(t, "-1", *base[0].Value)
}

func TestUnmarshalYAMLKeepsOrder(t *testing.T) {
	var cfg struct {
		Env Env         `yaml:"env"`
		Ini IniSettings `yaml:"ini"`
	}
	err := yaml.Unmarshal([]byte(`
env:
  Z: last
  A: first
ini:
  b.setting: "on"
  a.setting: ~
`), &cfg)
	require.NoError(t, err)

	require.Equal(t, Env{{Name: "Z", Value: "last"}, {Name: "A", Value: "first"}}, cfg.Env)
	require.Equal(t, IniSettings{Ini("b.setting", "on"), {Key: "a.setting"}}, cfg.Ini)
}

func TestUnmarshalYAMLRejectsNested(t *testing.T) {
	var cfg struct {
		Env Env `yaml:"env"`
	}
	err := yaml.Unmarshal([]byte("env:\n  A:\n    - 1\n"), &cfg)
	require.Error(t, err)
}
