package model

// kv.go contains order-preserving key/value lists used for environment
// variables and php.ini overrides.

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// EnvVar is a single environment variable assignment.
type EnvVar struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Env is an ordered list of environment variable assignments.
type Env []EnvVar

// Get returns the value for name and whether it is set.
func (e Env) Get(name string) (string, bool) {
	for _, v := range e {
		if v.Name == name {
			return v.Value, true
		}
	}
	return "", false
}

// Merge returns a new Env where overrides replace values of e in place and
// unknown names are appended in override order.
func (e Env) Merge(overrides Env) Env {
	merged := make(Env, len(e), len(e)+len(overrides))
	copy(merged, e)

	for _, o := range overrides {
		replaced := false
		for i := range merged {
			if merged[i].Name == o.Name {
				merged[i].Value = o.Value
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, o)
		}
	}

	return merged
}

// UnmarshalYAML decodes a YAML mapping while keeping document order.
func (e *Env) UnmarshalYAML(node *yaml.Node) error {
	var env Env
	err := walkMapping(node, func(key string, value *yaml.Node) error {
		if value.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: env %q must be a scalar", value.Line, key)
		}
		v := value.Value
		if value.ShortTag() == "!!null" {
			v = ""
		}
		env = env.Merge(Env{{Name: key, Value: v}})
		return nil
	})
	if err != nil {
		return err
	}
	*e = env
	return nil
}

// IniSetting is a single php.ini override passed as -d KEY=VALUE.
// A nil Value means the key was given without a value.
type IniSetting struct {
	Key   string  `json:"key"`
	Value *string `json:"value"`
}

// IniSettings is an ordered list of php.ini overrides.
type IniSettings []IniSetting

// Ini builds an IniSetting with a value.
func Ini(key, value string) IniSetting {
	return IniSetting{Key: key, Value: &value}
}

// Get returns the setting for key and whether it is set.
func (s IniSettings) Get(key string) (IniSetting, bool) {
	for _, v := range s {
		if v.Key == key {
			return v, true
		}
	}
	return IniSetting{}, false
}

// repeatableIniKeys may appear several times on a php command line.
var repeatableIniKeys = map[string]bool{
	"extension":      true,
	"zend_extension": true,
}

// Merge returns a new IniSettings where overrides replace values of s in
// place and unknown keys are appended in override order. Extension keys are
// appended unless the exact same setting is already present.
func (s IniSettings) Merge(overrides IniSettings) IniSettings {
	merged := make(IniSettings, len(s), len(s)+len(overrides))
	copy(merged, s)

	for _, o := range overrides {
		replaced := false
		for i := range merged {
			if merged[i].Key != o.Key {
				continue
			}
			if repeatableIniKeys[o.Key] {
				if sameValue(merged[i].Value, o.Value) {
					replaced = true
					break
				}
				continue
			}
			merged[i].Value = o.Value
			replaced = true
			break
		}
		if !replaced {
			merged = append(merged, o)
		}
	}

	return merged
}

func sameValue(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// UnmarshalYAML decodes a YAML mapping while keeping document order. A null
// value is kept as a nil Value.
func (s *IniSettings) UnmarshalYAML(node *yaml.Node) error {
	var settings IniSettings
	err := walkMapping(node, func(key string, value *yaml.Node) error {
		if value.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: ini %q must be a scalar", value.Line, key)
		}
		setting := IniSetting{Key: key}
		if value.ShortTag() != "!!null" {
			v := value.Value
			setting.Value = &v
		}
		settings = settings.Merge(IniSettings{setting})
		return nil
	})
	if err != nil {
		return err
	}
	*s = settings
	return nil
}

func walkMapping(node *yaml.Node, fn func(key string, value *yaml.Node) error) error {
	if node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping", node.Line)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if value.Kind == yaml.AliasNode {
			value = value.Alias
		}
		if err := fn(key.Value, value); err != nil {
			return err
		}
	}

	return nil
}
