// Package config handles configuration loading and link home resolution.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Config types
// ---------------------------------------------------------------------------

// LinkConfig is the per-home configuration. The staleness threshold is
// deliberately absent: it is part of the wire protocol, not a tunable.
type LinkConfig struct {
	IDE        string `yaml:"ide"`         // default IDE tag for the CLI writer
	DebounceMs int    `yaml:"debounce_ms"` // writer debounce window
	PollMs     int    `yaml:"poll_ms"`     // reader poll interval
}

// Default returns a LinkConfig populated with sensible defaults.
func Default() *LinkConfig {
	return &LinkConfig{
		IDE:        "shell",
		DebounceMs: 100,
		PollMs:     500,
	}
}

// Load reads a per-home config.yaml from path.
// If the file does not exist it returns Default() with no error.
// Missing keys retain their default values.
func Load(path string) (*LinkConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	// Unmarshal into a plain map so we can apply only the keys that are present.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	if v, ok := raw["ide"].(string); ok && v != "" {
		cfg.IDE = v
	}
	if v, ok := raw["debounce_ms"].(int); ok && v > 0 {
		cfg.DebounceMs = v
	}
	if v, ok := raw["poll_ms"].(int); ok && v > 0 {
		cfg.PollMs = v
	}

	return cfg, nil
}

// ---------------------------------------------------------------------------
// Link home resolution
// ---------------------------------------------------------------------------

// globalConfigPath returns the path to the global idelink config file.
// This file stores only link_home (and future global settings).
func globalConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "idelink", "config.yaml"), nil
}

// normalizePath expands ~ and makes the path absolute.
func normalizePath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[2:])
	}
	return filepath.Abs(os.ExpandEnv(path))
}

// ResolveLinkHome returns the link home path and the source of the resolution.
// Priority: IDELINK_HOME env → persisted global config → ~/.idelink
// source is one of "env", "config", or "default".
func ResolveLinkHome() (path, source string) {
	if env := os.Getenv("IDELINK_HOME"); env != "" {
		p, err := normalizePath(env)
		if err == nil {
			return p, "env"
		}
	}

	if persisted, ok, _ := GetPersistedLinkHome(); ok {
		return persisted, "config"
	}

	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".idelink"), "default"
}

// GetLinkHome returns the resolved link home path.
func GetLinkHome() string {
	path, _ := ResolveLinkHome()
	return path
}

// GetPersistedLinkHome reads link_home from the global config.
// Returns ("", false, nil) if not set.
func GetPersistedLinkHome() (string, bool, error) {
	cfgPath, err := globalConfigPath()
	if err != nil {
		return "", false, err
	}

	data, err := os.ReadFile(cfgPath)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return "", false, nil
	}

	val, _ := raw["link_home"].(string)
	val = strings.TrimSpace(val)
	if val == "" {
		return "", false, nil
	}

	p, err := normalizePath(val)
	if err != nil {
		return "", false, err
	}
	return p, true, nil
}

// SetPersistedLinkHome normalizes path and persists it in the global config.
// Returns the normalized path.
func SetPersistedLinkHome(path string) (string, error) {
	normalized, err := normalizePath(path)
	if err != nil {
		return "", err
	}

	cfgPath, err := globalConfigPath()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		return "", err
	}

	// Read existing global config, preserving any other keys.
	var raw map[string]any
	if data, err := os.ReadFile(cfgPath); err == nil {
		_ = yaml.Unmarshal(data, &raw)
	}
	if raw == nil {
		raw = make(map[string]any)
	}
	raw["link_home"] = normalized

	out, err := yaml.Marshal(raw)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(cfgPath, out, 0o600); err != nil {
		return "", err
	}
	return normalized, nil
}

// ClearPersistedLinkHome removes link_home from the global config.
// Returns true if the key was present and removed.
// If the file becomes empty after removal it is deleted.
func ClearPersistedLinkHome() (bool, error) {
	cfgPath, err := globalConfigPath()
	if err != nil {
		return false, err
	}

	data, err := os.ReadFile(cfgPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return false, nil
	}

	if _, ok := raw["link_home"]; !ok {
		return false, nil
	}
	delete(raw, "link_home")

	if len(raw) == 0 {
		_ = os.Remove(cfgPath)
		return true, nil
	}

	out, err := yaml.Marshal(raw)
	if err != nil {
		return false, err
	}
	return true, os.WriteFile(cfgPath, out, 0o600)
}
