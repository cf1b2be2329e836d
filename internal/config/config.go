// Package config loads asmcfg configuration from YAML files and
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for asmcfg.
type Config struct {
	// Dialect is the default assembly dialect ("masm" or "gnu"); empty
	// means pick by file extension.
	Dialect string `yaml:"dialect" env:"ASMCFG_DIALECT"`

	// Arch is the default architecture ("x86_64" or "arm64"); empty means
	// auto-detect.
	Arch string `yaml:"arch" env:"ASMCFG_ARCH"`

	// AutoDetectArch re-detects the architecture even when Arch is set.
	AutoDetectArch bool `yaml:"auto_detect_arch" env:"ASMCFG_AUTO_DETECT_ARCH"`

	// IncludeDir is the default search directory for INCLUDE files; empty
	// means the directory of the input file.
	IncludeDir string `yaml:"include_dir" env:"ASMCFG_INCLUDE_DIR"`

	// MaxIncludeDepth caps include nesting during preprocessing.
	MaxIncludeDepth int `yaml:"max_include_depth" env:"ASMCFG_MAX_INCLUDE_DEPTH"`

	// MaxExpandRatio caps the expanded document size at this multiple of
	// the original input.
	MaxExpandRatio int `yaml:"max_expand_ratio" env:"ASMCFG_MAX_EXPAND_RATIO"`

	// Verbose enables debug logging.
	Verbose bool `yaml:"verbose" env:"ASMCFG_VERBOSE"`

	// LogJSON switches log output to JSON format.
	LogJSON bool `yaml:"log_json" env:"ASMCFG_LOG_JSON"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Dialect:         "",
		Arch:            "",
		AutoDetectArch:  true,
		IncludeDir:      "",
		MaxIncludeDepth: 64,
		MaxExpandRatio:  16,
		Verbose:         false,
		LogJSON:         false,
	}
}

// globalConfigFilePath returns the global config file path (~/.asmcfg/config.yaml)
func globalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".asmcfg/config.yaml"
	}
	return filepath.Join(home, ".asmcfg", "config.yaml")
}

// projectConfigFilePath returns the project-level config file path (./.asmcfg/config.yaml)
func projectConfigFilePath() string {
	return ".asmcfg/config.yaml"
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Environment variables
// 2. Project-level config (./.asmcfg/config.yaml)
// 3. Global config (~/.asmcfg/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	globalConfigPath := globalConfigFilePath()
	if data, err := os.ReadFile(globalConfigPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", globalConfigPath, err)
		}
	}

	projectConfigPath := projectConfigFilePath()
	if data, err := os.ReadFile(projectConfigPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", projectConfigPath, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific YAML file path.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if data, err := os.ReadFile(path); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the specified YAML file path, creating
// parent directories if needed.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ASMCFG_DIALECT"); v != "" {
		cfg.Dialect = v
	}
	if v := os.Getenv("ASMCFG_ARCH"); v != "" {
		cfg.Arch = v
	}
	if v := os.Getenv("ASMCFG_AUTO_DETECT_ARCH"); v != "" {
		cfg.AutoDetectArch = parseBool(v)
	}
	if v := os.Getenv("ASMCFG_INCLUDE_DIR"); v != "" {
		cfg.IncludeDir = v
	}
	if v := os.Getenv("ASMCFG_MAX_INCLUDE_DEPTH"); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			cfg.MaxIncludeDepth = i
		}
	}
	if v := os.Getenv("ASMCFG_MAX_EXPAND_RATIO"); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			cfg.MaxExpandRatio = i
		}
	}
	if v := os.Getenv("ASMCFG_VERBOSE"); v != "" {
		cfg.Verbose = parseBool(v)
	}
	if v := os.Getenv("ASMCFG_LOG_JSON"); v != "" {
		cfg.LogJSON = parseBool(v)
	}
}

// Validate checks that the configuration has valid fields.
func (c *Config) Validate() error {
	switch c.Dialect {
	case "", "masm", "gnu":
	default:
		return fmt.Errorf("invalid dialect: %s (must be 'masm' or 'gnu')", c.Dialect)
	}

	switch c.Arch {
	case "", "x86_64", "arm64":
	default:
		return fmt.Errorf("invalid arch: %s (must be 'x86_64' or 'arm64')", c.Arch)
	}

	if c.MaxIncludeDepth <= 0 {
		return fmt.Errorf("max_include_depth must be positive")
	}
	if c.MaxExpandRatio <= 0 {
		return fmt.Errorf("max_expand_ratio must be positive")
	}

	return nil
}

func parseBool(s string) bool {
	return s == "true" || s == "1" || s == "yes"
}
