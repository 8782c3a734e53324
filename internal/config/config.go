// Package config loads and defaults the options the CLI and library surface
// expose to the core deobfuscation entry point (§6 "Deobfuscation entry"
// Options), following the nested struct pattern the teacher's
// internal/config/config.go uses for its obfuscation knobs: defaults come
// from DefaultConfig, a YAML file is layered over them with yaml.v3, and
// viper reads JSDEREST_-prefixed environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// SandboxConfig mirrors §4.3's resource bounds for the bounded evaluator.
// These values are loaded and saved with the configuration; internal/sandbox
// does not read them.
type SandboxConfig struct {
	MaxCallDepth int    `yaml:"max_call_depth" mapstructure:"max_call_depth"`
	DeadlineMS   int    `yaml:"deadline_ms" mapstructure:"deadline_ms"`
}

// OutputConfig controls the final source-regeneration step (internal/codegen).
// Beautify selects whether output goes through the beautifier; IndentSize is
// loaded and saved but not read, and the beautifier runs with its default
// options.
type OutputConfig struct {
	Beautify   bool `yaml:"beautify" mapstructure:"beautify"`
	IndentSize int  `yaml:"indent_size" mapstructure:"indent_size"`
}

// Config holds all configuration settings for a deobfuscation run. Struct
// tags control how YAML files and Viper-sourced environment variables map
// onto it, the same dual-tagging the teacher's Config uses.
type Config struct {
	// Target selects which obfuscation family to run: "auto" (detect),
	// "off" (skip target-specific passes, dead-code only), or an explicit
	// registered target id.
	Target string `mapstructure:"target" yaml:"target"`

	// Threshold is the minimum detection confidence auto-selection accepts
	// before falling back to the registry's default (§4.4).
	Threshold float64 `mapstructure:"threshold" yaml:"threshold"`

	Silent       bool `mapstructure:"silent" yaml:"silent"`               // Suppress informational messages
	AbortOnError bool `mapstructure:"abort_on_error" yaml:"abort_on_error"` // Stop processing on the first error
	DebugLogging bool `mapstructure:"debug_logging" yaml:"debug_logging"` // Enable verbose per-node debug logging

	Sandbox SandboxConfig `mapstructure:"sandbox" yaml:"sandbox"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output"`

	// File handling, mirroring the teacher's directory-walk knobs.
	SkipPaths      []string `mapstructure:"skip" yaml:"skip"`
	KeepPaths      []string `mapstructure:"keep" yaml:"keep"`
	FollowSymlinks bool     `mapstructure:"follow_symlinks" yaml:"follow_symlinks"`

	TargetDirectory string `mapstructure:"target_directory" yaml:"-"`

	// -- Internal/Derived fields (not loaded directly) --
	Testing bool `mapstructure:"-" yaml:"-"`
}

var (
	// Testing controls whether output is suppressed for testing purposes,
	// the same package-level escape hatch the teacher's config.Testing is.
	Testing bool
)

// PrintInfo prints format/args to stdout unless Testing suppresses it.
func PrintInfo(format string, args ...interface{}) {
	if !Testing {
		fmt.Printf(format, args...)
	}
}

// DefaultConfig returns a Config populated purely from defaults.
func DefaultConfig() *Config {
	return &Config{
		Target:       "auto",
		Threshold:    0.3,
		AbortOnError: true,
		Sandbox:      SandboxConfig{MaxCallDepth: 64, DeadlineMS: 5000},
		Output:       OutputConfig{Beautify: true, IndentSize: 2},
		SkipPaths:    []string{"node_modules/*", "*.min.js", "*.git*"},
		KeepPaths:    []string{},
	}
}

// LoadConfig reads configPath (a YAML file) if present, layering it over
// defaults; a missing file at the default path is not an error, mirroring
// the teacher's LoadConfig fallback-to-defaults behavior.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		configPath = "jsderestructure.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		yamlFile, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", configPath, err)
		}
		if err := yaml.Unmarshal(yamlFile, cfg); err != nil {
			return nil, fmt.Errorf("config: unmarshalling %s: %w", configPath, err)
		}
		if !cfg.Silent {
			PrintInfo("Info: loaded configuration from %s\n", configPath)
		}
	} else if os.IsNotExist(err) {
		if configPath != "jsderestructure.yaml" {
			return nil, fmt.Errorf("config: specified config file not found: %s", configPath)
		}
		PrintInfo("Info: configuration file 'jsderestructure.yaml' not found, using defaults\n")
	} else {
		return nil, fmt.Errorf("config: checking %s: %w", configPath, err)
	}

	applyEnvOverrides(cfg)

	if cfg.TargetDirectory != "" {
		cfg.TargetDirectory = filepath.Clean(cfg.TargetDirectory)
	}
	return cfg, nil
}

// applyEnvOverrides lets JSDEREST_-prefixed environment variables override
// the handful of settings most useful to override without a file, the same
// narrow surface the teacher exposes via its bindEnv helper.
func applyEnvOverrides(cfg *Config) {
	v := viper.New()
	v.SetEnvPrefix("JSDEREST")
	v.AutomaticEnv()
	if v.IsSet("TARGET") {
		cfg.Target = v.GetString("target")
	}
	if v.IsSet("THRESHOLD") {
		cfg.Threshold = v.GetFloat64("threshold")
	}
	if v.IsSet("SILENT") {
		cfg.Silent = v.GetBool("silent")
	}
	if v.IsSet("DEBUG_LOGGING") {
		cfg.DebugLogging = v.GetBool("debug_logging")
	}
}

// SaveConfig writes the default configuration to configPath, the same
// scaffold-a-config-file convenience the teacher's SaveConfig provides.
func SaveConfig(configPath string) error {
	cfg := DefaultConfig()
	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshalling default config: %w", err)
	}
	dir := filepath.Dir(configPath)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("config: creating directory for %s: %w", configPath, err)
		}
	}
	if err := os.WriteFile(configPath, yamlData, 0644); err != nil {
		return fmt.Errorf("config: writing %s: %w", configPath, err)
	}
	PrintInfo("Info: saved default configuration to %s\n", configPath)
	return nil
}
