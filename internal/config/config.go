// Package config provides Viper-based configuration loading for the character simulation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// SimulationConfig holds frame driver settings.
type SimulationConfig struct {
	// TickInterval is the wall-clock time between frames.
	TickInterval time.Duration `mapstructure:"tick_interval"`
	// Duration is how long the simulation runs before stopping.
	Duration time.Duration `mapstructure:"duration"`
	// ActionInterval is how often each character acts in a skirmish.
	ActionInterval time.Duration `mapstructure:"action_interval"`
	// Seed seeds the dice. 0 uses a cryptographic source.
	Seed uint64 `mapstructure:"seed"`
}

// ContentConfig locates the YAML and Lua content directories.
type ContentConfig struct {
	ArchetypesDir string `mapstructure:"archetypes_dir"`
	ItemsDir      string `mapstructure:"items_dir"`
	EffectsDir    string `mapstructure:"effects_dir"`
	TechniquesDir string `mapstructure:"techniques_dir"`
	// ScriptsDir is optional; when empty no Lua hooks are loaded.
	ScriptsDir string `mapstructure:"scripts_dir"`
}

// ScriptingConfig holds Lua sandbox settings.
type ScriptingConfig struct {
	// InstructionLimit caps the opcodes of a single hook call. 0 uses the sandbox default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Content    ContentConfig    `mapstructure:"content"`
	Scripting  ScriptingConfig  `mapstructure:"scripting"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateSimulation(c.Simulation); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateContent(c.Content); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Scripting.InstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("scripting.instruction_limit must be >= 0, got %d", c.Scripting.InstructionLimit))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateSimulation(s SimulationConfig) error {
	var errs []string
	if s.TickInterval <= 0 {
		errs = append(errs, fmt.Sprintf("simulation.tick_interval must be > 0, got %s", s.TickInterval))
	}
	if s.Duration <= 0 {
		errs = append(errs, fmt.Sprintf("simulation.duration must be > 0, got %s", s.Duration))
	}
	if s.ActionInterval <= 0 {
		errs = append(errs, fmt.Sprintf("simulation.action_interval must be > 0, got %s", s.ActionInterval))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateContent(c ContentConfig) error {
	var errs []string
	required := []struct{ key, value string }{
		{"content.archetypes_dir", c.ArchetypesDir},
		{"content.items_dir", c.ItemsDir},
		{"content.effects_dir", c.EffectsDir},
		{"content.techniques_dir", c.TechniquesDir},
	}
	for _, r := range required {
		if r.value == "" {
			errs = append(errs, r.key+" must not be empty")
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with RPGSHEET_ prefix
	v.SetEnvPrefix("RPGSHEET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("simulation.tick_interval", "16ms")
	v.SetDefault("simulation.duration", "30s")
	v.SetDefault("simulation.action_interval", "1s")
	v.SetDefault("simulation.seed", 0)

	v.SetDefault("content.archetypes_dir", "content/archetypes")
	v.SetDefault("content.items_dir", "content/items")
	v.SetDefault("content.effects_dir", "content/effects")
	v.SetDefault("content.techniques_dir", "content/techniques")
	v.SetDefault("content.scripts_dir", "content/scripts")

	v.SetDefault("scripting.instruction_limit", 0)
}
