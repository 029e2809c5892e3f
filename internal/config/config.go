// Package config loads driver configuration with viper: defaults, an
// optional YAML file, and CDB_-prefixed environment variables layered
// in increasing precedence.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for a concurrent-database run.
type Config struct {
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ScheduleConfig controls how schedule files are discovered and how
// strictly malformed lines are treated.
type ScheduleConfig struct {
	Directory   string `mapstructure:"directory"`
	HaltOnError bool   `mapstructure:"halt_on_error"`
}

// LoggingConfig controls the telemetry.Logger built from this config.
type LoggingConfig struct {
	Debug bool `mapstructure:"debug"`
	Quiet bool `mapstructure:"quiet"`
}

// Load builds a Config from defaults, an optional YAML file at
// configPath (skipped when empty), and CDB_-prefixed environment
// variables, in that order of increasing precedence.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("CDB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("schedule.directory", "./schedules")
	v.SetDefault("schedule.halt_on_error", false)
	v.SetDefault("logging.debug", false)
	v.SetDefault("logging.quiet", false)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Schedule.Directory == "" {
		return fmt.Errorf("schedule directory is required")
	}
	if c.Logging.Debug && c.Logging.Quiet {
		return fmt.Errorf("debug and quiet logging cannot both be enabled")
	}
	return nil
}

// String returns a formatted, human-readable summary of the configuration.
func (c *Config) String() string {
	return fmt.Sprintf(`Configuration:
  Schedule:
    Directory: %s
    Halt on malformed line: %t
  Logging:
    Debug: %t
    Quiet: %t`,
		c.Schedule.Directory, c.Schedule.HaltOnError,
		c.Logging.Debug, c.Logging.Quiet)
}
