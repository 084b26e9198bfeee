// Package config also provides Viper-based hierarchical configuration
// management: defaults, then an optional config.yaml, then BOEKHOUDEN_*
// environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Data struct {
		Directory string `mapstructure:"directory" yaml:"directory"`
	} `mapstructure:"data" yaml:"data"`

	Import struct {
		Delimiter   string `mapstructure:"delimiter" yaml:"delimiter"`
		HeaderLines int    `mapstructure:"header_lines" yaml:"header_lines"`
		FiscalYear  int    `mapstructure:"fiscal_year" yaml:"fiscal_year"`
	} `mapstructure:"import" yaml:"import"`

	Bootstrap struct {
		SheetName      string `mapstructure:"sheet_name" yaml:"sheet_name"`
		MinOccurrences int    `mapstructure:"min_occurrences" yaml:"min_occurrences"`
	} `mapstructure:"bootstrap" yaml:"bootstrap"`
}

// InitializeConfig initializes Viper configuration with hierarchical loading.
func InitializeConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.boekhouden")
	v.AddConfigPath("config")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BOEKHOUDEN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Log the error but don't fail - continue with defaults and env vars
			Logger.Warnf("error reading config file %s: %v", v.ConfigFileUsed(), err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("data.directory", "data")

	v.SetDefault("import.delimiter", ";")
	v.SetDefault("import.header_lines", 13)
	v.SetDefault("import.fiscal_year", 0)

	v.SetDefault("bootstrap.sheet_name", "Verrichtingen")
	v.SetDefault("bootstrap.min_occurrences", 2)
}

// validateConfig checks configuration values for consistency.
func validateConfig(c *Config) error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level: %s", c.Log.Level)
	}

	if len(c.Import.Delimiter) != 1 {
		return fmt.Errorf("import delimiter must be a single character, got %q", c.Import.Delimiter)
	}

	if c.Import.HeaderLines < 0 {
		return fmt.Errorf("import header_lines must not be negative")
	}

	if c.Bootstrap.MinOccurrences < 1 {
		return fmt.Errorf("bootstrap min_occurrences must be at least 1")
	}

	return nil
}
