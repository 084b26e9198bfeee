package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeConfig_Defaults(t *testing.T) {
	clearTestEnvVars(t)
	chdirEmpty(t)

	config, err := InitializeConfig()
	require.NoError(t, err)

	assert.Equal(t, "info", config.Log.Level)
	assert.Equal(t, "text", config.Log.Format)
	assert.Equal(t, "data", config.Data.Directory)
	assert.Equal(t, ";", config.Import.Delimiter)
	assert.Equal(t, 13, config.Import.HeaderLines)
	assert.Equal(t, 0, config.Import.FiscalYear)
	assert.Equal(t, "Verrichtingen", config.Bootstrap.SheetName)
	assert.Equal(t, 2, config.Bootstrap.MinOccurrences)
}

func TestInitializeConfig_EnvironmentVariables(t *testing.T) {
	clearTestEnvVars(t)
	chdirEmpty(t)

	t.Setenv("BOEKHOUDEN_LOG_LEVEL", "debug")
	t.Setenv("BOEKHOUDEN_DATA_DIRECTORY", "/var/lib/boekhouden")
	t.Setenv("BOEKHOUDEN_IMPORT_FISCAL_YEAR", "2024")
	t.Setenv("BOEKHOUDEN_BOOTSTRAP_MIN_OCCURRENCES", "5")

	config, err := InitializeConfig()
	require.NoError(t, err)

	assert.Equal(t, "debug", config.Log.Level)
	assert.Equal(t, "/var/lib/boekhouden", config.Data.Directory)
	assert.Equal(t, 2024, config.Import.FiscalYear)
	assert.Equal(t, 5, config.Bootstrap.MinOccurrences)
}

func TestInitializeConfig_ConfigFile(t *testing.T) {
	clearTestEnvVars(t)

	tempDir := t.TempDir()
	configContent := `
log:
  level: "warn"
data:
  directory: "archief"
import:
  header_lines: 10
bootstrap:
  sheet_name: "Boekhouding"
`
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "config.yaml"), []byte(configContent), 0600))

	chdir(t, tempDir)

	config, err := InitializeConfig()
	require.NoError(t, err)

	assert.Equal(t, "warn", config.Log.Level)
	assert.Equal(t, "archief", config.Data.Directory)
	assert.Equal(t, 10, config.Import.HeaderLines)
	assert.Equal(t, "Boekhouding", config.Bootstrap.SheetName)
	// Untouched keys keep their defaults
	assert.Equal(t, ";", config.Import.Delimiter)
}

func TestInitializeConfig_HierarchicalPrecedence(t *testing.T) {
	clearTestEnvVars(t)

	tempDir := t.TempDir()
	configContent := `
log:
  level: "warn"
import:
  fiscal_year: 2023
`
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "config.yaml"), []byte(configContent), 0600))

	t.Setenv("BOEKHOUDEN_LOG_LEVEL", "error")

	chdir(t, tempDir)

	config, err := InitializeConfig()
	require.NoError(t, err)

	// Env var wins over config file, config file wins over defaults
	assert.Equal(t, "error", config.Log.Level)
	assert.Equal(t, 2023, config.Import.FiscalYear)
}

func TestValidateConfig_InvalidValues(t *testing.T) {
	tests := []struct {
		name         string
		modifyConfig func(*Config)
		expectError  string
	}{
		{
			name: "unknown log level",
			modifyConfig: func(c *Config) {
				c.Log.Level = "chatty"
			},
			expectError: "unknown log level",
		},
		{
			name: "multi-character delimiter",
			modifyConfig: func(c *Config) {
				c.Import.Delimiter = ";;"
			},
			expectError: "delimiter must be a single character",
		},
		{
			name: "negative header lines",
			modifyConfig: func(c *Config) {
				c.Import.HeaderLines = -1
			},
			expectError: "header_lines must not be negative",
		},
		{
			name: "zero min occurrences",
			modifyConfig: func(c *Config) {
				c.Bootstrap.MinOccurrences = 0
			},
			expectError: "min_occurrences must be at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validTestConfig()
			tt.modifyConfig(config)

			err := validateConfig(config)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

func validTestConfig() *Config {
	config := &Config{}
	config.Log.Level = "info"
	config.Log.Format = "text"
	config.Data.Directory = "data"
	config.Import.Delimiter = ";"
	config.Import.HeaderLines = 13
	config.Bootstrap.SheetName = "Verrichtingen"
	config.Bootstrap.MinOccurrences = 2
	return config
}

func chdir(t *testing.T, dir string) {
	t.Helper()

	originalDir, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, os.Chdir(originalDir))
	})

	require.NoError(t, os.Chdir(dir))
}

// chdirEmpty moves to an empty directory so a developer's local config.yaml
// cannot leak into the test.
func chdirEmpty(t *testing.T) {
	t.Helper()
	chdir(t, t.TempDir())
}

func clearTestEnvVars(t *testing.T) {
	t.Helper()

	envVars := []string{
		"BOEKHOUDEN_LOG_LEVEL",
		"BOEKHOUDEN_LOG_FORMAT",
		"BOEKHOUDEN_DATA_DIRECTORY",
		"BOEKHOUDEN_IMPORT_DELIMITER",
		"BOEKHOUDEN_IMPORT_HEADER_LINES",
		"BOEKHOUDEN_IMPORT_FISCAL_YEAR",
		"BOEKHOUDEN_BOOTSTRAP_SHEET_NAME",
		"BOEKHOUDEN_BOOTSTRAP_MIN_OCCURRENCES",
	}

	for _, envVar := range envVars {
		require.NoError(t, os.Unsetenv(envVar))
	}
}
