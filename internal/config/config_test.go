package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "./schedules", cfg.Schedule.Directory)
	assert.False(t, cfg.Schedule.HaltOnError)
	assert.False(t, cfg.Logging.Debug)
	assert.False(t, cfg.Logging.Quiet)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := "schedule:\n  directory: ./fixtures\n  halt_on_error: true\nlogging:\n  debug: true\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "./fixtures", cfg.Schedule.Directory)
	assert.True(t, cfg.Schedule.HaltOnError)
	assert.True(t, cfg.Logging.Debug)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CDB_SCHEDULE_DIRECTORY", "/tmp/schedules")
	t.Setenv("CDB_LOGGING_QUIET", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/schedules", cfg.Schedule.Directory)
	assert.True(t, cfg.Logging.Quiet)
}

func TestValidateRejectsDebugAndQuietTogether(t *testing.T) {
	cfg := &Config{
		Schedule: ScheduleConfig{Directory: "./schedules"},
		Logging:  LoggingConfig{Debug: true, Quiet: true},
	}
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsEmptyDirectory(t *testing.T) {
	cfg := &Config{Schedule: ScheduleConfig{Directory: ""}}
	assert.Error(t, cfg.Validate())
}
