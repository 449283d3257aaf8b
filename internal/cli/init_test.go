package cli

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apoyos/internal/config"
)

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := SetupLogger(&config.Config{LogLevel: "debug", LogFormat: "json"})
	require.NotNil(t, logger)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
	assert.Equal(t, "app", logger.Component())

	quiet := SetupLogger(&config.Config{LogLevel: "error"})
	assert.False(t, quiet.Enabled(context.Background(), slog.LevelWarn))
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("APOYOS_CLI_TEST=from-file\n"), 0o600))
	t.Setenv("APOYOS_CLI_TEST", "")
	require.NoError(t, os.Unsetenv("APOYOS_CLI_TEST"))

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "from-file", os.Getenv("APOYOS_CLI_TEST"))

	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
}

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("PORT", "9000")

	cfg, err := LoadAndValidateConfig()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)

	t.Setenv("DATA_BACKEND", "sheets")
	_, err = LoadAndValidateConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid data backend")
	assert.Equal(t, 1, strings.Count(err.Error(), "configuration validation failed"))
}
