package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "chatbook", cfg.ServiceName)
	assert.Equal(t, "chat.events", cfg.AMQPExchange)
	assert.Equal(t, 5, cfg.ShutdownTimeoutSec)
	assert.Empty(t, cfg.EnvFiles)
}

func TestLoadEnvFileAndOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("CHATBOOK_UNUSED=1\nAMQP_EXCHANGE=from-file\nDEBUG_ROUTES=true\nSHUTDOWN_TIMEOUT_SEC=9\n"), 0o600))
	t.Setenv("SHUTDOWN_TIMEOUT_SEC", "3")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.AMQPExchange)
	assert.True(t, cfg.DebugRoutes)
	assert.Equal(t, 3, cfg.ShutdownTimeoutSec)
	assert.Equal(t, []string{path}, cfg.EnvFiles)
}

func TestLoadInvalidLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "loud")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.ErrorIs(t, err, ErrInvalidLogLevel)
}

func TestValidateShutdownTimeout(t *testing.T) {
	cfg := &Config{LogLevel: "info", ShutdownTimeoutSec: 0}
	require.ErrorIs(t, cfg.Validate(), ErrInvalidShutdownTimeout)
}

func TestGetEnvAsIntFallback(t *testing.T) {
	t.Setenv("CHATBOOK_TEST_INT", "nope")
	src := source{file: map[string]string{}}
	assert.Equal(t, 7, src.getEnvAsInt("CHATBOOK_TEST_INT", 7))
}
