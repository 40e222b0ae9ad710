package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")

	c, err := LoadConfigFrom(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":8080", c.Port)
	assert.Equal(t, 5, c.DefaultPrecision)
	assert.Equal(t, 6, c.StorePrecision)
	assert.Equal(t, 10*time.Second, c.CacheFlushInterval)
	assert.Equal(t, time.Minute, c.StoreFlushInterval)
}

func TestLoadConfigFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("APP_ENV", "staging")
	content := "PORT=:9000\nDEFAULT_PRECISION=6\nCACHE_FLUSH_INTERVAL=2s\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.staging"), []byte(content), 0o644))
	t.Setenv("PORT", ":9100")

	c, err := LoadConfigFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, ":9100", c.Port)
	assert.Equal(t, 6, c.DefaultPrecision)
	assert.Equal(t, 2*time.Second, c.CacheFlushInterval)
}

func TestLoadConfigRejectsBadPrecision(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("DEFAULT_PRECISION", "42")

	_, err := LoadConfigFrom(t.TempDir())
	assert.ErrorContains(t, err, "DEFAULT_PRECISION")
}
