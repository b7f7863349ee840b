package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	t.Run("Defaults are applied", func(t *testing.T) {
		// Given: a config file that only sets the log level
		path := writeConfig(t, "log-level: debug\n")

		// When: loading it
		conf, err := Load(path)

		// Then: everything else falls back to defaults
		require.NoError(t, err)
		assert.Equal(t, "debug", conf.LogLevel)
		assert.Equal(t, "9090", conf.HTTPPort)
		assert.Equal(t, "9091", conf.SocketPort)
		assert.Equal(t, StorageRedis, conf.Storage)
		assert.Equal(t, 24*time.Hour, conf.SessionTTL)
		assert.Equal(t, 500*time.Millisecond, conf.AI.Delay)
		assert.Equal(t, "O", conf.AI.Mark)
		assert.Equal(t, "localhost:6379", conf.Redis.GetRedisAddr())
	})

	t.Run("File values override defaults", func(t *testing.T) {
		path := writeConfig(t, `
storage: memory
redis:
  host: cache
  port: "6380"
ai:
  delay: 1s
  mark: X
`)

		conf, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, StorageMemory, conf.Storage)
		assert.Equal(t, "cache:6380", conf.Redis.GetRedisAddr())
		assert.Equal(t, time.Second, conf.AI.Delay)
		assert.Equal(t, "X", conf.AI.Mark)
	})

	t.Run("Unknown storage is rejected", func(t *testing.T) {
		path := writeConfig(t, "storage: postgres\n")

		_, err := Load(path)

		assert.ErrorContains(t, err, "unknown storage")
	})

	t.Run("Invalid AI mark is rejected", func(t *testing.T) {
		path := writeConfig(t, "ai:\n  mark: Z\n")

		_, err := Load(path)

		assert.ErrorContains(t, err, "ai mark")
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))

		require.Error(t, err)
		assert.Panics(t, func() { MustLoad(filepath.Join(t.TempDir(), "missing.yml")) })
	})
}
