package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Defaults without a file", func(t *testing.T) {
		// Given: no config file
		path := filepath.Join(t.TempDir(), "config.yml")

		// When: the config is loaded
		conf, err := Load(path)

		// Then: every field has its default
		require.NoError(t, err)
		assert.Equal(t, "info", conf.LogLevel)
		assert.Equal(t, "json", conf.LogFormat)
		assert.Equal(t, "5001", conf.TCPPort)
		assert.Empty(t, conf.HTTPPort)
		assert.Zero(t, conf.ReadTimeout)
		assert.Equal(t, 64, conf.OutboxSize)
		assert.Equal(t, 15, conf.Board.MaxSize)
		assert.Equal(t, "file", conf.Leaderboard.Backend)
		assert.Equal(t, "leaderboard.txt", conf.Leaderboard.Path)
		assert.Equal(t, 10, conf.Leaderboard.Top)
		assert.Equal(t, "localhost", conf.Redis.Host)
		assert.Equal(t, "disable", conf.Postgres.SSLMode)
	})

	t.Run("Values from the file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yml")
		content := `log-level: debug
log-format: pretty
tcp-port: "6001"
http-port: "9090"
read-timeout: 30s
board:
  max-size: 9
leaderboard:
  backend: sqlite
  sqlite-path: /tmp/lb.db
  top: 5
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		conf, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, "debug", conf.LogLevel)
		assert.Equal(t, "pretty", conf.LogFormat)
		assert.Equal(t, "6001", conf.TCPPort)
		assert.Equal(t, "9090", conf.HTTPPort)
		assert.Equal(t, 30*time.Second, conf.ReadTimeout)
		assert.Equal(t, 9, conf.Board.MaxSize)
		assert.Equal(t, "sqlite", conf.Leaderboard.Backend)
		assert.Equal(t, "/tmp/lb.db", conf.Leaderboard.SQLitePath)
		assert.Equal(t, 5, conf.Leaderboard.Top)
	})

	t.Run("Environment only", func(t *testing.T) {
		t.Setenv("TCP_PORT", "7001")
		t.Setenv("LEADERBOARD_BACKEND", "redis")

		conf, err := Load(filepath.Join(t.TempDir(), "absent.yml"))

		require.NoError(t, err)
		assert.Equal(t, "7001", conf.TCPPort)
		assert.Equal(t, "redis", conf.Leaderboard.Backend)
	})

	t.Run("Invalid values", func(t *testing.T) {
		cases := map[string]error{
			"leaderboard:\n  backend: mongo\n": ErrInvalidBackend,
			"log-format: xml\n":                ErrInvalidLogFormat,
			"outbox-size: -1\n":                ErrInvalidOutboxSize,
			"board:\n  max-size: 4\n":          ErrInvalidBoardSize,
		}

		for content, expected := range cases {
			path := filepath.Join(t.TempDir(), "config.yml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

			_, err := Load(path)

			require.ErrorIs(t, err, expected, content)
		}
	})

	t.Run("MustLoad panics on bad config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yml")
		require.NoError(t, os.WriteFile(path, []byte("log-format: xml\n"), 0o600))

		assert.Panics(t, func() { MustLoad(path) })
	})
}
