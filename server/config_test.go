package server_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastigo-dev/fastigo/server"
)

func TestConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := server.DefaultConfig()
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
		assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
		assert.Equal(t, 1<<20, cfg.MaxHeaderBytes)
	})

	t.Run("load_reads_environment", func(t *testing.T) {
		t.Setenv("SERVER_ADDR", ":9091")
		t.Setenv("SERVER_READ_TIMEOUT", "5s")

		cfg, err := server.LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, ":9091", cfg.Addr)
		assert.Equal(t, 5*time.Second, cfg.ReadTimeout)
		assert.Equal(t, 60*time.Second, cfg.IdleTimeout, "unset vars keep their defaults")
	})

	t.Run("new_from_config_requires_addr", func(t *testing.T) {
		_, err := server.NewFromConfig(server.Config{})
		assert.ErrorIs(t, err, server.ErrMissingAddress)
	})

	t.Run("new_from_config_builds_server", func(t *testing.T) {
		srv, err := server.NewFromConfig(server.DefaultConfig())
		require.NoError(t, err)
		assert.NotNil(t, srv)
	})
}
