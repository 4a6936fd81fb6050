package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, 10*time.Minute, cfg.Redis.TTL)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Kubernetes.Enabled)
	assert.Equal(t, "default", cfg.Kubernetes.DefaultNS)
	assert.Equal(t, "json", cfg.Logger.Format)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STORAGE_ROOT", "/data/layout")
	t.Setenv("UPSTREAM_ENABLED", "true")
	t.Setenv("UPSTREAM_TIMEOUT", "not-a-duration")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_TTL", "1m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/data/layout", cfg.Storage.Root)
	assert.True(t, cfg.Upstream.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Upstream.Timeout)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, time.Minute, cfg.Redis.TTL)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "reg", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/reg?sslmode=disable", d.DSN())
}
