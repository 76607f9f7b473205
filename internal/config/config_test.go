package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, 3666, cfg.Port)
	assert.Equal(t, 2*time.Hour, cfg.TokenLifetime)
	assert.Equal(t, time.Minute, cfg.PurgeInterval)
	assert.False(t, cfg.Dump)
}

func TestLoadFlagsOverrideDefaults(t *testing.T) {
	cfg, err := Load([]string{"--port=9000", "--token-lifetime=1h", "--purge-interval=30s", "--dump"})
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, time.Hour, cfg.TokenLifetime)
	assert.Equal(t, 30*time.Second, cfg.PurgeInterval)
	assert.True(t, cfg.Dump)
}

func TestLoadRejectsOutOfRangePort(t *testing.T) {
	_, err := Load([]string{"--port=0"})
	assert.Error(t, err)

	_, err = Load([]string{"--port=70000"})
	assert.Error(t, err)
}

func TestLoadRejectsOutOfRangeLifetime(t *testing.T) {
	_, err := Load([]string{"--token-lifetime=1m"})
	assert.Error(t, err)

	_, err = Load([]string{"--token-lifetime=100h"})
	assert.Error(t, err)
}

func TestLoadRejectsOutOfRangePurgeInterval(t *testing.T) {
	_, err := Load([]string{"--purge-interval=100ms"})
	assert.Error(t, err)

	_, err = Load([]string{"--purge-interval=120m"})
	assert.Error(t, err)
}

func TestLoadOptionalDomainFlagsDefaultOff(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.False(t, cfg.SealEnabled)
	assert.Empty(t, cfg.RedisAddr)
	assert.Empty(t, cfg.VaultAddr)
	assert.Equal(t, "tokserver", cfg.DigestIssuer)
}

func TestLoadOptionalDomainFlagsOverride(t *testing.T) {
	cfg, err := Load([]string{"--seal-enabled", "--redis-addr=localhost:6379", "--digest-issuer=custom"})
	require.NoError(t, err)

	assert.True(t, cfg.SealEnabled)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "custom", cfg.DigestIssuer)
}
