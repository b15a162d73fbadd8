package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "wallet_tracker", cfg.Database.Postgres.Database)
	assert.Equal(t, 10*time.Minute, cfg.Sync.Interval)
	assert.Equal(t, 100*time.Millisecond, cfg.Sync.PageDelay)
	assert.Equal(t, 300*time.Millisecond, cfg.Sync.PairDelay)
	assert.Equal(t, 200, cfg.Sync.MaxPages)
	assert.Equal(t, 1000, cfg.Sync.MaxCountPerPage)
	assert.Equal(t, 30*time.Minute, cfg.Sync.StaleRunTimeout)
	assert.True(t, cfg.Sync.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Tracker.Interval)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SYNC_MAX_PAGES", "50")
	t.Setenv("SYNC_PAGE_DELAY", "250ms")
	t.Setenv("SYNC_ENABLED", "false")
	t.Setenv("PROVIDER_API_KEY", "test-key")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 50, cfg.Sync.MaxPages)
	assert.Equal(t, 250*time.Millisecond, cfg.Sync.PageDelay)
	assert.False(t, cfg.Sync.Enabled)
	assert.Equal(t, "test-key", cfg.Provider.APIKey)
}

func TestLoadConfigIgnoresMalformedValues(t *testing.T) {
	t.Setenv("SYNC_MAX_PAGES", "not-a-number")
	t.Setenv("SYNC_INTERVAL", "soon")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 200, cfg.Sync.MaxPages)
	assert.Equal(t, 10*time.Minute, cfg.Sync.Interval)
}
