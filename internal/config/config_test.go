package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "https://ballarat.pulsesoftware.com/Pulse/jobs", cfg.Tenant.ListingURL)
	assert.Equal(t, 15, cfg.Render.MinCardThreshold)
	assert.Equal(t, 60*time.Second, cfg.Render.HydrationTimeout)
	assert.Equal(t, 20, cfg.Render.ScrollPasses)
	assert.Equal(t, 20, cfg.Detail.MaxJobs)
	assert.Equal(t, 30*24*time.Hour, cfg.Feed.Window)
	assert.Equal(t, "docs/pulse_fixture.json", cfg.Fallback.FixturePath)
	require.NotNil(t, cfg.Render.Headless)
	assert.True(t, *cfg.Render.Headless)
	assert.False(t, cfg.Telegram.Enabled())
}

func TestLoad_YAMLValues(t *testing.T) {
	path := writeConfig(t, `
tenant:
  id: geelong
  listing_url: https://geelong.pulsesoftware.com/Pulse/jobs
render:
  min_card_threshold: 5
  hydration_timeout: 10s
  headless: false
retention:
  prune_after: 2160h
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "geelong", cfg.Tenant.ID)
	assert.Equal(t, 5, cfg.Render.MinCardThreshold)
	assert.Equal(t, 10*time.Second, cfg.Render.HydrationTimeout)
	assert.False(t, *cfg.Render.Headless)
	assert.Equal(t, 90*24*time.Hour, cfg.Retention.PruneAfter)
	// untouched fields still get defaults
	assert.Equal(t, "City of Ballarat", cfg.Tenant.Name)
}

func TestLoad_ExplicitZerosAreKept(t *testing.T) {
	path := writeConfig(t, `
render:
  min_card_threshold: 0
  scroll_passes: 0
detail:
  max_jobs: 0
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Render.MinCardThreshold)
	assert.Equal(t, 0, cfg.Render.ScrollPasses)
	assert.Equal(t, 0, cfg.Detail.MaxJobs)
	// siblings not in the file keep their defaults
	assert.Equal(t, 60*time.Second, cfg.Render.HydrationTimeout)
	assert.Equal(t, 1.0, cfg.Detail.RequestsPerSecond)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PULSE_OUTPUT_DIR", "/tmp/out")
	t.Setenv("PULSE_DISABLE_FALLBACK", "true")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	cfg, err := Load(writeConfig(t, "output:\n  dir: docs\n"))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/out", cfg.Output.Dir)
	assert.True(t, cfg.Fallback.Disabled)
	assert.True(t, cfg.Telegram.Enabled())
	assert.Equal(t, int64(42), cfg.Telegram.ChatID)
}

func TestLoad_InvalidInputs(t *testing.T) {
	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "render: [unterminated"))
		assert.Error(t, err)
	})
	t.Run("bad chat id", func(t *testing.T) {
		t.Setenv("TELEGRAM_CHAT_ID", "not-a-number")
		_, err := Load(writeConfig(t, ""))
		assert.Error(t, err)
	})
	t.Run("zero detail rate", func(t *testing.T) {
		_, err := Load(writeConfig(t, "detail:\n  requests_per_second: 0\n"))
		assert.ErrorContains(t, err, "detail.requests_per_second")
	})
	t.Run("negative prune", func(t *testing.T) {
		_, err := Load(writeConfig(t, "retention:\n  prune_after: -1h\n"))
		assert.ErrorContains(t, err, "retention.prune_after")
	})
}
