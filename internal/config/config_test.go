package config

import (
	"flag"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Equal(t, ":3000", cfg.Addr)
	assert.Equal(t, "gacha.db", cfg.DBPath)
	assert.Equal(t, 60*time.Minute, cfg.Cooldown)
	assert.Equal(t, 10, cfg.BatchSize)
	assert.Equal(t, 20, cfg.LeaderboardSize)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("GACHA_DB_PATH", "/data/rank.db")
	t.Setenv("GACHA_COOLDOWN", "30m")
	t.Setenv("GACHA_BATCH_SIZE", "5")
	t.Setenv("GACHA_RANK_CHANNEL", "ranking")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "/data/rank.db", cfg.DBPath)
	assert.Equal(t, 30*time.Minute, cfg.Cooldown)
	assert.Equal(t, 5, cfg.BatchSize)
	assert.Equal(t, "ranking", cfg.RankChannelID)
}

func TestLoad_PortEnv(t *testing.T) {
	t.Setenv("PORT", "8080")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("GACHA_DB_PATH", "/env.db")
	t.Setenv("GACHA_LOG_LEVEL", "warn")

	cfg, err := Load([]string{"-db", "/flag.db", "-cooldown", "90s", "-nokeyboard"})
	require.NoError(t, err)

	assert.Equal(t, "/flag.db", cfg.DBPath)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 90*time.Second, cfg.Cooldown)
	assert.True(t, cfg.NoKeyboard)
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("GACHA_BATCH_SIZE", "ten")

	_, err := Load(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env")
}

func TestLoad_UnknownFlag(t *testing.T) {
	_, err := Load([]string{"-bogus"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse flags")
}

func TestLoad_HelpFlag(t *testing.T) {
	_, err := Load([]string{"-h"})
	require.ErrorIs(t, err, flag.ErrHelp)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"zero cooldown", func(c *Config) { c.Cooldown = 0 }, "cooldown must be positive"},
		{"negative batch", func(c *Config) { c.BatchSize = -1 }, "batch size must be positive"},
		{"zero leaderboard", func(c *Config) { c.LeaderboardSize = 0 }, "leaderboard size must be positive"},
		{"empty db", func(c *Config) { c.DBPath = "" }, "db path must not be empty"},
		{"empty addr", func(c *Config) { c.Addr = "" }, "addr must not be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.LoadDefaults()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestEnabledHelpers(t *testing.T) {
	cfg := &Config{}
	assert.False(t, cfg.SurfaceEnabled())
	assert.False(t, cfg.S3Enabled())

	cfg.SurfaceURL = "https://surface.example"
	cfg.SurfaceToken = "tok"
	cfg.S3Bucket = "archives"
	assert.True(t, cfg.SurfaceEnabled())
	assert.True(t, cfg.S3Enabled())
}
