// Package config loads runtime settings from defaults, the environment and
// command-line flags, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds runtime settings for the gacharank server.
type Config struct {
	Addr          string `env:"GACHA_ADDR"`
	Port          string `env:"PORT"`
	DBPath        string `env:"GACHA_DB_PATH"`
	AdminPassword string `env:"GACHA_ADMIN_PASSWORD"`
	TokenSecret   string `env:"GACHA_TOKEN_SECRET"`
	BaseURL       string `env:"GACHA_BASE_URL"`

	LogLevel  string `env:"GACHA_LOG_LEVEL"`
	LogFormat string `env:"GACHA_LOG_FORMAT"`

	Cooldown        time.Duration `env:"GACHA_COOLDOWN"`
	BatchSize       int           `env:"GACHA_BATCH_SIZE"`
	LeaderboardSize int           `env:"GACHA_LEADERBOARD_SIZE"`

	SurfaceURL       string `env:"GACHA_SURFACE_URL"`
	SurfaceToken     string `env:"GACHA_SURFACE_TOKEN"`
	RankChannelID    string `env:"GACHA_RANK_CHANNEL"`
	ArchiveChannelID string `env:"GACHA_ARCHIVE_CHANNEL"`

	CatalogSeed string `env:"GACHA_CATALOG_SEED"`

	S3Bucket    string `env:"GACHA_S3_BUCKET"`
	S3Region    string `env:"GACHA_S3_REGION"`
	S3Endpoint  string `env:"GACHA_S3_ENDPOINT"`
	S3AccessKey string `env:"GACHA_S3_ACCESS_KEY"`
	S3SecretKey string `env:"GACHA_S3_SECRET_KEY"`

	NoKeyboard  bool
	ShowVersion bool
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.Addr = ":3000"
	c.DBPath = "gacha.db"
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.Cooldown = 60 * time.Minute
	c.BatchSize = 10
	c.LeaderboardSize = 20
	c.S3Region = "us-east-1"
}

// ParseEnv overlays values from environment variables onto target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load builds a Config from defaults, then the environment, then args.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	// PORT is honored for hosts that only hand out a port number
	if cfg.Port != "" {
		cfg.Addr = ":" + cfg.Port
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("db path must not be empty"))
	}
	if c.Cooldown <= 0 {
		errs = append(errs, fmt.Errorf("cooldown must be positive, got %s", c.Cooldown))
	}
	if c.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("batch size must be positive, got %d", c.BatchSize))
	}
	if c.LeaderboardSize <= 0 {
		errs = append(errs, fmt.Errorf("leaderboard size must be positive, got %d", c.LeaderboardSize))
	}
	return errors.Join(errs...)
}

// SurfaceEnabled reports whether an external display surface is configured
func (c *Config) SurfaceEnabled() bool {
	return c.SurfaceURL != "" && c.SurfaceToken != ""
}

// S3Enabled reports whether the S3 archive sink is configured
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != ""
}
