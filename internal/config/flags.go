package config

import (
	"flag"
	"fmt"
	"io"
	"os"
)

const usage = `gacharank - gacha draw and point ranking server

Usage:
  gacharank [options]

Options:
  -addr string       HTTP listen address (default ":3000")
  -db string         SQLite database path (default "gacha.db")
  -adminpw string    Admin password (auto-generated if not set)
  -loglevel string   Log level: debug, info, warn, error (default "info")
  -logformat string  Log format: text, json (default "text")
  -cooldown dur      Minimum interval between draws (default 60m)
  -catalog string    YAML catalog imported at startup
  -nokeyboard        Disable keyboard shortcuts
  -version           Show version and exit

Environment variables (GACHA_*) are read first; flags override them.
`

// parseFlags overlays command-line flags onto config.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("gacharank", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }

	fs.StringVar(&config.Addr, "addr", config.Addr, "HTTP listen address")
	fs.StringVar(&config.DBPath, "db", config.DBPath, "SQLite database path")
	fs.StringVar(&config.AdminPassword, "adminpw", config.AdminPassword, "admin password")
	fs.StringVar(&config.LogLevel, "loglevel", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "logformat", config.LogFormat, "log format")
	fs.DurationVar(&config.Cooldown, "cooldown", config.Cooldown, "draw cooldown")
	fs.StringVar(&config.CatalogSeed, "catalog", config.CatalogSeed, "YAML catalog seed file")
	fs.BoolVar(&config.NoKeyboard, "nokeyboard", config.NoKeyboard, "disable keyboard shortcuts")
	fs.BoolVar(&config.ShowVersion, "version", config.ShowVersion, "show version and exit")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			fs.Usage()
		}
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}
