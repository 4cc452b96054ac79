package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/abrezinsky/gacharank/internal/app"
	"github.com/abrezinsky/gacharank/internal/auth"
	"github.com/abrezinsky/gacharank/internal/browser"
	"github.com/abrezinsky/gacharank/internal/config"
	"github.com/abrezinsky/gacharank/internal/logger"
	"github.com/abrezinsky/gacharank/pkg/surface"
	"github.com/abrezinsky/gacharank/web"
)

var (
	version = "dev"
)

const shutdownTimeout = 10 * time.Second

var (
	accent  = color.New(color.FgCyan)
	notice  = color.New(color.FgYellow)
	success = color.New(color.FgGreen)
	failure = color.New(color.FgRed)
	heading = color.New(color.Bold, color.FgGreen)
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		failure.Fprintf(os.Stderr, "gacharank: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if cfg.ShowVersion {
		fmt.Printf("gacharank %s\n", version)
		return nil
	}

	// Raw mode drops the terminal's newline translation, so console and log
	// output are routed through crlfWriter while shortcuts are active
	interactive := !cfg.NoKeyboard && term.IsTerminal(int(os.Stdin.Fd()))
	var out io.Writer = os.Stdout
	if interactive {
		out = crlfWriter{w: color.Output}
	}

	printBanner(out)

	// Setup admin authentication
	password := cfg.AdminPassword
	if password == "" {
		password = auth.GeneratePassword()
	}
	adminAuth, err := auth.New(password)
	if err != nil {
		return fmt.Errorf("failed to set up admin auth: %w", err)
	}

	appLog := logger.NewWithOptions(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		Output: out,
	})

	var client surface.Client
	if cfg.SurfaceEnabled() {
		client = surface.NewHTTPClient(cfg.SurfaceURL, cfg.SurfaceToken, appLog)
	} else {
		appLog.Warn("Display surface not configured, leaderboard is only served over HTTP")
	}

	a, err := app.New(appLog, cfg, client, web.GetTemplatesFS(), web.GetStaticFS(), adminAuth)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer a.Close()

	appLog.Info("Admin password", "password", password)
	appLog.Info("Archive sinks", "sinks", strings.Join(a.ArchiveSinks(), ","))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- a.Run(cfg.Addr)
	}()

	if interactive {
		c := &console{
			out:      out,
			log:      appLog,
			app:      a,
			adminURL: browser.LocalURL(cfg.Addr, "/admin"),
			open:     browser.Open,
			quit:     stop,
		}
		restore, err := c.start(int(os.Stdin.Fd()))
		if err != nil {
			appLog.Warn("Keyboard shortcuts unavailable", "error", err)
		} else {
			defer restore()
			c.printHelp()
		}
	} else if cfg.NoKeyboard {
		notice.Fprintln(out, "Keyboard shortcuts disabled")
	}

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	appLog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-serverErr
}

func printBanner(w io.Writer) {
	logo := []string{
		`   ____            _           ____             _    `,
		`  / ___| __ _  ___| |__   __ _|  _ \ __ _ _ __ | | __`,
		` | |  _ / _' |/ __| '_ \ / _' | |_) / _' | '_ \| |/ /`,
		` | |_| | (_| | (__| | | | (_| |  _ < (_| | | | |   < `,
		`  \____|\__,_|\___|_| |_|\__,_|_| \_\__,_|_| |_|_|\_\`,
	}
	border := strings.Repeat("═", 56)

	fmt.Fprintln(w)
	accent.Fprintf(w, "  ╔%s╗\n", border)
	for _, line := range logo {
		accent.Fprint(w, "  ║ ")
		notice.Fprintf(w, "%-54s", line)
		accent.Fprintln(w, " ║")
	}
	accent.Fprintf(w, "  ╚%s╝\n", border)
	fmt.Fprintf(w, "  %s\n\n", version)
}

// crlfWriter expands bare newlines for a terminal in raw mode
type crlfWriter struct {
	w io.Writer
}

func (c crlfWriter) Write(p []byte) (int, error) {
	fixed := strings.ReplaceAll(strings.ReplaceAll(string(p), "\r\n", "\n"), "\n", "\r\n")
	if _, err := io.WriteString(c.w, fixed); err != nil {
		return 0, err
	}
	return len(p), nil
}
