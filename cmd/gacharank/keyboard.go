package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/abrezinsky/gacharank/internal/logger"
)

const republishTimeout = 30 * time.Second

// republisher is the part of the app the console can trigger
type republisher interface {
	Republish(ctx context.Context) error
}

// console maps single keypresses to operator actions
type console struct {
	out      io.Writer
	log      *logger.SlogLogger
	app      republisher
	adminURL string
	open     func(string) error
	quit     func()
}

// start puts fd into raw mode and reads keys until quit. The returned func
// restores the terminal.
func (c *console) start(fd int) (func(), error) {
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	restore := func() { _ = term.Restore(fd, oldState) }

	go c.listen(os.Stdin)
	return restore, nil
}

func (c *console) listen(r io.Reader) {
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if err != nil {
			return
		}
		if n == 0 {
			continue
		}
		if !c.handleKey(buf[0]) {
			return
		}
	}
}

// handleKey runs the action bound to key and reports whether to keep reading
func (c *console) handleKey(key byte) bool {
	switch key {
	case 'a', 'A':
		accent.Fprintln(c.out, "Opening admin page in browser...")
		if err := c.open(c.adminURL); err != nil {
			failure.Fprintf(c.out, "Error opening browser: %v\n", err)
		}
	case 'h', 'H':
		if c.log.IsHTTPLoggingEnabled() {
			c.log.DisableHTTPLogging()
			notice.Fprintln(c.out, "HTTP logging disabled")
		} else {
			c.log.EnableHTTPLogging()
			success.Fprintln(c.out, "HTTP logging enabled")
		}
	case 'l', 'L':
		c.cycleLogLevel()
	case 'p', 'P':
		ctx, cancel := context.WithTimeout(context.Background(), republishTimeout)
		defer cancel()
		if err := c.app.Republish(ctx); err != nil {
			failure.Fprintf(c.out, "Republish failed: %v\n", err)
		} else {
			success.Fprintln(c.out, "Leaderboard republished")
		}
	case 'q', 'Q', 0x03: // 0x03 is Ctrl+C, which raw mode delivers as a key
		notice.Fprintln(c.out, "Shutting down server...")
		c.quit()
		return false
	case '?':
		c.printHelp()
	}
	return true
}

// cycleLogLevel cycles through debug -> info -> warn -> error
func (c *console) cycleLogLevel() {
	var next string
	switch c.log.GetLevel().String() {
	case "DEBUG":
		next = "info"
	case "INFO":
		next = "warn"
	case "WARN":
		next = "error"
	case "ERROR":
		next = "debug"
	default:
		next = "info"
	}

	c.log.SetLevel(logger.ParseLevel(next))
	success.Fprint(c.out, "Log level: ")
	notice.Fprintln(c.out, next)
}

// printHelp displays all available keyboard shortcuts
func (c *console) printHelp() {
	fmt.Fprintln(c.out)
	heading.Fprintln(c.out, "  Keyboard Shortcuts:")
	shortcuts := []struct{ key, desc string }{
		{"a", "Open admin page in browser"},
		{"h", "Toggle HTTP request logging"},
		{"l", "Cycle log level (debug → info → warn → error)"},
		{"p", "Republish the leaderboard"},
		{"q", "Quit server"},
		{"?", "Show this help"},
	}
	for _, s := range shortcuts {
		fmt.Fprint(c.out, "    ")
		accent.Fprint(c.out, s.key)
		fmt.Fprintf(c.out, "      - %s\n", s.desc)
	}
	fmt.Fprintln(c.out)
}
