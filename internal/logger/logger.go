// Package logger configures structured logging and crash capture for the CLI.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Log formats accepted by Setup.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Setup installs the default slog logger writing to w. Verbose lowers the
// level to debug.
func Setup(w io.Writer, format string, verbose bool) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatText:
		h = slog.NewTextHandler(w, opts)
	case FormatJSON:
		h = slog.NewJSONHandler(w, opts)
	default:
		return fmt.Errorf("unknown log format %q (supported: text, json)", format)
	}
	slog.SetDefault(slog.New(h))
	return nil
}
