// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
)

// secretKeys are log attributes whose values never reach the log.
var secretKeys = map[string]bool{
	"answer":       true,
	"encrypted":    true,
	"seed":         true,
	"sweep_secret": true,
}

// setupLogger installs the global slog logger. Logs go to stderr so that
// command output on stdout stays machine-readable.
func setupLogger(level, format string) {
	slog.SetDefault(slog.New(newLogHandler(os.Stderr, level, format)))
}

func newLogHandler(w io.Writer, level, format string) slog.Handler {
	lvl := parseLevel(level)
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl, ReplaceAttr: redact})
	}
	return tint.NewHandler(w, &tint.Options{Level: lvl, ReplaceAttr: redact, NoColor: !isTerminal(w)})
}

// parseLevel accepts slog level names in any case and falls back to info.
func parseLevel(level string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if secretKeys[a.Key] {
		return slog.String(a.Key, "[redacted]")
	}
	return a
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
