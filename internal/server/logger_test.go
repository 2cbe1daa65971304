// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestNewLogHandler_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newLogHandler(&buf, "info", "json"))

	logger.Info("nominee_registered", "depositor", "GABC", "answer", "rex")
	logger.Debug("hidden")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "nominee_registered", entry["msg"])
	assert.Equal(t, "GABC", entry["depositor"])
	assert.Equal(t, "[redacted]", entry["answer"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNewLogHandler_Text(t *testing.T) {
	var buf bytes.Buffer
	handler := newLogHandler(&buf, "debug", "text")
	logger := slog.New(handler)

	logger.Debug("monitor_pass_complete", "sweep_secret", "SABC")

	assert.True(t, handler.Enabled(context.Background(), slog.LevelDebug))
	assert.Contains(t, buf.String(), "monitor_pass_complete")
	assert.Contains(t, buf.String(), "[redacted]")
	assert.NotContains(t, buf.String(), "SABC")
	assert.NotContains(t, buf.String(), "\x1b[")
}
