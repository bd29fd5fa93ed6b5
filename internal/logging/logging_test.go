// ABOUTME: Tests for logger construction and the color handler
// ABOUTME: Color is disabled so assertions see plain text

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/genia/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}

func TestSetup_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup(config.LoggingConfig{Level: "info", Format: "json"}, &buf)

	logger.Debug("hidden")
	logger.With("component", "session").Info("answer received", "sources", 2)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "answer received", rec["msg"])
	assert.Equal(t, "session", rec["component"])
	assert.EqualValues(t, 2, rec["sources"])
}

func TestColorHandler_Text(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var buf bytes.Buffer
	logger := Setup(config.LoggingConfig{Level: "debug"}, &buf)

	logger.With("component", "events").WithGroup("conn").Warn("channel closed", "id", 3)

	line := buf.String()
	assert.Contains(t, line, "WRN channel closed")
	assert.Contains(t, line, " component=events")
	assert.Contains(t, line, " conn.id=3")
	assert.Equal(t, byte('\n'), line[len(line)-1])
}

func TestColorHandler_FiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewColorHandler(&buf, slog.LevelWarn))

	logger.Info("quiet")
	assert.Empty(t, buf.String())
}
