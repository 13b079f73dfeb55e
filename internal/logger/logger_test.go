package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONIsDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Writer: &buf, Level: slog.LevelInfo})
	logger.Info("meal request failed", slog.String("op", "random"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "meal request failed", record["msg"])
	assert.Equal(t, "INFO", record["level"])
	assert.Equal(t, "random", record["op"])
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Writer: &buf, Level: slog.LevelWarn})
	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestPrettyHandler_PlainOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Writer: &buf, Format: "pretty", Level: slog.LevelDebug})
	logger.With(slog.String("slot", "random_meal")).
		WithGroup("req").
		Debug("slot subscribed", slog.Duration("elapsed", 1500*time.Millisecond), slog.String("name", "Honey Teriyaki Salmon"))

	out := buf.String()
	assert.Contains(t, out, "DBG slot subscribed")
	assert.Contains(t, out, " slot=random_meal")
	assert.Contains(t, out, "req.elapsed=1.5s")
	assert.Contains(t, out, `req.name="Honey Teriyaki Salmon"`)
	assert.NotContains(t, out, "\033[")
}

func TestPrettyHandler_Color(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Writer: &buf, Format: "pretty", Color: true})
	logger.Error("boom")

	assert.Contains(t, buf.String(), colorRed+"ERR"+colorReset)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" INFO ", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"loud", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestOpenFile_CreatesDirectoryAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pantry.log")

	f, err := OpenFile(path)
	require.NoError(t, err)
	_, err = f.WriteString("one\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	f, err = OpenFile(path)
	require.NoError(t, err)
	_, err = f.WriteString("two\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(data))
}
