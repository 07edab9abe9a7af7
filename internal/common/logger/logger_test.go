package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/mdobak/go-xerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" warning "))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func TestErrorWithTrace(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "info")

	l.Error("save failed", slog.Any("error", xerrors.New(errors.New("disk full"))))

	line := decodeLine(t, &buf)
	assert.Equal(t, "save failed", line["msg"])

	errAttr, ok := line["error"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, errAttr["msg"], "disk full")

	trace, ok := errAttr["trace"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, trace)
	var sources []string
	for _, f := range trace {
		sources = append(sources, f.(map[string]any)["source"].(string))
	}
	assert.Contains(t, sources, "logger/logger_test.go")
}

func TestPlainErrorHasNoTrace(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "info").Warn("oops", "error", errors.New("plain"))

	errAttr := decodeLine(t, &buf)["error"].(map[string]any)
	assert.Equal(t, "plain", errAttr["msg"])
	assert.NotContains(t, errAttr, "trace")
}

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn")
	l.Info("hidden")
	assert.Zero(t, buf.Len())
	l.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}
