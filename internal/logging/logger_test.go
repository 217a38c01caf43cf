package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("text output", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(Config{Level: "info", Output: &buf})

		logger.Info("task created", "task_id", 7)
		assert.Contains(t, buf.String(), "task created")
		assert.Contains(t, buf.String(), "task_id=7")
	})

	t.Run("json output with service and request id", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(Config{Level: "debug", Format: FormatJSON, Output: &buf, Service: "todo-api"})

		ctx := WithRequestID(context.Background(), "req-1")
		logger.With("component", "api").DebugContext(ctx, "handled")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "handled", entry["msg"])
		assert.Equal(t, "todo-api", entry["service"])
		assert.Equal(t, "api", entry["component"])
		assert.Equal(t, "req-1", entry[RequestIDKey])
	})

	t.Run("level filtering", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(Config{Level: "warn", Output: &buf})

		logger.Info("quiet")
		logger.Warn("loud")
		assert.NotContains(t, buf.String(), "quiet")
		assert.Contains(t, buf.String(), "loud")
	})
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestWithRequestID(t *testing.T) {
	assert.Equal(t, "", RequestID(context.Background()))

	ctx := WithRequestID(context.Background(), "")
	_, err := uuid.Parse(RequestID(ctx))
	assert.NoError(t, err)

	ctx = WithRequestID(context.Background(), "fixed")
	assert.Equal(t, "fixed", RequestID(ctx))
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
	logger.Error("dropped")
}
