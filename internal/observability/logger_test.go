package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(LogConfig{Level: "info", Format: "json", Output: &buf})

	log.Info().Str("field", "make").Int("count", 2).Msg("diagnostic")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, ServiceName, entry["service"])
	assert.Equal(t, "make", entry["field"])
	assert.EqualValues(t, 2, entry["count"])
	assert.Equal(t, "diagnostic", entry["message"])
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(LogConfig{Level: "warn", Output: &buf})

	log.Info().Msg("dropped")
	assert.Zero(t, buf.Len())

	log.Error().Err(errors.New("boom")).Msg("kept")
	entry := decodeLine(t, &buf)
	assert.Equal(t, "boom", entry["error"])
}

func TestLogger_WithContextTraceID(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(LogConfig{Level: "debug", Output: &buf})

	ctx := ContextWithTraceID(context.Background(), "abc-123")
	assert.Equal(t, "abc-123", TraceIDFromContext(ctx))

	log.WithContext(ctx).WithOperation("advanced_search").Debug().Msg("hello")
	entry := decodeLine(t, &buf)
	assert.Equal(t, "abc-123", entry["trace_id"])
	assert.Equal(t, "advanced_search", entry["operation"])
}

func TestTraceIDFromContext_Missing(t *testing.T) {
	assert.Empty(t, TraceIDFromContext(context.Background()))
}
