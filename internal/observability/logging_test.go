package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestTraceIDFromContext(t *testing.T) {
	assert.Empty(t, TraceIDFromContext(context.Background()))

	ctx := WithTraceID(context.Background(), "req-1")
	assert.Equal(t, "req-1", TraceIDFromContext(ctx))

	tid, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanCtx := trace.ContextWithSpanContext(context.Background(),
		trace.NewSpanContext(trace.SpanContextConfig{TraceID: tid}))
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", TraceIDFromContext(spanCtx))

	// A stored id wins over the span's.
	assert.Equal(t, "req-2", TraceIDFromContext(WithTraceID(spanCtx, "req-2")))
}

func TestLogger_ComponentAndTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "debug", Format: "json"})
	logger.SetOutput(&buf)

	entry := WithTrace(logger.ForComponent("service"), WithTraceID(context.Background(), "abc"))
	entry.Info("Service request sent")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "terrama2::service", line["target"])
	assert.Equal(t, "abc", line["trace_id"])
	assert.Equal(t, "Service request sent", line["message"])
	assert.Equal(t, "info", line["level"])
}

func TestLogger_SetLevelString(t *testing.T) {
	logger := NopLogger()
	require.NoError(t, logger.SetLevelString("warn"))
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())

	assert.Error(t, logger.SetLevelString("chatty"))
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
}
