package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

func TestLoggerIsStoredInContext(t *testing.T) {
	is := is.New(t)
	buf := &bytes.Buffer{}

	ctx := NewContextWithLogger(context.Background(), zerolog.New(buf))
	logger := GetLoggerFromContext(ctx)
	logger.Info().Msg("hello")

	is.True(strings.Contains(buf.String(), "hello"))
}

func TestTraceIDIsAddedWhenSpanHasOne(t *testing.T) {
	is := is.New(t)
	buf := &bytes.Buffer{}

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	span := trace.SpanFromContext(trace.ContextWithSpanContext(context.Background(), sc))

	id, ctx, logger := AddTraceIDToLoggerAndStoreInContext(span, zerolog.New(buf), context.Background())
	logger.Info().Msg("traced")

	is.Equal(id, "4bf92f3577b34da6a3ce929d0e0e4736")
	is.True(strings.Contains(buf.String(), `"traceID":"4bf92f3577b34da6a3ce929d0e0e4736"`))

	fromCtx := GetLoggerFromContext(ctx)
	fromCtx.Info().Msg("again")
	is.Equal(strings.Count(buf.String(), "traceID"), 2)
}
