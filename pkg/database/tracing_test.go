package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func installExporter(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		tp.Shutdown(context.Background()) //nolint:errcheck
		otel.SetTracerProvider(prev)
	})

	return exporter
}

func spanAttrs(s tracetest.SpanStub) map[string]string {
	attrs := make(map[string]string, len(s.Attributes))
	for _, a := range s.Attributes {
		attrs[string(a.Key)] = a.Value.Emit()
	}
	return attrs
}

func TestTraceQuery_RecordsOperationAttributes(t *testing.T) {
	exporter := installExporter(t)

	const stmt = "SELECT id, title, slug FROM experiences WHERE id = $1"
	_, end := TraceQuery(context.Background(), "GetExperience", stmt)
	end(nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	span := spans[0]
	assert.Equal(t, "db.GetExperience", span.Name)
	assert.Equal(t, codes.Unset, span.Status.Code)

	attrs := spanAttrs(span)
	assert.Equal(t, "postgresql", attrs["db.system"])
	assert.Equal(t, "GetExperience", attrs["db.operation"])
	assert.Equal(t, stmt, attrs["db.statement"])
}

func TestTraceQuery_ErrorSetsSpanStatus(t *testing.T) {
	exporter := installExporter(t)

	_, end := TraceQuery(context.Background(), "UpdateBooking", "UPDATE bookings SET status = $1 WHERE id = $2")
	end(errors.New("connection refused"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.NotEmpty(t, spans[0].Events, "the error should be recorded as a span event")
}

func TestTraceQuery_ChildOfActiveSpan(t *testing.T) {
	exporter := installExporter(t)

	ctx, parent := otel.Tracer("roamio-test").Start(context.Background(), "SubmitReview")
	_, end := TraceQuery(ctx, "InsertReview", "INSERT INTO reviews ...")
	end(nil)
	parent.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, spans[1].SpanContext.TraceID(), spans[0].SpanContext.TraceID(),
		"query span should stay in the request's trace")
}

func slowQueryLog(t *testing.T, threshold time.Duration, queryErr error) string {
	t.Helper()
	installExporter(t)

	var buf bytes.Buffer
	SetSlowQueryLogging(threshold, slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { SetSlowQueryLogging(0, nil) })

	_, end := TraceQuery(context.Background(), "ListBookings", "SELECT * FROM bookings")
	end(queryErr)

	return buf.String()
}

func TestSlowQueryLogging_WarnsAboveThreshold(t *testing.T) {
	out := slowQueryLog(t, time.Nanosecond, nil)
	assert.Contains(t, out, "slow query detected")
	assert.Contains(t, out, "ListBookings")
	assert.Contains(t, out, "SELECT * FROM bookings")
}

func TestSlowQueryLogging_QuietBelowThreshold(t *testing.T) {
	out := slowQueryLog(t, time.Hour, nil)
	assert.Empty(t, out)
}

func TestSlowQueryLogging_IncludesQueryError(t *testing.T) {
	out := slowQueryLog(t, time.Nanosecond, errors.New("deadlock detected"))
	assert.Contains(t, out, "slow query detected")
	assert.Contains(t, out, "deadlock detected")
}

func TestSlowQueryLogging_DisabledIsSafe(t *testing.T) {
	installExporter(t)
	SetSlowQueryLogging(0, nil)

	_, end := TraceQuery(context.Background(), "AnyOp", "SELECT 1")
	end(nil) // must not panic with nil logger
}
