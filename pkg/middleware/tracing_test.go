package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// traceServe installs an in-memory exporter, serves one request through the
// tracing middleware on the given route, and returns the captured spans plus
// the recorder. The previous global tracer provider is restored on cleanup.
func traceServe(t *testing.T, pattern string, h http.HandlerFunc, req *http.Request) (tracetest.SpanStubs, *httptest.ResponseRecorder) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	t.Cleanup(func() {
		tp.Shutdown(context.Background()) //nolint:errcheck
		otel.SetTracerProvider(prev)
	})

	r := chi.NewRouter()
	r.Use(Tracing("roamio-api"))
	r.Get(pattern, h)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	return exporter.GetSpans(), rec
}

func okHandler(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func TestTracing_SpanNamedAfterRoutePattern(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/experiences/abc", nil)
	spans, rec := traceServe(t, "/api/v1/experiences/{id}", okHandler, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, spans)
	assert.Equal(t, "GET /api/v1/experiences/{id}", spans[0].Name)
}

func TestTracing_RecordsStatusCode(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/missing", nil)
	spans, _ := traceServe(t, "/api/v1/bookings/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, req)

	require.NotEmpty(t, spans)

	var status int64 = -1
	for _, attr := range spans[0].Attributes {
		if string(attr.Key) == "http.status_code" {
			status = attr.Value.AsInt64()
		}
	}
	assert.Equal(t, int64(404), status)
}

func TestTracing_ServerErrorMarksSpan(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
	spans, _ := traceServe(t, "/api/v1/bookings", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, req)

	require.NotEmpty(t, spans)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
}

func TestTracing_ClientErrorLeavesSpanUnset(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/reviews", nil)
	spans, _ := traceServe(t, "/api/v1/reviews", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}, req)

	require.NotEmpty(t, spans)
	assert.Equal(t, codes.Unset, spans[0].Status.Code)
}

func TestTracing_ContinuesUpstreamTrace(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/destinations", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")

	spans, rec := traceServe(t, "/api/v1/destinations", okHandler, req)

	require.NotEmpty(t, spans)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext.TraceID().String())
	assert.NotEmpty(t, rec.Header().Get("traceparent"), "response should echo the trace context")
}

func TestTracing_InjectsResponseHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/destinations", nil)
	_, rec := traceServe(t, "/api/v1/destinations", okHandler, req)

	assert.NotEmpty(t, rec.Header().Get("traceparent"))
}
