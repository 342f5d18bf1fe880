package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roamio/roamio/pkg/health"
)

// newTestRouter assembles the production router with just enough wiring for
// middleware-level assertions. Handlers that would touch a service are not
// exercised.
func newTestRouter(allowedOrigins []string) http.Handler {
	return NewRouter(RouterConfig{
		HealthHandler:      health.NewHandler(),
		Logger:             testLogger(),
		RateLimitRPS:       100,
		RateLimitBurst:     100,
		CORSAllowedOrigins: allowedOrigins,
	})
}

func TestRouter_PreflightAnsweredForAllowedOrigin(t *testing.T) {
	router := newTestRouter([]string{"https://app.roamio.example"})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/bookings", nil)
	req.Header.Set("Origin", "https://app.roamio.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.roamio.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestRouter_CORSHeadersOnSimpleRequest(t *testing.T) {
	router := newTestRouter([]string{"https://app.roamio.example"})

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("Origin", "https://app.roamio.example")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://app.roamio.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_UnlistedOriginGetsNoCORSHeaders(t *testing.T) {
	router := newTestRouter([]string{"https://app.roamio.example"})

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
