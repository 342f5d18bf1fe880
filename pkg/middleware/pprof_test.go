package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// allowlisted sends a request from the given remote address through
// IPAllowlist and reports the resulting status code.
func allowlisted(cidrs []string, remoteAddr string) int {
	mw := IPAllowlist(cidrs, discardLogger())
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	req.RemoteAddr = remoteAddr
	handler.ServeHTTP(rec, req)
	return rec.Code
}

func TestIPAllowlist_Matching(t *testing.T) {
	cidrs := []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}

	tests := []struct {
		name   string
		remote string
		status int
	}{
		{"10.x allowed", "10.1.2.3:1234", http.StatusOK},
		{"172.16.x allowed", "172.16.5.5:1234", http.StatusOK},
		{"192.168.x allowed", "192.168.1.1:1234", http.StatusOK},
		{"public address denied", "8.8.8.8:1234", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, allowlisted(cidrs, tt.remote))
		})
	}
}

func TestIPAllowlist_DeniedResponseIsErrorEnvelope(t *testing.T) {
	mw := IPAllowlist([]string{"10.0.0.0/8"}, discardLogger())
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	req.RemoteAddr = "203.0.113.9:1234"
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)

	var body map[string]map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "FORBIDDEN", body["error"]["code"])
}

func TestIPAllowlist_BadCIDRIsIgnored(t *testing.T) {
	// A malformed entry must not take down the valid ones.
	assert.Equal(t, http.StatusOK, allowlisted([]string{"not-a-cidr", "127.0.0.0/8"}, "127.0.0.1:1234"))
}

func TestIPAllowlist_IPv6Loopback(t *testing.T) {
	assert.Equal(t, http.StatusOK, allowlisted([]string{"::1/128"}, "[::1]:1234"))
}

func TestIPAllowlist_RemoteAddrWithoutPort(t *testing.T) {
	assert.Equal(t, http.StatusOK, allowlisted([]string{"127.0.0.0/8"}, "127.0.0.1"))
}

func TestIPAllowlist_EmptyListDeniesEveryone(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, allowlisted(nil, "127.0.0.1:1234"))
}

func pprofGet(t *testing.T, cidrs []string, remote, path string) *httptest.ResponseRecorder {
	t.Helper()

	r := chi.NewRouter()
	RegisterPprof(r, cidrs, discardLogger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = remote
	r.ServeHTTP(rec, req)
	return rec
}

func TestRegisterPprof_IndexServedToAllowedIP(t *testing.T) {
	rec := pprofGet(t, []string{"127.0.0.0/8"}, "127.0.0.1:1234", "/debug/pprof/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pprof")
}

func TestRegisterPprof_DeniedOutsideAllowlist(t *testing.T) {
	rec := pprofGet(t, []string{"10.0.0.0/8"}, "192.168.1.1:1234", "/debug/pprof/")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRegisterPprof_Profiles(t *testing.T) {
	for _, path := range []string{
		"/debug/pprof/cmdline",
		"/debug/pprof/symbol",
		"/debug/pprof/heap",
	} {
		t.Run(path, func(t *testing.T) {
			rec := pprofGet(t, []string{"127.0.0.0/8"}, "127.0.0.1:1234", path)
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}
