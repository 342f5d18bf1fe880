package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// corsMethods and corsHeaders cover every verb and request header the API
// accepts; per-route variation is not worth the extra preflight misses.
var (
	corsMethods = strings.Join([]string{
		http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
	}, ", ")
	corsHeaders = strings.Join([]string{
		"Accept", "Authorization", "Content-Type", "X-Correlation-ID",
	}, ", ")
	corsExposed = "X-Correlation-ID"
)

// CORSConfig lists the browser origins allowed to call the API. An entry
// of "*" allows any origin and is meant for development only.
type CORSConfig struct {
	AllowedOrigins []string
	// MaxAge is the preflight cache lifetime in seconds; 0 means one hour.
	MaxAge int
}

// CORS answers preflight requests and stamps allow headers on responses
// to allowed origins. Requests from unlisted origins pass through without
// CORS headers, leaving the browser to block them.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	wildcard := false
	origins := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			wildcard = true
			continue
		}
		origins[o] = struct{}{}
	}

	maxAge := cfg.MaxAge
	if maxAge == 0 {
		maxAge = 3600
	}
	maxAgeValue := strconv.Itoa(maxAge)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			switch {
			case wildcard:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "":
				w.Header().Add("Vary", "Origin")
				if _, ok := origins[origin]; ok {
					w.Header().Set("Access-Control-Allow-Origin", origin)
				}
			}

			if w.Header().Get("Access-Control-Allow-Origin") != "" {
				w.Header().Set("Access-Control-Allow-Methods", corsMethods)
				w.Header().Set("Access-Control-Allow-Headers", corsHeaders)
				w.Header().Set("Access-Control-Expose-Headers", corsExposed)
				w.Header().Set("Access-Control-Max-Age", maxAgeValue)
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
