// ABOUTME: CORS middleware with preflight handling and an optional origin allow-list
// ABOUTME: Reflects the request origin and allows credentials

package api

import (
	"net/http"
	"slices"
)

const (
	corsMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsHeaders = "Content-Type, Authorization, X-Requested-With, Idempotency-Key"
)

// CORS answers preflight requests and decorates responses for cross-origin
// callers. With no allowed origins the request Origin is reflected, or "*"
// when the request has none. Otherwise only listed origins are echoed back.
func CORS(allowed []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			h := w.Header()
			h.Add("Vary", "Origin")

			switch {
			case len(allowed) == 0 && origin == "":
				h.Set("Access-Control-Allow-Origin", "*")
			case len(allowed) == 0, slices.Contains(allowed, origin):
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == http.MethodOptions {
				h.Set("Access-Control-Allow-Methods", corsMethods)
				h.Set("Access-Control-Allow-Headers", corsHeaders)
				h.Set("Access-Control-Max-Age", "86400")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
