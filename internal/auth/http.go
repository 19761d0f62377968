// ABOUTME: HTTP middleware for JWT authentication on API endpoints
// ABOUTME: Extracts the token from the Authorization header or token cookie and adds the user to context

package auth

import (
	"log/slog"
	"net/http"
	"strings"
)

// TokenCookie is the cookie consulted when no Authorization header is sent.
const TokenCookie = "token"

// extractBearerToken extracts a bearer token from the Authorization header,
// falling back to the token cookie. Returns "" when neither carries one.
func extractBearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(TokenCookie); err == nil {
		return c.Value
	}
	return ""
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}

// RequireAuth creates an HTTP middleware that rejects requests without a valid
// token. Accepted requests carry an AuthContext; the user's existence is not
// re-checked here.
func RequireAuth(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "auth")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				writeUnauthorized(w, "Authentication required")
				return
			}

			userID, err := verifier.Verify(token)
			if err != nil {
				logger.Debug("rejected token", "path", r.URL.Path, "error", err)
				writeUnauthorized(w, "Invalid token")
				return
			}

			ctx := WithAuth(r.Context(), &AuthContext{UserID: userID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
