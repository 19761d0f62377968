// Package auth provides credentials, bearer tokens and the HTTP gate for taskboard.
//
// # Passwords
//
// PasswordHasher wraps bcrypt. Passwords longer than 72 bytes are rejected
// rather than silently truncated. When a login names an unknown account,
// VerifyMissing performs a comparison against a fixed hash so the response
// time does not reveal whether the email is registered.
//
// # Tokens
//
// JWTVerifier signs and checks HS256 tokens whose "sub" claim is the user ID.
// The secret must be at least MinSecretLength bytes. Any verification failure
// (bad signature, expiry, wrong algorithm, missing subject) is ErrInvalidToken.
// TokenService fixes the lifetime, seven days by default.
//
// A token stays valid until it expires, even if its user no longer exists.
//
// # HTTP Gate
//
// RequireAuth reads "Authorization: Bearer <token>" or the "token" cookie and
// stores an AuthContext on the request context:
//
//	mux.Handle("GET /api/boards", auth.RequireAuth(tokens, logger)(h))
//
//	func h(w http.ResponseWriter, r *http.Request) {
//	    userID := auth.MustFromContext(r.Context()).UserID
//	}
//
// Limiter throttles credential endpoints per client IP.
package auth
