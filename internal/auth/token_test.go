// ABOUTME: Unit tests for JWT token verification and generation
// ABOUTME: Tests valid tokens, invalid tokens, expired tokens and the TokenService wrapper

package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// testSecret is a 32-byte secret that meets MinSecretLength requirement.
var testSecret = []byte("token-tests-secret-of-32-bytes!!")

func newTestVerifier(t *testing.T) *JWTVerifier {
	t.Helper()
	verifier, err := NewJWTVerifier(testSecret)
	if err != nil {
		t.Fatalf("NewJWTVerifier() error = %v", err)
	}
	return verifier
}

func signClaims(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	return token
}

func TestNewJWTVerifier_ShortSecret(t *testing.T) {
	_, err := NewJWTVerifier([]byte("too-short"))
	if !errors.Is(err, ErrSecretTooShort) {
		t.Fatalf("NewJWTVerifier() error = %v, want ErrSecretTooShort", err)
	}
}

func TestJWTVerifier_ValidToken(t *testing.T) {
	verifier := newTestVerifier(t)

	userID := "user-123"
	token, err := verifier.Generate(userID, time.Hour)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	gotID, err := verifier.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if gotID != userID {
		t.Errorf("Verify() = %q, want %q", gotID, userID)
	}
}

func TestJWTVerifier_InvalidToken(t *testing.T) {
	verifier := newTestVerifier(t)
	now := time.Now()

	tests := []struct {
		name  string
		token string
	}{
		{
			name:  "empty token",
			token: "",
		},
		{
			name:  "garbage token",
			token: "not-a-jwt-token",
		},
		{
			name:  "malformed JWT",
			token: "header.payload.signature",
		},
		{
			name: "wrong secret",
			token: func() string {
				other, err := NewJWTVerifier([]byte("a-completely-different-secret-32"))
				if err != nil {
					t.Fatalf("NewJWTVerifier() error = %v", err)
				}
				token, _ := other.Generate("user-123", time.Hour)
				return token
			}(),
		},
		{
			name: "wrong algorithm",
			token: signClaims(t, jwt.SigningMethodHS512, testSecret, jwt.MapClaims{
				"sub": "user-123",
				"iat": now.Unix(),
				"exp": now.Add(time.Hour).Unix(),
			}),
		},
		{
			name: "none algorithm",
			token: signClaims(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.MapClaims{
				"sub": "user-123",
				"exp": now.Add(time.Hour).Unix(),
			}),
		},
		{
			name: "missing subject",
			token: signClaims(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{
				"iat": now.Unix(),
				"exp": now.Add(time.Hour).Unix(),
			}),
		},
		{
			name: "missing expiry",
			token: signClaims(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{
				"sub": "user-123",
				"iat": now.Unix(),
			}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := verifier.Verify(tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestJWTVerifier_ExpiredToken(t *testing.T) {
	verifier := newTestVerifier(t)

	token, err := verifier.Generate("user-123", -time.Hour)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	_, err = verifier.Verify(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
	}
}

func TestJWTVerifier_AlteredByteFails(t *testing.T) {
	verifier := newTestVerifier(t)

	token, err := verifier.Generate("user-123", time.Hour)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	// replace every character with every other base64url character,
	// including the final one of each segment whose low bits are padding
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	for i := 0; i < len(token); i++ {
		if token[i] == '.' {
			continue
		}
		for _, c := range []byte(alphabet) {
			if c == token[i] {
				continue
			}
			altered := []byte(token)
			altered[i] = c
			if id, err := verifier.Verify(string(altered)); err == nil {
				t.Errorf("Verify() accepted token with position %d changed %q -> %q as %q", i, token[i], c, id)
			}
		}
	}
}

func TestTokenService_DefaultTTL(t *testing.T) {
	svc := NewTokenService(newTestVerifier(t), 0)
	if svc.TTL() != DefaultTokenTTL {
		t.Errorf("TTL() = %v, want %v", svc.TTL(), DefaultTokenTTL)
	}
}

func TestTokenService_IssueVerify(t *testing.T) {
	svc := NewTokenService(newTestVerifier(t), time.Hour)

	token, err := svc.Issue("user-42")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("Issue() = %q, want three dot-separated segments", token)
	}

	gotID, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if gotID != "user-42" {
		t.Errorf("Verify() = %q, want %q", gotID, "user-42")
	}
}

func TestTokenService_ExpiryClaim(t *testing.T) {
	svc := NewTokenService(newTestVerifier(t), DefaultTokenTTL)

	token, err := svc.Issue("user-42")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	claims := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		t.Fatalf("ParseUnverified() error = %v", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		t.Fatalf("GetExpirationTime() = %v, %v", exp, err)
	}

	want := time.Now().Add(7 * 24 * time.Hour)
	if diff := exp.Sub(want); diff < -time.Minute || diff > time.Minute {
		t.Errorf("exp = %v, want about %v", exp.Time, want)
	}
}
