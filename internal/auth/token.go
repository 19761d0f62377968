// ABOUTME: JWT issuance and verification for authenticating API requests
// ABOUTME: Uses HS256 signing with a configured secret; every failure maps to ErrInvalidToken

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the minimum HS256 secret size in bytes.
const MinSecretLength = 32

// DefaultTokenTTL is how long issued tokens remain valid.
const DefaultTokenTTL = 7 * 24 * time.Hour

// Token errors
var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrSecretTooShort = errors.New("jwt secret must be at least 32 bytes")
)

// TokenVerifier defines the interface for token verification
type TokenVerifier interface {
	Verify(tokenString string) (userID string, err error)
}

// JWTVerifier implements TokenVerifier using HS256 signed JWTs
type JWTVerifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewJWTVerifier creates a new JWT verifier with the given secret
func NewJWTVerifier(secret []byte) (*JWTVerifier, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrSecretTooShort
	}
	return &JWTVerifier{
		secret: secret,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
			jwt.WithStrictDecoding(),
		),
	}, nil
}

// Verify validates the token and extracts the user ID from the "sub" claim.
// Expired, tampered and malformed tokens all return ErrInvalidToken.
func (v *JWTVerifier) Verify(tokenString string) (string, error) {
	token, err := v.parser.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrInvalidToken
	}

	return sub, nil
}

// Generate creates a new JWT token for the given user ID with expiration
func (v *JWTVerifier) Generate(userID string, expiresIn time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(expiresIn).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

// TokenService issues bearer tokens with a fixed lifetime.
type TokenService struct {
	verifier *JWTVerifier
	ttl      time.Duration
}

// NewTokenService wraps verifier; a non-positive ttl means DefaultTokenTTL.
func NewTokenService(verifier *JWTVerifier, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{verifier: verifier, ttl: ttl}
}

// Issue returns a signed token for userID.
func (s *TokenService) Issue(userID string) (string, error) {
	return s.verifier.Generate(userID, s.ttl)
}

// Verify returns the user ID carried by a valid token.
func (s *TokenService) Verify(token string) (string, error) {
	return s.verifier.Verify(token)
}

// TTL returns the lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}
