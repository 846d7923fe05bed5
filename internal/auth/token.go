package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "support-triage"

// ErrInvalidToken covers every reason a presented bearer token is refused.
var ErrInvalidToken = errors.New("invalid access token")

// Claims is the payload of a bridge or operator token.
type Claims struct {
	Kind PrincipalKind `json:"kind"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 tokens for API callers.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager builds a manager; a non-positive ttl falls back to one hour.
func NewTokenManager(secret string, ttlMinutes int) *TokenManager {
	ttl := time.Duration(ttlMinutes) * time.Minute
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// GenerateToken mints a token for subject. Each token carries a unique jti so
// issued tokens can be told apart in logs.
func (tm *TokenManager) GenerateToken(subject string, kind PrincipalKind) (string, time.Time, error) {
	switch {
	case subject == "":
		return "", time.Time{}, errors.New("token subject required")
	case !kind.Valid():
		return "", time.Time{}, fmt.Errorf("unknown principal kind %q", kind)
	}

	issuedAt := tm.now()
	expiresAt := issuedAt.Add(tm.ttl)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tokenIssuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}).SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseToken verifies signature, issuer, expiry and kind.
func (tm *TokenManager) ParseToken(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return tm.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !claims.Kind.Valid() || claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing kind or subject", ErrInvalidToken)
	}
	return claims, nil
}
