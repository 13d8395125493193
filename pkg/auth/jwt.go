// Package auth validates the bearer tokens issued by the auth service.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role values carried in the role claim
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var (
	ErrMissingSecret = errors.New("jwt secret is not configured")
	ErrInvalidToken  = errors.New("invalid token")
)

// Claims mirrors the payload written by the auth service: the MongoDB user
// id in userId plus optional username and role.
type Claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the token itself grants the admin role
func (c *Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// TokenValidator verifies HMAC-signed tokens with a shared secret
type TokenValidator struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenValidator creates a validator; ttl only applies to GenerateToken
func NewTokenValidator(secret string, ttl time.Duration) *TokenValidator {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenValidator{secret: []byte(secret), ttl: ttl}
}

// ValidateToken parses and verifies a token, returning its claims
func (v *TokenValidator) ValidateToken(tokenString string) (*Claims, error) {
	if len(v.secret) == 0 {
		return nil, ErrMissingSecret
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// GenerateToken issues a token for userID. The store service never logs users
// in; this exists for tooling and tests.
func (v *TokenValidator) GenerateToken(userID, username, role string) (string, error) {
	if len(v.secret) == 0 {
		return "", ErrMissingSecret
	}

	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
