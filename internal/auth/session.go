// Package auth issues and validates the signed session cookies used by the
// development mock IdP. In production the SSO proxy authenticates users and
// this package is never consulted.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionCookieName is the cookie carrying the mock IdP session token.
const SessionCookieName = "musher_session"

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrExpiredToken = errors.New("session token expired")
)

// SessionClaims are the JWT claims for a mock IdP session.
type SessionClaims struct {
	NetID string `json:"netid"`
	jwt.RegisteredClaims
}

// NewSessionToken mints an HS256 session token for the given NetID.
func NewSessionToken(netid string, secret []byte, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		NetID: netid,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "husky-musher",
			Subject:   netid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// ValidateSessionToken parses and verifies a session token, returning its
// claims. Rejects tokens signed with any algorithm other than HS256.
func ValidateSessionToken(tokenString string, secret []byte) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.NetID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
