// Package auth verifies bearer credentials presented at connection
// handshake. Token issuance and password handling live in the account
// service; this side only validates.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers malformed, expired and mis-signed tokens. The
// caller never learns which; the client just re-authenticates.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the identity carried by an access token.
type Claims struct {
	UserID   string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// Config holds verification parameters.
type Config struct {
	Secret   []byte
	Issuer   string
	Audience string
}

// Verifier validates access tokens. Stateless; one per process.
type Verifier struct {
	cfg Config
}

// NewVerifier builds a token verifier.
func NewVerifier(cfg Config) *Verifier {
	return &Verifier{cfg: cfg}
}

// Verify parses and validates a token, returning the identity claims.
// Any failure collapses to ErrInvalidToken.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.cfg.Secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if v.cfg.Issuer != "" && claims.Issuer != v.cfg.Issuer {
		return nil, ErrInvalidToken
	}

	if v.cfg.Audience != "" {
		validAudience := false
		for _, aud := range claims.Audience {
			if aud == v.cfg.Audience {
				validAudience = true
				break
			}
		}
		if !validAudience {
			return nil, ErrInvalidToken
		}
	}

	return claims, nil
}

// Sign issues a token for the given identity. Exists for the test
// client and local tooling; production tokens come from the account
// service.
func Sign(cfg Config, userID, username, name, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Name:     name,
		Email:    email,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{cfg.Audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(cfg.Secret)
}
