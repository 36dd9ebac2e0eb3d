// Package devtoken mints HS256 access tokens for local development and tests,
// when no Auth0 tenant is configured.
package devtoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Options describes the token to mint.
type Options struct {
	Secret   string
	Issuer   string
	Audience string
	Subject  string
	Scope    string
	TTL      time.Duration
	Now      time.Time
}

// Claims mirrors what the API's validator reads from an access token.
type Claims struct {
	Scope string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// Mint signs a token for opts.Subject. TTL defaults to one hour.
func Mint(opts Options) (string, error) {
	if opts.Secret == "" {
		return "", errors.New("devtoken: secret is required")
	}
	if opts.Subject == "" {
		return "", errors.New("devtoken: subject is required")
	}
	if opts.TTL == 0 {
		opts.TTL = time.Hour
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	claims := Claims{
		Scope: opts.Scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    opts.Issuer,
			Subject:   opts.Subject,
			Audience:  jwt.ClaimStrings{opts.Audience},
			IssuedAt:  jwt.NewNumericDate(opts.Now),
			NotBefore: jwt.NewNumericDate(opts.Now),
			ExpiresAt: jwt.NewNumericDate(opts.Now.Add(opts.TTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(opts.Secret))
}
