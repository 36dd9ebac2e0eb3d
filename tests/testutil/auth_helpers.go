package testutil

import (
	"strings"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/blousecraft/blousecraft-api/config"
	"github.com/blousecraft/blousecraft-api/devtoken"
	"github.com/blousecraft/blousecraft-api/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// MockValidatedClaims builds the claims EnsureValidToken stores for subject.
func MockValidatedClaims(subject string, scopes ...string) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Issuer:  "blousecraft-test",
			Subject: subject,
		},
		CustomClaims: &middleware.CustomClaims{
			Scope: strings.Join(scopes, " "),
		},
	}
}

// MockAuth stands in for EnsureValidToken, setting the context exactly as it does.
func MockAuth(userID, accessToken string, scopes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("access_token", accessToken)
		c.Set("validated_claims", MockValidatedClaims(userID, scopes...))
		c.Next()
	}
}

// TestConfig returns a config that validates HS256 tokens minted by BearerToken.
func TestConfig() *config.Config {
	return &config.Config{
		DBDriver:           "sqlite",
		DatabaseURL:        ":memory:",
		GoEnv:              "test",
		JWTSecret:          "test-secret",
		JWTIssuer:          "blousecraft-test",
		Auth0Audience:      "https://api.blousecraft.app",
		NotificationTopic:  "blousecraft.notifications",
		RateLimitPerSecond: 1000,
		RateLimitBurst:     1000,
		LogLevel:           "error",
	}
}

// BearerToken mints an Authorization header value accepted under cfg.
func BearerToken(t *testing.T, cfg *config.Config, subject string, scopes ...string) string {
	t.Helper()

	token, err := devtoken.Mint(devtoken.Options{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.Auth0Audience,
		Subject:  subject,
		Scope:    strings.Join(scopes, " "),
	})
	require.NoError(t, err)
	return "Bearer " + token
}
