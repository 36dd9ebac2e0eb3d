package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/blousecraft/blousecraft-api/config"
	"github.com/blousecraft/blousecraft-api/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminScope must be granted to tokens that call the admin API.
const AdminScope = "admin:marketplace"

// CustomClaims contains custom data we want from the token.
type CustomClaims struct {
	Scope string `json:"scope"`
}

// Validate does nothing, but we need it to satisfy validator.CustomClaims interface.
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// HasScope checks whether our claims have a specific scope.
func (c CustomClaims) HasScope(expectedScope string) bool {
	for _, s := range strings.Fields(c.Scope) {
		if s == expectedScope {
			return true
		}
	}
	return false
}

// NewValidator builds the token validator for cfg: RS256 against the Auth0
// tenant's JWKS when AUTH0_DOMAIN is set, otherwise HS256 with JWT_SECRET.
func NewValidator(cfg *config.Config) (*validator.Validator, error) {
	customClaims := validator.WithCustomClaims(func() validator.CustomClaims {
		return &CustomClaims{}
	})
	skew := validator.WithAllowedClockSkew(time.Minute)

	if cfg.UsesAuth0() {
		issuerURL, err := url.Parse("https://" + cfg.Auth0Domain + "/")
		if err != nil {
			return nil, fmt.Errorf("failed to parse the issuer url: %w", err)
		}
		provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)
		return validator.New(
			provider.KeyFunc,
			validator.RS256,
			issuerURL.String(),
			[]string{cfg.Auth0Audience},
			customClaims,
			skew,
		)
	}

	secret := []byte(cfg.JWTSecret)
	return validator.New(
		func(context.Context) (interface{}, error) { return secret, nil },
		validator.HS256,
		cfg.JWTIssuer,
		[]string{cfg.Auth0Audience},
		customClaims,
		skew,
	)
}

// EnsureValidToken is a middleware that will check the validity of our JWT.
func EnsureValidToken(cfg *config.Config) (gin.HandlerFunc, error) {
	jwtValidator, err := NewValidator(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to set up the jwt validator: %w", err)
	}

	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		logger.FromCtx(r.Context()).Info("rejected token", zap.Error(err))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		if _, writeErr := w.Write([]byte(`{"success":false,"error":{"code":"INVALID_TOKEN","message":"Failed to validate JWT."}}`)); writeErr != nil {
			logger.FromCtx(r.Context()).Warn("failed to write error response", zap.Error(writeErr))
		}
	}

	checker := jwtmiddleware.New(
		jwtValidator.ValidateToken,
		jwtmiddleware.WithErrorHandler(errorHandler),
	)

	return func(c *gin.Context) {
		valid := false
		var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
			valid = true
			claims := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
			token, _ := jwtmiddleware.AuthHeaderTokenExtractor(r)

			c.Request = r
			c.Set("user_id", claims.RegisteredClaims.Subject)
			c.Set("access_token", token)
			c.Set("validated_claims", claims)
		}

		checker.CheckJWT(handler).ServeHTTP(c.Writer, c.Request)
		if !valid {
			c.Abort()
			return
		}
		c.Next()
	}, nil
}

// GetUserID extracts the user ID from the Gin context
func GetUserID(c *gin.Context) (string, error) {
	userID, exists := c.Get("user_id")
	if !exists {
		return "", &AuthError{Code: "MISSING_USER_ID", Message: "User ID not found in context"}
	}

	userIDStr, ok := userID.(string)
	if !ok || userIDStr == "" {
		return "", &AuthError{Code: "INVALID_USER_ID", Message: "User ID is not a string"}
	}

	return userIDStr, nil
}

// GetAccessToken returns the raw bearer token of the request
func GetAccessToken(c *gin.Context) (string, error) {
	token, exists := c.Get("access_token")
	if !exists {
		return "", &AuthError{Code: "MISSING_TOKEN", Message: "Access token not found in context"}
	}

	tokenStr, ok := token.(string)
	if !ok || tokenStr == "" {
		return "", &AuthError{Code: "MISSING_TOKEN", Message: "Access token not found in context"}
	}

	return tokenStr, nil
}

// GetClaims extracts the validated JWT claims from the Gin context
func GetClaims(c *gin.Context) (*validator.ValidatedClaims, error) {
	claims, exists := c.Get("validated_claims")
	if !exists {
		return nil, &AuthError{Code: "MISSING_CLAIMS", Message: "Claims not found in context"}
	}

	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return nil, &AuthError{Code: "INVALID_CLAIMS", Message: "Claims are not in the expected format"}
	}

	return validatedClaims, nil
}

// RequireScope is a middleware that checks if the token has a specific scope
func RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := GetClaims(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "MISSING_CLAIMS",
					"message": "Could not retrieve token claims",
				},
			})
			c.Abort()
			return
		}

		customClaims, ok := claims.CustomClaims.(*CustomClaims)
		if !ok || !customClaims.HasScope(scope) {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INSUFFICIENT_SCOPE",
					"message": "Insufficient permissions to access this resource",
				},
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// AuthError represents an authentication error
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}
