package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/kbukum/pipestudio/errors"
)

// ClaimsKey is the Gin context key holding validated token claims.
const ClaimsKey = "auth.claims"

// TokenValidator validates a bearer token and returns its claims.
type TokenValidator func(token string) (map[string]any, error)

// AuthConfig configures the bearer authentication middleware.
type AuthConfig struct {
	TokenValidator TokenValidator
	// SkipPaths are URL path prefixes that bypass authentication.
	SkipPaths []string
}

// Auth returns a Gin middleware that requires a valid Bearer token. The
// validated claims are stored under ClaimsKey and "sub" under "subject".
func Auth(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if strings.HasPrefix(path, skip) {
				c.Next()
				return
			}
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			abort(c, errors.Unauthorized("Authorization header required."))
			return
		}
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			abort(c, errors.Unauthorized("Invalid authorization header format."))
			return
		}

		claims, err := cfg.TokenValidator(token)
		if err != nil {
			abort(c, errors.Unauthorized("Invalid token.").WithCause(err))
			return
		}
		c.Set(ClaimsKey, claims)
		if sub, ok := claims["sub"].(string); ok {
			c.Set("subject", sub)
		}
		c.Next()
	}
}

// HMACValidator validates HS256 tokens signed with secret. Tokens must
// carry an expiry.
func HMACValidator(secret string) TokenValidator {
	key := []byte(secret)
	parser := gojwt.NewParser(
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithExpirationRequired(),
	)
	return func(token string) (map[string]any, error) {
		claims := gojwt.MapClaims{}
		_, err := parser.ParseWithClaims(token, claims, func(*gojwt.Token) (interface{}, error) {
			return key, nil
		})
		if err != nil {
			return nil, err
		}
		return claims, nil
	}
}

// IssueToken signs an HS256 token for subject that expires after ttl.
func IssueToken(secret, subject string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("auth secret is not configured")
	}
	now := time.Now()
	claims := gojwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  gojwt.NewNumericDate(now),
		ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
	}
	return gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func abort(c *gin.Context, err *errors.AppError) {
	c.AbortWithStatusJSON(err.HTTPStatus, err.ToResponse())
}
