package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/kbukum/pipestudio/errors"
	"github.com/kbukum/pipestudio/resilience"
)

// KeyFunc extracts the rate limit key from a request.
type KeyFunc func(*gin.Context) string

// RateLimit returns a Gin middleware that takes one token per request from
// the bucket of the request key. Nil keyFn means the client IP.
func RateLimit(limiter *resilience.KeyedRateLimiter, keyFn KeyFunc) gin.HandlerFunc {
	if keyFn == nil {
		keyFn = IPBasedKey
	}
	return func(c *gin.Context) {
		if !limiter.Allow(keyFn(c)) {
			abort(c, errors.RateLimited())
			return
		}
		c.Next()
	}
}

// IPBasedKey keys requests by client IP.
func IPBasedKey(c *gin.Context) string {
	return c.ClientIP()
}

// SubjectBasedKey keys requests by token subject, falling back to client IP.
func SubjectBasedKey(c *gin.Context) string {
	if sub := c.GetString("subject"); sub != "" {
		return sub
	}
	return c.ClientIP()
}
