package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"anonq/services"

	"github.com/gin-gonic/gin"
)

const clientKeyContextKey = "client_key"

// ClientIP returns the first X-Forwarded-For entry, then X-Real-IP, then
// "unknown". Every client without those headers shares one bucket, so this
// is only meaningful behind a trusted reverse proxy.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return "unknown"
}

// RateLimit rejects requests over the limiter's ceiling with 429. message
// builds the error text from the decision.
func RateLimit(limiter *services.RateLimiter, message func(services.Decision) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := c.Get(clientKeyContextKey)
		if !ok {
			key = ClientIP(c.Request)
			c.Set(clientKeyContextKey, key)
		}

		// Store errors fail open; the limiter has already logged them.
		dec, _ := limiter.Allow(c.Request.Context(), key.(string))
		if dec.Allowed {
			c.Next()
			return
		}

		c.Header("Retry-After", strconv.Itoa(dec.RetryAfterSeconds()))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": message(dec)})
	}
}
