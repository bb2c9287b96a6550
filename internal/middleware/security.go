package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

type SecurityConfig struct {
	// HSTSMaxAge is sent only when the session cookie is marked secure, as
	// tenant domains are served over plain HTTP in development.
	HSTSMaxAge int
	Secure     bool
}

// SecurityHeaders keeps login pages out of frames and caches.
func SecurityHeaders(config SecurityConfig) gin.HandlerFunc {
	hsts := "max-age=" + strconv.Itoa(config.HSTSMaxAge) + "; includeSubDomains"
	return func(c *gin.Context) {
		if config.Secure && config.HSTSMaxAge > 0 {
			c.Header("Strict-Transport-Security", hsts)
		}
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "same-origin")
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
