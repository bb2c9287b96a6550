package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Adham-AI-111/clinic-system-docker/internal/handler"
)

// DefaultMaxBodySize fits every form the service accepts.
const DefaultMaxBodySize = 64 << 10

// SizeLimit rejects bodies over maxBytes. Bodies without a declared length
// are cut off at the limit while binding.
func SizeLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, handler.NewErrorResponse("request body too large"))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
