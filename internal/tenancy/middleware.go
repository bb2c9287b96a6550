package tenancy

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Middleware stores the partition for the request host in the request
// context. Lookup failures fall back to Public so tenant-only routes reject
// the request instead of serving the wrong tenant.
func Middleware(r *Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := r.Resolve(c.Request.Context(), c.Request.Host)
		if err != nil {
			log.Error().Err(err).Str("host", c.Request.Host).Msg("Tenant resolution failed")
		}
		c.Request = c.Request.WithContext(WithPartition(c.Request.Context(), p))
		c.Next()
	}
}

// RequireTenant redirects requests on the public partition to target.
func RequireTenant(target string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if FromContext(c.Request.Context()).IsPublic() {
			c.Redirect(http.StatusFound, target)
			c.Abort()
			return
		}
		c.Next()
	}
}
