package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Adham-AI-111/clinic-system-docker/internal/handler"
	"github.com/Adham-AI-111/clinic-system-docker/internal/model"
	"github.com/Adham-AI-111/clinic-system-docker/internal/session"
	"github.com/Adham-AI-111/clinic-system-docker/internal/tenancy"
)

// RequireRole admits sessions logged in with one of roles. A session only
// counts on the partition it was created in, so a login on one clinic's
// domain grants nothing on another's.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := session.FromContext(c)
		if !sess.IsAuthenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, handler.NewErrorResponse("login required"))
			return
		}

		partition := tenancy.FromContext(c.Request.Context())
		if sess.Data.Schema != partition.Schema {
			c.AbortWithStatusJSON(http.StatusForbidden, handler.NewErrorResponse("session belongs to another clinic"))
			return
		}

		for _, role := range roles {
			if sess.Data.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, handler.NewErrorResponse("permission denied"))
	}
}

func RequireStaff() gin.HandlerFunc {
	return RequireRole(model.RoleDoctor, model.RoleReception, model.RoleAdmin)
}

func RequireDoctor() gin.HandlerFunc {
	return RequireRole(model.RoleDoctor)
}
