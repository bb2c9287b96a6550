package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Adham-AI-111/clinic-system-docker/internal/model"
)

// ClientInfo describes the caller of c for audit records.
func ClientInfo(c *gin.Context) model.ClientInfo {
	return model.ClientInfo{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}
