package audit

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Adham-AI-111/clinic-system-docker/internal/handler"
	"github.com/Adham-AI-111/clinic-system-docker/internal/middleware"
	"github.com/Adham-AI-111/clinic-system-docker/internal/model"
	"github.com/Adham-AI-111/clinic-system-docker/internal/service/audit"
	"github.com/Adham-AI-111/clinic-system-docker/internal/session"
	apperrors "github.com/Adham-AI-111/clinic-system-docker/pkg/errors"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

type Handler struct {
	service *audit.Service
}

func NewHandler(service *audit.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/login-history/",
		middleware.RequireRole(model.RoleDoctor, model.RoleReception, model.RolePatient),
		h.LoginHistory,
	)
}

// LoginHistory lists the most recent authentication events of the caller.
func (h *Handler) LoginHistory(c *gin.Context) {
	limit := defaultLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			_ = c.Error(apperrors.BadRequest("limit must be a positive integer", err))
			return
		}
		limit = min(n, maxLimit)
	}

	events, err := h.service.List(c.Request.Context(), session.FromContext(c).Data.UserID, limit)
	if err != nil {
		_ = c.Error(apperrors.Internal(err))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(events))
}
