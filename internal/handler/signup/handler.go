package signup

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Adham-AI-111/clinic-system-docker/internal/handler"
	"github.com/Adham-AI-111/clinic-system-docker/internal/middleware"
	"github.com/Adham-AI-111/clinic-system-docker/internal/model"
	"github.com/Adham-AI-111/clinic-system-docker/internal/service/signup"
	"github.com/Adham-AI-111/clinic-system-docker/internal/session"
	"github.com/Adham-AI-111/clinic-system-docker/internal/tenancy"
)

type Handler struct {
	svc *signup.Service
}

func NewHandler(svc *signup.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the staff-only registration endpoints. Both live on
// clinic domains.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	clinic := r.Group("", tenancy.RequireTenant("/"))
	{
		clinic.POST("/patient-signup/", middleware.RequireStaff(), h.CreatePatient)
		clinic.POST("/reception-signup/", middleware.RequireDoctor(), h.CreateReception)
	}
}

func (h *Handler) CreatePatient(c *gin.Context) {
	var req model.PatientSignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err).SetType(gin.ErrorTypeBind)
		return
	}

	ctx := c.Request.Context()
	identity, err := h.svc.CreatePatient(ctx, actor(c), tenancy.FromContext(ctx), req, handler.ClientInfo(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(identity))
}

func (h *Handler) CreateReception(c *gin.Context) {
	var req model.ReceptionSignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err).SetType(gin.ErrorTypeBind)
		return
	}

	identity, err := h.svc.CreateReception(c.Request.Context(), actor(c), req, handler.ClientInfo(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(identity))
}

func actor(c *gin.Context) signup.Actor {
	data := session.FromContext(c).Data
	return signup.Actor{UserID: data.UserID, Username: data.Username, Role: data.Role}
}
