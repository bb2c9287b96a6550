package auth

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Adham-AI-111/clinic-system-docker/internal/handler"
	"github.com/Adham-AI-111/clinic-system-docker/internal/model"
	"github.com/Adham-AI-111/clinic-system-docker/internal/service/auth"
	"github.com/Adham-AI-111/clinic-system-docker/internal/session"
	"github.com/Adham-AI-111/clinic-system-docker/internal/tenancy"
	apperrors "github.com/Adham-AI-111/clinic-system-docker/pkg/errors"
)

type Handler struct {
	svc      *auth.Service
	sessions *session.Manager
}

func NewHandler(svc *auth.Service, sessions *session.Manager) *Handler {
	return &Handler{svc: svc, sessions: sessions}
}

// RegisterRoutes mounts the login and logout endpoints. guards run in front
// of the credential submissions only.
func (h *Handler) RegisterRoutes(r gin.IRouter, guards ...gin.HandlerFunc) {
	r.GET("/staff-login/", h.StaffLoginPage)
	r.POST("/staff-login/", chain(guards, h.StaffLogin)...)

	patient := r.Group("/patient-login/", tenancy.RequireTenant(auth.HomePath))
	{
		patient.GET("", h.PatientLoginPage)
		patient.POST("", chain(guards, h.PatientLogin)...)
	}

	r.POST("/staff-logout/", h.Logout)
	r.POST("/patient-logout/", h.Logout)
}

func chain(guards []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(guards)+1)
	out = append(out, guards...)
	return append(out, h)
}

// StaffLoginPage finishes a pending cross-domain login when there is one.
// Staff that are already logged in are pointed at their dashboard.
func (h *Handler) StaffLoginPage(c *gin.Context) {
	ctx := c.Request.Context()
	sess := session.FromContext(c)
	partition := tenancy.FromContext(ctx)

	if outcome, ok := h.svc.ResumeStaffLogin(ctx, sess, partition, handler.ClientInfo(c)); ok {
		if !h.commit(c, sess) {
			return
		}
		c.Redirect(http.StatusFound, outcome.Redirect)
		return
	}

	if sess.IsAuthenticated() && sess.Data.Role.IsStaff() {
		outcome, err := h.svc.StaffLanding(ctx, sess, partition)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, &handler.Response{
			Status:  "success",
			Message: "already_authenticated",
			Data:    outcome,
		})
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"form": "staff_login"}))
}

func (h *Handler) StaffLogin(c *gin.Context) {
	var req model.StaffLoginRequest
	if err := c.ShouldBind(&req); err != nil {
		_ = c.Error(err).SetType(gin.ErrorTypeBind)
		return
	}

	ctx := c.Request.Context()
	sess := session.FromContext(c)
	outcome, err := h.svc.StaffLogin(ctx, sess, tenancy.FromContext(ctx), req, handler.ClientInfo(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	if !h.commit(c, sess) {
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(outcome))
}

func (h *Handler) PatientLoginPage(c *gin.Context) {
	sess := session.FromContext(c)
	partition := tenancy.FromContext(c.Request.Context())

	if sess.IsAuthenticated() && sess.Data.Role == model.RolePatient && sess.Data.Schema == partition.Schema {
		identity := &model.Identity{Base: model.Base{ID: sess.Data.UserID}}
		c.Redirect(http.StatusFound, auth.PatientProfilePath(identity))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"form": "patient_login"}))
}

func (h *Handler) PatientLogin(c *gin.Context) {
	var req model.PatientLoginRequest
	if err := c.ShouldBind(&req); err != nil {
		_ = c.Error(err).SetType(gin.ErrorTypeBind)
		return
	}

	ctx := c.Request.Context()
	sess := session.FromContext(c)
	outcome, err := h.svc.PatientLogin(ctx, sess, tenancy.FromContext(ctx), req, handler.ClientInfo(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	if !h.commit(c, sess) {
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(outcome))
}

// Logout serves both logout routes. The landing page depends on who was
// logged in and where.
func (h *Handler) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	sess := session.FromContext(c)

	target := h.svc.Logout(ctx, sess, tenancy.FromContext(ctx), handler.ClientInfo(c))
	if !h.commit(c, sess) {
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"redirect": target}))
}

func (h *Handler) commit(c *gin.Context, sess *session.Session) bool {
	if err := h.sessions.Commit(c, sess); err != nil {
		_ = c.Error(apperrors.Internal(err))
		return false
	}
	return true
}

// fail renders an authentication failure. Unknown accounts, ambiguous
// matches and wrong login forms read exactly like a bad password.
func (h *Handler) fail(c *gin.Context, err error) {
	e, ok := auth.AsError(err)
	if !ok {
		_ = c.Error(apperrors.Internal(err))
		return
	}

	status := http.StatusUnauthorized
	message := auth.ErrInvalidCredentials.Error()
	data := gin.H{"code": auth.FailureLabel(auth.ErrInvalidCredentials)}

	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		if e.AttemptsRemaining > 0 {
			data["attempts_remaining"] = e.AttemptsRemaining
		}
	case errors.Is(err, auth.ErrNotFound),
		errors.Is(err, auth.ErrAmbiguous),
		errors.Is(err, auth.ErrWrongPrincipalKind):
	case errors.Is(err, auth.ErrInactive):
		status = http.StatusForbidden
		message = e.Kind.Error()
		data["code"] = auth.FailureLabel(err)
	case errors.Is(err, auth.ErrAccountLocked):
		seconds := int(math.Ceil(e.RetryAfter.Seconds()))
		status = http.StatusLocked
		message = e.Kind.Error()
		data["code"] = auth.FailureLabel(err)
		data["retry_after_seconds"] = seconds
		c.Header("Retry-After", strconv.Itoa(seconds))
	case errors.Is(err, auth.ErrNoTenantAssociation),
		errors.Is(err, auth.ErrNoDomainConfigured):
		status = http.StatusConflict
		message = e.Kind.Error()
		data["code"] = auth.FailureLabel(err)
	case errors.Is(err, auth.ErrWrongPartition):
		status = http.StatusBadRequest
		message = e.Kind.Error()
		data["code"] = auth.FailureLabel(err)
		data["redirect"] = auth.HomePath
	default:
		_ = c.Error(apperrors.Internal(err))
		return
	}

	c.JSON(status, &handler.Response{Status: "error", Message: message, Data: data})
}
