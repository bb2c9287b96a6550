package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adham-AI-111/clinic-system-docker/internal/handler"
	"github.com/Adham-AI-111/clinic-system-docker/internal/middleware"
	"github.com/Adham-AI-111/clinic-system-docker/internal/session"
	"github.com/Adham-AI-111/clinic-system-docker/internal/tenancy"
	"github.com/Adham-AI-111/clinic-system-docker/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(gin.IRouter)
}

// AuthHandler takes the guards placed in front of credential submissions.
type AuthHandler interface {
	RegisterRoutes(gin.IRouter, ...gin.HandlerFunc)
}

type RouterConfig struct {
	Mode           string
	RequestTimeout time.Duration
	MaxBodySize    int64
	// RateLimit is nil when login throttling is disabled.
	RateLimit  *middleware.RateLimiterConfig
	Security   middleware.SecurityConfig
	Validation middleware.ValidationConfig
}

type Router struct {
	engine   *gin.Engine
	config   RouterConfig
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	resolver *tenancy.Resolver
	sessions *session.Manager
	authH    AuthHandler
	signupH  Handler
	auditH   Handler
	healthH  Handler
}

func NewRouter(
	config RouterConfig,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
	resolver *tenancy.Resolver,
	sessions *session.Manager,
	authH AuthHandler,
	signupH Handler,
	auditH Handler,
	healthH Handler,
) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}
	if config.MaxBodySize <= 0 {
		config.MaxBodySize = middleware.DefaultMaxBodySize
	}

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		middleware.Metrics(m),
		middleware.ErrorHandler(),
		middleware.Validation(config.Validation),
		middleware.SecurityHeaders(config.Security),
		middleware.SizeLimit(config.MaxBodySize),
		middleware.Timeout(config.RequestTimeout),
	)

	return &Router{
		engine:   engine,
		config:   config,
		metrics:  m,
		gatherer: gatherer,
		resolver: resolver,
		sessions: sessions,
		authH:    authH,
		signupH:  signupH,
		auditH:   auditH,
		healthH:  healthH,
	}
}

func (r *Router) Setup() {
	// Probes and metrics do not depend on the host or a session.
	r.healthH.RegisterRoutes(r.engine)
	r.engine.GET("/metrics", handler.MetricsHandler(r.gatherer))

	app := r.engine.Group("")
	app.Use(
		tenancy.Middleware(r.resolver),
		r.sessions.Middleware(),
	)

	var guards []gin.HandlerFunc
	if r.config.RateLimit != nil {
		guards = append(guards, middleware.NewRateLimiter(*r.config.RateLimit).RateLimit())
	}
	r.authH.RegisterRoutes(app, guards...)
	r.signupH.RegisterRoutes(app)
	r.auditH.RegisterRoutes(app)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
