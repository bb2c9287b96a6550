package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/Adham-AI-111/clinic-system-docker/internal/config"
	"github.com/Adham-AI-111/clinic-system-docker/internal/handler/audit"
	"github.com/Adham-AI-111/clinic-system-docker/internal/handler/auth"
	"github.com/Adham-AI-111/clinic-system-docker/internal/handler/health"
	"github.com/Adham-AI-111/clinic-system-docker/internal/handler/signup"
	"github.com/Adham-AI-111/clinic-system-docker/internal/middleware"
	"github.com/Adham-AI-111/clinic-system-docker/internal/repository/postgres"
	"github.com/Adham-AI-111/clinic-system-docker/internal/router"
	auditService "github.com/Adham-AI-111/clinic-system-docker/internal/service/audit"
	authService "github.com/Adham-AI-111/clinic-system-docker/internal/service/auth"
	signupService "github.com/Adham-AI-111/clinic-system-docker/internal/service/signup"
	"github.com/Adham-AI-111/clinic-system-docker/internal/session"
	"github.com/Adham-AI-111/clinic-system-docker/internal/tenancy"
	"github.com/Adham-AI-111/clinic-system-docker/pkg/logger"
	"github.com/Adham-AI-111/clinic-system-docker/pkg/metrics"
	"github.com/Adham-AI-111/clinic-system-docker/pkg/security"
	"github.com/Adham-AI-111/clinic-system-docker/pkg/validator"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger.Init(cfg.Log)

	phones := validator.NewPhoneNormalizer(cfg.Auth.PhoneRegion)
	validation := middleware.DefaultValidationConfig()
	validation.CustomValidators["phone"] = phones.PhoneValidation()
	if err := middleware.RegisterValidators(validation); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	// Initialize database
	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New("clinic", registry)

	ctx := context.Background()
	store, closeStore, err := newSessionStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize session store")
	}
	defer closeStore()
	sessions := session.NewManager(store, session.NewSigner(cfg.Session.Secret, "clinic"), cfg.Session, m)

	// Initialize repositories
	base := postgres.NewBaseRepository(db)
	identityRepo := postgres.NewIdentityRepository(base)
	tenantRepo := postgres.NewTenantRepository(base)
	domainRepo := postgres.NewDomainRepository(base)
	patientRepo := postgres.NewPatientRepository(base)
	auditRepo := postgres.NewAuditRepository(base)

	// Initialize services
	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost)
	auditSvc := auditService.NewService(auditRepo)
	lockout := authService.NewLockoutTracker(identityRepo, cfg.Auth.MaxLoginAttempts, cfg.Auth.LockoutDuration)
	authenticator := authService.NewAuthenticator(identityRepo, patientRepo, hasher, lockout, phones)
	handoff := authService.NewHandoffCoordinator(identityRepo, tenantRepo, domainRepo, sessions, cfg.Auth.HandoffTTL, cfg.Auth.TenantPort)
	authSvc := authService.NewService(authenticator, handoff, auditSvc, m)
	signupSvc := signupService.NewService(patientRepo, tenantRepo, hasher, phones, auditSvc)

	// Initialize handlers
	healthHandler := health.NewHandler(map[string]health.Pinger{
		"database": health.PingFunc(db.PingContext),
		"sessions": sessions,
	})

	routerConfig := router.RouterConfig{
		Mode:           cfg.Server.Mode,
		RequestTimeout: cfg.Server.RequestTimeout,
		Security:       middleware.SecurityConfig{Secure: cfg.Session.Secure, HSTSMaxAge: 31536000},
		Validation:     validation,
	}
	if cfg.RateLimit.Enabled {
		routerConfig.RateLimit = &middleware.RateLimiterConfig{
			Rate:  rate.Limit(cfg.RateLimit.RequestsPerSecond),
			Burst: cfg.RateLimit.Burst,
		}
	}

	// Setup router
	r := router.NewRouter(
		routerConfig,
		m,
		registry,
		tenancy.NewResolver(domainRepo, cfg.Tenancy.DomainCacheTTL),
		sessions,
		auth.NewHandler(authSvc, sessions),
		signup.NewHandler(signupSvc),
		audit.NewHandler(auditSvc),
		healthHandler,
	)
	r.Setup()

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}

func newSessionStore(ctx context.Context, cfg *config.Config) (session.Store, func(), error) {
	if cfg.Session.Store == "memory" {
		log.Warn().Msg("using in-process session store, sessions are lost on restart")
		return session.NewMemoryStore(10 * time.Minute), func() {}, nil
	}

	client, err := session.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := client.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close redis client")
		}
	}
	return session.NewRedisStore(client), closeFn, nil
}
