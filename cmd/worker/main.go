package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/Adham-AI-111/clinic-system-docker/internal/config"
	"github.com/Adham-AI-111/clinic-system-docker/internal/repository/postgres"
	"github.com/Adham-AI-111/clinic-system-docker/internal/service/audit"
	"github.com/Adham-AI-111/clinic-system-docker/internal/worker"
	"github.com/Adham-AI-111/clinic-system-docker/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger.Init(cfg.Log)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	auditSvc := audit.NewService(postgres.NewAuditRepository(postgres.NewBaseRepository(db)))
	cleanup := worker.NewAuditCleanupWorker(auditSvc, cfg.Audit.RetentionDays, cfg.Audit.CleanupInterval)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().
		Int("retention_days", cfg.Audit.RetentionDays).
		Dur("interval", cfg.Audit.CleanupInterval).
		Msg("audit cleanup worker started")
	cleanup.Start(ctx)
	log.Info().Msg("audit cleanup worker stopped")
}
