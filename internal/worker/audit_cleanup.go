package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// AuditCleaner deletes audit events older than a retention period.
type AuditCleaner interface {
	Cleanup(ctx context.Context, retention time.Duration) (int64, error)
}

// AuditCleanupWorker prunes the auth audit trail on a fixed interval.
type AuditCleanupWorker struct {
	cleaner         AuditCleaner
	retentionDays   int
	cleanupInterval time.Duration
}

func NewAuditCleanupWorker(cleaner AuditCleaner, retentionDays int, cleanupInterval time.Duration) *AuditCleanupWorker {
	return &AuditCleanupWorker{
		cleaner:         cleaner,
		retentionDays:   retentionDays,
		cleanupInterval: cleanupInterval,
	}
}

// Start runs one cleanup immediately and then one per interval until ctx is
// done.
func (w *AuditCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cleanupInterval)
	defer ticker.Stop()

	w.cleanup(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.cleanup(ctx)
		}
	}
}

func (w *AuditCleanupWorker) cleanup(ctx context.Context) {
	retention := time.Duration(w.retentionDays) * 24 * time.Hour

	rows, err := w.cleaner.Cleanup(ctx, retention)
	if err != nil {
		if ctx.Err() == nil {
			log.Error().Err(err).Msg("Failed to clean up audit events")
		}
		return
	}
	log.Info().
		Int64("deleted", rows).
		Int("retention_days", w.retentionDays).
		Msg("Cleaned up audit events")
}
