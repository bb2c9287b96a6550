package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Adham-AI-111/clinic-system-docker/internal/model"
	"github.com/Adham-AI-111/clinic-system-docker/internal/repository"
)

type auditRepository struct {
	BaseRepository
}

func NewAuditRepository(base BaseRepository) repository.AuditRepository {
	return &auditRepository{base}
}

func (r *auditRepository) Create(ctx context.Context, event *model.AuthEvent) error {
	query := `
		INSERT INTO auth_events (
			id, user_id, username, tenant_schema, action, outcome,
			ip_address, user_agent, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.UserID,
		event.Username,
		event.TenantSchema,
		event.Action,
		event.Outcome,
		event.IPAddress,
		event.UserAgent,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create auth event: %w", err)
	}
	return nil
}

func (r *auditRepository) List(ctx context.Context, userID uuid.UUID, limit int) ([]*model.AuthEvent, error) {
	query := `
		SELECT id, user_id, username, tenant_schema, action, outcome,
			ip_address, user_agent, created_at
		FROM auth_events
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	var events []*model.AuthEvent
	if err := r.db.SelectContext(ctx, &events, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to list auth events: %w", err)
	}
	return events, nil
}

func (r *auditRepository) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM auth_events WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup auth events: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}
