package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Adham-AI-111/clinic-system-docker/internal/model"
	"github.com/Adham-AI-111/clinic-system-docker/internal/repository"
)

// Recorder is what the auth flows need from the audit trail.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

// Entry describes one authentication event.
type Entry struct {
	UserID   uuid.UUID
	Username string
	Schema   string
	Action   string
	Outcome  string
	Client   model.ClientInfo
}

type Service struct {
	repo repository.AuditRepository
}

func NewService(repo repository.AuditRepository) *Service {
	return &Service{repo: repo}
}

// Record writes entry to the audit trail. Failures are logged and never
// surface to the login flow.
func (s *Service) Record(ctx context.Context, entry Entry) {
	event := &model.AuthEvent{
		ID:           uuid.New(),
		Username:     entry.Username,
		TenantSchema: entry.Schema,
		Action:       entry.Action,
		Outcome:      entry.Outcome,
		IPAddress:    entry.Client.IPAddress,
		UserAgent:    entry.Client.UserAgent,
		CreatedAt:    time.Now(),
	}
	if entry.UserID != uuid.Nil {
		id := entry.UserID
		event.UserID = &id
	}

	if err := s.repo.Create(ctx, event); err != nil {
		log.Warn().
			Err(err).
			Str("action", entry.Action).
			Str("outcome", entry.Outcome).
			Msg("Failed to record auth event")
	}
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, limit int) ([]*model.AuthEvent, error) {
	return s.repo.List(ctx, userID, limit)
}

// Cleanup deletes events older than retention.
func (s *Service) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	return s.repo.Cleanup(ctx, time.Now().Add(-retention))
}

// Nop discards every entry.
type Nop struct{}

func (Nop) Record(context.Context, Entry) {}
