package session

import (
	"context"
	"errors"
	"time"

	"github.com/Adham-AI-111/clinic-system-docker/internal/model"
)

var ErrNotFound = errors.New("session not found")

// Record is the persisted form of a session.
type Record struct {
	Data      Data      `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store persists session records and the pending handoff token of a session.
type Store interface {
	Load(ctx context.Context, id string) (*Record, error)
	Save(ctx context.Context, id string, rec Record, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
	HandoffStore
	Ping(ctx context.Context) error
}

// HandoffStore keeps at most one pending staff login per session.
type HandoffStore interface {
	PutHandoff(ctx context.Context, sessionID string, token model.HandoffToken, ttl time.Duration) error
	// TakeHandoff returns and removes the pending token in one step. A second
	// call for the same token returns ErrNotFound.
	TakeHandoff(ctx context.Context, sessionID string) (*model.HandoffToken, error)
}

func recordKey(id string) string  { return "session:" + id }
func handoffKey(id string) string { return "session:" + id + ":pending_staff_login" }
