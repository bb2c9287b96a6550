// Package session implements server-side sessions. The browser only holds a
// signed session id; the data lives in Redis or in process memory.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/Adham-AI-111/clinic-system-docker/internal/model"
)

// Data is the authenticated principal bound to a session.
type Data struct {
	UserID   uuid.UUID  `json:"user_id"`
	Username string     `json:"username"`
	Role     model.Role `json:"role"`
	// Schema is the partition the login happened in.
	Schema string `json:"schema"`
}

// Session is the per-request view of a stored session. Changes are persisted
// by Manager.Commit.
type Session struct {
	ID        string
	Data      Data
	ExpiresAt time.Time

	previousID string
	fresh      bool
	dirty      bool
	destroyed  bool
}

// New returns an empty session with a fresh id. It is saved on first Commit.
func New() *Session {
	return &Session{ID: uuid.NewString(), fresh: true}
}

func (s *Session) IsAuthenticated() bool {
	return s.Data.UserID != uuid.Nil
}

// Authenticate binds identity to the session and schedules an id rotation so
// a pre-login session id cannot be reused after login.
func (s *Session) Authenticate(identity *model.Identity, schema string) {
	s.Data = Data{
		UserID:   identity.ID,
		Username: identity.Username,
		Role:     identity.Role,
		Schema:   schema,
	}
	if !s.fresh && s.previousID == "" {
		s.previousID = s.ID
	}
	s.ID = uuid.NewString()
	s.ExpiresAt = time.Time{}
	s.dirty = true
}

// SetExpiry shortens or extends the session to d from now.
func (s *Session) SetExpiry(d time.Duration) {
	s.ExpiresAt = time.Now().Add(d)
	s.dirty = true
}

// Destroy drops the session and its data on commit.
func (s *Session) Destroy() {
	s.Data = Data{}
	s.destroyed = true
	s.dirty = true
}

// Touch marks the session for saving even if its data did not change.
func (s *Session) Touch() {
	s.dirty = true
}

func (s *Session) rotated() bool {
	return s.previousID != ""
}
