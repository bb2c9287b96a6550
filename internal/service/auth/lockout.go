package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Adham-AI-111/clinic-system-docker/internal/model"
	"github.com/Adham-AI-111/clinic-system-docker/internal/repository"
)

const (
	DefaultMaxLoginAttempts = 15
	DefaultLockoutDuration  = 15 * time.Minute
)

// LockoutTracker applies the failed attempt policy. Counter writes go through
// IdentityRepository.RecordFailedAttempt, which is atomic per identity.
type LockoutTracker struct {
	identities  repository.IdentityRepository
	maxAttempts int
	duration    time.Duration
}

func NewLockoutTracker(identities repository.IdentityRepository, maxAttempts int, duration time.Duration) *LockoutTracker {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxLoginAttempts
	}
	if duration <= 0 {
		duration = DefaultLockoutDuration
	}
	return &LockoutTracker{identities: identities, maxAttempts: maxAttempts, duration: duration}
}

// Check rejects identities whose lock is in force at now.
func (t *LockoutTracker) Check(identity *model.Identity, now time.Time) error {
	if identity.IsLocked(now) {
		return locked(identity.Lockout.RetryAfter(now))
	}
	return nil
}

// Fail records a failed attempt and returns the error to show the caller:
// kind with the remaining attempts, or ErrAccountLocked when this attempt
// reached the threshold.
func (t *LockoutTracker) Fail(ctx context.Context, identity *model.Identity, now time.Time, kind error) error {
	lockout, err := t.identities.RecordFailedAttempt(ctx, identity.ID, now, t.maxAttempts, t.duration)
	switch {
	case errors.Is(err, repository.ErrLocked):
		// Another request locked the account first.
		return t.lockedNow(ctx, identity, now)
	case err != nil:
		return fmt.Errorf("failed to record login attempt: %w", err)
	}

	identity.Lockout = *lockout
	if lockout.IsLocked(now) {
		log.Warn().
			Str("user_id", identity.ID.String()).
			Str("username", identity.Username).
			Int("attempts", lockout.FailedAttempts).
			Time("locked_until", *lockout.LockedUntil).
			Msg("Account locked after failed login attempts")
		e := locked(lockout.RetryAfter(now))
		e.newlyLocked = true
		return e
	}

	return &Error{Kind: kind, AttemptsRemaining: t.maxAttempts - lockout.FailedAttempts}
}

// Succeed clears the counters. The reset is conditional on the row not being
// locked at now, so a lock set by concurrent failures after identity was read
// still rejects the login.
func (t *LockoutTracker) Succeed(ctx context.Context, identity *model.Identity, now time.Time) error {
	err := t.identities.ResetAttempts(ctx, identity.ID, now)
	switch {
	case errors.Is(err, repository.ErrLocked):
		return t.lockedNow(ctx, identity, now)
	case err != nil:
		return fmt.Errorf("failed to reset login attempts: %w", err)
	}
	identity.FailedAttempts = 0
	identity.LockedUntil = nil
	return nil
}

// lockedNow re-reads the lock written by another request.
func (t *LockoutTracker) lockedNow(ctx context.Context, identity *model.Identity, now time.Time) error {
	current, err := t.identities.Get(ctx, identity.ID)
	if err != nil {
		return locked(t.duration)
	}
	identity.Lockout = current.Lockout
	return locked(current.Lockout.RetryAfter(now))
}

func (t *LockoutTracker) MaxAttempts() int {
	return t.maxAttempts
}
