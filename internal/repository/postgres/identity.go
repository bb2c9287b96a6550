package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Adham-AI-111/clinic-system-docker/internal/model"
	"github.com/Adham-AI-111/clinic-system-docker/internal/repository"
)

const identityColumns = `
	id, username, email, phone, role, password_hash, is_active,
	failed_login_attempts, last_login_attempt, account_locked_until,
	created_at, updated_at`

type identityRepository struct {
	BaseRepository
}

func NewIdentityRepository(base BaseRepository) repository.IdentityRepository {
	return &identityRepository{base}
}

func (r *identityRepository) Get(ctx context.Context, id uuid.UUID) (*model.Identity, error) {
	query := `SELECT` + identityColumns + ` FROM users WHERE id = $1`

	var identity model.Identity
	if err := r.db.GetContext(ctx, &identity, query, id); err != nil {
		return nil, fmt.Errorf("failed to get identity: %w", translate(err))
	}
	return &identity, nil
}

func (r *identityRepository) GetByIDAndUsername(ctx context.Context, id uuid.UUID, username string) (*model.Identity, error) {
	query := `SELECT` + identityColumns + ` FROM users WHERE id = $1 AND username = $2`

	var identity model.Identity
	if err := r.db.GetContext(ctx, &identity, query, id, username); err != nil {
		return nil, fmt.Errorf("failed to get identity: %w", translate(err))
	}
	return &identity, nil
}

func (r *identityRepository) FindByUsernameOrEmail(ctx context.Context, login string) ([]*model.Identity, error) {
	query := `SELECT` + identityColumns + ` FROM users WHERE username = $1 OR email = $1`

	var identities []*model.Identity
	if err := r.db.SelectContext(ctx, &identities, query, login); err != nil {
		return nil, fmt.Errorf("failed to find identities: %w", err)
	}
	return identities, nil
}

func (r *identityRepository) FindPatients(ctx context.Context, phone, username string) ([]*model.Identity, error) {
	query := `SELECT` + identityColumns + ` FROM users WHERE phone = $1 AND username = $2 AND role = $3`

	var identities []*model.Identity
	if err := r.db.SelectContext(ctx, &identities, query, phone, username, model.RolePatient); err != nil {
		return nil, fmt.Errorf("failed to find patients: %w", err)
	}
	return identities, nil
}

func (r *identityRepository) Create(ctx context.Context, identity *model.Identity) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		return insertIdentity(ctx, tx, identity)
	})
}

func insertIdentity(ctx context.Context, tx *sqlx.Tx, identity *model.Identity) error {
	query := `
		INSERT INTO users (
			id, username, email, phone, role, password_hash, is_active,
			failed_login_attempts, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, $9)
	`

	now := time.Now()
	if identity.ID == uuid.Nil {
		identity.ID = uuid.New()
	}
	identity.CreatedAt = now
	identity.UpdatedAt = now

	_, err := tx.ExecContext(ctx, query,
		identity.ID,
		identity.Username,
		identity.Email,
		identity.Phone,
		identity.Role,
		identity.PasswordHash,
		identity.IsActive,
		identity.CreatedAt,
		identity.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create identity: %w", translate(err))
	}
	return nil
}

// RecordFailedAttempt runs as one statement so concurrent failures for the
// same identity serialize on the row lock and none of them is lost.
func (r *identityRepository) RecordFailedAttempt(ctx context.Context, id uuid.UUID, now time.Time, threshold int, lockFor time.Duration) (*model.Lockout, error) {
	query := `
		UPDATE users SET
			failed_login_attempts = failed_login_attempts + 1,
			last_login_attempt = $2,
			account_locked_until = CASE
				WHEN failed_login_attempts + 1 >= $3 THEN $4
				ELSE account_locked_until
			END,
			updated_at = $2
		WHERE id = $1
			AND (account_locked_until IS NULL OR account_locked_until <= $2)
		RETURNING failed_login_attempts, last_login_attempt, account_locked_until
	`

	var lockout model.Lockout
	err := r.db.GetContext(ctx, &lockout, query, id, now, threshold, now.Add(lockFor))
	if err == nil {
		return &lockout, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to record failed attempt: %w", err)
	}

	return nil, r.lockedOrMissing(ctx, id)
}

// lockedOrMissing explains a conditional update that matched no row.
func (r *identityRepository) lockedOrMissing(ctx context.Context, id uuid.UUID) error {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id); err != nil {
		return fmt.Errorf("failed to check identity: %w", err)
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrLocked
}

func (r *identityRepository) ResetAttempts(ctx context.Context, id uuid.UUID, now time.Time) error {
	query := `
		UPDATE users SET
			failed_login_attempts = 0,
			account_locked_until = NULL,
			updated_at = $2
		WHERE id = $1
			AND (account_locked_until IS NULL OR account_locked_until <= $2)
	`

	result, err := r.db.ExecContext(ctx, query, id, now)
	if err != nil {
		return fmt.Errorf("failed to reset login attempts: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}
	return r.lockedOrMissing(ctx, id)
}
