package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adham-AI-111/clinic-system-docker/internal/model"
	"github.com/Adham-AI-111/clinic-system-docker/internal/repository"
)

func newMockBase(t *testing.T) (BaseRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewBaseRepository(sqlx.NewDb(db, "sqlmock")), mock
}

var identityRowColumns = []string{
	"id", "username", "email", "phone", "role", "password_hash", "is_active",
	"failed_login_attempts", "last_login_attempt", "account_locked_until",
	"created_at", "updated_at",
}

func TestIdentityRepository_FindByUsernameOrEmail(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewIdentityRepository(base)

	id := uuid.New()
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username = $1 OR email = $1")).
		WithArgs("dr.hany").
		WillReturnRows(sqlmock.NewRows(identityRowColumns).
			AddRow(id.String(), "dr.hany", nil, "+201001234567", "doctor", "hash", true, 3, now, nil, now, now))

	identities, err := repo.FindByUsernameOrEmail(context.Background(), "dr.hany")
	require.NoError(t, err)
	require.Len(t, identities, 1)
	assert.Equal(t, id, identities[0].ID)
	assert.Equal(t, model.RoleDoctor, identities[0].Role)
	assert.Equal(t, 3, identities[0].FailedAttempts)
	assert.Nil(t, identities[0].LockedUntil)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityRepository_GetNotFound(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewIdentityRepository(base)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestIdentityRepository_RecordFailedAttempt(t *testing.T) {
	id := uuid.New()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("increments", func(t *testing.T) {
		base, mock := newMockBase(t)
		repo := NewIdentityRepository(base)

		mock.ExpectQuery(regexp.QuoteMeta("UPDATE users SET")).
			WithArgs(sqlmock.AnyArg(), now, 15, now.Add(15*time.Minute)).
			WillReturnRows(sqlmock.NewRows([]string{"failed_login_attempts", "last_login_attempt", "account_locked_until"}).
				AddRow(4, now, nil))

		lockout, err := repo.RecordFailedAttempt(context.Background(), id, now, 15, 15*time.Minute)
		require.NoError(t, err)
		assert.Equal(t, 4, lockout.FailedAttempts)
		assert.False(t, lockout.IsLocked(now))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("sets lock at threshold", func(t *testing.T) {
		base, mock := newMockBase(t)
		repo := NewIdentityRepository(base)

		until := now.Add(15 * time.Minute)
		mock.ExpectQuery(regexp.QuoteMeta("UPDATE users SET")).
			WillReturnRows(sqlmock.NewRows([]string{"failed_login_attempts", "last_login_attempt", "account_locked_until"}).
				AddRow(15, now, until))

		lockout, err := repo.RecordFailedAttempt(context.Background(), id, now, 15, 15*time.Minute)
		require.NoError(t, err)
		assert.True(t, lockout.IsLocked(now))
		assert.Equal(t, 15*time.Minute, lockout.RetryAfter(now))
	})

	t.Run("locked row untouched", func(t *testing.T) {
		base, mock := newMockBase(t)
		repo := NewIdentityRepository(base)

		mock.ExpectQuery(regexp.QuoteMeta("UPDATE users SET")).WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		_, err := repo.RecordFailedAttempt(context.Background(), id, now, 15, 15*time.Minute)
		assert.ErrorIs(t, err, repository.ErrLocked)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown identity", func(t *testing.T) {
		base, mock := newMockBase(t)
		repo := NewIdentityRepository(base)

		mock.ExpectQuery(regexp.QuoteMeta("UPDATE users SET")).WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		_, err := repo.RecordFailedAttempt(context.Background(), id, now, 15, 15*time.Minute)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestIdentityRepository_ResetAttempts(t *testing.T) {
	id := uuid.New()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("clears counters", func(t *testing.T) {
		base, mock := newMockBase(t)
		repo := NewIdentityRepository(base)

		mock.ExpectExec(regexp.QuoteMeta("failed_login_attempts = 0")).
			WithArgs(id, now).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.ResetAttempts(context.Background(), id, now))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("locked row untouched", func(t *testing.T) {
		base, mock := newMockBase(t)
		repo := NewIdentityRepository(base)

		mock.ExpectExec(regexp.QuoteMeta("account_locked_until IS NULL OR account_locked_until <= $2")).
			WithArgs(id, now).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		err := repo.ResetAttempts(context.Background(), id, now)
		assert.ErrorIs(t, err, repository.ErrLocked)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown identity", func(t *testing.T) {
		base, mock := newMockBase(t)
		repo := NewIdentityRepository(base)

		mock.ExpectExec(regexp.QuoteMeta("failed_login_attempts = 0")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		err := repo.ResetAttempts(context.Background(), id, now)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestIdentityRepository_CreateDuplicate(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewIdentityRepository(base)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: uniqueViolation})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &model.Identity{Username: "taken", Role: model.RoleReception})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}
