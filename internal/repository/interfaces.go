package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Adham-AI-111/clinic-system-docker/internal/model"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
	// ErrLocked is returned by RecordFailedAttempt and ResetAttempts when the
	// row is already locked and was left untouched.
	ErrLocked = errors.New("identity is locked")
)

// All repository interfaces in one file
type (
	// IdentityRepository is the global credential store.
	IdentityRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Identity, error)
		GetByIDAndUsername(ctx context.Context, id uuid.UUID, username string) (*model.Identity, error)
		// FindByUsernameOrEmail returns every identity whose username or
		// email equals login. Callers treat more than one row as an
		// integrity anomaly.
		FindByUsernameOrEmail(ctx context.Context, login string) ([]*model.Identity, error)
		FindPatients(ctx context.Context, phone, username string) ([]*model.Identity, error)
		Create(ctx context.Context, identity *model.Identity) error
		// RecordFailedAttempt atomically increments the failure counter,
		// stamps the attempt time and sets the lock once threshold is
		// reached. Rows locked at now are not modified (ErrLocked).
		RecordFailedAttempt(ctx context.Context, id uuid.UUID, now time.Time, threshold int, lockFor time.Duration) (*model.Lockout, error)
		// ResetAttempts clears the counter and lock unless the row is
		// locked at now (ErrLocked).
		ResetAttempts(ctx context.Context, id uuid.UUID, now time.Time) error
	}

	// TenantRepository is the tenant directory.
	TenantRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Tenant, error)
		GetByOwner(ctx context.Context, ownerID uuid.UUID) (*model.Tenant, error)
		GetByStaffMember(ctx context.Context, userID uuid.UUID) (*model.Tenant, error)
		// AddStaff creates a reception identity and attaches it to the tenant
		// in one transaction.
		AddStaff(ctx context.Context, tenantID uuid.UUID, identity *model.Identity) error
	}

	DomainRepository interface {
		PrimaryDomain(ctx context.Context, tenantID uuid.UUID) (*model.Domain, error)
		TenantByDomain(ctx context.Context, host string) (*model.Tenant, error)
	}

	// PatientRepository reads and writes the per-tenant patients table.
	PatientRepository interface {
		ExistsForUser(ctx context.Context, schema string, userID uuid.UUID) (bool, error)
		// CreateWithIdentity inserts the global identity and the tenant
		// patient row in one transaction.
		CreateWithIdentity(ctx context.Context, schema string, identity *model.Identity, patient *model.Patient) error
	}

	AuditRepository interface {
		Create(ctx context.Context, event *model.AuthEvent) error
		List(ctx context.Context, userID uuid.UUID, limit int) ([]*model.AuthEvent, error)
		Cleanup(ctx context.Context, before time.Time) (int64, error)
	}
)
