package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Adham-AI-111/clinic-system-docker/internal/model"
	"github.com/Adham-AI-111/clinic-system-docker/internal/repository"
)

const tenantColumns = `
	t.id, t.schema_name, t.owner_id, t.major, t.address,
	t.default_cost, t.default_prior_cost, t.created_at`

type tenantRepository struct {
	BaseRepository
}

func NewTenantRepository(base BaseRepository) repository.TenantRepository {
	return &tenantRepository{base}
}

func (r *tenantRepository) Get(ctx context.Context, id uuid.UUID) (*model.Tenant, error) {
	query := `SELECT` + tenantColumns + ` FROM tenants t WHERE t.id = $1`

	var tenant model.Tenant
	if err := r.db.GetContext(ctx, &tenant, query, id); err != nil {
		return nil, fmt.Errorf("failed to get tenant: %w", translate(err))
	}
	return &tenant, nil
}

func (r *tenantRepository) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*model.Tenant, error) {
	query := `SELECT` + tenantColumns + ` FROM tenants t WHERE t.owner_id = $1`

	var tenant model.Tenant
	if err := r.db.GetContext(ctx, &tenant, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to get tenant by owner: %w", translate(err))
	}
	return &tenant, nil
}

func (r *tenantRepository) GetByStaffMember(ctx context.Context, userID uuid.UUID) (*model.Tenant, error) {
	query := `
		SELECT` + tenantColumns + `
		FROM tenants t
		JOIN tenant_staff s ON s.tenant_id = t.id
		WHERE s.user_id = $1
	`

	var tenant model.Tenant
	if err := r.db.GetContext(ctx, &tenant, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get tenant by staff member: %w", translate(err))
	}
	return &tenant, nil
}

func (r *tenantRepository) AddStaff(ctx context.Context, tenantID uuid.UUID, identity *model.Identity) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := insertIdentity(ctx, tx, identity); err != nil {
			return err
		}

		query := `INSERT INTO tenant_staff (tenant_id, user_id, created_at) VALUES ($1, $2, $3)`
		if _, err := tx.ExecContext(ctx, query, tenantID, identity.ID, time.Now()); err != nil {
			return fmt.Errorf("failed to attach staff member: %w", translate(err))
		}
		return nil
	})
}
