package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Adham-AI-111/clinic-system-docker/internal/model"
	"github.com/Adham-AI-111/clinic-system-docker/internal/repository"
)

type domainRepository struct {
	BaseRepository
}

func NewDomainRepository(base BaseRepository) repository.DomainRepository {
	return &domainRepository{base}
}

func (r *domainRepository) PrimaryDomain(ctx context.Context, tenantID uuid.UUID) (*model.Domain, error) {
	query := `
		SELECT id, domain, tenant_id, is_primary
		FROM domains
		WHERE tenant_id = $1 AND is_primary
	`

	var domain model.Domain
	if err := r.db.GetContext(ctx, &domain, query, tenantID); err != nil {
		return nil, fmt.Errorf("failed to get primary domain: %w", translate(err))
	}
	return &domain, nil
}

func (r *domainRepository) TenantByDomain(ctx context.Context, host string) (*model.Tenant, error) {
	query := `
		SELECT` + tenantColumns + `
		FROM tenants t
		JOIN domains d ON d.tenant_id = t.id
		WHERE d.domain = $1
	`

	var tenant model.Tenant
	if err := r.db.GetContext(ctx, &tenant, query, host); err != nil {
		return nil, fmt.Errorf("failed to get tenant by domain: %w", translate(err))
	}
	return &tenant, nil
}
