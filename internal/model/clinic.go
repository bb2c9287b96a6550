package model

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is one clinic. It is owned by exactly one doctor identity and holds
// its patients in a dedicated schema.
type Tenant struct {
	ID               uuid.UUID `db:"id" json:"id"`
	SchemaName       string    `db:"schema_name" json:"schema_name"`
	OwnerID          uuid.UUID `db:"owner_id" json:"owner_id"`
	Major            string    `db:"major" json:"major"`
	Address          string    `db:"address" json:"address"`
	DefaultCost      *int      `db:"default_cost" json:"default_cost,omitempty"`
	DefaultPriorCost *int      `db:"default_prior_cost" json:"default_prior_cost,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// Domain routes a host name to a tenant.
type Domain struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Domain    string    `db:"domain" json:"domain"`
	TenantID  uuid.UUID `db:"tenant_id" json:"tenant_id"`
	IsPrimary bool      `db:"is_primary" json:"is_primary"`
}

// Patient is the per-tenant record tying a global identity to a clinic.
type Patient struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Age       int       `db:"age" json:"age"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
