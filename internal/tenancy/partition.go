// Package tenancy maps the request host to the tenant partition that all
// tenant scoped reads use.
package tenancy

import (
	"context"

	"github.com/google/uuid"

	"github.com/Adham-AI-111/clinic-system-docker/internal/model"
)

type contextKey string

const partitionKey contextKey = "partition"

// Partition identifies the active data partition. The zero TenantID means
// the public partition.
type Partition struct {
	Schema   string
	TenantID uuid.UUID
}

var Public = Partition{Schema: model.PublicSchema}

func (p Partition) IsPublic() bool {
	return p.Schema == model.PublicSchema || p.Schema == ""
}

func WithPartition(ctx context.Context, p Partition) context.Context {
	return context.WithValue(ctx, partitionKey, p)
}

// FromContext returns the partition stored by Middleware, or Public.
func FromContext(ctx context.Context) Partition {
	if p, ok := ctx.Value(partitionKey).(Partition); ok {
		return p
	}
	return Public
}
