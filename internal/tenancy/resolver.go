package tenancy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/Adham-AI-111/clinic-system-docker/internal/repository"
)

// Resolver turns host names into partitions, caching both hits and misses.
type Resolver struct {
	domains repository.DomainRepository
	cache   *cache.Cache
}

func NewResolver(domains repository.DomainRepository, ttl time.Duration) *Resolver {
	return &Resolver{
		domains: domains,
		cache:   cache.New(ttl, 2*ttl),
	}
}

// Resolve returns the partition for host. Unknown hosts map to Public.
func (r *Resolver) Resolve(ctx context.Context, host string) (Partition, error) {
	host = NormalizeHost(host)
	if host == "" {
		return Public, nil
	}

	if cached, ok := r.cache.Get(host); ok {
		return cached.(Partition), nil
	}

	tenant, err := r.domains.TenantByDomain(ctx, host)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		r.cache.SetDefault(host, Public)
		return Public, nil
	case err != nil:
		return Public, fmt.Errorf("failed to resolve tenant for %s: %w", host, err)
	}

	p := Partition{Schema: tenant.SchemaName, TenantID: tenant.ID}
	r.cache.SetDefault(host, p)
	return p, nil
}

// NormalizeHost strips the port and lower-cases host.
func NormalizeHost(host string) string {
	host = strings.TrimSpace(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.ToLower(strings.TrimSuffix(host, "."))
}
