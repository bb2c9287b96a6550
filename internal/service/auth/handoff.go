package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Adham-AI-111/clinic-system-docker/internal/model"
	"github.com/Adham-AI-111/clinic-system-docker/internal/repository"
	"github.com/Adham-AI-111/clinic-system-docker/internal/session"
	"github.com/Adham-AI-111/clinic-system-docker/internal/tenancy"
)

const (
	DefaultHandoffTTL = 5 * time.Minute

	StaffDashboardPath = "/reception/dashboard/"
	StaffLoginPath     = "/staff-login/"
)

// Outcome is where the client goes after a successful step.
type Outcome struct {
	// LoggedIn is false when the login still has to be completed on the
	// tenant domain.
	LoggedIn bool   `json:"logged_in"`
	Redirect string `json:"redirect"`
}

// HandoffCoordinator completes staff logins on the tenant's own domain.
type HandoffCoordinator struct {
	identities repository.IdentityRepository
	tenants    repository.TenantRepository
	domains    repository.DomainRepository
	handoffs   session.HandoffStore
	ttl        time.Duration
	tenantPort int
}

func NewHandoffCoordinator(
	identities repository.IdentityRepository,
	tenants repository.TenantRepository,
	domains repository.DomainRepository,
	handoffs session.HandoffStore,
	ttl time.Duration,
	tenantPort int,
) *HandoffCoordinator {
	if ttl <= 0 {
		ttl = DefaultHandoffTTL
	}
	return &HandoffCoordinator{
		identities: identities,
		tenants:    tenants,
		domains:    domains,
		handoffs:   handoffs,
		ttl:        ttl,
		tenantPort: tenantPort,
	}
}

// TenantFor returns the clinic a staff identity works for.
func (h *HandoffCoordinator) TenantFor(ctx context.Context, identity *model.Identity) (*model.Tenant, error) {
	var (
		tenant *model.Tenant
		err    error
	)
	switch identity.Role {
	case model.RoleDoctor:
		tenant, err = h.tenants.GetByOwner(ctx, identity.ID)
	case model.RoleReception:
		tenant, err = h.tenants.GetByStaffMember(ctx, identity.ID)
	default:
		return nil, fail(ErrNoTenantAssociation)
	}

	if errors.Is(err, repository.ErrNotFound) {
		return nil, fail(ErrNoTenantAssociation)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up tenant: %w", err)
	}
	return tenant, nil
}

// TenantURL builds the absolute URL of path on the tenant's primary domain.
func (h *HandoffCoordinator) TenantURL(ctx context.Context, tenant *model.Tenant, path string) (string, error) {
	domain, err := h.domains.PrimaryDomain(ctx, tenant.ID)
	if errors.Is(err, repository.ErrNotFound) {
		log.Error().Str("schema", tenant.SchemaName).Msg("Tenant has no primary domain")
		return "", fail(ErrNoDomainConfigured)
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up primary domain: %w", err)
	}

	host := domain.Domain
	if h.tenantPort != 0 {
		host = net.JoinHostPort(host, strconv.Itoa(h.tenantPort))
	}
	return "http://" + host + path, nil
}

// Begin routes an authenticated staff identity to its clinic. On the clinic's
// own domain the session is logged in at once; anywhere else a pending
// token is stored and the client is sent to the clinic domain to finish.
func (h *HandoffCoordinator) Begin(ctx context.Context, sess *session.Session, identity *model.Identity, partition tenancy.Partition, now time.Time) (*Outcome, error) {
	tenant, err := h.TenantFor(ctx, identity)
	if err != nil {
		log.Warn().
			Str("username", identity.Username).
			Str("role", string(identity.Role)).
			Msg("Staff identity has no tenant association")
		return nil, err
	}

	target, err := h.TenantURL(ctx, tenant, StaffLoginPath)
	if err != nil {
		return nil, err
	}

	if partition.Schema == tenant.SchemaName {
		sess.Authenticate(identity, partition.Schema)
		return &Outcome{LoggedIn: true, Redirect: StaffDashboardPath}, nil
	}

	token := model.HandoffToken{UserID: identity.ID, Username: identity.Username, IssuedAt: now}
	if err := h.handoffs.PutHandoff(ctx, sess.ID, token, h.ttl); err != nil {
		return nil, fmt.Errorf("failed to store pending login: %w", err)
	}
	sess.SetExpiry(h.ttl)

	log.Info().
		Str("username", identity.Username).
		Str("target", target).
		Msg("Staff authenticated, redirecting to tenant domain")
	return &Outcome{Redirect: target}, nil
}

// Resume completes a pending login on the tenant domain. The token is
// consumed before it is validated, so it can never be used twice. Any
// failure returns false and the caller shows the normal login form.
func (h *HandoffCoordinator) Resume(ctx context.Context, sess *session.Session, partition tenancy.Partition, now time.Time) (*model.Identity, bool) {
	if sess.IsAuthenticated() {
		return nil, false
	}

	token, err := h.handoffs.TakeHandoff(ctx, sess.ID)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			log.Error().Err(err).Msg("Failed to read pending login")
		}
		return nil, false
	}

	identity, err := h.validate(ctx, token, partition, now)
	if err != nil {
		log.Debug().Err(err).Str("username", token.Username).Msg("Pending login rejected")
		return nil, false
	}

	sess.Authenticate(identity, partition.Schema)
	return identity, true
}

func (h *HandoffCoordinator) validate(ctx context.Context, token *model.HandoffToken, partition tenancy.Partition, now time.Time) (*model.Identity, error) {
	if token.Expired(now, h.ttl) {
		return nil, &Error{Kind: ErrHandoffExpiredOrInvalid, Err: errors.New("token expired")}
	}

	identity, err := h.identities.GetByIDAndUsername(ctx, token.UserID, token.Username)
	if err != nil {
		return nil, &Error{Kind: ErrHandoffExpiredOrInvalid, Err: err}
	}
	if !identity.IsStaffMember() || !identity.IsActive || identity.IsLocked(now) {
		return nil, &Error{Kind: ErrHandoffExpiredOrInvalid, Err: errors.New("identity no longer eligible")}
	}

	tenant, err := h.TenantFor(ctx, identity)
	if err != nil {
		return nil, &Error{Kind: ErrHandoffExpiredOrInvalid, Err: err}
	}
	if tenant.SchemaName != partition.Schema {
		return nil, &Error{Kind: ErrHandoffExpiredOrInvalid, Err: errors.New("token presented on another clinic's domain")}
	}
	return identity, nil
}
