// Package memory is an in-process implementation of the repository
// interfaces used as the test double for the service and handler tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Adham-AI-111/clinic-system-docker/internal/model"
	"github.com/Adham-AI-111/clinic-system-docker/internal/repository"
)

// Store holds every table behind a single mutex.
type Store struct {
	mu         sync.Mutex
	identities map[uuid.UUID]model.Identity
	tenants    map[uuid.UUID]model.Tenant
	domains    map[string]model.Domain
	staff      map[uuid.UUID]uuid.UUID // user id -> tenant id
	patients   map[string]map[uuid.UUID]model.Patient
	events     []model.AuthEvent
}

func NewStore() *Store {
	return &Store{
		identities: make(map[uuid.UUID]model.Identity),
		tenants:    make(map[uuid.UUID]model.Tenant),
		domains:    make(map[string]model.Domain),
		staff:      make(map[uuid.UUID]uuid.UUID),
		patients:   make(map[string]map[uuid.UUID]model.Patient),
	}
}

func (s *Store) Identities() repository.IdentityRepository { return identityRepo{s} }
func (s *Store) Tenants() repository.TenantRepository       { return tenantRepo{s} }
func (s *Store) Domains() repository.DomainRepository       { return domainRepo{s} }
func (s *Store) Patients() repository.PatientRepository     { return patientRepo{s} }
func (s *Store) Audit() repository.AuditRepository          { return auditRepo{s} }

// AddIdentity inserts or replaces an identity without uniqueness checks.
func (s *Store) AddIdentity(identity *model.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if identity.ID == uuid.Nil {
		identity.ID = uuid.New()
	}
	s.identities[identity.ID] = *identity
}

// AddTenant registers a tenant with its domains. The first domain is primary.
func (s *Store) AddTenant(tenant *model.Tenant, domains ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tenant.ID == uuid.Nil {
		tenant.ID = uuid.New()
	}
	s.tenants[tenant.ID] = *tenant
	if _, ok := s.patients[tenant.SchemaName]; !ok {
		s.patients[tenant.SchemaName] = make(map[uuid.UUID]model.Patient)
	}
	for i, d := range domains {
		s.domains[strings.ToLower(d)] = model.Domain{
			ID:        uuid.New(),
			Domain:    strings.ToLower(d),
			TenantID:  tenant.ID,
			IsPrimary: i == 0,
		}
	}
}

// AttachStaff links a reception identity to a tenant.
func (s *Store) AttachStaff(tenantID, userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staff[userID] = tenantID
}

// AddPatient creates a patient record for userID in schema.
func (s *Store) AddPatient(schema string, userID uuid.UUID, age int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putPatient(schema, model.Patient{ID: uuid.New(), UserID: userID, Age: age, CreatedAt: time.Now(), UpdatedAt: time.Now()})
}

// Events returns a copy of the recorded audit trail.
func (s *Store) Events() []model.AuthEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.AuthEvent(nil), s.events...)
}

func (s *Store) putPatient(schema string, p model.Patient) {
	table, ok := s.patients[schema]
	if !ok {
		table = make(map[uuid.UUID]model.Patient)
		s.patients[schema] = table
	}
	table[p.UserID] = p
}

func (s *Store) insertIdentity(identity *model.Identity) error {
	for _, existing := range s.identities {
		if existing.Username == identity.Username {
			return repository.ErrDuplicate
		}
		if identity.Phone != "" && existing.Phone == identity.Phone {
			return repository.ErrDuplicate
		}
	}
	now := time.Now()
	if identity.ID == uuid.Nil {
		identity.ID = uuid.New()
	}
	identity.CreatedAt = now
	identity.UpdatedAt = now
	identity.Lockout = model.Lockout{}
	s.identities[identity.ID] = *identity
	return nil
}

type identityRepo struct{ s *Store }

func (r identityRepo) Get(_ context.Context, id uuid.UUID) (*model.Identity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	identity, ok := r.s.identities[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &identity, nil
}

func (r identityRepo) GetByIDAndUsername(_ context.Context, id uuid.UUID, username string) (*model.Identity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	identity, ok := r.s.identities[id]
	if !ok || identity.Username != username {
		return nil, repository.ErrNotFound
	}
	return &identity, nil
}

func (r identityRepo) FindByUsernameOrEmail(_ context.Context, login string) ([]*model.Identity, error) {
	return r.find(func(i model.Identity) bool {
		return i.Username == login || (i.Email != nil && *i.Email == login)
	}), nil
}

func (r identityRepo) FindPatients(_ context.Context, phone, username string) ([]*model.Identity, error) {
	return r.find(func(i model.Identity) bool {
		return i.Phone == phone && i.Username == username && i.Role == model.RolePatient
	}), nil
}

func (r identityRepo) find(match func(model.Identity) bool) []*model.Identity {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Identity
	for _, identity := range r.s.identities {
		if match(identity) {
			identity := identity
			out = append(out, &identity)
		}
	}
	return out
}

func (r identityRepo) Create(_ context.Context, identity *model.Identity) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.insertIdentity(identity)
}

func (r identityRepo) RecordFailedAttempt(_ context.Context, id uuid.UUID, now time.Time, threshold int, lockFor time.Duration) (*model.Lockout, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	identity, ok := r.s.identities[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if identity.IsLocked(now) {
		return nil, repository.ErrLocked
	}

	identity.FailedAttempts++
	identity.LastLoginAttempt = &now
	if identity.FailedAttempts >= threshold {
		until := now.Add(lockFor)
		identity.LockedUntil = &until
	}
	identity.UpdatedAt = now
	r.s.identities[id] = identity

	lockout := identity.Lockout
	return &lockout, nil
}

func (r identityRepo) ResetAttempts(_ context.Context, id uuid.UUID, now time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	identity, ok := r.s.identities[id]
	if !ok {
		return repository.ErrNotFound
	}
	if identity.IsLocked(now) {
		return repository.ErrLocked
	}
	identity.FailedAttempts = 0
	identity.LockedUntil = nil
	identity.UpdatedAt = now
	r.s.identities[id] = identity
	return nil
}

type tenantRepo struct{ s *Store }

func (r tenantRepo) Get(_ context.Context, id uuid.UUID) (*model.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	tenant, ok := r.s.tenants[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &tenant, nil
}

func (r tenantRepo) GetByOwner(_ context.Context, ownerID uuid.UUID) (*model.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, tenant := range r.s.tenants {
		if tenant.OwnerID == ownerID {
			return &tenant, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r tenantRepo) GetByStaffMember(_ context.Context, userID uuid.UUID) (*model.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	tenantID, ok := r.s.staff[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	tenant, ok := r.s.tenants[tenantID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &tenant, nil
}

func (r tenantRepo) AddStaff(_ context.Context, tenantID uuid.UUID, identity *model.Identity) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tenants[tenantID]; !ok {
		return repository.ErrNotFound
	}
	if err := r.s.insertIdentity(identity); err != nil {
		return err
	}
	r.s.staff[identity.ID] = tenantID
	return nil
}

type domainRepo struct{ s *Store }

func (r domainRepo) PrimaryDomain(_ context.Context, tenantID uuid.UUID) (*model.Domain, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range r.s.domains {
		if d.TenantID == tenantID && d.IsPrimary {
			return &d, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r domainRepo) TenantByDomain(_ context.Context, host string) (*model.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.domains[strings.ToLower(host)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	tenant, ok := r.s.tenants[d.TenantID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &tenant, nil
}

type patientRepo struct{ s *Store }

func (r patientRepo) ExistsForUser(_ context.Context, schema string, userID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.patients[schema][userID]
	return ok, nil
}

func (r patientRepo) CreateWithIdentity(_ context.Context, schema string, identity *model.Identity, patient *model.Patient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.insertIdentity(identity); err != nil {
		return err
	}
	now := time.Now()
	if patient.ID == uuid.Nil {
		patient.ID = uuid.New()
	}
	patient.UserID = identity.ID
	patient.CreatedAt = now
	patient.UpdatedAt = now
	r.s.putPatient(schema, *patient)
	return nil
}

type auditRepo struct{ s *Store }

func (r auditRepo) Create(_ context.Context, event *model.AuthEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	r.s.events = append(r.s.events, *event)
	return nil
}

func (r auditRepo) List(_ context.Context, userID uuid.UUID, limit int) ([]*model.AuthEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.AuthEvent
	for i := range r.s.events {
		e := r.s.events[i]
		if e.UserID != nil && *e.UserID == userID {
			out = append(out, &e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r auditRepo) Cleanup(_ context.Context, before time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.events[:0]
	var removed int64
	for _, e := range r.s.events {
		if e.CreatedAt.Before(before) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	r.s.events = kept
	return removed, nil
}
