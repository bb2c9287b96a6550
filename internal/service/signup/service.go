package signup

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Adham-AI-111/clinic-system-docker/internal/model"
	"github.com/Adham-AI-111/clinic-system-docker/internal/repository"
	"github.com/Adham-AI-111/clinic-system-docker/internal/service/audit"
	"github.com/Adham-AI-111/clinic-system-docker/internal/tenancy"
	apperrors "github.com/Adham-AI-111/clinic-system-docker/pkg/errors"
	"github.com/Adham-AI-111/clinic-system-docker/pkg/security"
	"github.com/Adham-AI-111/clinic-system-docker/pkg/validator"
)

// Actor is the logged in staff member performing a signup.
type Actor struct {
	UserID   uuid.UUID
	Username string
	Role     model.Role
}

type Service struct {
	patients repository.PatientRepository
	tenants  repository.TenantRepository
	hasher   security.PasswordHasher
	phones   *validator.PhoneNormalizer
	auditor  audit.Recorder
}

func NewService(
	patients repository.PatientRepository,
	tenants repository.TenantRepository,
	hasher security.PasswordHasher,
	phones *validator.PhoneNormalizer,
	auditor audit.Recorder,
) *Service {
	return &Service{
		patients: patients,
		tenants:  tenants,
		hasher:   hasher,
		phones:   phones,
		auditor:  auditor,
	}
}

// CreatePatient registers a patient in the active clinic. Patients log in
// with phone and username only, so the stored hash is unusable.
func (s *Service) CreatePatient(ctx context.Context, actor Actor, partition tenancy.Partition, req model.PatientSignupRequest, client model.ClientInfo) (*model.Identity, error) {
	if partition.IsPublic() {
		return nil, apperrors.BadRequest("patients can only be registered on a clinic domain", nil)
	}
	if !actor.Role.IsStaff() {
		return nil, apperrors.Forbidden("staff access required")
	}

	phone, err := s.phones.Normalize(req.Phone)
	if err != nil {
		return nil, apperrors.BadRequest("invalid phone number", err)
	}

	identity := &model.Identity{
		Username:     req.Username,
		Phone:        phone,
		Role:         model.RolePatient,
		PasswordHash: s.hasher.Unusable(),
		IsActive:     true,
	}
	patient := &model.Patient{Age: req.Age}

	if err := s.patients.CreateWithIdentity(ctx, partition.Schema, identity, patient); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("username or phone already registered", err)
		}
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}

	s.record(ctx, actor, identity, partition.Schema, client)
	return identity, nil
}

// CreateReception adds a reception account to the doctor's own clinic.
func (s *Service) CreateReception(ctx context.Context, actor Actor, req model.ReceptionSignupRequest, client model.ClientInfo) (*model.Identity, error) {
	if actor.Role != model.RoleDoctor {
		return nil, apperrors.Forbidden("doctor access required")
	}

	tenant, err := s.tenants.GetByOwner(ctx, actor.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Conflict("no clinic is associated with this account", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up clinic: %w", err)
	}

	phone, err := s.phones.Normalize(req.Phone)
	if err != nil {
		return nil, apperrors.BadRequest("invalid phone number", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if errors.Is(err, security.ErrPasswordTooShort) {
		return nil, apperrors.BadRequest("password too short", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	identity := &model.Identity{
		Username:     req.Username,
		Phone:        phone,
		Role:         model.RoleReception,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.tenants.AddStaff(ctx, tenant.ID, identity); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("username or phone already registered", err)
		}
		return nil, fmt.Errorf("failed to create reception: %w", err)
	}

	s.record(ctx, actor, identity, tenant.SchemaName, client)
	return identity, nil
}

func (s *Service) record(ctx context.Context, actor Actor, created *model.Identity, schema string, client model.ClientInfo) {
	s.auditor.Record(ctx, audit.Entry{
		UserID:   created.ID,
		Username: created.Username,
		Schema:   schema,
		Action:   model.AuditActionSignup,
		Outcome:  model.AuditOutcomeSuccess,
		Client:   client,
	})
	log.Info().
		Str("created_by", actor.Username).
		Str("username", created.Username).
		Str("role", string(created.Role)).
		Str("schema", schema).
		Msg("Account created")
}
