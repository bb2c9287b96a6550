package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Adham-AI-111/clinic-system-docker/internal/model"
	"github.com/Adham-AI-111/clinic-system-docker/internal/repository"
	"github.com/Adham-AI-111/clinic-system-docker/internal/tenancy"
	"github.com/Adham-AI-111/clinic-system-docker/pkg/security"
	"github.com/Adham-AI-111/clinic-system-docker/pkg/validator"
)

// Authenticator verifies staff and patient credentials. Staff and patients
// share the identity table but never each other's procedure.
type Authenticator struct {
	identities repository.IdentityRepository
	patients   repository.PatientRepository
	hasher     security.PasswordHasher
	lockout    *LockoutTracker
	phones     *validator.PhoneNormalizer
}

func NewAuthenticator(
	identities repository.IdentityRepository,
	patients repository.PatientRepository,
	hasher security.PasswordHasher,
	lockout *LockoutTracker,
	phones *validator.PhoneNormalizer,
) *Authenticator {
	return &Authenticator{
		identities: identities,
		patients:   patients,
		hasher:     hasher,
		lockout:    lockout,
		phones:     phones,
	}
}

// AuthenticateStaff checks login (username or email) and password at now.
func (a *Authenticator) AuthenticateStaff(ctx context.Context, login, password string, now time.Time) (*model.Identity, error) {
	matches, err := a.identities.FindByUsernameOrEmail(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("failed to look up staff identity: %w", err)
	}

	switch len(matches) {
	case 0:
		a.hasher.CompareDummy(password)
		return nil, fail(ErrNotFound)
	case 1:
	default:
		log.Error().
			Str("login", login).
			Int("matches", len(matches)).
			Msg("Login matches more than one identity")
		return nil, fail(ErrAmbiguous)
	}

	identity := matches[0]
	if err := a.lockout.Check(identity, now); err != nil {
		return nil, err
	}

	passwordErr := a.hasher.Compare(identity.PasswordHash, password)
	if passwordErr != nil && !errors.Is(passwordErr, security.ErrPasswordMismatch) {
		return nil, fmt.Errorf("failed to verify password: %w", passwordErr)
	}

	if !identity.IsStaffMember() {
		if passwordErr != nil {
			return nil, fail(ErrInvalidCredentials)
		}
		return nil, fail(ErrWrongPrincipalKind)
	}

	switch {
	case passwordErr != nil:
		return nil, a.lockout.Fail(ctx, identity, now, ErrInvalidCredentials)
	case !identity.IsActive:
		return nil, a.lockout.Fail(ctx, identity, now, ErrInactive)
	}

	if err := a.lockout.Succeed(ctx, identity, now); err != nil {
		return nil, err
	}
	return identity, nil
}

// AuthenticatePatient finds the patient by phone and username. There is no
// password; the identity must have a patient record in the active partition.
func (a *Authenticator) AuthenticatePatient(ctx context.Context, partition tenancy.Partition, phone, username string, now time.Time) (*model.Identity, error) {
	if partition.IsPublic() {
		return nil, fail(ErrWrongPartition)
	}

	normalized, err := a.phones.Normalize(phone)
	if err != nil {
		return nil, fail(ErrNotFound)
	}

	matches, err := a.identities.FindPatients(ctx, normalized, username)
	if err != nil {
		return nil, fmt.Errorf("failed to look up patient identity: %w", err)
	}

	switch len(matches) {
	case 0:
		return nil, fail(ErrNotFound)
	case 1:
	default:
		log.Error().
			Str("username", username).
			Int("matches", len(matches)).
			Msg("Patient login matches more than one identity")
		return nil, fail(ErrAmbiguous)
	}

	identity := matches[0]
	if !identity.IsActive {
		return nil, fail(ErrInactive)
	}
	if err := a.lockout.Check(identity, now); err != nil {
		return nil, err
	}

	ok, err := a.patients.ExistsForUser(ctx, partition.Schema, identity.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check patient record: %w", err)
	}
	if !ok {
		log.Warn().
			Str("username", identity.Username).
			Str("schema", partition.Schema).
			Msg("Patient has no record in this clinic")
		return nil, fail(ErrNotFound)
	}

	if err := a.lockout.Succeed(ctx, identity, now); err != nil {
		return nil, err
	}
	return identity, nil
}
