package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Adham-AI-111/clinic-system-docker/internal/model"
	"github.com/Adham-AI-111/clinic-system-docker/internal/service/audit"
	"github.com/Adham-AI-111/clinic-system-docker/internal/session"
	"github.com/Adham-AI-111/clinic-system-docker/internal/tenancy"
	"github.com/Adham-AI-111/clinic-system-docker/pkg/metrics"
)

const (
	kindStaff   = "staff"
	kindPatient = "patient"

	HomePath         = "/"
	PatientLoginPath = "/patient-login/"
)

// PatientProfilePath is the landing page of a logged in patient.
func PatientProfilePath(identity *model.Identity) string {
	return fmt.Sprintf("/patient/%s/profile/", identity.ID)
}

// Service is the entry point used by the HTTP layer. It drives the
// authenticator and handoff coordinator and records every outcome.
type Service struct {
	authenticator *Authenticator
	handoff       *HandoffCoordinator
	auditor       audit.Recorder
	metrics       *metrics.Metrics
	now           func() time.Time
}

func NewService(authenticator *Authenticator, handoff *HandoffCoordinator, auditor audit.Recorder, m *metrics.Metrics) *Service {
	return &Service{
		authenticator: authenticator,
		handoff:       handoff,
		auditor:       auditor,
		metrics:       m,
		now:           time.Now,
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// StaffLogin authenticates staff credentials and either logs the session in
// or starts a handoff to the clinic's domain.
func (s *Service) StaffLogin(ctx context.Context, sess *session.Session, partition tenancy.Partition, req model.StaffLoginRequest, client model.ClientInfo) (*Outcome, error) {
	now := s.now()

	identity, err := s.authenticator.AuthenticateStaff(ctx, req.Username, req.Password, now)
	if err != nil {
		s.recordFailure(ctx, kindStaff, model.AuditActionStaffLogin, req.Username, partition, client, err)
		return nil, err
	}

	outcome, err := s.handoff.Begin(ctx, sess, identity, partition, now)
	if err != nil {
		s.recordFailure(ctx, kindStaff, model.AuditActionStaffLogin, identity.Username, partition, client, err)
		return nil, err
	}

	s.metrics.LoginAttempts.WithLabelValues(kindStaff, "success").Inc()
	entry := audit.Entry{
		UserID:   identity.ID,
		Username: identity.Username,
		Schema:   partition.Schema,
		Action:   model.AuditActionStaffLogin,
		Outcome:  model.AuditOutcomeSuccess,
		Client:   client,
	}
	s.auditor.Record(ctx, entry)

	if !outcome.LoggedIn {
		s.metrics.Handoffs.WithLabelValues("issued").Inc()
		entry.Action = model.AuditActionHandoffIssued
		s.auditor.Record(ctx, entry)
	} else {
		log.Info().
			Str("username", identity.Username).
			Str("schema", partition.Schema).
			Msg("Staff login successful on tenant domain")
	}
	return outcome, nil
}

// ResumeStaffLogin finishes a pending handoff. It returns false when there is
// nothing to resume or the pending login is no longer valid.
func (s *Service) ResumeStaffLogin(ctx context.Context, sess *session.Session, partition tenancy.Partition, client model.ClientInfo) (*Outcome, bool) {
	identity, ok := s.handoff.Resume(ctx, sess, partition, s.now())
	if !ok {
		return nil, false
	}

	s.metrics.Handoffs.WithLabelValues("consumed").Inc()
	s.auditor.Record(ctx, audit.Entry{
		UserID:   identity.ID,
		Username: identity.Username,
		Schema:   partition.Schema,
		Action:   model.AuditActionHandoffConsumed,
		Outcome:  model.AuditOutcomeSuccess,
		Client:   client,
	})
	log.Info().Str("username", identity.Username).Msg("Staff login completed via redirect")
	return &Outcome{LoggedIn: true, Redirect: StaffDashboardPath}, true
}

// StaffLanding is where an already authenticated staff session belongs.
func (s *Service) StaffLanding(ctx context.Context, sess *session.Session, partition tenancy.Partition) (*Outcome, error) {
	if !partition.IsPublic() {
		return &Outcome{LoggedIn: true, Redirect: StaffDashboardPath}, nil
	}

	identity := &model.Identity{Base: model.Base{ID: sess.Data.UserID}, Username: sess.Data.Username, Role: sess.Data.Role}
	tenant, err := s.handoff.TenantFor(ctx, identity)
	if err != nil {
		return nil, err
	}
	target, err := s.handoff.TenantURL(ctx, tenant, StaffDashboardPath)
	if err != nil {
		return nil, err
	}
	return &Outcome{LoggedIn: true, Redirect: target}, nil
}

// PatientLogin logs a patient in on the clinic domain.
func (s *Service) PatientLogin(ctx context.Context, sess *session.Session, partition tenancy.Partition, req model.PatientLoginRequest, client model.ClientInfo) (*Outcome, error) {
	identity, err := s.authenticator.AuthenticatePatient(ctx, partition, req.Phone, req.Username, s.now())
	if err != nil {
		s.recordFailure(ctx, kindPatient, model.AuditActionPatientLogin, req.Username, partition, client, err)
		return nil, err
	}

	sess.Authenticate(identity, partition.Schema)

	s.metrics.LoginAttempts.WithLabelValues(kindPatient, "success").Inc()
	s.auditor.Record(ctx, audit.Entry{
		UserID:   identity.ID,
		Username: identity.Username,
		Schema:   partition.Schema,
		Action:   model.AuditActionPatientLogin,
		Outcome:  model.AuditOutcomeSuccess,
		Client:   client,
	})
	log.Info().
		Str("username", identity.Username).
		Str("schema", partition.Schema).
		Msg("Patient login successful")
	return &Outcome{LoggedIn: true, Redirect: PatientProfilePath(identity)}, nil
}

// Logout clears the session and returns the landing path.
func (s *Service) Logout(ctx context.Context, sess *session.Session, partition tenancy.Partition, client model.ClientInfo) string {
	data := sess.Data
	sess.Destroy()

	if data.Username != "" {
		s.auditor.Record(ctx, audit.Entry{
			UserID:   data.UserID,
			Username: data.Username,
			Schema:   partition.Schema,
			Action:   model.AuditActionLogout,
			Outcome:  model.AuditOutcomeSuccess,
			Client:   client,
		})
		log.Info().Str("username", data.Username).Msg("Logout")
	}

	if data.Role == model.RolePatient && !partition.IsPublic() {
		return PatientLoginPath
	}
	return HomePath
}

func (s *Service) recordFailure(ctx context.Context, kind, action, username string, partition tenancy.Partition, client model.ClientInfo, err error) {
	outcome := model.AuditOutcomeFailure
	label := FailureLabel(err)
	if errors.Is(err, ErrAccountLocked) {
		outcome = model.AuditOutcomeLocked
		if e, ok := AsError(err); ok && e.newlyLocked {
			s.metrics.Lockouts.WithLabelValues(kind).Inc()
		}
	}
	s.metrics.LoginAttempts.WithLabelValues(kind, label).Inc()

	s.auditor.Record(ctx, audit.Entry{
		Username: username,
		Schema:   partition.Schema,
		Action:   action,
		Outcome:  outcome,
		Client:   client,
	})

	if _, ok := AsError(err); !ok {
		log.Error().Err(err).Str("username", username).Msg("Login failed with an internal error")
		return
	}
	log.Warn().Str("username", username).Str("reason", label).Msgf("Failed %s login attempt", kind)
}

// FailureLabel names the failure kind of err for metrics and API codes.
func FailureLabel(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrInactive):
		return "inactive"
	case errors.Is(err, ErrAccountLocked):
		return "account_locked"
	case errors.Is(err, ErrWrongPrincipalKind):
		return "wrong_principal_kind"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAmbiguous):
		return "ambiguous"
	case errors.Is(err, ErrNoTenantAssociation):
		return "no_tenant_association"
	case errors.Is(err, ErrNoDomainConfigured):
		return "no_domain_configured"
	case errors.Is(err, ErrWrongPartition):
		return "wrong_partition"
	case errors.Is(err, ErrHandoffExpiredOrInvalid):
		return "handoff_invalid"
	}
	return "error"
}
