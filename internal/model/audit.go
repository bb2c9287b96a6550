package model

import (
	"time"

	"github.com/google/uuid"
)

// AuthEvent is one row of the authentication audit trail.
type AuthEvent struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	UserID       *uuid.UUID `json:"user_id,omitempty" db:"user_id"`
	Username     string     `json:"username" db:"username"`
	TenantSchema string     `json:"tenant_schema" db:"tenant_schema"`
	Action       string     `json:"action" db:"action"`
	Outcome      string     `json:"outcome" db:"outcome"`
	IPAddress    string     `json:"ip_address" db:"ip_address"`
	UserAgent    string     `json:"user_agent" db:"user_agent"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

const (
	// Action types
	AuditActionStaffLogin      = "staff_login"
	AuditActionPatientLogin    = "patient_login"
	AuditActionHandoffIssued   = "handoff_issued"
	AuditActionHandoffConsumed = "handoff_consumed"
	AuditActionLogout          = "logout"
	AuditActionSignup          = "signup"

	// Outcomes
	AuditOutcomeSuccess = "success"
	AuditOutcomeFailure = "failure"
	AuditOutcomeLocked  = "locked"
)
