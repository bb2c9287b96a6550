package model

import (
	"time"

	"github.com/google/uuid"
)

// StaffLoginRequest is the staff credential form.
type StaffLoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// PatientLoginRequest is the passwordless patient form.
type PatientLoginRequest struct {
	Phone    string `json:"phone" form:"phone" binding:"required"`
	Username string `json:"username" form:"username" binding:"required"`
}

// PatientSignupRequest is submitted by clinic staff to register a patient.
type PatientSignupRequest struct {
	Username string `json:"username" binding:"required,max=150"`
	Phone    string `json:"phone" binding:"required,phone"`
	Age      int    `json:"age" binding:"min=0,max=100"`
}

// ReceptionSignupRequest is submitted by a doctor to add reception staff.
type ReceptionSignupRequest struct {
	Username string `json:"username" binding:"required,max=150"`
	Phone    string `json:"phone" binding:"required,phone"`
	Password string `json:"password" binding:"required,min=8"`
}

// HandoffToken is the pending staff login carried across the redirect to the
// tenant domain. It is single use and expires HandoffTTL after IssuedAt.
type HandoffToken struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	IssuedAt time.Time `json:"issued_at"`
}

// Expired reports whether the token is past its TTL at now.
func (t HandoffToken) Expired(now time.Time, ttl time.Duration) bool {
	return t.IssuedAt.Add(ttl).Before(now)
}

// ClientInfo describes the caller for audit records.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}
