package model

import (
	"time"
)

// Role tags an identity with the kind of principal it is. Staff and patients
// share the identity table but authenticate through disjoint procedures.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleDoctor    Role = "doctor"
	RoleReception Role = "reception"
	RolePatient   Role = "patient"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RoleReception, RolePatient:
		return true
	}
	return false
}

// IsStaff reports whether the role logs in through the staff endpoint.
func (r Role) IsStaff() bool {
	return r == RoleDoctor || r == RoleReception || r == RoleAdmin
}

// Identity is the global user record shared by every tenant.
type Identity struct {
	Base
	Username     string  `json:"username" db:"username"`
	Email        *string `json:"email,omitempty" db:"email"`
	Phone        string  `json:"phone" db:"phone"`
	Role         Role    `json:"role" db:"role"`
	PasswordHash string  `json:"-" db:"password_hash"`
	IsActive     bool    `json:"is_active" db:"is_active"`
	Lockout
}

// Lockout is the per-identity failed attempt bookkeeping.
type Lockout struct {
	FailedAttempts   int        `json:"failed_login_attempts" db:"failed_login_attempts"`
	LastLoginAttempt *time.Time `json:"last_login_attempt,omitempty" db:"last_login_attempt"`
	LockedUntil      *time.Time `json:"account_locked_until,omitempty" db:"account_locked_until"`
}

// IsLocked reports whether the lock is still in force at now.
func (l Lockout) IsLocked(now time.Time) bool {
	return l.LockedUntil != nil && now.Before(*l.LockedUntil)
}

// RetryAfter is the time left on the lock, zero when unlocked.
func (l Lockout) RetryAfter(now time.Time) time.Duration {
	if !l.IsLocked(now) {
		return 0
	}
	return l.LockedUntil.Sub(now)
}

func (i *Identity) IsStaffMember() bool {
	return i.Role.IsStaff()
}

func (i *Identity) IsLocked(now time.Time) bool {
	return i.Lockout.IsLocked(now)
}
