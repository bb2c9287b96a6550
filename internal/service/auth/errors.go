package auth

import (
	"errors"
	"time"
)

// Failure kinds. Match them with errors.Is on any error returned by this
// package.
var (
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrInactive                = errors.New("account is inactive")
	ErrAccountLocked           = errors.New("account is locked")
	ErrWrongPrincipalKind      = errors.New("account cannot use this login")
	ErrNotFound                = errors.New("account not found")
	ErrAmbiguous               = errors.New("more than one account matches")
	ErrNoTenantAssociation     = errors.New("no clinic is associated with this account")
	ErrNoDomainConfigured      = errors.New("clinic has no primary domain")
	ErrHandoffExpiredOrInvalid = errors.New("pending login expired or invalid")
	ErrWrongPartition          = errors.New("login is not available on this domain")
)

// Error is an authentication failure with the details the caller may show.
type Error struct {
	Kind error
	// RetryAfter is set for ErrAccountLocked.
	RetryAfter time.Duration
	// AttemptsRemaining is set for counted ErrInvalidCredentials failures.
	AttemptsRemaining int
	Err               error

	// newlyLocked marks the attempt that triggered the lock.
	newlyLocked bool
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.Error() + ": " + e.Err.Error()
	}
	return e.Kind.Error()
}

func (e *Error) Is(target error) bool {
	return e.Kind == target
}

func (e *Error) Unwrap() error {
	return e.Err
}

func fail(kind error) *Error {
	return &Error{Kind: kind}
}

func locked(retryAfter time.Duration) *Error {
	return &Error{Kind: ErrAccountLocked, RetryAfter: retryAfter}
}

// AsError extracts the *Error from err.
func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
