package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrHashingFailed    = errors.New("password hashing failed")
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordMismatch = errors.New("password mismatch")
	MinPasswordLen      = 8
)

// UnusablePrefix marks a stored hash that no password can ever match.
const UnusablePrefix = "!"

// PasswordHasher provides interface for password operations
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hashedPassword, password string) error
	Unusable() string
	// CompareDummy burns the same work as a real comparison against a
	// throwaway hash. Used when the identity lookup missed.
	CompareDummy(password string)
}

type bcryptHasher struct {
	cost  int
	dummy []byte
}

// NewBcryptHasher creates a new password hasher using bcrypt
func NewBcryptHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte(randomHex(16)), cost)
	if err != nil {
		// GenerateFromPassword only fails on cost/length, both validated above.
		panic(err)
	}

	return &bcryptHasher{cost: cost, dummy: dummy}
}

func (b *bcryptHasher) Hash(password string) (string, error) {
	if len(password) < MinPasswordLen {
		return "", ErrPasswordTooShort
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return "", ErrHashingFailed
	}
	return string(bytes), nil
}

func (b *bcryptHasher) Compare(hashedPassword, password string) error {
	if !IsUsable(hashedPassword) {
		b.CompareDummy(password)
		return ErrPasswordMismatch
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)); err != nil {
		return ErrPasswordMismatch
	}
	return nil
}

func (b *bcryptHasher) Unusable() string {
	return UnusablePrefix + randomHex(20)
}

func (b *bcryptHasher) CompareDummy(password string) {
	_ = bcrypt.CompareHashAndPassword(b.dummy, []byte(password))
}

// IsUsable reports whether a stored hash can match any password.
func IsUsable(hashed string) bool {
	return hashed != "" && !strings.HasPrefix(hashed, UnusablePrefix)
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}
