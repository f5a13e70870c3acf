package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Plaintext password length bounds enforced before hashing. The upper bound is
// bcrypt's input ceiling; longer passwords are rejected rather than silently
// truncated.
const (
	MinPasswordLen = 8
	MaxPasswordLen = 72
)

var (
	// ErrPasswordTooShort is returned by Hash for passwords under MinPasswordLen bytes.
	ErrPasswordTooShort = errors.New("password too short")
	// ErrPasswordTooLong is returned by Hash for passwords over MaxPasswordLen bytes.
	ErrPasswordTooLong = errors.New("password too long")
)

// Hasher hashes and verifies passwords using bcrypt. Callers must not log or
// persist plaintext passwords.
type Hasher struct {
	Cost int
}

// NewHasher returns a Hasher with the given bcrypt cost (4–31). Cost 12 is a
// reasonable default for interactive login.
func NewHasher(cost int) *Hasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Hasher{Cost: cost}
}

// Hash produces a bcrypt hash of password, enforcing the length bounds first.
// Returns the hash as a string suitable for storage.
func (h *Hasher) Hash(password []byte) (string, error) {
	if len(password) < MinPasswordLen {
		return "", ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLen {
		return "", ErrPasswordTooLong
	}
	b, err := bcrypt.GenerateFromPassword(password, h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether password matches the stored hash. The comparison is
// constant-time. It returns false for any mismatch or malformed hash and never
// panics on attacker-controlled input.
func (h *Hasher) Verify(password []byte, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), password) == nil
}
