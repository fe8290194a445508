// Package password hashes and checks user passwords with bcrypt. The salt is
// generated per call and embedded in the returned digest.
package password

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// ErrEmpty is returned when hashing an empty password.
var ErrEmpty = errors.New("password is empty")

// Hasher carries the bcrypt work factor. Copies share the digest used for
// unknown accounts.
type Hasher struct {
	cost   int
	absent *absentDigest
}

// absentDigest is compared against when the account does not exist, so unknown
// usernames cost the same bcrypt work as wrong passwords.
type absentDigest struct {
	once sync.Once
	hash string
}

// NewHasher clamps cost into bcrypt's accepted range.
func NewHasher(cost int) Hasher {
	switch {
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return Hasher{cost: cost, absent: &absentDigest{}}
}

// Default uses bcrypt.DefaultCost.
func Default() Hasher { return NewHasher(bcrypt.DefaultCost) }

// Cost reports the configured work factor.
func (h Hasher) Cost() int { return h.cost }

// Hash returns a salted bcrypt digest of password.
func (h Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmpty
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Check reports whether password matches hash. A malformed hash never matches.
func Check(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

const absentPlaintext = "passgate-timing-equalizer"

// AbsentDigest returns the digest unknown accounts are checked against. It is
// generated on first use at the hasher's cost.
func (h Hasher) AbsentDigest() string {
	if h.absent == nil {
		hash, _ := bcrypt.GenerateFromPassword([]byte(absentPlaintext), h.cost)
		return string(hash)
	}
	h.absent.once.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte(absentPlaintext), h.cost)
		if err == nil {
			h.absent.hash = string(hash)
		}
	})
	return h.absent.hash
}

// CheckAbsent burns one comparison against AbsentDigest and always reports false.
func (h Hasher) CheckAbsent(password string) bool {
	_ = Check(h.AbsentDigest(), password)
	return false
}
