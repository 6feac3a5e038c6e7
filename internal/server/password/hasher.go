// Package password provides one-way salted hashing and verification of
// account credentials.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes plaintext passwords and checks candidates against stored
// hashes. Check must treat a malformed stored hash the same as a mismatch,
// so corrupted storage is indistinguishable from a wrong password.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Check(plaintext, hash string) bool
}

// BcryptHasher is the default Hasher. The cost is the bcrypt work factor;
// raising it makes brute force proportionally more expensive.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a BcryptHasher with the given work factor.
// A cost outside the bcrypt range falls back to bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash produces a salted bcrypt hash of plaintext. Output differs between
// calls for the same input because the salt is random.
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("error hashing password: %w", err)
	}
	return string(b), nil
}

// Check reports whether plaintext matches the stored hash. Any failure,
// including a malformed hash, reads as "does not match".
func (h *BcryptHasher) Check(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
