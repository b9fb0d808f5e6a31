// Package hasher hashes and verifies passwords with bcrypt. Hashing is
// deliberately slow; use Pool to keep it off request goroutines that should
// not queue behind it.
package hasher

import (
	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultCost is the work factor used for new registrations.
	DefaultCost = 12
	// MaxPasswordBytes is the longest input bcrypt accepts.
	MaxPasswordBytes = 72
)

// Hash returns a self-describing bcrypt token ($2a$<cost>$<salt><digest>).
// Every call draws a fresh salt, so equal inputs never produce equal tokens.
func Hash(password string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether password matches token. A malformed token is a
// mismatch, not an error.
func Verify(password, token string) bool {
	return bcrypt.CompareHashAndPassword([]byte(token), []byte(password)) == nil
}

// Cost extracts the work factor embedded in token.
func Cost(token string) (int, error) {
	return bcrypt.Cost([]byte(token))
}
