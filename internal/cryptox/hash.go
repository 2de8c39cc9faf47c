// Package cryptox holds the one-way primitives used by the authentication
// flows: salted password hashing and deterministic token digests.
package cryptox

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Verifier hashes and compares secrets with bcrypt. The zero value uses
// bcrypt.DefaultCost.
type Verifier struct {
	cost int
}

// NewVerifier returns a Verifier using the given bcrypt cost. Costs outside
// bcrypt's accepted range fall back to bcrypt.DefaultCost.
func NewVerifier(cost int) *Verifier {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Verifier{cost: cost}
}

// Hash returns a salted bcrypt hash of secret. Two calls with the same
// secret yield different outputs.
func (v *Verifier) Hash(secret string) (string, error) {
	cost := v.cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(h), nil
}

// Compare reports whether secret matches hashed. A malformed hash is
// reported as a mismatch.
func (v *Verifier) Compare(secret, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(secret)) == nil
}

// HashToken returns the hex SHA-256 digest of a token. Refresh tokens are
// stored and looked up by this digest, so it has to be deterministic.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
