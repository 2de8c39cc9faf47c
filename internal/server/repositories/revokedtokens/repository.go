// Package revokedtokens declares the revocation store: access tokens that were
// logged out before their natural expiry.
package revokedtokens

import (
	"context"
	"time"
)

// Repository defines operations on the revocation store.
type Repository interface {
	// Add records token as revoked until expiresAt. Adding the same token
	// twice is not an error.
	Add(ctx context.Context, token string, expiresAt time.Time) error

	// Exists reports whether token is revoked. Entries past their expiry
	// are ignored.
	Exists(ctx context.Context, token string) (bool, error)

	// PruneExpired deletes entries past their expiry and returns how many
	// were removed.
	PruneExpired(ctx context.Context) (int64, error)
}
