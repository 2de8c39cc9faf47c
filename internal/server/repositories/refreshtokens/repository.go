// Package refreshtokens declares the server-side repository contract for
// the refresh-token store: one active, hashed refresh token per user.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/paygateauth/internal/server/models"
)

// Repository defines operations on the refresh-token store. Tokens are only
// ever passed in as digests.
type Repository interface {
	// Upsert stores tokenHash as the active refresh token of userID, replacing
	// any previous row for that user.
	Upsert(ctx context.Context, userID string, tokenHash string, expiresAt time.Time) error

	// FindByHash returns the row holding tokenHash.
	// Implementations should return a not-found error when the token is absent.
	FindByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)

	// DeleteByHash removes the row holding tokenHash. Deleting a non-existent
	// token should not be considered an error.
	DeleteByHash(ctx context.Context, tokenHash string) error

	// DeleteByUser removes the active refresh token of userID, if any.
	DeleteByUser(ctx context.Context, userID string) error

	// DeleteAll removes every refresh token and returns how many were removed.
	DeleteAll(ctx context.Context) (int64, error)
}
