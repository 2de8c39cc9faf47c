package models

import "time"

// RefreshToken is the single active refresh token row of a user. Only the
// digest of the token is persisted.
type RefreshToken struct {
	UserID    string    `db:"user_id"`
	TokenHash string    `db:"hashed_refresh_token"`
	Expires   time.Time `db:"expires_at"`
}

// Expired reports whether the row is past its expiry at now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !t.Expires.After(now)
}
