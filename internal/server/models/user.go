package models

import "time"

// User is the subject a token pair is issued for. DeletedAt is set for
// soft-deleted accounts, which must never authenticate.
type User struct {
	ID           string     `db:"user_id"`
	UserName     string     `db:"username"`
	PasswordHash string     `db:"password_hash"`
	DeletedAt    *time.Time `db:"deleted_at"`
	CreatedAt    time.Time  `db:"created_at"`
}

// IsDeleted reports whether the account is soft-deleted.
func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}
