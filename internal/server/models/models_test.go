package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUser_IsDeleted(t *testing.T) {
	u := &User{ID: "u1"}
	assert.False(t, u.IsDeleted())

	now := time.Now()
	u.DeletedAt = &now
	assert.True(t, u.IsDeleted())
}

func TestRefreshToken_Expired(t *testing.T) {
	now := time.Now()

	assert.False(t, (&RefreshToken{Expires: now.Add(time.Minute)}).Expired(now))
	assert.True(t, (&RefreshToken{Expires: now.Add(-time.Minute)}).Expired(now))
	assert.True(t, (&RefreshToken{Expires: now}).Expired(now))
}
