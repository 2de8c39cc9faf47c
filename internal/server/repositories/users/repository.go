// Package users is the narrow view of the external user store that the
// authentication flows need.
package users

import (
	"context"

	"github.com/dmitrijs2005/paygateauth/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
}
