package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/paygateauth/internal/dbx"
	"github.com/dmitrijs2005/paygateauth/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/paygateauth/internal/server/repositories/revokedtokens"
	"github.com/dmitrijs2005/paygateauth/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	RevokedTokens(db dbx.DBTX) revokedtokens.Repository
}
