// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/paygateauth/internal/dbx"
	"github.com/dmitrijs2005/paygateauth/internal/server/migrations"
	"github.com/dmitrijs2005/paygateauth/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/paygateauth/internal/server/repositories/revokedtokens"
	"github.com/dmitrijs2005/paygateauth/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook. When a Redis client is set, revocation
// lookups go through a write-through cache.
type PostgresRepositoryManager struct {
	rdb redis.Cmdable
}

// Users returns a users.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// RefreshTokens returns a refreshtokens.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return refreshtokens.NewPostgresRepository(db)
}

// RevokedTokens returns a revokedtokens.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) RevokedTokens(db dbx.DBTX) revokedtokens.Repository {
	repo := revokedtokens.NewPostgresRepository(db)
	if m.rdb == nil {
		return repo
	}
	return revokedtokens.NewCachedRepository(repo, m.rdb, revokedtokens.DefaultKeyPrefix)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
// rdb may be nil to disable the revocation cache.
func NewPostgresRepositoryManager(rdb redis.Cmdable) RepositoryManager {
	return &PostgresRepositoryManager{rdb: rdb}
}
