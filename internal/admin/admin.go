// Package admin implements the authctl maintenance commands: schema
// migration, user provisioning and bulk token revocation.
package admin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/paygateauth/internal/logging"
	"github.com/dmitrijs2005/paygateauth/internal/server/models"
	"github.com/dmitrijs2005/paygateauth/internal/server/repositories/repomanager"
)

// ErrUsage reports a wrong command line.
var ErrUsage = errors.New("usage")

const usage = `usage: authctl [flags] <command> [args]

commands:
  migrate                 apply database migrations
  adduser <username>      create a user, password is read from the terminal
  revoke-all              delete every stored refresh token
  revoke-user <user_id>   delete the refresh token of one user
  prune-revoked           delete revocation entries past their expiry
`

// PasswordHasher produces the stored form of a password.
type PasswordHasher interface {
	Hash(secret string) (string, error)
}

type Tool struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	out         io.Writer
	logger      logging.Logger
}

func NewTool(db *sql.DB, rm repomanager.RepositoryManager, h PasswordHasher, out io.Writer, l logging.Logger) *Tool {
	return &Tool{db: db, repomanager: rm, hasher: h, out: out, logger: l.With("module", "authctl")}
}

// Usage writes the command summary to the tool's output.
func (t *Tool) Usage() {
	fmt.Fprint(t.out, usage)
}

// Run executes the command named by args[0].
func (t *Tool) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command", ErrUsage)
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "help":
		t.Usage()
		return nil
	case "migrate":
		return t.migrate(ctx, rest)
	case "adduser":
		return t.addUser(ctx, rest)
	case "revoke-all":
		return t.revokeAll(ctx, rest)
	case "revoke-user":
		return t.revokeUser(ctx, rest)
	case "prune-revoked":
		return t.pruneRevoked(ctx, rest)
	default:
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
}

func expectArgs(cmd string, args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("%w: %s takes %d argument(s), got %d", ErrUsage, cmd, n, len(args))
	}
	return nil
}

func (t *Tool) migrate(ctx context.Context, args []string) error {
	if err := expectArgs("migrate", args, 0); err != nil {
		return err
	}
	if err := t.repomanager.RunMigrations(ctx, t.db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	fmt.Fprintln(t.out, "migrations applied")
	return nil
}

func (t *Tool) addUser(ctx context.Context, args []string) error {
	if err := expectArgs("adduser", args, 1); err != nil {
		return err
	}

	pw, err := GetNewPassword(t.out)
	if err != nil {
		return err
	}
	defer clear(pw)

	hash, err := t.hasher.Hash(string(pw))
	if err != nil {
		return err
	}

	user, err := t.repomanager.Users(t.db).Create(ctx, &models.User{UserName: args[0], PasswordHash: hash})
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	t.logger.Info(ctx, "user created", "username", user.UserName, "user_id", user.ID)
	fmt.Fprintf(t.out, "created user %s (%s)\n", user.UserName, user.ID)
	return nil
}

func (t *Tool) revokeAll(ctx context.Context, args []string) error {
	if err := expectArgs("revoke-all", args, 0); err != nil {
		return err
	}
	n, err := t.repomanager.RefreshTokens(t.db).DeleteAll(ctx)
	if err != nil {
		return fmt.Errorf("revoke all: %w", err)
	}
	t.logger.Warn(ctx, "all refresh tokens revoked", "count", n)
	fmt.Fprintf(t.out, "revoked %d refresh token(s)\n", n)
	return nil
}

func (t *Tool) revokeUser(ctx context.Context, args []string) error {
	if err := expectArgs("revoke-user", args, 1); err != nil {
		return err
	}
	if err := t.repomanager.RefreshTokens(t.db).DeleteByUser(ctx, args[0]); err != nil {
		return fmt.Errorf("revoke user: %w", err)
	}
	t.logger.Info(ctx, "refresh token revoked", "user_id", args[0])
	fmt.Fprintf(t.out, "revoked refresh token of %s\n", args[0])
	return nil
}

func (t *Tool) pruneRevoked(ctx context.Context, args []string) error {
	if err := expectArgs("prune-revoked", args, 0); err != nil {
		return err
	}
	n, err := t.repomanager.RevokedTokens(t.db).PruneExpired(ctx)
	if err != nil {
		return fmt.Errorf("prune revoked: %w", err)
	}
	fmt.Fprintf(t.out, "pruned %d revocation entr(ies)\n", n)
	return nil
}
