package services

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/dmitrijs2005/paygateauth/internal/common"
	"github.com/dmitrijs2005/paygateauth/internal/dbx"
	"github.com/dmitrijs2005/paygateauth/internal/server/models"
	"github.com/dmitrijs2005/paygateauth/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/paygateauth/internal/server/repositories/revokedtokens"
	"github.com/dmitrijs2005/paygateauth/internal/server/repositories/users"
)

// memStore backs the fake repositories with maps guarded by one mutex.
type memStore struct {
	mu sync.Mutex

	users   map[string]*models.User        // by username
	refresh map[string]models.RefreshToken // by user id
	revoked map[string]time.Time           // by raw token
	now     func() time.Time

	usersErr   error
	refreshErr error
	revokedErr error
	deleteErr  error
}

func newMemStore() *memStore {
	return &memStore{
		users:   map[string]*models.User{},
		refresh: map[string]models.RefreshToken{},
		revoked: map[string]time.Time{},
		now:     time.Now,
	}
}

type fakeManager struct{ s *memStore }

func (m fakeManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m fakeManager) Users(dbx.DBTX) users.Repository            { return fakeUsers{m.s} }
func (m fakeManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return fakeRefresh{m.s}
}
func (m fakeManager) RevokedTokens(dbx.DBTX) revokedtokens.Repository {
	return fakeRevoked{m.s}
}

type fakeUsers struct{ s *memStore }

func (f fakeUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.usersErr != nil {
		return nil, f.s.usersErr
	}
	f.s.users[u.UserName] = u
	return u, nil
}

func (f fakeUsers) GetUserByLogin(_ context.Context, login string) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.usersErr != nil {
		return nil, f.s.usersErr
	}
	u, ok := f.s.users[login]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

type fakeRefresh struct{ s *memStore }

func (f fakeRefresh) Upsert(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.refreshErr != nil {
		return f.s.refreshErr
	}
	f.s.refresh[userID] = models.RefreshToken{UserID: userID, TokenHash: tokenHash, Expires: expiresAt}
	return nil
}

func (f fakeRefresh) FindByHash(_ context.Context, tokenHash string) (*models.RefreshToken, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.refreshErr != nil {
		return nil, f.s.refreshErr
	}
	for _, row := range f.s.refresh {
		if row.TokenHash == tokenHash {
			return &row, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f fakeRefresh) DeleteByHash(_ context.Context, tokenHash string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.deleteErr != nil {
		return f.s.deleteErr
	}
	for id, row := range f.s.refresh {
		if row.TokenHash == tokenHash {
			delete(f.s.refresh, id)
		}
	}
	return nil
}

func (f fakeRefresh) DeleteByUser(_ context.Context, userID string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	delete(f.s.refresh, userID)
	return nil
}

func (f fakeRefresh) DeleteAll(context.Context) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	n := int64(len(f.s.refresh))
	f.s.refresh = map[string]models.RefreshToken{}
	return n, nil
}

type fakeRevoked struct{ s *memStore }

func (f fakeRevoked) Add(_ context.Context, token string, expiresAt time.Time) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.revokedErr != nil {
		return f.s.revokedErr
	}
	if _, ok := f.s.revoked[token]; !ok {
		f.s.revoked[token] = expiresAt
	}
	return nil
}

func (f fakeRevoked) Exists(_ context.Context, token string) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.revokedErr != nil {
		return false, f.s.revokedErr
	}
	exp, ok := f.s.revoked[token]
	return ok && exp.After(f.s.now()), nil
}

func (f fakeRevoked) PruneExpired(context.Context) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.revokedErr != nil {
		return 0, f.s.revokedErr
	}
	var n int64
	for tok, exp := range f.s.revoked {
		if !exp.After(f.s.now()) {
			delete(f.s.revoked, tok)
			n++
		}
	}
	return n, nil
}

// fakeTx runs fn without a real transaction. On error it restores the
// store maps, which is enough to observe rollback.
type fakeTx struct {
	s     *memStore
	calls int
}

func (f *fakeTx) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	f.calls++

	f.s.mu.Lock()
	refresh := make(map[string]models.RefreshToken, len(f.s.refresh))
	for k, v := range f.s.refresh {
		refresh[k] = v
	}
	revoked := make(map[string]time.Time, len(f.s.revoked))
	for k, v := range f.s.revoked {
		revoked[k] = v
	}
	f.s.mu.Unlock()

	if err := fn(ctx, nil); err != nil {
		f.s.mu.Lock()
		f.s.refresh, f.s.revoked = refresh, revoked
		f.s.mu.Unlock()
		return err
	}
	return nil
}
