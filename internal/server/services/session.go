// Package services contains server-side business logic. This file implements
// SessionService, which drives the token lifecycle: login, refresh with
// rotation, logout with revocation, and per-request authentication.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/paygateauth/internal/common"
	"github.com/dmitrijs2005/paygateauth/internal/cryptox"
	"github.com/dmitrijs2005/paygateauth/internal/dbx"
	"github.com/dmitrijs2005/paygateauth/internal/logging"
	"github.com/dmitrijs2005/paygateauth/internal/server/auth"
	"github.com/dmitrijs2005/paygateauth/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  auth.Token
	RefreshToken auth.Token
}

// CredentialVerifier hashes secrets one-way and compares a plaintext secret
// with its stored hash.
type CredentialVerifier interface {
	Hash(secret string) (string, error)
	Compare(secret, hashed string) bool
}

// dummySecret is hashed once at construction. Logins for unknown or deleted
// users compare against that hash so every rejection costs one comparison.
const dummySecret = "paygate-auth-dummy-password"

// SessionService composes the credential verifier, the token codec and the
// token stores into the session flows.
type SessionService struct {
	db          dbx.DBTX
	tx          dbx.TxRunner
	repomanager repomanager.RepositoryManager
	codec       *auth.Codec
	verifier    CredentialVerifier
	log         logging.Logger
	now         func() time.Time
	dummyHash   string
}

// NewSessionService constructs a SessionService. db serves single statements;
// tx runs the logout writes together.
func NewSessionService(db dbx.DBTX, tx dbx.TxRunner, m repomanager.RepositoryManager,
	codec *auth.Codec, verifier CredentialVerifier, log logging.Logger) *SessionService {
	s := &SessionService{
		db:          db,
		tx:          tx,
		repomanager: m,
		codec:       codec,
		verifier:    verifier,
		log:         log,
		now:         time.Now,
	}
	if h, err := verifier.Hash(dummySecret); err == nil {
		s.dummyHash = h
	} else {
		log.Warn(context.Background(), "dummy password hash unavailable", "error", err)
	}
	return s
}

// Login checks username/password and issues a new token pair. The refresh
// token replaces whatever refresh token the user held before.
//
// Errors: common.ErrMissingCredentials, common.ErrInvalidCredentials (unknown,
// soft-deleted, or wrong password alike), common.ErrorInternal.
func (s *SessionService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	if username == "" || password == "" {
		return nil, common.ErrMissingCredentials
	}

	user, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.verifier.Compare(password, s.dummyHash)
			return nil, common.ErrInvalidCredentials
		}
		return nil, s.internal(ctx, "user lookup failed", err)
	}

	if user.IsDeleted() {
		s.verifier.Compare(password, s.dummyHash)
		return nil, common.ErrInvalidCredentials
	}

	if !s.verifier.Compare(password, user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}

	return s.issuePair(ctx, user.ID)
}

// Refresh rotates a refresh token: the presented token must be the stored
// one, not past its stored expiry, correctly signed, and issued to the same
// user as the stored row. Every failed check yields
// common.ErrAuthenticationFailed.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, common.ErrAuthenticationFailed
	}

	row, err := s.repomanager.RefreshTokens(s.db).FindByHash(ctx, cryptox.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrAuthenticationFailed
		}
		return nil, s.internal(ctx, "refresh token lookup failed", err)
	}

	if row.Expired(s.now()) {
		return nil, common.ErrAuthenticationFailed
	}

	userID, err := s.codec.Verify(refreshToken, auth.RefreshKey)
	if err != nil {
		return nil, common.ErrAuthenticationFailed
	}

	if userID != row.UserID {
		logging.FromContext(ctx, s.log).Warn(ctx, "refresh token subject mismatch", "token_user", userID, "row_user", row.UserID)
		return nil, common.ErrAuthenticationFailed
	}

	return s.issuePair(ctx, userID)
}

// Logout revokes the access token until its natural expiry and deletes the
// stored refresh token. Nothing is written unless both tokens verify.
//
// Errors: common.ErrTokensNotFound, common.ErrTokensInvalid, common.ErrorInternal.
func (s *SessionService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if accessToken == "" || refreshToken == "" {
		return common.ErrTokensNotFound
	}

	if _, err := s.codec.Verify(accessToken, auth.AccessKey); err != nil {
		return common.ErrTokensInvalid
	}
	if _, err := s.codec.Verify(refreshToken, auth.RefreshKey); err != nil {
		return common.ErrTokensInvalid
	}

	revokeUntil := s.now().Add(s.codec.AccessValidity())

	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RevokedTokens(tx).Add(ctx, accessToken, revokeUntil); err != nil {
			return err
		}
		return s.repomanager.RefreshTokens(tx).DeleteByHash(ctx, cryptox.HashToken(refreshToken))
	})
	if err != nil {
		return s.internal(ctx, "logout failed", err)
	}

	return nil
}

// Authenticate validates an access token presented to a protected route and
// returns its user ID. Revocation is checked first, so a revoked token is
// rejected even while its signature is still valid.
//
// Errors: common.ErrMissingToken, common.ErrTokenRevoked,
// common.ErrTokenExpired, common.ErrInvalidToken, common.ErrorInternal.
func (s *SessionService) Authenticate(ctx context.Context, accessToken string) (string, error) {
	if accessToken == "" {
		return "", common.ErrMissingToken
	}

	revoked, err := s.repomanager.RevokedTokens(s.db).Exists(ctx, accessToken)
	if err != nil {
		return "", s.internal(ctx, "revocation lookup failed", err)
	}
	if revoked {
		return "", common.ErrTokenRevoked
	}

	return s.codec.Verify(accessToken, auth.AccessKey)
}

// Ping checks that the relational store answers.
func (s *SessionService) Ping(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "SELECT 1")
	return err
}

func (s *SessionService) issuePair(ctx context.Context, userID string) (*TokenPair, error) {
	access, err := s.codec.IssueAccess(userID)
	if err != nil {
		return nil, s.internal(ctx, "issue access token", err)
	}

	refresh, err := s.codec.IssueRefresh(userID)
	if err != nil {
		return nil, s.internal(ctx, "issue refresh token", err)
	}

	repo := s.repomanager.RefreshTokens(s.db)
	if err := repo.Upsert(ctx, userID, cryptox.HashToken(refresh.Value), refresh.ExpiresAt); err != nil {
		return nil, s.internal(ctx, "store refresh token", err)
	}

	return &TokenPair{AccessToken: *access, RefreshToken: *refresh}, nil
}

// internal logs err with full detail and hides it behind common.ErrorInternal.
func (s *SessionService) internal(ctx context.Context, msg string, err error) error {
	logging.FromContext(ctx, s.log).Error(ctx, msg, "error", err)
	return common.ErrorInternal
}
