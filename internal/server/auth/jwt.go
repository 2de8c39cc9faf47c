// Package auth implements the token codec: it signs and verifies access and
// refresh tokens as HS256 JWTs, each class with its own secret.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/paygateauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// KeyClass selects the secret a token is signed and verified with.
type KeyClass int

const (
	AccessKey KeyClass = iota
	RefreshKey
)

func (k KeyClass) String() string {
	switch k {
	case AccessKey:
		return "access"
	case RefreshKey:
		return "refresh"
	default:
		return "unknown"
	}
}

// Claims are the signed claims of both token classes. UserID is the subject;
// ID (jti) makes every issued token unique.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user"`
}

// Token is an issued token together with its expiry, so callers can align
// cookie and store lifetimes with the signed claim.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Codec issues and verifies tokens. It is safe for concurrent use.
type Codec struct {
	accessSecret    []byte
	refreshSecret   []byte
	accessValidity  time.Duration
	refreshValidity time.Duration
	now             func() time.Time
}

// NewCodec builds a Codec from the two independent secrets and lifetimes.
func NewCodec(accessSecret, refreshSecret []byte, accessValidity, refreshValidity time.Duration) (*Codec, error) {
	if len(accessSecret) == 0 || len(refreshSecret) == 0 {
		return nil, errors.New("token secrets must not be empty")
	}
	if accessValidity <= 0 || refreshValidity <= 0 {
		return nil, errors.New("token validity must be positive")
	}
	return &Codec{
		accessSecret:    accessSecret,
		refreshSecret:   refreshSecret,
		accessValidity:  accessValidity,
		refreshValidity: refreshValidity,
		now:             time.Now,
	}, nil
}

// WithClock returns a copy of the codec that reads time from now.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	cp := *c
	cp.now = now
	return &cp
}

// AccessValidity is the lifetime of issued access tokens.
func (c *Codec) AccessValidity() time.Duration { return c.accessValidity }

// RefreshValidity is the lifetime of issued refresh tokens.
func (c *Codec) RefreshValidity() time.Duration { return c.refreshValidity }

// IssueAccess signs an access token for userID.
func (c *Codec) IssueAccess(userID string) (*Token, error) {
	return c.issue(userID, c.accessSecret, c.accessValidity)
}

// IssueRefresh signs a refresh token for userID.
func (c *Codec) IssueRefresh(userID string) (*Token, error) {
	return c.issue(userID, c.refreshSecret, c.refreshValidity)
}

func (c *Codec) issue(userID string, secret []byte, validity time.Duration) (*Token, error) {
	now := c.now()
	expires := now.Add(validity)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		UserID: userID,
	})

	tokenString, err := token.SignedString(secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &Token{Value: tokenString, ExpiresAt: expires}, nil
}

// Verify checks the signature of tokenString with the secret of class and its
// expiry. It returns the user id on success, common.ErrTokenExpired for a
// correctly signed but expired token and common.ErrInvalidToken otherwise.
func (c *Codec) Verify(tokenString string, class KeyClass) (string, error) {
	secret := c.accessSecret
	if class == RefreshKey {
		secret = c.refreshSecret
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.UserID == "" {
		return "", common.ErrInvalidToken
	}

	return claims.UserID, nil
}
