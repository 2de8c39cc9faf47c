package common

import "time"

// Cookie names carrying the token pair between client and server.
const (
	AccessTokenCookieName  = "token"
	RefreshTokenCookieName = "refreshToken"
)

// AuthorizationHeaderName carries "Bearer <access token>" on protected requests.
const AuthorizationHeaderName = "Authorization"

// Natural token lifetimes. Cookie max-age and store expiry mirror them.
const (
	AccessTokenValidity  = time.Hour
	RefreshTokenValidity = 7 * 24 * time.Hour
)
