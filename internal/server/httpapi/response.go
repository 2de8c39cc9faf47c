package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/paygateauth/internal/common"
	"github.com/dmitrijs2005/paygateauth/internal/server/services"
)

const (
	msgLoginOK    = "Authentication successful"
	msgRefreshOK  = "Reauthentication successful"
	msgLogoutOK   = "Logout successful"
	msgServerErr  = "Server error"
	msgUnauthed   = "Unauthorized"
	msgRevoked    = "This token has already been revoked"
	msgExpired    = "Token Expired"
	msgForbidden  = "Forbidden"
	msgMissingCrd = "Username or password not found"
	msgBadCrd     = "Username or password is incorrect"
	msgAuthFailed = "Authentication failed"
	msgNoTokens   = "Tokens not found"
	msgBadTokens  = "Tokens invalid"
)

type messageResponse struct {
	Message string `json:"message"`
}

type meResponse struct {
	UserID string `json:"user_id"`
}

// statusFor maps a flow outcome to the status code and message shown to
// the client. Anything unrecognised is a 500 without detail.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrMissingCredentials):
		return http.StatusBadRequest, msgMissingCrd
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, msgBadCrd
	case errors.Is(err, common.ErrAuthenticationFailed):
		return http.StatusUnauthorized, msgAuthFailed
	case errors.Is(err, common.ErrTokensNotFound):
		return http.StatusBadRequest, msgNoTokens
	case errors.Is(err, common.ErrTokensInvalid):
		return http.StatusUnauthorized, msgBadTokens
	case errors.Is(err, common.ErrMissingToken):
		return http.StatusUnauthorized, msgUnauthed
	case errors.Is(err, common.ErrTokenRevoked):
		return http.StatusForbidden, msgRevoked
	case errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, msgExpired
	case errors.Is(err, common.ErrInvalidToken):
		return http.StatusForbidden, msgForbidden
	default:
		return http.StatusInternalServerError, msgServerErr
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

func writeError(w http.ResponseWriter, err error) {
	status, msg := statusFor(err)
	writeMessage(w, status, msg)
}

func (s *HTTPServer) tokenCookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	}
}

func (s *HTTPServer) setTokenCookies(w http.ResponseWriter, pair *services.TokenPair) {
	http.SetCookie(w, s.tokenCookie(common.AccessTokenCookieName, pair.AccessToken.Value, s.opts.AccessTTL))
	http.SetCookie(w, s.tokenCookie(common.RefreshTokenCookieName, pair.RefreshToken.Value, s.opts.RefreshTTL))
}

func (s *HTTPServer) clearTokenCookies(w http.ResponseWriter) {
	for _, name := range []string{common.AccessTokenCookieName, common.RefreshTokenCookieName} {
		c := s.tokenCookie(name, "", 0)
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
