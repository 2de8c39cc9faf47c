package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dmitrijs2005/paygateauth/internal/common"
	"github.com/dmitrijs2005/paygateauth/internal/logging"
	"github.com/dmitrijs2005/paygateauth/internal/server/metrics"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *HTTPServer) login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	// A body that does not decode leaves the fields empty and is reported
	// as missing credentials.
	var req loginRequest
	_ = json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req)

	pair, err := s.sessions.Login(ctx, req.Username, req.Password)
	s.metrics.Observe(metrics.OpLogin, err, time.Since(start))
	if err != nil {
		logging.FromContext(ctx, s.logger).Info(ctx, "login rejected", "username", req.Username, "outcome", metrics.Outcome(err))
		writeError(w, err)
		return
	}

	s.setTokenCookies(w, pair)
	writeMessage(w, http.StatusOK, msgLoginOK)
}

func (s *HTTPServer) refreshAuth(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	pair, err := s.sessions.Refresh(ctx, cookieValue(r, common.RefreshTokenCookieName))
	s.metrics.Observe(metrics.OpRefresh, err, time.Since(start))
	if err != nil {
		writeError(w, err)
		return
	}

	s.setTokenCookies(w, pair)
	writeMessage(w, http.StatusOK, msgRefreshOK)
}

func (s *HTTPServer) logout(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	access := cookieValue(r, common.AccessTokenCookieName)
	if access == "" {
		access = bearerToken(r)
	}

	err := s.sessions.Logout(ctx, access, cookieValue(r, common.RefreshTokenCookieName))
	s.metrics.Observe(metrics.OpLogout, err, time.Since(start))
	if err != nil {
		writeError(w, err)
		return
	}

	s.clearTokenCookies(w)
	writeMessage(w, http.StatusOK, msgLogoutOK)
}

func (s *HTTPServer) me(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	writeJSON(w, http.StatusOK, meResponse{UserID: userID})
}

func (s *HTTPServer) healthz(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Ping(r.Context()); err != nil {
		logging.FromContext(r.Context(), s.logger).Warn(r.Context(), "health check failed", "error", err)
		http.Error(w, "unhealthy", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
