package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/paygateauth/internal/common"
	"github.com/dmitrijs2005/paygateauth/internal/logging"
	"github.com/dmitrijs2005/paygateauth/internal/server/metrics"
	"github.com/google/uuid"
)

type ctxKey string

const userIDKey ctxKey = "userID"

const requestIDHeader = "X-Request-ID"

// UserIDFromContext returns the user authenticated by the gate.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) string {
	h := r.Header.Get(common.AuthorizationHeaderName)
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// requireAccessToken is the request gate. The bearer header wins over the
// token cookie. Only requests with a valid, unrevoked access token reach
// next, with the user ID in the context.
func (s *HTTPServer) requireAccessToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()

		token := bearerToken(r)
		if token == "" {
			token = cookieValue(r, common.AccessTokenCookieName)
		}

		userID, err := s.sessions.Authenticate(ctx, token)
		s.metrics.Observe(metrics.OpGate, err, time.Since(start))
		if err != nil {
			writeError(w, err)
			return
		}

		ctx = context.WithValue(ctx, userIDKey, userID)
		ctx = logging.IntoContext(ctx, logging.FromContext(ctx, s.logger).With("user_id", userID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *HTTPServer) withTimeout(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withRequestLogging tags every request with a request id, carries a
// request-scoped logger in the context and logs the finished request.
func (s *HTTPServer) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		l := s.logger.With("request_id", id, "method", r.Method, "path", r.URL.Path)
		ctx := logging.IntoContext(r.Context(), l)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		l.Debug(ctx, "request served", "status", rec.status, "duration", time.Since(start))
	})
}
