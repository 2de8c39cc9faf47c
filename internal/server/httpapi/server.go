// Package httpapi exposes the session flows over HTTP+JSON with cookie
// transport and guards protected routes with the access-token gate.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/paygateauth/internal/common"
	"github.com/dmitrijs2005/paygateauth/internal/logging"
	"github.com/dmitrijs2005/paygateauth/internal/server/metrics"
	"github.com/dmitrijs2005/paygateauth/internal/server/services"
)

const (
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 5 * time.Second
)

// Sessions is the part of services.SessionService the handlers use.
type Sessions interface {
	Login(ctx context.Context, username, password string) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
	Authenticate(ctx context.Context, accessToken string) (string, error)
	Ping(ctx context.Context) error
}

// Options tune transport details. Zero values take defaults.
type Options struct {
	CookieSecure   bool
	RequestTimeout time.Duration
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
}

type HTTPServer struct {
	address  string
	sessions Sessions
	logger   logging.Logger
	metrics  *metrics.Metrics
	opts     Options
}

// NewHTTPServer builds the API server. m may be nil.
func NewHTTPServer(addr string, l logging.Logger, s Sessions, m *metrics.Metrics, opts Options) *HTTPServer {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 5 * time.Second
	}
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = common.AccessTokenValidity
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = common.RefreshTokenValidity
	}
	return &HTTPServer{
		address:  addr,
		sessions: s,
		logger:   l.With("module", "http_server"),
		metrics:  m,
		opts:     opts,
	}
}

// Handler returns the routed API with request-scoped logging and the
// request timeout applied.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /login", s.login)
	mux.HandleFunc("POST /refresh_auth", s.refreshAuth)
	mux.HandleFunc("POST /logout", s.logout)
	mux.Handle("GET /me", s.requireAccessToken(http.HandlerFunc(s.me)))
	mux.HandleFunc("GET /healthz", s.healthz)

	return s.withRequestLogging(s.withTimeout(mux))
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	stopped := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		stopped <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", ln.Addr().String())

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return <-stopped
}
