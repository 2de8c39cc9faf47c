// Package metrics exposes Prometheus instrumentation of the session flows
// and the listener that serves it.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/paygateauth/internal/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Operation labels.
const (
	OpLogin   = "login"
	OpRefresh = "refresh"
	OpLogout  = "logout"
	OpGate    = "gate"
)

// Metrics records outcome counts and latencies of the session flows.
type Metrics struct {
	ops    *prometheus.CounterVec
	dur    *prometheus.HistogramVec
	pruned prometheus.Counter
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ops: f.NewCounterVec(prometheus.CounterOpts{
			Name: "paygate_auth_operations_total", Help: "Session operations by outcome.",
		}, []string{"operation", "outcome"}),
		dur: f.NewHistogramVec(prometheus.HistogramOpts{
			Name: "paygate_auth_operation_duration_seconds", Help: "Session operation latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		pruned: f.NewCounter(prometheus.CounterOpts{
			Name: "paygate_revoked_tokens_pruned_total", Help: "Expired revocation entries deleted.",
		}),
	}
}

// Observe counts one finished operation and records its latency.
// A nil receiver is a no-op.
func (m *Metrics) Observe(op string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(op, Outcome(err)).Inc()
	m.dur.WithLabelValues(op).Observe(elapsed.Seconds())
}

// Pruned adds n deleted revocation entries.
func (m *Metrics) Pruned(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.pruned.Add(float64(n))
}

// Outcome maps a flow result to a low-cardinality label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, common.ErrMissingCredentials):
		return "missing_credentials"
	case errors.Is(err, common.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, common.ErrAuthenticationFailed):
		return "authentication_failed"
	case errors.Is(err, common.ErrTokensNotFound):
		return "tokens_not_found"
	case errors.Is(err, common.ErrTokensInvalid):
		return "tokens_invalid"
	case errors.Is(err, common.ErrMissingToken):
		return "missing_token"
	case errors.Is(err, common.ErrTokenRevoked):
		return "revoked"
	case errors.Is(err, common.ErrTokenExpired):
		return "expired"
	case errors.Is(err, common.ErrInvalidToken):
		return "invalid"
	default:
		return "error"
	}
}

// NewServer builds the metrics listener: /metrics from g and /healthz from
// health.
func NewServer(addr string, g prometheus.Gatherer, health func(context.Context) error) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := health(ctx); err != nil {
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		IdleTimeout:  30 * time.Second,
	}
}
