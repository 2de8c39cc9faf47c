package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/paygateauth/internal/dbx"
	"github.com/dmitrijs2005/paygateauth/internal/logging"
	"github.com/dmitrijs2005/paygateauth/internal/server/metrics"
	"github.com/dmitrijs2005/paygateauth/internal/server/repositories/repomanager"
)

// RevocationPruner periodically deletes revocation entries past their expiry
// so the revoked_tokens table stays bounded.
type RevocationPruner struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	interval    time.Duration
	log         logging.Logger
	metrics     *metrics.Metrics
}

// NewRevocationPruner constructs a pruner. m may be nil.
func NewRevocationPruner(db dbx.DBTX, rm repomanager.RepositoryManager, interval time.Duration,
	l logging.Logger, m *metrics.Metrics) *RevocationPruner {
	return &RevocationPruner{
		db:          db,
		repomanager: rm,
		interval:    interval,
		log:         l.With("module", "revocation_pruner"),
		metrics:     m,
	}
}

// PruneOnce deletes expired entries and returns how many were removed.
func (p *RevocationPruner) PruneOnce(ctx context.Context) (int64, error) {
	n, err := p.repomanager.RevokedTokens(p.db).PruneExpired(ctx)
	if err != nil {
		return 0, err
	}
	p.metrics.Pruned(n)
	return n, nil
}

// Run prunes every interval until ctx is cancelled. Failures are logged and
// retried on the next tick.
func (p *RevocationPruner) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.log.Info(ctx, "revocation pruner started", "interval", p.interval.String())

	for {
		select {
		case <-ctx.Done():
			p.log.Info(context.Background(), "revocation pruner stopped")
			return
		case <-ticker.C:
			n, err := p.PruneOnce(ctx)
			if err != nil {
				p.log.Error(ctx, "prune revoked tokens", "error", err)
				continue
			}
			if n > 0 {
				p.log.Debug(ctx, "pruned revoked tokens", "count", n)
			}
		}
	}
}
