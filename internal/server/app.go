// Package server initializes and runs the authentication server: it opens
// the stores, applies migrations, and runs the HTTP API, the metrics
// listener and the revocation pruner until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/paygateauth/internal/cryptox"
	"github.com/dmitrijs2005/paygateauth/internal/dbx"
	"github.com/dmitrijs2005/paygateauth/internal/logging"
	"github.com/dmitrijs2005/paygateauth/internal/server/auth"
	"github.com/dmitrijs2005/paygateauth/internal/server/config"
	"github.com/dmitrijs2005/paygateauth/internal/server/httpapi"
	"github.com/dmitrijs2005/paygateauth/internal/server/metrics"
	"github.com/dmitrijs2005/paygateauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/paygateauth/internal/server/services"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

const startupTimeout = 10 * time.Second

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	rdb      *redis.Client
	registry *prometheus.Registry
	sessions *services.SessionService
	pruner   *services.RevocationPruner
	metrics  *metrics.Metrics
}

// OpenDB opens the PostgreSQL pool through the pgx stdlib driver and checks
// that it answers.
func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenRedis connects the optional revocation cache. An empty addr returns nil.
func OpenRedis(ctx context.Context, addr string) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

// NewRepositoryManager returns the PostgreSQL manager, caching revocations in
// rdb when it is non-nil.
func NewRepositoryManager(rdb *redis.Client) repomanager.RepositoryManager {
	if rdb == nil {
		return repomanager.NewPostgresRepositoryManager(nil)
	}
	return repomanager.NewPostgresRepositoryManager(rdb)
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	db, err := OpenDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rdb, err := OpenRedis(ctx, c.RedisAddr)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("redis init error: %w", err)
	}

	rm := NewRepositoryManager(rdb)
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = closeStores(db, rdb)
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	codec, err := auth.NewCodec([]byte(c.AccessSecret), []byte(c.RefreshSecret),
		c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration)
	if err != nil {
		_ = closeStores(db, rdb)
		return nil, fmt.Errorf("token codec: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	sessions := services.NewSessionService(db, dbx.SQLTxRunner{DB: db}, rm, codec,
		cryptox.NewVerifier(c.BcryptCost), logger.With("module", "sessions"))
	pruner := services.NewRevocationPruner(db, rm, c.RevokedPruneInterval, logger, m)

	return &App{
		config:   c,
		logger:   logger,
		db:       db,
		rdb:      rdb,
		registry: registry,
		sessions: sessions,
		pruner:   pruner,
		metrics:  m,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, app.sessions, app.metrics, httpapi.Options{
		CookieSecure:   app.config.CookieSecure,
		RequestTimeout: app.config.RequestTimeout,
		AccessTTL:      app.config.AccessTokenValidityDuration,
		RefreshTTL:     app.config.RefreshTokenValidityDuration,
	})

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "http server failed", "error", err)
		cancelFunc()
	}
}

func (app *App) startMetricsServer(ctx context.Context, cancelFunc context.CancelFunc) {
	ms := metrics.NewServer(app.config.MetricsAddr, app.registry, app.sessions.Ping)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = ms.Shutdown(shutdownCtx)
	}()

	app.logger.Info(ctx, "metrics listening", "address", app.config.MetricsAddr)
	if err := ms.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, "metrics server error", "error", err)
		cancelFunc()
	}
}

// Run serves until a signal arrives or the HTTP or metrics listener fails,
// then closes the stores.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startMetricsServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.pruner.Run(ctx)
	}()

	wg.Wait()

	app.close()
	app.logger.Info(context.Background(), "App stopped")
}

func (app *App) close() {
	if err := closeStores(app.db, app.rdb); err != nil {
		app.logger.Warn(context.Background(), "closing stores", "error", err)
	}
}

// closeStores closes the redis client, when there is one, and the db pool.
func closeStores(db *sql.DB, rdb *redis.Client) error {
	var errs []error
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}
	if err := db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("db close: %w", err))
	}
	return errors.Join(errs...)
}
