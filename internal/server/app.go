// Package server initializes and runs the application: it wires the store,
// the cache, the provisioning queue, and the HTTP endpoint, and handles
// graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"

	"github.com/memahdii/social-network/internal/logging"
	"github.com/memahdii/social-network/internal/server/cache"
	"github.com/memahdii/social-network/internal/server/config"
	"github.com/memahdii/social-network/internal/server/httpapi"
	"github.com/memahdii/social-network/internal/server/queue"
	"github.com/memahdii/social-network/internal/server/repositories/repomanager"
	"github.com/memahdii/social-network/internal/server/services"
)

const (
	dbPingBaseDelay = 500 * time.Millisecond
	dbPingRetries   = 5
	shutdownTimeout = 15 * time.Second
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	rdb    *redis.Client
	queue  *queue.Queue
	router http.Handler
}

func NewApp(cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	ctx := context.Background()

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	// The database may still be coming up alongside us; ping with backoff
	// before running migrations.
	backoff := retry.WithMaxRetries(dbPingRetries, retry.NewFibonacci(dbPingBaseDelay))
	if err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		return retry.RetryableError(db.PingContext(ctx))
	}); err != nil {
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	// The cache is optional: without a Redis address every read goes
	// straight to the store.
	var rdb *redis.Client
	var c *cache.Cache
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		c = cache.New(rdb, cfg.CacheTTL, cfg.GroupViewTTL)
	} else {
		logger.Warn(ctx, "cache disabled, running store-only")
	}

	q := queue.New(cfg.QueueWorkers, logger)

	matcher := services.NewGroupMatcher(db, repos, c, logger)
	provisioner := services.NewGroupProvisioner(db, repos, c, q, cfg.ProvisionTimeout, logger)
	signup := services.NewSignupService(db, repos, matcher, provisioner, logger)
	tokens := services.NewTokenIssuer(db, repos, c, logger)
	views := services.NewGroupQueryService(db, repos, c, logger)
	users := services.NewUserService(db, repos, c, logger)

	handler := httpapi.NewHandler(signup, tokens, views, users, logger)

	return &App{
		config: cfg,
		logger: logger,
		db:     db,
		rdb:    rdb,
		queue:  q,
		router: httpapi.NewRouter(handler),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves HTTP until the context is cancelled or a termination signal
// arrives, then drains the queue and closes the clients.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "addr", app.config.Addr)

	app.initSignalHandler(cancelFunc)

	srv := &http.Server{Addr: app.config.Addr, Handler: app.router}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "HTTP shutdown error", "error", err.Error())
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}

	app.queue.Close()

	if app.rdb != nil {
		if err := app.rdb.Close(); err != nil {
			app.logger.Error(ctx, "redis close error", "error", err.Error())
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}
}
