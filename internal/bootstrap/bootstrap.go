// Package bootstrap wires the configuration store from environment configuration.
// Both the HTTP server and the operator CLI build their dependencies here.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/pscheid92/scopeconf/internal/adapter/httpserver"
	"github.com/pscheid92/scopeconf/internal/adapter/memory"
	"github.com/pscheid92/scopeconf/internal/adapter/metrics"
	"github.com/pscheid92/scopeconf/internal/adapter/postgres"
	redisadapter "github.com/pscheid92/scopeconf/internal/adapter/redis"
	"github.com/pscheid92/scopeconf/internal/app"
	"github.com/pscheid92/scopeconf/internal/crypto"
	"github.com/pscheid92/scopeconf/internal/definition"
	"github.com/pscheid92/scopeconf/internal/domain"
	"github.com/pscheid92/scopeconf/internal/field"
	"github.com/pscheid92/scopeconf/internal/filestore"
	"github.com/pscheid92/scopeconf/internal/options"
	"github.com/pscheid92/scopeconf/internal/platform/config"
	"github.com/pscheid92/scopeconf/internal/platform/retry"
	"github.com/pscheid92/scopeconf/internal/scope"
	"github.com/pscheid92/scopeconf/internal/storage"
)

// ScopeOptionSet is the built-in select enumeration listing the current scopes.
const ScopeOptionSet = "scopes"

const memoryCacheCleanup = 10 * time.Minute

type Options struct {
	// Migrate applies the embedded migrations after connecting to PostgreSQL.
	Migrate bool
	// Registry receives the store metrics; nil disables metrics.
	Registry *prometheus.Registry
	Clock    clockwork.Clock
}

// App holds every wired component.
type App struct {
	Config      *config.Config
	Definitions *definition.Registry
	Scopes      *scope.Service
	Repo        domain.ValueRepository
	Storage     *storage.Storage
	Service     *app.Service
	Reconciler  *app.Reconciler

	Pool  *pgxpool.Pool
	Redis *goredis.Client

	HealthChecks []httpserver.HealthCheck

	subscriber *redisadapter.InvalidationSubscriber
	closers    []func()
}

func Build(ctx context.Context, cfg *config.Config, opts Options) (_ *App, err error) {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	a := &App{Config: cfg}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	schema, err := definition.Load(cfg.SchemaPath)
	if err != nil {
		return nil, err
	}

	a.Definitions, err = definition.NewRegistry(schema.Definitions)
	if err != nil {
		return nil, err
	}

	a.Scopes = scope.NewService(scope.StaticList(schema.Scopes))

	optionSets := options.FromSchema(schema.Options)
	optionSets.Register(ScopeOptionSet, a.Scopes)

	fields := field.NewRegistry(optionSets)
	if err := fields.Check(a.Definitions.All()); err != nil {
		return nil, err
	}

	var (
		dbMetrics     *metrics.DBMetrics
		redisMetrics  *metrics.RedisMetrics
		cacheMetrics  *metrics.CacheMetrics
		configMetrics *metrics.ConfigMetrics
	)
	if opts.Registry != nil {
		dbMetrics = metrics.NewDBMetrics(opts.Registry)
		redisMetrics = metrics.NewRedisMetrics(opts.Registry)
		cacheMetrics = metrics.NewCacheMetrics(opts.Registry)
		configMetrics = metrics.NewConfigMetrics(opts.Registry)
	}

	if err := a.connectRepository(ctx, opts.Migrate, dbMetrics); err != nil {
		return nil, err
	}

	cache, err := a.connectCache(ctx, redisMetrics)
	if err != nil {
		return nil, err
	}

	a.Storage, err = storage.New(a.Definitions, fields, a.Scopes, a.Repo, cache, opts.Clock, storage.Config{
		CacheKey:    cfg.CacheKey,
		SnapshotTTL: cfg.SnapshotTTL,
		MemoTTL:     cfg.MemoTTL,
	})
	if err != nil {
		return nil, err
	}
	if cacheMetrics != nil {
		a.Storage.SetObserver(cacheMetrics)
	}

	if a.Redis != nil {
		a.subscriber = redisadapter.NewInvalidationSubscriber(a.Redis, redisadapter.DefaultInvalidationChannel, cfg.CacheKey, a.Storage)
	}

	encryptor, err := newEncryptor(cfg.EncryptionKey)
	if err != nil {
		return nil, err
	}
	hasher, err := crypto.NewBcryptHasher(cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	files := filestore.NewLocal(cfg.FileStorageDir, cfg.FileBaseURL, cfg.FileUploadsEnabled)

	a.Service = app.NewService(a.Definitions, a.Storage, hasher, encryptor, files)
	if configMetrics != nil {
		a.Service.SetRecorder(configMetrics)
	}

	a.Reconciler = app.NewReconciler(a.Repo, a.Definitions, a.Scopes, a.Storage, cfg.OrphanCheckInterval, cfg.OrphanPrune, opts.Clock)

	return a, nil
}

func (a *App) connectRepository(ctx context.Context, migrate bool, m *metrics.DBMetrics) error {
	if a.Config.DatabaseURL == "" {
		slog.Warn("DATABASE_URL not set, stored values live in memory only")
		a.Repo = memory.NewValueRepo()
		return nil
	}

	var tracer pgx.QueryTracer
	if m != nil {
		tracer = postgres.NewMetricsTracer(m)
	}

	pool, err := retry.Do(ctx, withRetryLog(retry.Startup, "postgres"), retry.Transient, func() (*pgxpool.Pool, error) {
		return postgres.Connect(ctx, a.Config.DatabaseURL, tracer)
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	a.Pool = pool
	a.closers = append(a.closers, pool.Close)

	if migrate {
		if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
			return err
		}
	}

	a.Repo = postgres.NewValueRepo(pool)
	a.HealthChecks = append(a.HealthChecks, httpserver.HealthCheck{Name: "postgres", Check: pool.Ping})
	return nil
}

func (a *App) connectCache(ctx context.Context, m *metrics.RedisMetrics) (domain.Cache, error) {
	if a.Config.RedisURL == "" {
		slog.Warn("REDIS_URL not set, using a process-local snapshot cache")
		return memory.NewCache(memoryCacheCleanup), nil
	}

	rdb, err := retry.Do(ctx, withRetryLog(retry.Startup, "redis"), retry.Transient, func() (*goredis.Client, error) {
		return redisadapter.NewClient(ctx, a.Config.RedisURL, m)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	a.Redis = rdb
	a.closers = append(a.closers, func() { _ = rdb.Close() })

	a.HealthChecks = append(a.HealthChecks, httpserver.HealthCheck{
		Name:  "redis",
		Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	})
	return redisadapter.NewCache(rdb, redisadapter.DefaultInvalidationChannel), nil
}

// Start runs the background workers until ctx is cancelled.
func (a *App) Start(ctx context.Context) {
	if a.subscriber != nil {
		go a.subscriber.Start(ctx)
	}
	if a.Config.OrphanCheckInterval > 0 {
		go a.Reconciler.Start(ctx)
		a.closers = append(a.closers, a.Reconciler.Stop)
	}
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func newEncryptor(hexKey string) (domain.Encryptor, error) {
	if hexKey == "" {
		slog.Warn("ENCRYPTION_KEY not set, encrypted values are stored as plain text")
		return crypto.NoopService{}, nil
	}
	svc, err := crypto.NewAesGcmService(hexKey)
	if err != nil {
		return nil, err
	}
	return svc, nil
}

func withRetryLog(p retry.Policy, target string) retry.Policy {
	p.OnRetry = func(attempt int, err error, backoff time.Duration) {
		slog.Warn("Connection attempt failed, retrying", "target", target, "attempt", attempt, "backoff", backoff, "error", err)
	}
	return p
}
