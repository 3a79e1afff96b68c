// Package bootstrap provides dependency initialization for the job feed API.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maauso/jobfeed-api/internal/access"
	"github.com/maauso/jobfeed-api/internal/aggregator"
	"github.com/maauso/jobfeed-api/internal/cache"
	"github.com/maauso/jobfeed-api/internal/config"
	"github.com/maauso/jobfeed-api/internal/feed"
	"github.com/maauso/jobfeed-api/internal/scheduler"
	"github.com/maauso/jobfeed-api/internal/search"
	"github.com/maauso/jobfeed-api/internal/source"
	"github.com/maauso/jobfeed-api/internal/storage"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	Sources      *source.Service
	Orchestrator *aggregator.Orchestrator
	Search       *search.Engine
	Tokens       *access.TokenService
	// Scheduler is nil when cache warm-up is disabled.
	Scheduler *scheduler.Scheduler

	closers []func()
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{}

	// Initialize job source repository
	repo, err := deps.initRepository(ctx, cfg, logger)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.Sources = source.NewService(repo, access.IsAdmin, logger)

	// Initialize feed adapters
	client := feed.NewClient(feed.WithMaxBodyBytes(cfg.MaxFeedBytes))
	registry := feed.NewRegistry(client)

	opts := []aggregator.Option{
		aggregator.WithLogger(logger),
		aggregator.WithMaxConcurrency(cfg.FetchConcurrency),
		aggregator.WithSourceTimeout(cfg.SourceTimeout()),
		aggregator.WithCycleTimeout(cfg.CycleTimeout()),
		aggregator.WithRetries(cfg.FetchRetries, aggregator.DefaultRetryBackoff),
	}

	// Initialize optional listing cache
	if cfg.CacheEnabled() {
		c, err := deps.initCache(ctx, cfg, logger)
		if err != nil {
			deps.Close()
			return nil, err
		}
		opts = append(opts, aggregator.WithCache(c))
	}

	deps.Orchestrator = aggregator.NewOrchestrator(repo, registry, opts...)
	deps.Search = search.NewEngine(deps.Orchestrator, logger)
	deps.Tokens = access.NewTokenService([]byte(cfg.JWTSecret), cfg.TokenTTL())

	if cfg.WarmupEnabled() {
		deps.Scheduler = scheduler.New(deps.Orchestrator, cfg.WarmupSchedule, logger)
	}

	return deps, nil
}

// Close releases database and cache connections.
func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
}

// initRepository creates the job source repository. Postgres is used when
// configured; otherwise the in-memory registry is restored from and
// snapshotted to object storage.
func (d *Dependencies) initRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) (source.Repository, error) {
	if cfg.PostgresEnabled() {
		pool, err := source.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		d.closers = append(d.closers, pool.Close)

		repo := source.NewPostgresRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		logger.Info("postgres job source repository configured")
		return repo, nil
	}

	store, err := initStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	repo := source.NewMemoryRepository(
		source.WithSnapshots(source.NewSnapshots(store, source.DefaultSnapshotKey)),
	)
	if err := repo.Restore(ctx); err != nil {
		return nil, fmt.Errorf("restore job sources: %w", err)
	}
	return repo, nil
}

func (d *Dependencies) initCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*cache.RedisCache, error) {
	client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	d.closers = append(d.closers, func() { _ = client.Close() })

	logger.Info("redis listing cache configured",
		slog.Duration("ttl", cfg.CacheTTL()),
	)
	return cache.NewRedisCache(client, cfg.CacheTTL()), nil
}

// initStorage creates the appropriate storage backend based on configuration.
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Prefix:          cfg.S3Prefix,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Storage(s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStorage(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local storage configured",
		slog.String("data_dir", localStore.Dir()),
	)
	return localStore, nil
}
