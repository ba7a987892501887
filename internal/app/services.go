// Package app wires configuration into the services shared by the CLI and
// the API server.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spherical-ai/spherical/libs/spec-compare/internal/cache"
	"github.com/spherical-ai/spherical/libs/spec-compare/internal/comparison"
	"github.com/spherical-ai/spherical/libs/spec-compare/internal/config"
	"github.com/spherical-ai/spherical/libs/spec-compare/internal/extractor"
	"github.com/spherical-ai/spherical/libs/spec-compare/internal/ingest"
	"github.com/spherical-ai/spherical/libs/spec-compare/internal/observability"
	"github.com/spherical-ai/spherical/libs/spec-compare/internal/storage"
	"github.com/spherical-ai/spherical/libs/spec-compare/internal/tables"
	"github.com/spherical-ai/spherical/libs/spec-compare/internal/units"
)

// Services holds the extraction and comparison services built from config.
type Services struct {
	Metrics    *observability.Metrics
	Registry   *extractor.Registry
	Pipeline   *ingest.Pipeline
	Comparator *comparison.Comparator

	cacheClient cache.Client
}

// NewServices builds the services. Extra pipeline options are applied after
// the configured ones.
func NewServices(cfg *config.Config, logger *observability.Logger, opts ...ingest.Option) (*Services, error) {
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics()
	}

	client, err := newCacheClient(cfg.Cache)
	if err != nil {
		return nil, err
	}

	normalizer := units.NewNormalizer(units.WithMissHook(func(raw string) {
		logger.Debug().Str("unit", raw).Msg("unit lookup miss")
		metrics.UnitMiss()
	}))
	builder := ingest.NewBuilder(tables.NewParser(normalizer, logger), logger)
	registry := extractor.NewDefaultRegistry(cfg.Extraction.PDF(), logger)

	pipelineOpts := []ingest.Option{
		ingest.WithLocator(ingest.NewLocator(cfg.Extraction.SourceDir, locatorExtensions(registry)...)),
		ingest.WithCache(cache.NewDocumentCache(client, cfg.Cache.TTL)),
		ingest.WithMetrics(metrics),
		ingest.WithConcurrency(cfg.Extraction.MaxConcurrent),
	}
	pipelineOpts = append(pipelineOpts, opts...)

	return &Services{
		Metrics:     metrics,
		Registry:    registry,
		Pipeline:    ingest.NewPipeline(registry, builder, logger, pipelineOpts...),
		Comparator:  comparison.NewComparator(logger, comparison.WithMetrics(metrics)),
		cacheClient: client,
	}, nil
}

// locatorExtensions puts PDF first so a model with several source files
// resolves to its datasheet.
func locatorExtensions(r *extractor.Registry) []string {
	exts := []string{".pdf"}
	for _, ext := range r.Extensions() {
		if ext != ".pdf" {
			exts = append(exts, ext)
		}
	}
	return exts
}

// Close releases the cache connection.
func (s *Services) Close() error {
	return s.cacheClient.Close()
}

func newCacheClient(cfg config.CacheConfig) (cache.Client, error) {
	if cfg.Driver == "redis" {
		client, err := cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("connect document cache: %w", err)
		}
		return client, nil
	}
	return cache.NewMemoryClient(cfg.MaxEntries), nil
}

// OpenRepository connects to the configured database and applies pending
// migrations. The caller closes the returned *sql.DB.
func OpenRepository(ctx context.Context, cfg *config.Config) (*storage.DocumentRepository, *sql.DB, error) {
	db, err := storage.Open(ctx, cfg.Database.Driver, cfg.DatabaseDSN(), storage.PoolConfig{
		MaxOpenConns:    cfg.Database.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Database.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.Postgres.ConnMaxLifetime,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := storage.NewMigrator(db, cfg.Database.Driver).Up(ctx); err != nil {
		return nil, nil, errors.Join(fmt.Errorf("migrate database: %w", err), db.Close())
	}
	return storage.NewDocumentRepository(db), db, nil
}
