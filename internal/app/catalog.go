// Package app wires the catalog components from configuration.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/grocerygrid/backend/config"
	"github.com/grocerygrid/backend/internal/domain"
	"github.com/grocerygrid/backend/internal/infrastructure/cache"
	"github.com/grocerygrid/backend/internal/infrastructure/source"
	"github.com/grocerygrid/backend/internal/usecase"
	"github.com/rs/zerolog"
)

// Catalog bundles the catalog service with the resources it owns
type Catalog struct {
	Service *usecase.CatalogService
	closers []io.Closer
}

// Close releases the cache backing the catalog
func (c *Catalog) Close() error {
	var first error
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// NewCatalog builds the cache, source client, query engine and catalog
// service described by cfg
func NewCatalog(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Catalog, error) {
	documentCache, err := newCache(ctx, cfg.Cache, logger)
	if err != nil {
		return nil, err
	}

	client := source.NewClient(source.ClientConfig{
		Timeout:       cfg.Fetch.Timeout,
		Retries:       cfg.Fetch.Retries,
		RatePerSecond: cfg.Fetch.RatePerSecond,
		Burst:         cfg.Fetch.Burst,
		BaseDir:       cfg.Catalog.DataDir,
	}, logger)

	service := usecase.NewCatalogService(
		documentCache,
		client,
		usecase.NewQueryEngine(cfg.Catalog.PageSize),
		usecase.CatalogServiceConfig{
			Sources:  Sources(cfg),
			CacheTTL: cfg.Cache.TTL,
		},
		logger,
	)

	return &Catalog{Service: service, closers: []io.Closer{documentCache}}, nil
}

// Sources converts the configured sources to domain sources
func Sources(cfg *config.Config) []domain.Source {
	sources := make([]domain.Source, 0, len(cfg.Sources))
	for _, s := range cfg.Sources {
		sources = append(sources, domain.Source{Name: s.Name, Label: s.Label, URL: s.URL})
	}
	return sources
}

type documentCache interface {
	domain.CacheRepository
	io.Closer
}

func newCache(ctx context.Context, cfg config.CacheConfig, logger zerolog.Logger) (documentCache, error) {
	if cfg.Type != "redis" {
		logger.Info().Str("cache", "memory").Dur("ttl", cfg.TTL).Msg("cache initialized")
		return cache.NewMemoryCache(), nil
	}

	redisCache, err := cache.NewRedisCache(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	if err := redisCache.Ping(ctx); err != nil {
		redisCache.Close()
		return nil, fmt.Errorf("redis cache: %w", err)
	}

	logger.Info().Str("cache", "redis").Dur("ttl", cfg.TTL).Msg("cache initialized")
	return redisCache, nil
}
