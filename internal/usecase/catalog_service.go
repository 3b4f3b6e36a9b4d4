package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/grocerygrid/backend/internal/domain"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"
)

// CatalogServiceConfig holds configuration for the catalog service
type CatalogServiceConfig struct {
	Sources  []domain.Source
	CacheTTL time.Duration
}

// CatalogService loads source documents into the query engine
type CatalogService struct {
	cache    domain.CacheRepository
	fetcher  domain.SourceFetcher
	engine   *QueryEngine
	sources  []domain.Source
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewCatalogService creates a new catalog service with dependencies.
// cache may be nil, in which case every load fetches.
func NewCatalogService(
	cache domain.CacheRepository,
	fetcher domain.SourceFetcher,
	engine *QueryEngine,
	config CatalogServiceConfig,
	logger zerolog.Logger,
) *CatalogService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 10 * time.Minute
	}

	return &CatalogService{
		cache:    cache,
		fetcher:  fetcher,
		engine:   engine,
		sources:  append([]domain.Source(nil), config.Sources...),
		cacheTTL: cacheTTL,
		logger:   logger.With().Str("component", "catalog").Logger(),
	}
}

// Sources returns the configured data sources
func (s *CatalogService) Sources() []domain.Source {
	return append([]domain.Source(nil), s.sources...)
}

// Engine returns the query engine the service loads into
func (s *CatalogService) Engine() *QueryEngine {
	return s.engine
}

// Load replaces the engine collection with the products of the selected
// source, or of every source when selection is "all".
//
// A single-source load that fails leaves the collection empty and returns
// the error. A multi-source load never fails because of one source: the
// source contributes nothing and a warning is recorded.
func (s *CatalogService) Load(ctx context.Context, selection string) (*domain.LoadResult, error) {
	selection = strings.TrimSpace(selection)
	if len(s.sources) == 0 {
		return nil, domain.ErrNoSources
	}

	if selection == "" || strings.EqualFold(selection, domain.AllSources) {
		return s.loadAll(ctx), nil
	}

	src, ok := s.source(selection)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSourceNotFound, selection)
	}

	products, err := s.loadSource(ctx, src)
	if err != nil {
		s.engine.Replace(nil)
		s.logger.Error().Err(err).Str("source", src.Name).Msg("load failed")
		return nil, fmt.Errorf("load %s: %w", src.Name, err)
	}

	s.engine.Replace(products)
	s.logger.Info().Str("source", src.Name).Int("products", len(products)).Msg("catalog loaded")

	return &domain.LoadResult{Source: src.Name, Count: len(products)}, nil
}

func (s *CatalogService) loadAll(ctx context.Context) *domain.LoadResult {
	results := make([][]domain.Product, len(s.sources))
	failures := make([]error, len(s.sources))

	var g errgroup.Group
	for i, src := range s.sources {
		g.Go(func() error {
			products, err := s.loadSource(ctx, src)
			if err != nil {
				failures[i] = err
				return nil
			}
			results[i] = products
			return nil
		})
	}
	_ = g.Wait()

	var all []domain.Product
	var warnings []string
	for i, src := range s.sources {
		if failures[i] != nil {
			s.logger.Warn().Err(failures[i]).Str("source", src.Name).Msg("source skipped")
			warnings = append(warnings, fmt.Sprintf("%s: %v", src.Name, failures[i]))
			continue
		}
		all = append(all, results[i]...)
	}

	s.engine.Replace(all)
	s.logger.Info().
		Int("products", len(all)).
		Int("sources", len(s.sources)).
		Int("skipped", len(warnings)).
		Msg("catalog loaded")

	return &domain.LoadResult{Source: domain.AllSources, Count: len(all), Warnings: warnings}
}

// loadSource fetches, extracts and normalizes one source
func (s *CatalogService) loadSource(ctx context.Context, src domain.Source) ([]domain.Product, error) {
	doc, err := s.fetchDocument(ctx, src)
	if err != nil {
		return nil, err
	}

	records, err := ExtractRecords(doc)
	if err != nil {
		return nil, err
	}

	label := src.Label
	if label == "" {
		label = src.Name
	}

	products := make([]domain.Product, 0, len(records))
	for _, record := range records {
		products = append(products, NormalizeFromSource(record, label))
	}

	s.logger.Debug().Str("source", src.Name).Int("records", len(records)).Msg("source normalized")
	return products, nil
}

// fetchDocument returns the cached document of a source or fetches it
func (s *CatalogService) fetchDocument(ctx context.Context, src domain.Source) ([]byte, error) {
	key := generateCacheKey(src)

	if s.cache != nil {
		doc, err := s.cache.Get(ctx, key)
		if err == nil {
			return doc, nil
		}
		if !errors.Is(err, domain.ErrCacheMiss) {
			s.logger.Warn().Err(err).Str("source", src.Name).Msg("cache read failed")
		}
	}

	doc, err := s.fetcher.Fetch(ctx, src)
	if err != nil {
		return nil, err
	}

	// Invalid documents are not cached
	if s.cache != nil && gjson.ValidBytes(doc) {
		if err := s.cache.Set(ctx, key, doc, s.cacheTTL); err != nil {
			s.logger.Warn().Err(err).Str("source", src.Name).Msg("cache write failed")
		}
	}

	return doc, nil
}

func (s *CatalogService) source(name string) (domain.Source, bool) {
	for _, src := range s.sources {
		if strings.EqualFold(src.Name, name) {
			return src, true
		}
	}
	return domain.Source{}, false
}

// generateCacheKey creates the cache key of a source document.
// Format: "source:{name}:{url}"
func generateCacheKey(src domain.Source) string {
	return fmt.Sprintf("source:%s:%s", strings.ToLower(src.Name), src.URL)
}
