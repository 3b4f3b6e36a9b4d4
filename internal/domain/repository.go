package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching fetched source documents
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Source describes one configured product data source
type Source struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	URL   string `json:"url"`
}

// SourceFetcher retrieves the raw JSON document of a data source
type SourceFetcher interface {
	Fetch(ctx context.Context, source Source) ([]byte, error)
}
