package domain

import "errors"

var (
	// ErrSourceNotFound is returned when a requested data source is not configured
	ErrSourceNotFound = errors.New("data source not configured")

	// ErrSourceFetchFailed is returned when a source document cannot be retrieved
	ErrSourceFetchFailed = errors.New("data source fetch failed")

	// ErrInvalidDocument is returned when a source document is not valid JSON
	ErrInvalidDocument = errors.New("invalid product document")

	// ErrProductNotFound is returned when a product id is not in the current collection
	ErrProductNotFound = errors.New("product not found")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")

	// ErrNoSources is returned when a load is requested with no sources configured
	ErrNoSources = errors.New("no data sources configured")
)
