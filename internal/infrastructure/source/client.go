package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/grocerygrid/backend/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// maxDocumentSize caps the size of a fetched source document (64 MiB)
const maxDocumentSize = 64 << 20

// ClientConfig holds source client configuration
type ClientConfig struct {
	Timeout       time.Duration
	Retries       int
	RatePerSecond float64
	Burst         int
	// BaseDir resolves relative file sources
	BaseDir string
}

// Client fetches source documents over HTTP(S) or from the local filesystem
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	retries     int
	backoffBase time.Duration
	baseDir     string
	maxBytes    int64
	logger      zerolog.Logger
}

// NewClient creates a new source client
func NewClient(cfg ClientConfig, logger zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retries <= 0 {
		cfg.Retries = 3
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		retries:     cfg.Retries,
		backoffBase: 500 * time.Millisecond,
		baseDir:     cfg.BaseDir,
		maxBytes:    maxDocumentSize,
		logger:      logger.With().Str("component", "source").Logger(),
	}
}

// Fetch returns the raw document of a source
func (c *Client) Fetch(ctx context.Context, src domain.Source) ([]byte, error) {
	if strings.TrimSpace(src.URL) == "" {
		return nil, fmt.Errorf("%w: %s: no url configured", domain.ErrSourceFetchFailed, src.Name)
	}

	if isRemote(src.URL) {
		return c.fetchRemote(ctx, src)
	}
	return c.readLocal(src)
}

func isRemote(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// readLocal reads a file source; "file://" prefixes are accepted
func (c *Client) readLocal(src domain.Source) ([]byte, error) {
	path := strings.TrimPrefix(src.URL, "file://")
	if !filepath.IsAbs(path) && c.baseDir != "" {
		path = filepath.Join(c.baseDir, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrSourceFetchFailed, src.Name, err)
	}
	defer f.Close()

	doc, err := c.readDocument(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrSourceFetchFailed, src.Name, err)
	}

	c.logger.Debug().Str("source", src.Name).Str("path", path).Int("bytes", len(doc)).Msg("source read")
	return doc, nil
}

// doRequest executes an HTTP GET request with proper headers
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "GroceryGrid/1.0")
	req.Header.Set("Accept", "application/json")

	return c.httpClient.Do(req)
}

// fetchRemote downloads a source document, retrying transient failures
// (network errors, 429 and 5xx responses)
func (c *Client) fetchRemote(ctx context.Context, src domain.Source) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		if attempt > 1 {
			if err := c.sleep(ctx, c.exponentialBackoff(attempt-1)); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", domain.ErrSourceFetchFailed, src.Name, err)
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %s: rate limiter: %v", domain.ErrSourceFetchFailed, src.Name, err)
		}

		resp, err := c.doRequest(ctx, src.URL)
		if err != nil {
			c.logger.Warn().Err(err).Str("source", src.Name).Int("attempt", attempt).Msg("request failed")
			lastErr = fmt.Errorf("%w: %s: %v", domain.ErrSourceFetchFailed, src.Name, err)
			if ctx.Err() != nil {
				return nil, lastErr
			}
			continue
		}

		body, readErr := c.readDocument(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if errors.Is(readErr, errDocumentTooLarge) {
				return nil, fmt.Errorf("%w: %s: %v", domain.ErrSourceFetchFailed, src.Name, readErr)
			}
			if readErr != nil {
				lastErr = fmt.Errorf("%w: %s: read body: %v", domain.ErrSourceFetchFailed, src.Name, readErr)
				continue
			}
			c.logger.Debug().Str("source", src.Name).Int("bytes", len(body)).Msg("source fetched")
			return body, nil

		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			c.logger.Warn().Str("source", src.Name).Int("status", resp.StatusCode).Int("attempt", attempt).Msg("transient status")
			lastErr = fmt.Errorf("%w: %s: status %d", domain.ErrSourceFetchFailed, src.Name, resp.StatusCode)

		default:
			return nil, fmt.Errorf("%w: %s: status %d", domain.ErrSourceFetchFailed, src.Name, resp.StatusCode)
		}
	}

	c.logger.Error().Err(lastErr).Str("source", src.Name).Msg("all retries failed")
	return nil, lastErr
}

var errDocumentTooLarge = errors.New("document too large")

// readDocument reads r up to the size cap. Larger documents fail instead of
// being truncated.
func (c *Client) readDocument(r io.Reader) ([]byte, error) {
	doc, err := io.ReadAll(io.LimitReader(r, c.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(doc)) > c.maxBytes {
		return nil, fmt.Errorf("%w: exceeds %d bytes", errDocumentTooLarge, c.maxBytes)
	}
	return doc, nil
}

// exponentialBackoff returns the wait before retry n (1-based)
func (c *Client) exponentialBackoff(n int) time.Duration {
	return c.backoffBase * time.Duration(1<<(n-1))
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
