package fetch

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/interview-insights/internal/cache"
)

// DefaultPageCacheTTL is how long a fetched page is reused.
const DefaultPageCacheTTL = 24 * time.Hour

const pageKeyPrefix = "interview-insights:page:"

// page is the cached form of a Result.
type page Result

func (p *page) MarshalBinary() ([]byte, error) { return json.Marshal(p) }

func (p *page) UnmarshalBinary(data []byte) error { return json.Unmarshal(data, p) }

// CachedFetcher wraps a Fetcher with a page cache. Only 200 responses are cached.
type CachedFetcher struct {
	next   Fetcher
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedFetcher caches pages fetched by next for ttl. A zero ttl uses
// DefaultPageCacheTTL.
func NewCachedFetcher(next Fetcher, c cache.Cache, ttl time.Duration, logger *zap.Logger) *CachedFetcher {
	if ttl <= 0 {
		ttl = DefaultPageCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedFetcher{next: next, cache: c, ttl: ttl, logger: logger}
}

// Fetch returns the cached page for urlStr, fetching it on a miss. Cache
// failures are logged and fall through to the network.
func (f *CachedFetcher) Fetch(ctx context.Context, urlStr string) (*Result, error) {
	key := pageKeyPrefix + urlStr

	var cached page
	err := f.cache.Get(ctx, key, &cached)
	switch {
	case err == nil:
		res := Result(cached)
		return &res, nil
	case !stderrors.Is(err, cache.ErrNotFound):
		f.logger.Warn("Page cache read failed", zap.String("url", urlStr), zap.Error(err))
	}

	res, err := f.next.Fetch(ctx, urlStr)
	if err != nil {
		return res, err
	}

	p := page(*res)
	if err := f.cache.Set(ctx, key, &p, f.ttl); err != nil {
		f.logger.Warn("Page cache write failed", zap.String("url", urlStr), zap.Error(err))
	}
	return res, nil
}

// Invalidate drops the cached copy of urlStr.
func (f *CachedFetcher) Invalidate(ctx context.Context, urlStr string) error {
	err := f.cache.Delete(ctx, pageKeyPrefix+urlStr)
	if stderrors.Is(err, cache.ErrNotFound) {
		return nil
	}
	return err
}
