// Package fetch - cached.go wraps URL fetching with database-backed caching
// so repeated research runs don't re-download the same sources.
package fetch

import (
	"context"
	"log"
	"time"

	"github.com/jonathan/coursecraft/internal/db"
)

// PageCache is the persistence surface the cached fetcher needs. *db.DB
// satisfies it.
type PageCache interface {
	GetFreshPage(ctx context.Context, url string) (*db.ResearchPage, error)
	UpsertPage(ctx context.Context, page *db.ResearchPage, ttl time.Duration) error
}

// CachedFetcher fetches URLs through a persistent page cache. A nil cache
// degrades to plain fetching.
type CachedFetcher struct {
	cache    PageCache
	options  *Options
	cacheTTL time.Duration
}

// NewCachedFetcher creates a cached fetcher
func NewCachedFetcher(cache PageCache, opts *Options, ttl time.Duration) *CachedFetcher {
	if opts == nil {
		opts = DefaultOptions()
	}
	if ttl == 0 {
		ttl = db.DefaultPageCacheTTL
	}
	return &CachedFetcher{cache: cache, options: opts, cacheTTL: ttl}
}

// CachedResult extends Result with cache metadata
type CachedResult struct {
	*Result
	FromCache bool
}

// Fetch retrieves a URL, serving a fresh cached copy when one exists.
// Fetched content is text-extracted with selectors matching the source
// class before caching.
func (f *CachedFetcher) Fetch(ctx context.Context, urlStr string) (*CachedResult, error) {
	if f.cache != nil {
		cached, err := f.cache.GetFreshPage(ctx, urlStr)
		if err != nil {
			// A broken cache should not block research
			log.Printf("[FETCH] Cache lookup failed for %s: %v", urlStr, err)
		} else if cached != nil {
			return &CachedResult{
				Result: &Result{
					URL:        cached.URL,
					HTML:       cached.HTML,
					Text:       cached.Text,
					StatusCode: cached.HTTPStatus,
				},
				FromCache: true,
			}, nil
		}
	}

	result, err := URL(ctx, urlStr, f.options)
	if err != nil {
		return nil, err
	}

	source := DetectSource(urlStr)
	text, _ := ExtractMainText(result.HTML, SourceContentSelectors(source), SourceNoiseSelectors(source)...)
	result.Text = text

	if f.cache != nil {
		page := &db.ResearchPage{
			URL:        urlStr,
			HTML:       result.HTML,
			Text:       result.Text,
			HTTPStatus: result.StatusCode,
		}
		if err := f.cache.UpsertPage(ctx, page, f.cacheTTL); err != nil {
			log.Printf("[FETCH] Failed to cache %s: %v", urlStr, err)
		}
	}

	return &CachedResult{Result: result, FromCache: false}, nil
}
