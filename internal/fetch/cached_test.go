package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/coursecraft/internal/db"
)

type memoryCache struct {
	pages   map[string]*db.ResearchPage
	getErr  error
	upserts int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{pages: make(map[string]*db.ResearchPage)}
}

func (c *memoryCache) GetFreshPage(_ context.Context, url string) (*db.ResearchPage, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.pages[url], nil
}

func (c *memoryCache) UpsertPage(_ context.Context, page *db.ResearchPage, _ time.Duration) error {
	c.upserts++
	c.pages[page.URL] = page
	return nil
}

func newPageServer(t *testing.T, hits *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hits++
		_, _ = w.Write([]byte("<html><body><main>fresh article text</main></body></html>"))
	}))
}

func TestCachedFetch_MissFetchesAndCaches(t *testing.T) {
	hits := 0
	server := newPageServer(t, &hits)
	defer server.Close()

	cache := newMemoryCache()
	f := NewCachedFetcher(cache, nil, 0)

	result, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.False(t, result.FromCache)
	assert.Contains(t, result.Text, "fresh article text")
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, cache.upserts)
}

func TestCachedFetch_HitSkipsNetwork(t *testing.T) {
	hits := 0
	server := newPageServer(t, &hits)
	defer server.Close()

	cache := newMemoryCache()
	cache.pages[server.URL] = &db.ResearchPage{
		URL:        server.URL,
		Text:       "cached article text",
		HTTPStatus: http.StatusOK,
	}
	f := NewCachedFetcher(cache, nil, 0)

	result, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.True(t, result.FromCache)
	assert.Equal(t, "cached article text", result.Text)
	assert.Zero(t, hits, "network not touched on cache hit")
}

func TestCachedFetch_CacheErrorFailsOpen(t *testing.T) {
	hits := 0
	server := newPageServer(t, &hits)
	defer server.Close()

	cache := newMemoryCache()
	cache.getErr = errors.New("connection refused")
	f := NewCachedFetcher(cache, nil, 0)

	result, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err, "cache failure must not block fetching")
	assert.False(t, result.FromCache)
	assert.Equal(t, 1, hits)
}

func TestCachedFetch_NilCache(t *testing.T) {
	hits := 0
	server := newPageServer(t, &hits)
	defer server.Close()

	f := NewCachedFetcher(nil, nil, 0)

	result, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.False(t, result.FromCache)
	assert.Contains(t, result.Text, "fresh article text")
}

func TestCachedFetch_FetchErrorPropagates(t *testing.T) {
	f := NewCachedFetcher(newMemoryCache(), nil, 0)

	_, err := f.Fetch(context.Background(), "not-a-url")
	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
}
