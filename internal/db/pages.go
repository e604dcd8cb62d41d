package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// DefaultPageCacheTTL is how long a fetched research page stays fresh
const DefaultPageCacheTTL = 7 * 24 * time.Hour

// ResearchPage is one cached fetch of a research source URL
type ResearchPage struct {
	URL        string    `json:"url"`
	HTML       string    `json:"html"`
	Text       string    `json:"text"`
	HTTPStatus int       `json:"http_status"`
	FetchedAt  time.Time `json:"fetched_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// GetFreshPage retrieves a cached page that has not expired.
// Returns (nil, nil) if no fresh copy exists.
func (db *DB) GetFreshPage(ctx context.Context, url string) (*ResearchPage, error) {
	var p ResearchPage
	err := db.pool.QueryRow(ctx,
		`SELECT url, html, text, http_status, fetched_at, expires_at
		 FROM research_pages
		 WHERE url = $1 AND expires_at > NOW()`,
		url,
	).Scan(&p.URL, &p.HTML, &p.Text, &p.HTTPStatus, &p.FetchedAt, &p.ExpiresAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cached page: %w", err)
	}
	return &p, nil
}

// UpsertPage stores a fetched page, replacing any earlier copy of the URL
func (db *DB) UpsertPage(ctx context.Context, page *ResearchPage, ttl time.Duration) error {
	if ttl == 0 {
		ttl = DefaultPageCacheTTL
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO research_pages (url, html, text, http_status, fetched_at, expires_at)
		 VALUES ($1, $2, $3, $4, NOW(), NOW() + $5)
		 ON CONFLICT (url) DO UPDATE
		 SET html = EXCLUDED.html,
		     text = EXCLUDED.text,
		     http_status = EXCLUDED.http_status,
		     fetched_at = EXCLUDED.fetched_at,
		     expires_at = EXCLUDED.expires_at`,
		page.URL, page.HTML, page.Text, page.HTTPStatus, ttl,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert cached page: %w", err)
	}
	return nil
}

// ExpirePage marks a cached page as stale, forcing a re-fetch on next request
func (db *DB) ExpirePage(ctx context.Context, url string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE research_pages SET expires_at = NOW() - INTERVAL '1 hour' WHERE url = $1`,
		url,
	)
	if err != nil {
		return fmt.Errorf("failed to expire cached page: %w", err)
	}
	return nil
}
