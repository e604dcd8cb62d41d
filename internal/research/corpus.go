// Package research - corpus.go fetches ranked sources and assembles the
// research corpus a summary is generated from.
package research

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jonathan/coursecraft/internal/fetch"
)

// MaxCorpusBytes caps the assembled corpus so the summary prompt stays
// within model context limits.
const MaxCorpusBytes = 200_000

// browserTimeout bounds a headless-browser retry of one source
const browserTimeout = 45 * time.Second

// Fetcher retrieves one source URL. *fetch.CachedFetcher satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.CachedResult, error)
}

// SourceDoc is one fetched source contributing to the corpus
type SourceDoc struct {
	URL       string `json:"url"`
	Text      string `json:"text"`
	FromCache bool   `json:"from_cache"`
}

// Corpus is the assembled source material for a research session
type Corpus struct {
	Sources []SourceDoc `json:"sources"`
	Failed  []string    `json:"failed,omitempty"`
}

// Text flattens the corpus into one document with per-source headers
func (c *Corpus) Text() string {
	var b strings.Builder
	for i, src := range c.Sources {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "=== SOURCE %d: %s ===\n%s", i+1, src.URL, src.Text)
	}
	return b.String()
}

// Collector fetches sources and assembles corpora
type Collector struct {
	fetcher Fetcher
	// useBrowser enables the headless-browser fallback for pages whose
	// plain fetch yields too little text
	useBrowser bool
}

// NewCollector creates a corpus collector
func NewCollector(fetcher Fetcher, useBrowser bool) *Collector {
	return &Collector{fetcher: fetcher, useBrowser: useBrowser}
}

// Collect fetches each URL and assembles a corpus. Failed sources are
// recorded and skipped; Collect errors only when nothing could be fetched.
func (c *Collector) Collect(ctx context.Context, urls []string) (*Corpus, error) {
	corpus := &Corpus{}
	total := 0

	for _, u := range urls {
		if total >= MaxCorpusBytes {
			break
		}

		text, fromCache, err := c.fetchText(ctx, u)
		if err != nil {
			log.Printf("[RESEARCH] Skipping source %s: %v", u, err)
			corpus.Failed = append(corpus.Failed, u)
			continue
		}
		if strings.TrimSpace(text) == "" {
			corpus.Failed = append(corpus.Failed, u)
			continue
		}

		if remaining := MaxCorpusBytes - total; len(text) > remaining {
			text = text[:remaining]
		}
		total += len(text)
		corpus.Sources = append(corpus.Sources, SourceDoc{URL: u, Text: text, FromCache: fromCache})
	}

	if len(corpus.Sources) == 0 {
		return nil, fmt.Errorf("no research sources could be fetched (%d attempted)", len(urls))
	}
	return corpus, nil
}

func (c *Collector) fetchText(ctx context.Context, urlStr string) (string, bool, error) {
	result, err := c.fetcher.Fetch(ctx, urlStr)
	if err != nil {
		return "", false, err
	}

	text := result.Text
	if c.useBrowser && fetch.ShouldUseBrowser(text) {
		html, err := fetch.WithBrowser(ctx, urlStr, browserTimeout, false)
		if err != nil {
			// Keep whatever the plain fetch extracted
			return text, result.FromCache, nil
		}
		source := fetch.DetectSource(urlStr)
		rendered, err := fetch.ExtractMainText(html, fetch.SourceContentSelectors(source), fetch.SourceNoiseSelectors(source)...)
		if err == nil && len(rendered) > len(text) {
			text = rendered
		}
	}
	return text, result.FromCache, nil
}
