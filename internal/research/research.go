// Package research discovers and collects industry source material for
// sessions that run without client-provided documents.
package research

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// MaxSources caps how many discovered URLs a research run will fetch
const MaxSources = 12

// Searcher finds candidate source URLs for a client and industry
type Searcher interface {
	FindSources(ctx context.Context, clientName, industry string) ([]string, error)
}

// Researcher discovers source material through Google Programmable Search
type Researcher struct {
	svc *customsearch.Service
	cx  string
}

// NewResearcher creates a Researcher backed by the custom search API
func NewResearcher(ctx context.Context, apiKey string, cx string) (*Researcher, error) {
	svc, err := customsearch.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create customsearch service: %w", err)
	}
	return &Researcher{
		svc: svc,
		cx:  cx,
	}, nil
}

// FindSources discovers candidate research URLs for the client's industry.
// Individual query failures are skipped; the run fails only when every
// query fails.
func (r *Researcher) FindSources(ctx context.Context, clientName, industry string) ([]string, error) {
	queries := []string{
		fmt.Sprintf("%s industry employee training best practices", industry),
		fmt.Sprintf("%s workforce skills development", industry),
		fmt.Sprintf("%s onboarding program structure", industry),
		fmt.Sprintf("%s company overview", clientName),
	}

	var urls []string
	failed := 0
	for _, q := range queries {
		resp, err := r.svc.Cse.List().Context(ctx).Cx(r.cx).Q(q).Num(4).Do()
		if err != nil {
			failed++
			continue
		}
		for _, item := range resp.Items {
			urls = append(urls, item.Link)
		}
	}
	if failed == len(queries) {
		return nil, fmt.Errorf("all research queries failed for %s", clientName)
	}

	urls = dedupe(urls)
	urls = RankSources(urls)
	if len(urls) > MaxSources {
		urls = urls[:MaxSources]
	}
	return urls, nil
}

func dedupe(urls []string) []string {
	seen := make(map[string]bool)
	unique := make([]string, 0, len(urls))
	for _, u := range urls {
		key := strings.TrimSuffix(u, "/")
		if !seen[key] {
			seen[key] = true
			unique = append(unique, u)
		}
	}
	return unique
}
