// Package research - filter.go scores and orders discovered URLs by how
// likely they are to contain usable training source material.
package research

import (
	"net/url"
	"sort"
	"strings"
)

// SourcePriority returns a relevance score for a URL based on its path.
// Higher is better; URLs at or below SkipPriority are dropped.
func SourcePriority(urlStr string) float64 {
	urlLower := strings.ToLower(urlStr)

	// Highest value: pedagogy and program design material
	highValuePatterns := []string{
		"training", "learning", "onboarding", "curriculum",
		"skills", "development-program", "enablement",
	}
	for _, pattern := range highValuePatterns {
		if strings.Contains(urlLower, pattern) {
			return 0.95
		}
	}

	// Good: industry practice and reference material
	goodPatterns := []string{
		"best-practices", "guide", "handbook", "research",
		"workforce", "wiki",
	}
	for _, pattern := range goodPatterns {
		if strings.Contains(urlLower, pattern) {
			return 0.85
		}
	}

	// Medium: industry news and overviews
	mediumPatterns := []string{"industry", "trends", "report", "about"}
	for _, pattern := range mediumPatterns {
		if strings.Contains(urlLower, pattern) {
			return 0.7
		}
	}

	// Promotional and transactional pages carry no source material
	skipPatterns := []string{
		"/pricing", "/product/", "/shop", "/cart", "/order",
		"/signup", "/login", "/careers/apply",
	}
	for _, pattern := range skipPatterns {
		if strings.Contains(urlLower, pattern) {
			return 0.1
		}
	}

	return 0.5
}

// SkipPriority is the score at or below which a source is discarded
const SkipPriority = 0.1

// SkipSource reports whether a URL should be excluded from research
// entirely, either by score or because its host never yields fetchable
// article text.
func SkipSource(urlStr string) bool {
	if SourcePriority(urlStr) <= SkipPriority {
		return true
	}

	blockedHosts := []string{
		"linkedin.com",
		"facebook.com",
		"x.com",
		"twitter.com",
		"instagram.com",
		"youtube.com",
		"pinterest.com",
	}
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return true
	}
	host := strings.ToLower(parsed.Host)
	for _, blocked := range blockedHosts {
		if host == blocked || strings.HasSuffix(host, "."+blocked) {
			return true
		}
	}
	return false
}

// RankSources drops skippable URLs and orders the rest by descending
// priority. Order within a priority band is preserved.
func RankSources(urls []string) []string {
	type scored struct {
		url      string
		priority float64
		index    int
	}

	var kept []scored
	for i, u := range urls {
		if SkipSource(u) {
			continue
		}
		kept = append(kept, scored{url: u, priority: SourcePriority(u), index: i})
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].priority != kept[j].priority {
			return kept[i].priority > kept[j].priority
		}
		return kept[i].index < kept[j].index
	})

	ranked := make([]string, len(kept))
	for i, s := range kept {
		ranked[i] = s.url
	}
	return ranked
}
