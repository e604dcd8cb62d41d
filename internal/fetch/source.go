// Package fetch - source.go classifies research source sites and provides
// per-source extraction selectors.
package fetch

import (
	"net/url"
	"strings"
)

// Source represents a recognized class of research source.
type Source string

const (
	// SourceWiki is a MediaWiki-style reference site
	SourceWiki Source = "wiki"
	// SourceMedium is a Medium publication
	SourceMedium Source = "medium"
	// SourceSubstack is a Substack newsletter
	SourceSubstack Source = "substack"
	// SourceDocs is a documentation site
	SourceDocs Source = "docs"
	// SourceGeneric is an unrecognized source
	SourceGeneric Source = "generic"
)

// DetectSource identifies the source class from a URL.
func DetectSource(urlStr string) Source {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return SourceGeneric
	}

	host := strings.ToLower(parsed.Host)

	if strings.Contains(host, "wikipedia.org") || strings.Contains(host, "fandom.com") {
		return SourceWiki
	}
	if strings.Contains(host, "medium.com") {
		return SourceMedium
	}
	if strings.Contains(host, "substack.com") {
		return SourceSubstack
	}
	if strings.HasPrefix(host, "docs.") || strings.Contains(host, "readthedocs.io") {
		return SourceDocs
	}

	return SourceGeneric
}

// SourceContentSelectors returns content selectors tuned for a source class.
func SourceContentSelectors(source Source) []string {
	switch source {
	case SourceWiki:
		return []string{
			"#mw-content-text",
			".mw-parser-output",
			"#content",
			"#bodyContent",
		}
	case SourceMedium:
		return []string{
			"article",
			".postArticle-content",
			".section-content",
		}
	case SourceSubstack:
		return []string{
			".available-content",
			".body.markup",
			"article",
		}
	case SourceDocs:
		return []string{
			"main",
			".document",
			".md-content",
			"article",
			".content",
		}
	default:
		return DefaultTextSelectors()
	}
}

// SourceNoiseSelectors returns noise exclusion selectors for a source class.
func SourceNoiseSelectors(source Source) []string {
	common := []string{
		// Subscription and signup prompts
		".paywall",
		".subscribe-widget",
		".subscription-widget-wrap",
		".signup-form",

		// Comments and social
		".comments-section",
		".comments",
		".social-share",
		".share-buttons",

		// Cookie and GDPR
		".cookie-banner",
		".cookie-consent",
		".gdpr-notice",
	}

	switch source {
	case SourceWiki:
		return append(common,
			".navbox",
			".infobox",
			".reflist",
			".mw-editsection",
			"#toc",
			".sistersitebox",
		)
	case SourceMedium:
		return append(common,
			".js-postMetaLockup",
			".js-responsesWrapper",
			".metabar",
		)
	case SourceSubstack:
		return append(common,
			".post-footer",
			".subscribe-footer",
			".publication-footer",
		)
	case SourceDocs:
		return append(common,
			".toctree-wrapper",
			".headerlink",
			".md-sidebar",
			".breadcrumbs",
		)
	default:
		return common
	}
}
