package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectSource(t *testing.T) {
	tests := []struct {
		url      string
		expected Source
	}{
		{"https://en.wikipedia.org/wiki/Adult_learning", SourceWiki},
		{"https://retail.fandom.com/wiki/Returns", SourceWiki},
		{"https://medium.com/@author/training-at-scale", SourceMedium},
		{"https://learningdesign.substack.com/p/spacing-effect", SourceSubstack},
		{"https://docs.example.com/onboarding", SourceDocs},
		{"https://project.readthedocs.io/en/latest/", SourceDocs},
		{"https://example.com/blog/post", SourceGeneric},
		{"not a url at all ://", SourceGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectSource(tt.url))
		})
	}
}

func TestSourceContentSelectors_WikiTargetsParserOutput(t *testing.T) {
	selectors := SourceContentSelectors(SourceWiki)
	assert.Contains(t, selectors, "#mw-content-text")
}

func TestSourceContentSelectors_GenericFallsBack(t *testing.T) {
	assert.Equal(t, DefaultTextSelectors(), SourceContentSelectors(SourceGeneric))
}

func TestSourceNoiseSelectors_IncludeCommonNoise(t *testing.T) {
	for _, source := range []Source{SourceWiki, SourceMedium, SourceSubstack, SourceDocs, SourceGeneric} {
		selectors := SourceNoiseSelectors(source)
		assert.Contains(t, selectors, ".cookie-banner", "source %s", source)
		assert.Contains(t, selectors, ".paywall", "source %s", source)
	}
}

func TestSourceNoiseSelectors_WikiStripsChrome(t *testing.T) {
	selectors := SourceNoiseSelectors(SourceWiki)
	assert.Contains(t, selectors, ".infobox")
	assert.Contains(t, selectors, "#toc")
}
