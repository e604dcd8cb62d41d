package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	template := "Write about {{topic}} for a {{audience_level}} audience."
	vars := map[string]string{
		"topic":          "inventory control",
		"audience_level": "beginner",
	}

	result := Render(template, vars)
	assert.Equal(t, "Write about inventory control for a beginner audience.", result)
}

func TestRender_UnmatchedPlaceholderLeftVerbatim(t *testing.T) {
	template := "Topic: {{topic}}. Objective: {{objective}}."
	result := Render(template, map[string]string{"topic": "forecasting"})
	assert.Equal(t, "Topic: forecasting. Objective: {{objective}}.", result)
}

func TestRender_EmptyVars(t *testing.T) {
	template := "Nothing to substitute: {{anything}}"
	assert.Equal(t, template, Render(template, map[string]string{}))
	assert.Equal(t, template, Render(template, nil))
}

func TestRender_RepeatedPlaceholder(t *testing.T) {
	template := "{{name}} and {{name}} again"
	result := Render(template, map[string]string{"name": "Acme"})
	assert.Equal(t, "Acme and Acme again", result)
}

func TestDefaultTemplate_EveryCategoryHasOne(t *testing.T) {
	for _, c := range Categories() {
		assert.NotEmpty(t, DefaultTemplate(c), "category %s has no default", c)
	}
}

func TestDefaultTemplate_UnknownCategory(t *testing.T) {
	assert.Empty(t, DefaultTemplate(Category("bogus")))
}

func TestValidCategory(t *testing.T) {
	assert.True(t, ValidCategory(CategoryArticleGeneration))
	assert.False(t, ValidCategory(Category("bogus")))
}
