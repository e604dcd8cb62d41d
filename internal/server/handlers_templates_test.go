package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/coursecraft/internal/templates"
)

func TestListTemplates(t *testing.T) {
	s, _ := newTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/templates", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Categories []string `json:"categories"`
	}
	decodeBody(t, w, &resp)
	assert.Len(t, resp.Categories, len(templates.Categories()))
	assert.Contains(t, resp.Categories, string(templates.CategoryQuizGeneration))
}

func TestListTemplates_UnknownCategoryFilter(t *testing.T) {
	s, _ := newTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/templates?category=nonsense", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetTemplate_Default(t *testing.T) {
	s, _ := newTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/templates/brief_analysis", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	decodeBody(t, w, &resp)
	assert.Equal(t, "brief_analysis", resp["category"])
	assert.NotEmpty(t, resp["content"])
}

func TestGetTemplate_Unknown(t *testing.T) {
	s, _ := newTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/templates/nonsense", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPutTemplate_OverrideAndReset(t *testing.T) {
	s, _ := newTestServer(t)
	token := registerOperator(t, s, "pat@example.com", "hunter2hunter2")

	override := "Custom quiz prompt for {{.Topic}}"
	w := doAuthJSON(t, s, http.MethodPut, "/templates/quiz_generation", token, TemplateUpdateRequest{Content: override})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, s, http.MethodGet, "/templates/quiz_generation", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	decodeBody(t, w, &resp)
	assert.Equal(t, override, resp["content"])

	// Reset restores the compiled-in default
	w = doAuthJSON(t, s, http.MethodDelete, "/templates/quiz_generation", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodGet, "/templates/quiz_generation", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &resp)
	assert.NotEqual(t, override, resp["content"])
	assert.NotEmpty(t, resp["content"])
}

func TestPutTemplate_RequiresAuth(t *testing.T) {
	s, _ := newTestServer(t)

	w := doJSON(t, s, http.MethodPut, "/templates/quiz_generation", TemplateUpdateRequest{Content: "override"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestResetAllTemplates(t *testing.T) {
	s, _ := newTestServer(t)
	token := registerOperator(t, s, "pat@example.com", "hunter2hunter2")

	for _, category := range []string{"quiz_generation", "article_generation"} {
		w := doAuthJSON(t, s, http.MethodPut, "/templates/"+category, token, TemplateUpdateRequest{Content: "override for " + category})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doAuthJSON(t, s, http.MethodDelete, "/templates", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodGet, "/templates/quiz_generation", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	decodeBody(t, w, &resp)
	assert.NotContains(t, resp["content"], "override for")
}
