package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/jonathan/coursecraft/internal/server/middleware"
	"github.com/jonathan/coursecraft/internal/templates"
)

// TemplateUpdateRequest is the request body for overriding a template
type TemplateUpdateRequest struct {
	Content string `json:"content"`
}

// handleListTemplates lists template categories with their override history.
// The optional ?category= filter narrows to one category.
func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category != "" && !templates.ValidCategory(templates.Category(category)) {
		s.errorResponse(w, http.StatusBadRequest, "Unknown template category: "+category)
		return
	}

	stored, err := s.templates.List(r.Context(), category)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"categories": templates.Categories(),
		"overrides":  stored,
	})
}

// handleGetTemplate returns the effective template for a category, which is
// the active override when one exists and the compiled-in default otherwise.
func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	category := templates.Category(r.PathValue("category"))
	if !templates.ValidCategory(category) {
		s.errorResponse(w, http.StatusNotFound, "Unknown template category: "+string(category))
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{
		"category": string(category),
		"content":  s.templates.Resolve(r.Context(), category),
	})
}

// handlePutTemplate stores a new override for a category
func (s *Server) handlePutTemplate(w http.ResponseWriter, r *http.Request) {
	category := templates.Category(r.PathValue("category"))

	var req TemplateUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := s.templates.Save(r.Context(), category, req.Content); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	operatorID, _ := middleware.GetOperatorID(r)
	log.Printf("[SERVER] Template %s overridden by operator %s", category, operatorID)

	s.jsonResponse(w, http.StatusOK, map[string]string{
		"category": string(category),
		"status":   "saved",
	})
}

// handleResetTemplate removes a category's override, restoring the default
func (s *Server) handleResetTemplate(w http.ResponseWriter, r *http.Request) {
	category := templates.Category(r.PathValue("category"))

	if err := s.templates.Reset(r.Context(), category); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{
		"category": string(category),
		"status":   "reset",
	})
}

// handleResetAllTemplates removes every override
func (s *Server) handleResetAllTemplates(w http.ResponseWriter, r *http.Request) {
	if err := s.templates.ResetAll(r.Context()); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "reset"})
}
