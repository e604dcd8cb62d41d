package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jonathan/coursecraft/internal/db"
	"github.com/jonathan/coursecraft/internal/export"
)

// CreateSessionRequest is the request body for starting a new session
type CreateSessionRequest struct {
	ClientName string `json:"client_name" validate:"required,min=1,max=200"`
	Industry   string `json:"industry" validate:"required,min=1,max=200"`
}

// handleCreateSession starts a new generation session at the brief step
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := s.validator.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	session, err := s.pipeline.StartSession(r.Context(), req.ClientName, req.Industry)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusCreated, session)
}

// handleListSessions lists sessions with optional client/status filters
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	filters := db.SessionFilters{
		Client: r.URL.Query().Get("client"),
		Status: r.URL.Query().Get("status"),
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			s.errorResponse(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		filters.Limit = limit
	}

	sessions, err := s.sessions.ListSessions(r.Context(), filters)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if sessions == nil {
		sessions = []db.Session{}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// handleGetSession returns one session by ID
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	session, err := s.pipeline.Machine().Session(r.Context(), sessionID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, session)
}

// handleDeleteSession deletes a session and its child records
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	if err := s.sessions.DeleteSession(r.Context(), sessionID); err != nil {
		s.errorResponse(w, http.StatusNotFound, err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handlePauseSession pauses an active session
func (s *Server) handlePauseSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	if err := s.pipeline.Machine().PauseSession(r.Context(), sessionID); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{"status": db.SessionPaused})
}

// handleResumeSession resumes a paused session at its saved step
func (s *Server) handleResumeSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	if err := s.pipeline.Machine().ResumeSession(r.Context(), sessionID); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	session, err := s.pipeline.Machine().Session(r.Context(), sessionID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, session)
}

// handleListDecisions returns the audit trail of gate decisions for a session
func (s *Server) handleListDecisions(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	decisions, err := s.pipeline.Machine().Decisions(r.Context(), sessionID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if decisions == nil {
		decisions = []db.Decision{}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"session_id": sessionID.String(),
		"decisions":  decisions,
	})
}

// handleGetStepData returns one persisted step data value as raw JSON
func (s *Server) handleGetStepData(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.sessionID(w, r)
	if !ok {
		return
	}
	key := r.PathValue("key")

	value, found, err := s.pipeline.Machine().GetStepData(r.Context(), sessionID, key)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if !found {
		s.errorResponse(w, http.StatusNotFound, "Step data not found: "+key)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(value) //nolint:errcheck
}

// handleExport returns the validated export document for a completed session
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	session, err := s.pipeline.Machine().Session(r.Context(), sessionID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	if session.Status != db.SessionCompleted {
		s.errorResponse(w, http.StatusConflict, "Session is not completed")
		return
	}

	data, err := export.ForSession(r.Context(), s.pipeline.Machine(), sessionID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="batch_export.json"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}

// sessionID parses the {id} path segment, writing the error response on failure
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	sessionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid session ID format")
		return uuid.Nil, false
	}
	return sessionID, true
}
