package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/coursecraft/internal/workflow"
)

// gateFunc is the shared shape of the orchestrator's review gate methods
type gateFunc func(ctx context.Context, sessionID uuid.UUID, decision, feedback string) (workflow.Step, error)

// BriefRequest is the request body for submitting an engagement brief
type BriefRequest struct {
	Brief string `json:"brief"`
}

// SelectionRequest selects one option by name from a previously generated set
type SelectionRequest struct {
	Name string `json:"name"`
}

// RouteRequest commits a session to route A or B
type RouteRequest struct {
	Route string `json:"route"`
}

// UploadRequest carries extracted client content for route A
type UploadRequest struct {
	Content string `json:"content"`
}

// GateRequest is the request body for a human review gate
type GateRequest struct {
	Decision string `json:"decision"`
	Feedback string `json:"feedback,omitempty"`
}

// StepResponse reports the session's position after a step action
type StepResponse struct {
	SessionID   string `json:"session_id"`
	CurrentStep string `json:"current_step"`
	JobID       string `json:"job_id,omitempty"`
}

// handleSubmitBrief accepts the engagement brief and returns framework options
func (s *Server) handleSubmitBrief(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	var req BriefRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Brief == "" {
		s.errorResponse(w, http.StatusBadRequest, "brief is required")
		return
	}

	options, err := s.pipeline.SubmitBrief(r.Context(), sessionID, req.Brief)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"session_id": sessionID.String(),
		"frameworks": options,
	})
}

// handleSelectFramework records the chosen instructional framework
func (s *Server) handleSelectFramework(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	var req SelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Name == "" {
		s.errorResponse(w, http.StatusBadRequest, "name is required")
		return
	}

	if err := s.pipeline.SelectFramework(r.Context(), sessionID, req.Name); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.stepResponse(w, r, sessionID)
}

// handleSelectRoute commits the session to route A or B
func (s *Server) handleSelectRoute(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	var req RouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	route := workflow.Route(req.Route)
	if route != workflow.RouteA && route != workflow.RouteB {
		s.errorResponse(w, http.StatusBadRequest, "route must be A or B")
		return
	}

	if err := s.pipeline.SelectRoute(r.Context(), sessionID, route); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.stepResponse(w, r, sessionID)
}

// handleUploadContent stores extracted client material for route A review
func (s *Server) handleUploadContent(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	var req UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Content == "" {
		s.errorResponse(w, http.StatusBadRequest, "content is required")
		return
	}

	if err := s.pipeline.UploadContent(r.Context(), sessionID, req.Content); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.stepResponse(w, r, sessionID)
}

// handleRunResearch runs source discovery and corpus synthesis for route B
func (s *Server) handleRunResearch(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	log.Printf("[SERVER] Research starting for session %s", sessionID)
	if err := s.pipeline.RunResearch(r.Context(), sessionID); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.stepResponse(w, r, sessionID)
}

// handleSelectApproach records the chosen content approach
func (s *Server) handleSelectApproach(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	var req SelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Name == "" {
		s.errorResponse(w, http.StatusBadRequest, "name is required")
		return
	}

	step, err := s.pipeline.SelectApproach(r.Context(), sessionID, req.Name)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, StepResponse{
		SessionID:   sessionID.String(),
		CurrentStep: string(step),
	})
}

// handleReviewContent resolves the route A content review gate
func (s *Server) handleReviewContent(w http.ResponseWriter, r *http.Request) {
	s.gateHandler(w, r, s.pipeline.ReviewContent)
}

// handleReviewArc resolves the learning arc review gate
func (s *Server) handleReviewArc(w http.ResponseWriter, r *http.Request) {
	s.gateHandler(w, r, s.pipeline.ReviewArc)
}

// handleReviewMatrix resolves the content matrix review gate
func (s *Server) handleReviewMatrix(w http.ResponseWriter, r *http.Request) {
	s.gateHandler(w, r, s.pipeline.ReviewMatrix)
}

// handleValidateSample resolves the sample validation gate. Approval starts
// the batch generation job and returns its ID for progress streaming.
func (s *Server) handleValidateSample(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	req, ok := s.decodeGate(w, r)
	if !ok {
		return
	}

	step, jobID, err := s.pipeline.ValidateSample(r.Context(), sessionID, req.Decision, req.Feedback)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	resp := StepResponse{
		SessionID:   sessionID.String(),
		CurrentStep: string(step),
	}
	if jobID != uuid.Nil {
		resp.JobID = jobID.String()
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// gateHandler runs one approve/reject gate through the orchestrator
func (s *Server) gateHandler(w http.ResponseWriter, r *http.Request, gate gateFunc) {
	sessionID, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	req, ok := s.decodeGate(w, r)
	if !ok {
		return
	}

	step, err := gate(r.Context(), sessionID, req.Decision, req.Feedback)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, StepResponse{
		SessionID:   sessionID.String(),
		CurrentStep: string(step),
	})
}

func (s *Server) decodeGate(w http.ResponseWriter, r *http.Request) (GateRequest, bool) {
	var req GateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return req, false
	}
	if req.Decision == "" {
		s.errorResponse(w, http.StatusBadRequest, "decision is required")
		return req, false
	}
	return req, true
}

// stepResponse reports the session's current step after a successful action
func (s *Server) stepResponse(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) {
	session, err := s.pipeline.Machine().Session(r.Context(), sessionID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, StepResponse{
		SessionID:   session.ID.String(),
		CurrentStep: session.CurrentStep,
	})
}
