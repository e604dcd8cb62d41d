package server

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/coursecraft/internal/db"
	"github.com/jonathan/coursecraft/internal/workflow"
)

// createSession makes a session over HTTP and returns its ID string
func createSession(t *testing.T, s *Server) string {
	t.Helper()
	w := doJSON(t, s, http.MethodPost, "/sessions", CreateSessionRequest{ClientName: "Acme", Industry: "Retail"})
	require.Equal(t, http.StatusCreated, w.Code)
	var session db.Session
	decodeBody(t, w, &session)
	return session.ID.String()
}

// advanceToArcReview walks a session through the route A steps over HTTP
func advanceToArcReview(t *testing.T, s *Server, id string) {
	t.Helper()
	steps := []struct {
		path string
		body any
	}{
		{"/brief", BriefRequest{Brief: "Acme needs onboarding for store managers"}},
		{"/framework", SelectionRequest{Name: "ADDIE"}},
		{"/route", RouteRequest{Route: "A"}},
		{"/upload", UploadRequest{Content: "employee handbook chapter 3"}},
		{"/review/content", GateRequest{Decision: db.DecisionApprove}},
		{"/approach", SelectionRequest{Name: "Scenario-first"}},
	}
	for _, step := range steps {
		w := doJSON(t, s, http.MethodPost, "/sessions/"+id+step.path, step.body)
		require.Equal(t, http.StatusOK, w.Code, "step %s: %s", step.path, w.Body.String())
	}
}

// waitForStatus polls the session endpoint until it reaches the wanted status
func waitForStatus(t *testing.T, s *Server, id, status string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		w := doJSON(t, s, http.MethodGet, "/sessions/"+id, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var session db.Session
		decodeBody(t, w, &session)
		if session.Status == status {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("session %s never reached status %s", id, status)
}

func TestSubmitBrief_ReturnsFrameworks(t *testing.T) {
	s, _ := newTestServer(t)
	id := createSession(t, s)

	w := doJSON(t, s, http.MethodPost, "/sessions/"+id+"/brief", BriefRequest{Brief: "onboarding program"})

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		SessionID  string            `json:"session_id"`
		Frameworks []json.RawMessage `json:"frameworks"`
	}
	decodeBody(t, w, &resp)
	assert.Equal(t, id, resp.SessionID)
	assert.Len(t, resp.Frameworks, 2)
}

func TestSubmitBrief_Empty(t *testing.T) {
	s, _ := newTestServer(t)
	id := createSession(t, s)

	w := doJSON(t, s, http.MethodPost, "/sessions/"+id+"/brief", BriefRequest{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSelectFramework_UnknownName(t *testing.T) {
	s, _ := newTestServer(t)
	id := createSession(t, s)

	w := doJSON(t, s, http.MethodPost, "/sessions/"+id+"/brief", BriefRequest{Brief: "onboarding"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodPost, "/sessions/"+id+"/framework", SelectionRequest{Name: "SAM"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp map[string]string
	decodeBody(t, w, &resp)
	assert.Contains(t, resp["error"], "not one of the generated options")
}

func TestSelectFramework_BeforeBrief(t *testing.T) {
	s, _ := newTestServer(t)
	id := createSession(t, s)

	w := doJSON(t, s, http.MethodPost, "/sessions/"+id+"/framework", SelectionRequest{Name: "ADDIE"})

	// No framework options exist yet, so the prerequisite data is missing
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSelectRoute_Invalid(t *testing.T) {
	s, _ := newTestServer(t)
	id := createSession(t, s)

	w := doJSON(t, s, http.MethodPost, "/sessions/"+id+"/route", RouteRequest{Route: "C"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviewContent_RejectReturnsToUpload(t *testing.T) {
	s, _ := newTestServer(t)
	id := createSession(t, s)

	for _, step := range []struct {
		path string
		body any
	}{
		{"/brief", BriefRequest{Brief: "onboarding"}},
		{"/framework", SelectionRequest{Name: "ADDIE"}},
		{"/route", RouteRequest{Route: "A"}},
		{"/upload", UploadRequest{Content: "handbook"}},
	} {
		w := doJSON(t, s, http.MethodPost, "/sessions/"+id+step.path, step.body)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doJSON(t, s, http.MethodPost, "/sessions/"+id+"/review/content", GateRequest{
		Decision: db.DecisionReject, Feedback: "too thin, upload the full handbook",
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp StepResponse
	decodeBody(t, w, &resp)
	assert.Equal(t, string(workflow.StepRouteAUpload), resp.CurrentStep)

	// The rejection is recorded in the decision history
	w = doJSON(t, s, http.MethodGet, "/sessions/"+id+"/decisions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var decisions struct {
		Decisions []db.Decision `json:"decisions"`
	}
	decodeBody(t, w, &decisions)
	require.Len(t, decisions.Decisions, 1)
	assert.Equal(t, db.DecisionReject, decisions.Decisions[0].Decision)
	assert.Equal(t, "too thin, upload the full handbook", decisions.Decisions[0].Feedback)
}

func TestGateRequiresDecision(t *testing.T) {
	s, _ := newTestServer(t)
	id := createSession(t, s)

	w := doJSON(t, s, http.MethodPost, "/sessions/"+id+"/review/arc", GateRequest{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouteAFlow_ThroughBatchAndExport(t *testing.T) {
	s, _ := newTestServer(t)
	id := createSession(t, s)
	advanceToArcReview(t, s, id)

	w := doJSON(t, s, http.MethodPost, "/sessions/"+id+"/review/arc", GateRequest{Decision: db.DecisionApprove})
	require.Equal(t, http.StatusOK, w.Code)
	var resp StepResponse
	decodeBody(t, w, &resp)
	require.Equal(t, string(workflow.StepMatrixReview), resp.CurrentStep)

	w = doJSON(t, s, http.MethodPost, "/sessions/"+id+"/review/matrix", GateRequest{Decision: db.DecisionApprove})
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &resp)
	require.Equal(t, string(workflow.StepSampleValidation), resp.CurrentStep)

	// Export is refused while the session is still in flight
	w = doJSON(t, s, http.MethodGet, "/sessions/"+id+"/export", nil)
	require.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, s, http.MethodPost, "/sessions/"+id+"/review/sample", GateRequest{Decision: db.DecisionApprove})
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &resp)
	require.Equal(t, string(workflow.StepBatchGeneration), resp.CurrentStep)
	require.NotEmpty(t, resp.JobID)

	waitForStatus(t, s, id, db.SessionCompleted)

	w = doJSON(t, s, http.MethodGet, "/sessions/"+id+"/export", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var doc struct {
		SessionID string `json:"session_id"`
		Route     string `json:"route"`
		Units     []struct {
			Score int `json:"score"`
		} `json:"units"`
	}
	decodeBody(t, w, &doc)
	assert.Equal(t, id, doc.SessionID)
	assert.Equal(t, "A", doc.Route)
	require.Len(t, doc.Units, 1)
	assert.Equal(t, 85, doc.Units[0].Score)
}

func TestRouteBFlow_ResearchAndApproach(t *testing.T) {
	s, _ := newTestServer(t)
	id := createSession(t, s)

	for _, step := range []struct {
		path string
		body any
	}{
		{"/brief", BriefRequest{Brief: "onboarding"}},
		{"/framework", SelectionRequest{Name: "ADDIE"}},
		{"/route", RouteRequest{Route: "B"}},
		{"/research", nil},
	} {
		w := doJSON(t, s, http.MethodPost, "/sessions/"+id+step.path, step.body)
		require.Equal(t, http.StatusOK, w.Code, "step %s: %s", step.path, w.Body.String())
	}

	// The synthesized research summary is persisted as step data
	w := doJSON(t, s, http.MethodGet, "/sessions/"+id+"/data/"+db.DataResearchSummary, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `"industry summary"`, w.Body.String())

	w = doJSON(t, s, http.MethodPost, "/sessions/"+id+"/approach", SelectionRequest{Name: "Scenario-first"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp StepResponse
	decodeBody(t, w, &resp)
	assert.Equal(t, string(workflow.StepMatrixReview), resp.CurrentStep)
}

func TestGetStepData_NotFound(t *testing.T) {
	s, _ := newTestServer(t)
	id := createSession(t, s)

	w := doJSON(t, s, http.MethodGet, "/sessions/"+id+"/data/"+db.DataLearningArc, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResearch_WrongStep(t *testing.T) {
	s, _ := newTestServer(t)
	id := createSession(t, s)

	w := doJSON(t, s, http.MethodPost, "/sessions/"+id+"/research", nil)

	assert.Equal(t, http.StatusConflict, w.Code)
}
