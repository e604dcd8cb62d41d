package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Session statuses
const (
	SessionActive    = "active"
	SessionCompleted = "completed"
	SessionPaused    = "paused"
)

// Decision values recorded at human gates
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// Well-known step-data keys (the session's working memory)
const (
	DataBrief            = "brief"
	DataExtractedContent = "extracted_content"
	DataResearchSummary  = "research_summary"
	DataFrameworkOptions = "framework_options"
	DataFramework        = "selected_framework"
	DataApproachOptions  = "approach_options"
	DataApproach         = "selected_approach"
	DataLearningArc      = "learning_arc"
	DataContentMatrix    = "content_matrix"
	DataSampleUnit       = "sample_unit"
	DataBatchResult      = "batch_result"
)

// Session represents one generation engagement
type Session struct {
	ID          uuid.UUID `json:"id"`
	ClientName  string    `json:"client_name"`
	Industry    string    `json:"industry"`
	Status      string    `json:"status"`
	CurrentStep string    `json:"current_step"`
	Route       string    `json:"route,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SessionInput holds the fields required to create a session
type SessionInput struct {
	ClientName  string
	Industry    string
	CurrentStep string
}

// SessionFilters holds optional filters for listing sessions
type SessionFilters struct {
	Client string
	Status string
	Limit  int
}

// Decision is an immutable audit record of a human approval/rejection
type Decision struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	Step      string    `json:"step"`
	Decision  string    `json:"decision"`
	Feedback  string    `json:"feedback,omitempty"`
	DecidedAt time.Time `json:"decided_at"`
}

// PromptTemplate is a stored instruction template override. At most one
// template per category is active; inactive rows are retained for rollback.
type PromptTemplate struct {
	ID        uuid.UUID `json:"id"`
	Category  string    `json:"category"`
	Content   string    `json:"content"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StepDataEntry is one key/value row of a session's working memory
type StepDataEntry struct {
	SessionID uuid.UUID       `json:"session_id"`
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt time.Time       `json:"updated_at"`
}
