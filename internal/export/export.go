// Package export assembles the deliverable document for a completed session
// and validates it against the batch export schema before it leaves the
// system.
package export

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/coursecraft/internal/content"
	"github.com/jonathan/coursecraft/internal/db"
	"github.com/jonathan/coursecraft/internal/pipeline"
	"github.com/jonathan/coursecraft/internal/workflow"
)

//go:embed schema/batch_export.schema.json
var batchExportSchema string

// Document is the export shape of one completed session
type Document struct {
	SessionID   uuid.UUID `json:"session_id"`
	ClientName  string    `json:"client_name"`
	Industry    string    `json:"industry"`
	Route       string    `json:"route"`
	GeneratedAt time.Time `json:"generated_at"`
	Summary     Summary   `json:"summary"`
	Units       []Unit    `json:"units"`
}

// Summary carries the batch outcome counts
type Summary struct {
	Generated int `json:"generated"`
	Failed    int `json:"failed"`
}

// Unit is one exported content unit with its scored artifacts
type Unit struct {
	ID            string     `json:"id"`
	Topic         string     `json:"topic"`
	AudienceLevel string     `json:"audience_level"`
	Objective     string     `json:"objective"`
	Score         int        `json:"score"`
	Failed        bool       `json:"failed"`
	Error         string     `json:"error,omitempty"`
	Artifacts     []Artifact `json:"artifacts"`
}

// Artifact is one exported content piece. Content holds the full typed
// payload so nothing generated is lost in export.
type Artifact struct {
	Kind     content.Kind    `json:"kind"`
	Title    string          `json:"title"`
	Content  json.RawMessage `json:"content"`
	Score    int             `json:"score"`
	Repaired bool            `json:"repaired,omitempty"`
	Degraded bool            `json:"degraded,omitempty"`
}

// FieldError is a single schema violation at a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports schema violations in an export document
type ValidationError struct {
	Errors []FieldError
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("export validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// Build assembles the export document from a session and its batch result
func Build(session *db.Session, batch *pipeline.BatchResult) (*Document, error) {
	if session == nil || batch == nil {
		return nil, fmt.Errorf("session and batch result are required")
	}
	if len(batch.Units) == 0 {
		return nil, fmt.Errorf("batch result has no units")
	}

	doc := &Document{
		SessionID:   session.ID,
		ClientName:  session.ClientName,
		Industry:    session.Industry,
		Route:       session.Route,
		GeneratedAt: time.Now().UTC(),
		Summary:     Summary{Generated: batch.Generated, Failed: batch.Failed},
	}

	for _, unit := range batch.Units {
		exported := Unit{
			ID:            fmt.Sprintf("%s-unit-%d", session.ID, unit.Index+1),
			Topic:         unit.Topic.Topic,
			AudienceLevel: unit.Topic.AudienceLevel,
			Objective:     unit.Topic.Objective,
			Score:         unit.Score,
			Failed:        unit.Failed,
			Error:         unit.Error,
		}
		for _, result := range unit.Artifacts {
			payload, err := artifactPayload(result.Artifact)
			if err != nil {
				return nil, fmt.Errorf("unit %d: %w", unit.Index, err)
			}
			exported.Artifacts = append(exported.Artifacts, Artifact{
				Kind:     result.Artifact.Kind,
				Title:    result.Artifact.Title(),
				Content:  payload,
				Score:    result.Score,
				Repaired: result.Repaired,
				Degraded: result.Degraded,
			})
		}
		doc.Units = append(doc.Units, exported)
	}
	return doc, nil
}

func artifactPayload(artifact content.Artifact) (json.RawMessage, error) {
	var payload any
	switch artifact.Kind {
	case content.KindArticle:
		payload = artifact.Article
	case content.KindQuiz:
		payload = artifact.Quiz
	case content.KindScript:
		payload = artifact.Script
	case content.KindExercise:
		payload = artifact.Exercise
	default:
		return nil, fmt.Errorf("unknown artifact kind: %s", artifact.Kind)
	}
	if payload == nil {
		return nil, fmt.Errorf("artifact of kind %s has no payload", artifact.Kind)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", artifact.Kind, err)
	}
	return json.RawMessage(data), nil
}

// Marshal serializes and schema-validates an export document
func Marshal(doc *Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export document: %w", err)
	}
	if err := Validate(data); err != nil {
		return nil, err
	}
	return data, nil
}

// Validate checks serialized export JSON against the embedded schema
func Validate(data []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(batchExportSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation failed to run: %w", err)
	}
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}

// ForSession loads a completed session's batch result and produces its
// validated export document.
func ForSession(ctx context.Context, machine *workflow.Machine, sessionID uuid.UUID) ([]byte, error) {
	session, err := machine.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != db.SessionCompleted {
		return nil, fmt.Errorf("session %s is not completed (status %s)", sessionID, session.Status)
	}

	raw, err := machine.RequireStepData(ctx, sessionID, workflow.StepCompleted, db.DataBatchResult)
	if err != nil {
		return nil, err
	}
	var batch pipeline.BatchResult
	if err := json.Unmarshal(raw, &batch); err != nil {
		return nil, fmt.Errorf("stored batch result is corrupt: %w", err)
	}

	doc, err := Build(session, &batch)
	if err != nil {
		return nil, err
	}
	return Marshal(doc)
}
