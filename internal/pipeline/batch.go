package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/coursecraft/internal/content"
	"github.com/jonathan/coursecraft/internal/db"
	"github.com/jonathan/coursecraft/internal/progress"
	"github.com/jonathan/coursecraft/internal/quality"
	"github.com/jonathan/coursecraft/internal/workflow"
)

// UnitResult is the outcome of generating one matrix unit
type UnitResult struct {
	Index     int              `json:"index"`
	Topic     content.Topic    `json:"topic"`
	Artifacts []quality.Result `json:"artifacts"`
	Score     int              `json:"score"`
	Failed    bool             `json:"failed"`
	Error     string           `json:"error,omitempty"`
}

// BatchResult is the persisted summary of a batch generation run
type BatchResult struct {
	JobID     uuid.UUID    `json:"job_id"`
	SessionID uuid.UUID    `json:"session_id"`
	Units     []UnitResult `json:"units"`
	Generated int          `json:"generated"`
	Failed    int          `json:"failed"`
}

// StartBatch launches the batch generation run for a session already at the
// batch generation step and returns the job ID to stream progress from. The
// run itself proceeds in the background; its result is persisted as step
// data and the session completes when it finishes.
func (o *Orchestrator) StartBatch(ctx context.Context, sessionID uuid.UUID) (uuid.UUID, error) {
	session, err := o.machine.Session(ctx, sessionID)
	if err != nil {
		return uuid.Nil, err
	}
	if workflow.Step(session.CurrentStep) != workflow.StepBatchGeneration {
		return uuid.Nil, &workflow.InvalidTransitionError{
			From:  workflow.Step(session.CurrentStep),
			To:    workflow.StepBatchGeneration,
			Route: workflow.Route(session.Route),
		}
	}

	matrix, err := o.loadMatrix(ctx, sessionID, workflow.StepBatchGeneration)
	if err != nil {
		return uuid.Nil, err
	}

	jobID := uuid.New()
	// The run outlives the triggering request
	go o.runBatch(context.Background(), jobID, sessionID, session.Industry, matrix)
	return jobID, nil
}

func (o *Orchestrator) runBatch(ctx context.Context, jobID, sessionID uuid.UUID, industry string, matrix *content.Matrix) {
	log.Printf("[BATCH] Job %s started: %d units for session %s", jobID, len(matrix.Units), sessionID)
	o.publish(jobID, progress.EventStepStarted, fmt.Sprintf("Batch generation started: %d units", len(matrix.Units)), map[string]any{
		"session_id": sessionID.String(),
		"units":      len(matrix.Units),
	})

	results := make([]UnitResult, len(matrix.Units))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.BatchConcurrency)
	for i, topic := range matrix.Units {
		g.Go(func() error {
			o.publish(jobID, progress.EventUnitStarted, fmt.Sprintf("Generating unit %d: %s", i+1, topic.Topic), nil)

			unit := o.generateUnit(gctx, i, topic, industry)
			results[i] = unit

			if unit.Failed {
				o.publish(jobID, progress.EventError, fmt.Sprintf("Unit %d degraded: %s", i+1, unit.Error), map[string]any{
					"index": i,
					"score": unit.Score,
				})
			} else {
				o.publish(jobID, progress.EventUnitCompleted, fmt.Sprintf("Unit %d complete, score %d", i+1, unit.Score), map[string]any{
					"index": i,
					"score": unit.Score,
				})
			}
			// Unit failures degrade to placeholders instead of aborting the run
			return nil
		})
	}
	_ = g.Wait()

	batch := &BatchResult{
		JobID:     jobID,
		SessionID: sessionID,
		Units:     results,
	}
	for _, unit := range results {
		if unit.Failed {
			batch.Failed++
		} else {
			batch.Generated++
		}
	}

	if err := o.machine.SaveStepData(ctx, sessionID, db.DataBatchResult, batch); err != nil {
		log.Printf("[BATCH] Job %s failed to persist result: %v", jobID, err)
		o.publish(jobID, progress.EventError, "Failed to persist batch result", nil)
		o.events.Close(jobID)
		return
	}
	if err := o.machine.CompleteSession(ctx, sessionID); err != nil {
		log.Printf("[BATCH] Job %s failed to complete session: %v", jobID, err)
	}

	log.Printf("[BATCH] Job %s finished: %d generated, %d failed", jobID, batch.Generated, batch.Failed)
	o.publish(jobID, progress.EventComplete, fmt.Sprintf("Batch complete: %d generated, %d failed", batch.Generated, batch.Failed), map[string]any{
		"generated": batch.Generated,
		"failed":    batch.Failed,
	})
	o.events.Close(jobID)
}

// generateUnit produces all content kinds for one matrix unit and runs each
// through quality control. Generation failures fall back to placeholder
// artifacts with the fallback score and mark the unit failed.
func (o *Orchestrator) generateUnit(ctx context.Context, index int, topic content.Topic, industry string) UnitResult {
	uc := content.UnitContext{
		Topic:         topic.Topic,
		AudienceLevel: topic.AudienceLevel,
		Objective:     topic.Objective,
		Industry:      industry,
	}

	unit := UnitResult{Index: index, Topic: topic}
	var genErrors []string

	for _, kind := range content.Kinds() {
		artifact, err := o.gen.ArtifactFor(ctx, kind, uc)
		if err != nil {
			// ArtifactFor returns a placeholder alongside the error
			genErrors = append(genErrors, fmt.Sprintf("%s: %v", kind, err))
			unit.Artifacts = append(unit.Artifacts, quality.Result{
				Artifact: artifact,
				Score:    quality.FallbackScore,
				Degraded: true,
			})
			continue
		}
		unit.Artifacts = append(unit.Artifacts, o.loop.Run(ctx, artifact, uc))
	}

	unit.Score = quality.UnitScore(unit.Artifacts)
	if len(genErrors) > 0 {
		unit.Failed = true
		unit.Error = strings.Join(genErrors, "; ")
	}
	return unit
}

func (o *Orchestrator) publish(jobID uuid.UUID, eventType progress.EventType, message string, data map[string]any) {
	if o.events == nil {
		return
	}
	o.events.Publish(jobID, progress.Event{Type: eventType, Message: message, Data: data})
}
