// Package pipeline orchestrates session step execution: it runs the
// generation work each workflow step needs, persists the results as step
// data, and advances the session through the machine.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/jonathan/coursecraft/internal/content"
	"github.com/jonathan/coursecraft/internal/db"
	"github.com/jonathan/coursecraft/internal/progress"
	"github.com/jonathan/coursecraft/internal/quality"
	"github.com/jonathan/coursecraft/internal/research"
	"github.com/jonathan/coursecraft/internal/workflow"
)

// ContentGenerator is the generation surface the orchestrator drives.
// *content.Generator satisfies it.
type ContentGenerator interface {
	Frameworks(ctx context.Context, clientName, industry, brief string) ([]content.FrameworkOption, error)
	Approaches(ctx context.Context, framework, sourceSummary string) ([]content.Approach, error)
	ResearchSummary(ctx context.Context, clientName, industry, corpus string) (string, error)
	Arc(ctx context.Context, approach, extractedContent string) (*content.LearningArc, error)
	MatrixPlan(ctx context.Context, clientName, industry, approach, grounding string) (*content.Matrix, error)
	ArtifactFor(ctx context.Context, kind content.Kind, uc content.UnitContext) (content.Artifact, error)
}

// QualityRunner scores and repairs one artifact. *quality.Loop satisfies it.
type QualityRunner interface {
	Run(ctx context.Context, artifact content.Artifact, uc content.UnitContext) quality.Result
}

// CorpusCollector assembles a research corpus from discovered URLs.
// *research.Collector satisfies it.
type CorpusCollector interface {
	Collect(ctx context.Context, urls []string) (*research.Corpus, error)
}

// Options configures an orchestrator
type Options struct {
	// BatchConcurrency bounds how many units generate in parallel
	BatchConcurrency int
}

// DefaultOptions returns sensible orchestrator defaults
func DefaultOptions() Options {
	return Options{BatchConcurrency: 3}
}

// Orchestrator executes the generation work behind each workflow step
type Orchestrator struct {
	machine   *workflow.Machine
	gen       ContentGenerator
	loop      QualityRunner
	searcher  research.Searcher
	collector CorpusCollector
	events    *progress.Broadcaster
	opts      Options
}

// New creates an orchestrator. Searcher and collector may be nil when the
// deployment does not support externally researched sessions; starting a
// research step then fails cleanly.
func New(machine *workflow.Machine, gen ContentGenerator, loop QualityRunner, searcher research.Searcher, collector CorpusCollector, events *progress.Broadcaster, opts Options) *Orchestrator {
	if opts.BatchConcurrency <= 0 {
		opts.BatchConcurrency = DefaultOptions().BatchConcurrency
	}
	return &Orchestrator{
		machine:   machine,
		gen:       gen,
		loop:      loop,
		searcher:  searcher,
		collector: collector,
		events:    events,
		opts:      opts,
	}
}

// Machine exposes the underlying workflow machine for read paths
func (o *Orchestrator) Machine() *workflow.Machine {
	return o.machine
}

// Events exposes the progress broadcaster for SSE subscriptions
func (o *Orchestrator) Events() *progress.Broadcaster {
	return o.events
}

// StartSession creates a new session at the brief step
func (o *Orchestrator) StartSession(ctx context.Context, clientName, industry string) (*db.Session, error) {
	if clientName == "" || industry == "" {
		return nil, fmt.Errorf("client name and industry are required")
	}
	return o.machine.CreateSession(ctx, clientName, industry)
}

// SubmitBrief stores the client brief, generates framework options from it,
// and advances the session to framework selection.
func (o *Orchestrator) SubmitBrief(ctx context.Context, sessionID uuid.UUID, brief string) ([]content.FrameworkOption, error) {
	if brief == "" {
		return nil, requestErrorf("brief is empty")
	}
	session, err := o.machine.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	options, err := o.gen.Frameworks(ctx, session.ClientName, session.Industry, brief)
	if err != nil {
		return nil, err
	}

	if err := o.machine.SaveStepData(ctx, sessionID, db.DataBrief, brief); err != nil {
		return nil, err
	}
	if err := o.machine.SaveStepData(ctx, sessionID, db.DataFrameworkOptions, options); err != nil {
		return nil, err
	}
	if err := o.machine.AdvanceToStep(ctx, sessionID, workflow.StepFrameworkSelection); err != nil {
		return nil, err
	}
	return options, nil
}

// SelectFramework records the chosen framework and advances to route
// selection. The choice must name one of the generated options.
func (o *Orchestrator) SelectFramework(ctx context.Context, sessionID uuid.UUID, name string) error {
	raw, err := o.machine.RequireStepData(ctx, sessionID, workflow.StepFrameworkSelection, db.DataFrameworkOptions)
	if err != nil {
		return err
	}
	var options []content.FrameworkOption
	if err := json.Unmarshal(raw, &options); err != nil {
		return fmt.Errorf("stored framework options are corrupt: %w", err)
	}

	var chosen *content.FrameworkOption
	for i := range options {
		if options[i].Name == name {
			chosen = &options[i]
			break
		}
	}
	if chosen == nil {
		return requestErrorf("framework %q is not one of the generated options", name)
	}

	if err := o.machine.SaveStepData(ctx, sessionID, db.DataFramework, chosen); err != nil {
		return err
	}
	return o.machine.AdvanceToStep(ctx, sessionID, workflow.StepRouteSelection)
}

// SelectRoute commits the session to a route and enters its first step
func (o *Orchestrator) SelectRoute(ctx context.Context, sessionID uuid.UUID, route workflow.Route) error {
	if err := o.machine.SetRoute(ctx, sessionID, route); err != nil {
		return err
	}
	switch route {
	case workflow.RouteA:
		return o.machine.AdvanceToStep(ctx, sessionID, workflow.StepRouteAUpload)
	case workflow.RouteB:
		return o.machine.AdvanceToStep(ctx, sessionID, workflow.StepRouteBResearch)
	default:
		return fmt.Errorf("invalid route: %q", route)
	}
}

// UploadContent stores client-provided source material and advances to the
// content review gate.
func (o *Orchestrator) UploadContent(ctx context.Context, sessionID uuid.UUID, extracted string) error {
	if extracted == "" {
		return requestErrorf("uploaded content is empty")
	}
	if err := o.machine.SaveStepData(ctx, sessionID, db.DataExtractedContent, extracted); err != nil {
		return err
	}
	return o.machine.AdvanceToStep(ctx, sessionID, workflow.StepContentReview)
}

// ReviewContent records the content review decision. Approval generates
// approach options and moves to approach selection; rejection returns the
// session to the upload step for replacement material.
func (o *Orchestrator) ReviewContent(ctx context.Context, sessionID uuid.UUID, decision, feedback string) (workflow.Step, error) {
	next, err := o.recordGate(ctx, sessionID, workflow.StepContentReview, decision, feedback)
	if err != nil {
		return "", err
	}
	if next != workflow.StepApproachSelectionA {
		return next, nil
	}

	extracted, err := o.machine.RequireStepData(ctx, sessionID, workflow.StepContentReview, db.DataExtractedContent)
	if err != nil {
		return "", err
	}
	if err := o.generateApproaches(ctx, sessionID, decodeString(extracted)); err != nil {
		return "", err
	}
	return next, nil
}

// RunResearch executes the route B research step: discover sources, build
// the corpus, summarize it, and generate approach options from the summary.
func (o *Orchestrator) RunResearch(ctx context.Context, sessionID uuid.UUID) error {
	if o.searcher == nil || o.collector == nil {
		return fmt.Errorf("research is not configured for this deployment")
	}
	session, err := o.machine.Session(ctx, sessionID)
	if err != nil {
		return err
	}
	if workflow.Step(session.CurrentStep) != workflow.StepRouteBResearch {
		return &workflow.InvalidTransitionError{
			From:  workflow.Step(session.CurrentStep),
			To:    workflow.StepRouteBResearch,
			Route: workflow.Route(session.Route),
		}
	}

	urls, err := o.searcher.FindSources(ctx, session.ClientName, session.Industry)
	if err != nil {
		return fmt.Errorf("source discovery failed: %w", err)
	}
	corpus, err := o.collector.Collect(ctx, urls)
	if err != nil {
		return fmt.Errorf("corpus collection failed: %w", err)
	}

	summary, err := o.gen.ResearchSummary(ctx, session.ClientName, session.Industry, corpus.Text())
	if err != nil {
		return err
	}
	if err := o.machine.SaveStepData(ctx, sessionID, db.DataResearchSummary, summary); err != nil {
		return err
	}

	if err := o.generateApproaches(ctx, sessionID, summary); err != nil {
		return err
	}
	return o.machine.AdvanceToStep(ctx, sessionID, workflow.StepApproachSelectionB)
}

// SelectApproach records the chosen approach and starts the next generation
// step for the session's route: the learning arc on route A, the content
// matrix on route B.
func (o *Orchestrator) SelectApproach(ctx context.Context, sessionID uuid.UUID, title string) (workflow.Step, error) {
	session, err := o.machine.Session(ctx, sessionID)
	if err != nil {
		return "", err
	}

	step := workflow.Step(session.CurrentStep)
	raw, err := o.machine.RequireStepData(ctx, sessionID, step, db.DataApproachOptions)
	if err != nil {
		return "", err
	}
	var options []content.Approach
	if err := json.Unmarshal(raw, &options); err != nil {
		return "", fmt.Errorf("stored approach options are corrupt: %w", err)
	}

	var chosen *content.Approach
	for i := range options {
		if options[i].Title == title {
			chosen = &options[i]
			break
		}
	}
	if chosen == nil {
		return "", requestErrorf("approach %q is not one of the generated options", title)
	}
	if err := o.machine.SaveStepData(ctx, sessionID, db.DataApproach, chosen); err != nil {
		return "", err
	}

	switch workflow.Route(session.Route) {
	case workflow.RouteA:
		if err := o.machine.AdvanceToStep(ctx, sessionID, workflow.StepArcGeneration); err != nil {
			return "", err
		}
		if err := o.generateArc(ctx, sessionID, chosen.Summary); err != nil {
			return "", err
		}
		return workflow.StepArcReview, nil
	case workflow.RouteB:
		if err := o.machine.AdvanceToStep(ctx, sessionID, workflow.StepMatrixGeneration); err != nil {
			return "", err
		}
		if err := o.generateMatrix(ctx, sessionID, session); err != nil {
			return "", err
		}
		return workflow.StepMatrixReview, nil
	default:
		return "", fmt.Errorf("session %s has no committed route", sessionID)
	}
}

// ReviewArc records the arc review decision. Rejection regenerates the arc
// and returns to the review gate; approval generates the content matrix.
func (o *Orchestrator) ReviewArc(ctx context.Context, sessionID uuid.UUID, decision, feedback string) (workflow.Step, error) {
	next, err := o.recordGate(ctx, sessionID, workflow.StepArcReview, decision, feedback)
	if err != nil {
		return "", err
	}

	switch next {
	case workflow.StepMatrixGeneration:
		session, err := o.machine.Session(ctx, sessionID)
		if err != nil {
			return "", err
		}
		if err := o.generateMatrix(ctx, sessionID, session); err != nil {
			return "", err
		}
		return workflow.StepMatrixReview, nil

	case workflow.StepArcGeneration:
		raw, err := o.machine.RequireStepData(ctx, sessionID, workflow.StepArcGeneration, db.DataApproach)
		if err != nil {
			return "", err
		}
		var approach content.Approach
		if err := json.Unmarshal(raw, &approach); err != nil {
			return "", fmt.Errorf("stored approach is corrupt: %w", err)
		}
		if err := o.generateArc(ctx, sessionID, approach.Summary); err != nil {
			return "", err
		}
		return workflow.StepArcReview, nil
	}
	return next, nil
}

// ReviewMatrix records the matrix review decision. Approval generates the
// sample unit; rejection regenerates the matrix.
func (o *Orchestrator) ReviewMatrix(ctx context.Context, sessionID uuid.UUID, decision, feedback string) (workflow.Step, error) {
	next, err := o.recordGate(ctx, sessionID, workflow.StepMatrixReview, decision, feedback)
	if err != nil {
		return "", err
	}

	switch next {
	case workflow.StepSampleGeneration:
		if err := o.generateSample(ctx, sessionID); err != nil {
			return "", err
		}
		return workflow.StepSampleValidation, nil

	case workflow.StepMatrixGeneration:
		session, err := o.machine.Session(ctx, sessionID)
		if err != nil {
			return "", err
		}
		if err := o.generateMatrix(ctx, sessionID, session); err != nil {
			return "", err
		}
		return workflow.StepMatrixReview, nil
	}
	return next, nil
}

// ValidateSample records the sample validation decision. Approval starts
// the batch run in the background and returns its job ID; rejection
// regenerates the sample unit.
func (o *Orchestrator) ValidateSample(ctx context.Context, sessionID uuid.UUID, decision, feedback string) (workflow.Step, uuid.UUID, error) {
	next, err := o.recordGate(ctx, sessionID, workflow.StepSampleValidation, decision, feedback)
	if err != nil {
		return "", uuid.Nil, err
	}

	switch next {
	case workflow.StepBatchGeneration:
		jobID, err := o.StartBatch(ctx, sessionID)
		if err != nil {
			return "", uuid.Nil, err
		}
		return next, jobID, nil

	case workflow.StepSampleGeneration:
		if err := o.generateSample(ctx, sessionID); err != nil {
			return "", uuid.Nil, err
		}
		return workflow.StepSampleValidation, uuid.Nil, nil
	}
	return next, uuid.Nil, nil
}

// recordGate appends the decision at a gated step and advances along the
// edge it selects.
func (o *Orchestrator) recordGate(ctx context.Context, sessionID uuid.UUID, step workflow.Step, decision, feedback string) (workflow.Step, error) {
	if decision != db.DecisionApprove && decision != db.DecisionReject {
		return "", requestErrorf("invalid decision %q: must be %q or %q", decision, db.DecisionApprove, db.DecisionReject)
	}
	if _, err := o.machine.RecordDecision(ctx, sessionID, step, decision, feedback); err != nil {
		return "", err
	}
	next, err := workflow.NextStepForDecision(step, decision)
	if err != nil {
		return "", err
	}
	if err := o.machine.AdvanceToStep(ctx, sessionID, next); err != nil {
		return "", err
	}
	return next, nil
}

// generateApproaches produces approach options from the selected framework
// and the session's grounding material.
func (o *Orchestrator) generateApproaches(ctx context.Context, sessionID uuid.UUID, grounding string) error {
	raw, err := o.machine.RequireStepData(ctx, sessionID, workflow.StepFrameworkSelection, db.DataFramework)
	if err != nil {
		return err
	}
	var framework content.FrameworkOption
	if err := json.Unmarshal(raw, &framework); err != nil {
		return fmt.Errorf("stored framework is corrupt: %w", err)
	}

	options, err := o.gen.Approaches(ctx, framework.Name, grounding)
	if err != nil {
		return err
	}
	return o.machine.SaveStepData(ctx, sessionID, db.DataApproachOptions, options)
}

func (o *Orchestrator) generateArc(ctx context.Context, sessionID uuid.UUID, approachSummary string) error {
	extracted, err := o.machine.RequireStepData(ctx, sessionID, workflow.StepArcGeneration, db.DataExtractedContent)
	if err != nil {
		return err
	}

	arc, err := o.gen.Arc(ctx, approachSummary, decodeString(extracted))
	if err != nil {
		return err
	}
	if err := o.machine.SaveStepData(ctx, sessionID, db.DataLearningArc, arc); err != nil {
		return err
	}
	return o.machine.AdvanceToStep(ctx, sessionID, workflow.StepArcReview)
}

// generateMatrix builds the content matrix, grounded on the learning arc
// for route A sessions and the research summary for route B.
func (o *Orchestrator) generateMatrix(ctx context.Context, sessionID uuid.UUID, session *db.Session) error {
	raw, err := o.machine.RequireStepData(ctx, sessionID, workflow.StepMatrixGeneration, db.DataApproach)
	if err != nil {
		return err
	}
	var approach content.Approach
	if err := json.Unmarshal(raw, &approach); err != nil {
		return fmt.Errorf("stored approach is corrupt: %w", err)
	}

	grounding, err := o.matrixGrounding(ctx, sessionID, workflow.Route(session.Route))
	if err != nil {
		return err
	}

	matrix, err := o.gen.MatrixPlan(ctx, session.ClientName, session.Industry, approach.Summary, grounding)
	if err != nil {
		return err
	}
	if err := o.machine.SaveStepData(ctx, sessionID, db.DataContentMatrix, matrix); err != nil {
		return err
	}
	return o.machine.AdvanceToStep(ctx, sessionID, workflow.StepMatrixReview)
}

func (o *Orchestrator) matrixGrounding(ctx context.Context, sessionID uuid.UUID, route workflow.Route) (string, error) {
	switch route {
	case workflow.RouteA:
		raw, err := o.machine.RequireStepData(ctx, sessionID, workflow.StepMatrixGeneration, db.DataLearningArc)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	case workflow.RouteB:
		raw, err := o.machine.RequireStepData(ctx, sessionID, workflow.StepMatrixGeneration, db.DataResearchSummary)
		if err != nil {
			return "", err
		}
		return decodeString(raw), nil
	default:
		return "", fmt.Errorf("session %s has no committed route", sessionID)
	}
}

// generateSample runs the first matrix unit through full generation and
// quality control, then advances to the validation gate.
func (o *Orchestrator) generateSample(ctx context.Context, sessionID uuid.UUID) error {
	session, err := o.machine.Session(ctx, sessionID)
	if err != nil {
		return err
	}
	matrix, err := o.loadMatrix(ctx, sessionID, workflow.StepSampleGeneration)
	if err != nil {
		return err
	}

	unit := o.generateUnit(ctx, 0, matrix.Units[0], session.Industry)
	if err := o.machine.SaveStepData(ctx, sessionID, db.DataSampleUnit, unit); err != nil {
		return err
	}
	log.Printf("[PIPELINE] Sample unit %q scored %d for session %s", unit.Topic.Topic, unit.Score, sessionID)
	return o.machine.AdvanceToStep(ctx, sessionID, workflow.StepSampleValidation)
}

func (o *Orchestrator) loadMatrix(ctx context.Context, sessionID uuid.UUID, step workflow.Step) (*content.Matrix, error) {
	raw, err := o.machine.RequireStepData(ctx, sessionID, step, db.DataContentMatrix)
	if err != nil {
		return nil, err
	}
	var matrix content.Matrix
	if err := json.Unmarshal(raw, &matrix); err != nil {
		return nil, fmt.Errorf("stored content matrix is corrupt: %w", err)
	}
	if len(matrix.Units) == 0 {
		return nil, fmt.Errorf("stored content matrix has no units")
	}
	return &matrix, nil
}

// decodeString unwraps a step-data value stored from a Go string. Values are
// stored JSON-encoded, so a plain string arrives quoted.
func decodeString(raw []byte) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return string(raw)
	}
	return s
}
