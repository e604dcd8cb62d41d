package content

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/coursecraft/internal/llm"
	"github.com/jonathan/coursecraft/internal/templates"
)

// GenerationError indicates the completion service returned output that could
// not be used for the requested artifact or planning step.
type GenerationError struct {
	Category templates.Category
	Reason   string
	Err      error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation failed for %s: %s: %v", e.Category, e.Reason, e.Err)
	}
	return fmt.Sprintf("generation failed for %s: %s", e.Category, e.Reason)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// UnitContext carries the variables shared by every per-unit generator
type UnitContext struct {
	Topic         string
	AudienceLevel string
	Objective     string
	Industry      string
}

func (uc UnitContext) vars() map[string]string {
	return map[string]string{
		"topic":          uc.Topic,
		"audience_level": uc.AudienceLevel,
		"objective":      uc.Objective,
		"industry":       uc.Industry,
	}
}

// Generator produces planning outputs and content artifacts through the
// completion service, using the active prompt template for each category.
type Generator struct {
	client llm.Client
	store  *templates.Store
}

// NewGenerator creates a content generator
func NewGenerator(client llm.Client, store *templates.Store) *Generator {
	return &Generator{client: client, store: store}
}

// BriefAnalysis summarizes the client brief into a working source summary
func (g *Generator) BriefAnalysis(ctx context.Context, clientName, industry, brief string) (string, error) {
	prompt := g.store.RenderCategory(ctx, templates.CategoryBriefAnalysis, map[string]string{
		"client_name": clientName,
		"industry":    industry,
		"brief":       brief,
	})
	text, err := g.client.GenerateContent(ctx, prompt, llm.TierStandard)
	if err != nil {
		return "", &GenerationError{Category: templates.CategoryBriefAnalysis, Reason: "completion failed", Err: err}
	}
	return strings.TrimSpace(text), nil
}

// Frameworks generates candidate pedagogical frameworks for the brief
func (g *Generator) Frameworks(ctx context.Context, clientName, industry, brief string) ([]FrameworkOption, error) {
	prompt := g.store.RenderCategory(ctx, templates.CategoryFrameworkSelection, map[string]string{
		"client_name": clientName,
		"industry":    industry,
		"brief":       brief,
	})
	text, err := g.client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, &GenerationError{Category: templates.CategoryFrameworkSelection, Reason: "completion failed", Err: err}
	}

	var out struct {
		Frameworks []FrameworkOption `json:"frameworks"`
	}
	if err := json.Unmarshal([]byte(llm.CleanJSONBlock(text)), &out); err != nil {
		return nil, &GenerationError{Category: templates.CategoryFrameworkSelection, Reason: "invalid response", Err: err}
	}
	if len(out.Frameworks) == 0 {
		return nil, &GenerationError{Category: templates.CategoryFrameworkSelection, Reason: "no frameworks returned"}
	}
	return out.Frameworks, nil
}

// Approaches generates candidate program approaches for the selected framework
func (g *Generator) Approaches(ctx context.Context, framework, sourceSummary string) ([]Approach, error) {
	prompt := g.store.RenderCategory(ctx, templates.CategoryApproachGeneration, map[string]string{
		"framework":      framework,
		"source_summary": sourceSummary,
	})
	text, err := g.client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, &GenerationError{Category: templates.CategoryApproachGeneration, Reason: "completion failed", Err: err}
	}

	var out struct {
		Approaches []Approach `json:"approaches"`
	}
	if err := json.Unmarshal([]byte(llm.CleanJSONBlock(text)), &out); err != nil {
		return nil, &GenerationError{Category: templates.CategoryApproachGeneration, Reason: "invalid response", Err: err}
	}
	if len(out.Approaches) == 0 {
		return nil, &GenerationError{Category: templates.CategoryApproachGeneration, Reason: "no approaches returned"}
	}
	return out.Approaches, nil
}

// ResearchSummary condenses a research corpus into a grounding summary
func (g *Generator) ResearchSummary(ctx context.Context, clientName, industry, corpus string) (string, error) {
	prompt := g.store.RenderCategory(ctx, templates.CategoryResearchSummary, map[string]string{
		"client_name": clientName,
		"industry":    industry,
		"corpus":      corpus,
	})
	text, err := g.client.GenerateContent(ctx, prompt, llm.TierAdvanced)
	if err != nil {
		return "", &GenerationError{Category: templates.CategoryResearchSummary, Reason: "completion failed", Err: err}
	}
	return strings.TrimSpace(text), nil
}

// Arc generates the learning arc from the chosen approach and uploaded content
func (g *Generator) Arc(ctx context.Context, approach, extractedContent string) (*LearningArc, error) {
	prompt := g.store.RenderCategory(ctx, templates.CategoryArcGeneration, map[string]string{
		"approach":          approach,
		"extracted_content": extractedContent,
	})
	text, err := g.client.GenerateJSON(ctx, prompt, llm.TierAdvanced)
	if err != nil {
		return nil, &GenerationError{Category: templates.CategoryArcGeneration, Reason: "completion failed", Err: err}
	}

	var arc LearningArc
	if err := json.Unmarshal([]byte(llm.CleanJSONBlock(text)), &arc); err != nil {
		return nil, &GenerationError{Category: templates.CategoryArcGeneration, Reason: "invalid response", Err: err}
	}
	if len(arc.Stages) == 0 {
		return nil, &GenerationError{Category: templates.CategoryArcGeneration, Reason: "no stages returned"}
	}
	return &arc, nil
}

// MatrixPlan generates the content matrix from the approach and grounding
// material (the learning arc on route A, the research summary on route B).
func (g *Generator) MatrixPlan(ctx context.Context, clientName, industry, approach, grounding string) (*Matrix, error) {
	prompt := g.store.RenderCategory(ctx, templates.CategoryMatrixGeneration, map[string]string{
		"client_name": clientName,
		"industry":    industry,
		"approach":    approach,
		"grounding":   grounding,
	})
	text, err := g.client.GenerateJSON(ctx, prompt, llm.TierAdvanced)
	if err != nil {
		return nil, &GenerationError{Category: templates.CategoryMatrixGeneration, Reason: "completion failed", Err: err}
	}

	var matrix Matrix
	if err := json.Unmarshal([]byte(llm.CleanJSONBlock(text)), &matrix); err != nil {
		return nil, &GenerationError{Category: templates.CategoryMatrixGeneration, Reason: "invalid response", Err: err}
	}
	if len(matrix.Units) == 0 {
		return nil, &GenerationError{Category: templates.CategoryMatrixGeneration, Reason: "no units returned"}
	}
	return &matrix, nil
}

// ArticleFor generates the article artifact for one unit
func (g *Generator) ArticleFor(ctx context.Context, uc UnitContext) (*Article, error) {
	prompt := g.store.RenderCategory(ctx, templates.CategoryArticleGeneration, uc.vars())
	text, err := g.client.GenerateContent(ctx, prompt, llm.TierAdvanced)
	if err != nil {
		return nil, &GenerationError{Category: templates.CategoryArticleGeneration, Reason: "completion failed", Err: err}
	}
	title, body := splitTitle(text, uc.Topic)
	return &Article{Title: title, Body: body}, nil
}

// QuizFor generates the quiz artifact for one unit
func (g *Generator) QuizFor(ctx context.Context, uc UnitContext) (*Quiz, error) {
	prompt := g.store.RenderCategory(ctx, templates.CategoryQuizGeneration, uc.vars())
	text, err := g.client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, &GenerationError{Category: templates.CategoryQuizGeneration, Reason: "completion failed", Err: err}
	}

	var quiz Quiz
	if err := json.Unmarshal([]byte(llm.CleanJSONBlock(text)), &quiz); err != nil {
		return nil, &GenerationError{Category: templates.CategoryQuizGeneration, Reason: "invalid response", Err: err}
	}
	if len(quiz.Questions) == 0 {
		return nil, &GenerationError{Category: templates.CategoryQuizGeneration, Reason: "no questions returned"}
	}
	if quiz.Title == "" {
		quiz.Title = "Quiz: " + uc.Topic
	}
	return &quiz, nil
}

// ScriptFor generates the video script artifact for one unit
func (g *Generator) ScriptFor(ctx context.Context, uc UnitContext) (*Script, error) {
	prompt := g.store.RenderCategory(ctx, templates.CategoryScriptGeneration, uc.vars())
	text, err := g.client.GenerateContent(ctx, prompt, llm.TierAdvanced)
	if err != nil {
		return nil, &GenerationError{Category: templates.CategoryScriptGeneration, Reason: "completion failed", Err: err}
	}
	title, body := splitTitle(text, uc.Topic)
	return &Script{Title: title, Body: body}, nil
}

// ExerciseFor generates the hands-on exercise artifact for one unit
func (g *Generator) ExerciseFor(ctx context.Context, uc UnitContext) (*Exercise, error) {
	prompt := g.store.RenderCategory(ctx, templates.CategoryExerciseGeneration, uc.vars())
	text, err := g.client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, &GenerationError{Category: templates.CategoryExerciseGeneration, Reason: "completion failed", Err: err}
	}

	var ex Exercise
	if err := json.Unmarshal([]byte(llm.CleanJSONBlock(text)), &ex); err != nil {
		return nil, &GenerationError{Category: templates.CategoryExerciseGeneration, Reason: "invalid response", Err: err}
	}
	if ex.Scenario == "" && len(ex.Tasks) == 0 {
		return nil, &GenerationError{Category: templates.CategoryExerciseGeneration, Reason: "empty exercise returned"}
	}
	if ex.Title == "" {
		ex.Title = "Exercise: " + uc.Topic
	}
	return &ex, nil
}

// ArtifactFor dispatches to the generator matching kind. On generation
// failure it returns a deterministic placeholder artifact alongside the
// error so batch runs can continue with degraded output.
func (g *Generator) ArtifactFor(ctx context.Context, kind Kind, uc UnitContext) (Artifact, error) {
	switch kind {
	case KindArticle:
		a, err := g.ArticleFor(ctx, uc)
		if err != nil {
			return Placeholder(kind, uc), err
		}
		return NewArticle(a), nil
	case KindQuiz:
		q, err := g.QuizFor(ctx, uc)
		if err != nil {
			return Placeholder(kind, uc), err
		}
		return NewQuiz(q), nil
	case KindScript:
		s, err := g.ScriptFor(ctx, uc)
		if err != nil {
			return Placeholder(kind, uc), err
		}
		return NewScript(s), nil
	case KindExercise:
		e, err := g.ExerciseFor(ctx, uc)
		if err != nil {
			return Placeholder(kind, uc), err
		}
		return NewExercise(e), nil
	default:
		return Artifact{}, fmt.Errorf("unknown content kind: %s", kind)
	}
}

// splitTitle treats the first non-empty line of generated text as the title.
// A leading markdown heading marker is stripped. If the text is empty the
// fallback becomes the title.
func splitTitle(text, fallback string) (string, string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return fallback, ""
	}
	title, body, found := strings.Cut(trimmed, "\n")
	title = strings.TrimSpace(strings.TrimLeft(title, "# "))
	if title == "" {
		title = fallback
	}
	if !found {
		return title, ""
	}
	return title, strings.TrimSpace(body)
}
