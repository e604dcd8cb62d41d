package quality

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/coursecraft/internal/content"
	"github.com/jonathan/coursecraft/internal/llm"
	"github.com/jonathan/coursecraft/internal/templates"
)

// Reviewer scores and repairs artifacts through the completion service. It
// implements both Scorer and Fixer.
type Reviewer struct {
	client llm.Client
	store  *templates.Store
}

// NewReviewer creates an LLM-backed reviewer
func NewReviewer(client llm.Client, store *templates.Store) *Reviewer {
	return &Reviewer{client: client, store: store}
}

// Score reviews one artifact against its unit's objective
func (r *Reviewer) Score(ctx context.Context, artifact content.Artifact, uc content.UnitContext) (Review, error) {
	prompt := r.store.RenderCategory(ctx, templates.CategoryQualityScoring, map[string]string{
		"kind":           string(artifact.Kind),
		"objective":      uc.Objective,
		"audience_level": uc.AudienceLevel,
		"content":        artifact.Text(),
	})
	text, err := r.client.GenerateJSON(ctx, prompt, llm.TierLite)
	if err != nil {
		return Review{}, fmt.Errorf("scoring request failed: %w", err)
	}

	var review Review
	if err := json.Unmarshal([]byte(llm.CleanJSONBlock(text)), &review); err != nil {
		return Review{}, fmt.Errorf("invalid review response: %w", err)
	}
	if review.Score < 0 {
		review.Score = 0
	}
	if review.Score > 100 {
		review.Score = 100
	}
	// Some models omit the pass flag. Derive it from the threshold so a
	// high-scoring review never triggers a pointless repair.
	if !review.Pass && review.Score >= PassThreshold && len(review.Patches) == 0 {
		review.Pass = true
	}
	return review, nil
}

// Fix applies review patches to an artifact, preserving its kind
func (r *Reviewer) Fix(ctx context.Context, artifact content.Artifact, patches []Patch) (content.Artifact, error) {
	prompt := r.store.RenderCategory(ctx, templates.CategoryContentRepair, map[string]string{
		"kind":    string(artifact.Kind),
		"content": artifactPayload(artifact),
		"patches": formatPatches(patches),
	})

	switch artifact.Kind {
	case content.KindArticle:
		text, err := r.client.GenerateContent(ctx, prompt, llm.TierStandard)
		if err != nil {
			return content.Artifact{}, fmt.Errorf("repair request failed: %w", err)
		}
		title := artifact.Article.Title
		return content.NewArticle(&content.Article{Title: title, Body: strings.TrimSpace(text)}), nil

	case content.KindScript:
		text, err := r.client.GenerateContent(ctx, prompt, llm.TierStandard)
		if err != nil {
			return content.Artifact{}, fmt.Errorf("repair request failed: %w", err)
		}
		title := artifact.Script.Title
		return content.NewScript(&content.Script{Title: title, Body: strings.TrimSpace(text)}), nil

	case content.KindQuiz:
		text, err := r.client.GenerateJSON(ctx, prompt, llm.TierStandard)
		if err != nil {
			return content.Artifact{}, fmt.Errorf("repair request failed: %w", err)
		}
		var quiz content.Quiz
		if err := json.Unmarshal([]byte(llm.CleanJSONBlock(text)), &quiz); err != nil {
			return content.Artifact{}, fmt.Errorf("invalid repaired quiz: %w", err)
		}
		if len(quiz.Questions) == 0 {
			return content.Artifact{}, fmt.Errorf("repaired quiz has no questions")
		}
		if quiz.Title == "" {
			quiz.Title = artifact.Quiz.Title
		}
		return content.NewQuiz(&quiz), nil

	case content.KindExercise:
		text, err := r.client.GenerateJSON(ctx, prompt, llm.TierStandard)
		if err != nil {
			return content.Artifact{}, fmt.Errorf("repair request failed: %w", err)
		}
		var ex content.Exercise
		if err := json.Unmarshal([]byte(llm.CleanJSONBlock(text)), &ex); err != nil {
			return content.Artifact{}, fmt.Errorf("invalid repaired exercise: %w", err)
		}
		if ex.Title == "" {
			ex.Title = artifact.Exercise.Title
		}
		return content.NewExercise(&ex), nil

	default:
		return content.Artifact{}, fmt.Errorf("unknown content kind: %s", artifact.Kind)
	}
}

// artifactPayload serializes structured artifacts as JSON so the repair
// prompt can return the same shape, and flattens written ones to text.
func artifactPayload(artifact content.Artifact) string {
	switch artifact.Kind {
	case content.KindQuiz:
		data, _ := json.Marshal(artifact.Quiz)
		return string(data)
	case content.KindExercise:
		data, _ := json.Marshal(artifact.Exercise)
		return string(data)
	default:
		return artifact.Text()
	}
}

func formatPatches(patches []Patch) string {
	var b strings.Builder
	for i, p := range patches {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. [%s] %s", i+1, p.Target, p.Instruction)
	}
	return b.String()
}
