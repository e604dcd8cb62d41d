// Package quality scores generated artifacts and applies a single bounded
// repair pass to those that fall short.
package quality

import (
	"context"
	"log"
	"math"

	"github.com/jonathan/coursecraft/internal/content"
)

// FallbackScore is assigned when the scoring service fails. It sits below
// the pass threshold so degraded artifacts are flagged in batch summaries.
const FallbackScore = 50

// PassThreshold is the minimum score a review must report to pass
const PassThreshold = 70

// Patch is one targeted repair instruction from a failed review
type Patch struct {
	Target      string `json:"target"`
	Instruction string `json:"instruction"`
}

// Review is the outcome of scoring one artifact
type Review struct {
	Score    int     `json:"score"`
	Pass     bool    `json:"pass"`
	Feedback string  `json:"feedback,omitempty"`
	Patches  []Patch `json:"patches,omitempty"`
}

// Scorer reviews an artifact against its unit's objective
type Scorer interface {
	Score(ctx context.Context, artifact content.Artifact, uc content.UnitContext) (Review, error)
}

// Fixer applies review patches to an artifact
type Fixer interface {
	Fix(ctx context.Context, artifact content.Artifact, patches []Patch) (content.Artifact, error)
}

// Result is the final outcome of the control loop for one artifact
type Result struct {
	Artifact content.Artifact `json:"artifact"`
	Score    int              `json:"score"`
	Pass     bool             `json:"pass"`
	Repaired bool             `json:"repaired"`
	Degraded bool             `json:"degraded"`
}

// Loop runs at most one repair per artifact: score, and when the review
// fails with patches attached, fix once and re-score once. The re-scored
// artifact is accepted regardless of whether its score improved. Any
// scorer or fixer failure degrades to the original artifact with
// FallbackScore instead of propagating.
type Loop struct {
	scorer Scorer
	fixer  Fixer
}

// NewLoop creates a quality control loop
func NewLoop(scorer Scorer, fixer Fixer) *Loop {
	return &Loop{scorer: scorer, fixer: fixer}
}

// Run executes the control loop for one artifact
func (l *Loop) Run(ctx context.Context, artifact content.Artifact, uc content.UnitContext) Result {
	review, err := l.scorer.Score(ctx, artifact, uc)
	if err != nil {
		log.Printf("[QUALITY] Scoring failed for %s %q, using fallback score: %v", artifact.Kind, uc.Topic, err)
		return Result{Artifact: artifact, Score: FallbackScore, Degraded: true}
	}
	if review.Pass || len(review.Patches) == 0 {
		return Result{Artifact: artifact, Score: review.Score, Pass: review.Pass}
	}

	repaired, err := l.fixer.Fix(ctx, artifact, review.Patches)
	if err != nil {
		log.Printf("[QUALITY] Repair failed for %s %q, using fallback score: %v", artifact.Kind, uc.Topic, err)
		return Result{Artifact: artifact, Score: FallbackScore, Degraded: true}
	}

	rescored, err := l.scorer.Score(ctx, repaired, uc)
	if err != nil {
		log.Printf("[QUALITY] Re-scoring failed for %s %q, using fallback score: %v", artifact.Kind, uc.Topic, err)
		return Result{Artifact: artifact, Score: FallbackScore, Degraded: true}
	}
	return Result{Artifact: repaired, Score: rescored.Score, Pass: rescored.Pass, Repaired: true}
}

// UnitScore is the rounded mean of a unit's artifact scores. An empty slice
// scores zero.
func UnitScore(results []Result) int {
	if len(results) == 0 {
		return 0
	}
	sum := 0
	for _, r := range results {
		sum += r.Score
	}
	return int(math.Round(float64(sum) / float64(len(results))))
}
