package quality

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/coursecraft/internal/content"
)

type stubScorer struct {
	reviews []Review
	err     error
	calls   int
}

func (s *stubScorer) Score(context.Context, content.Artifact, content.UnitContext) (Review, error) {
	s.calls++
	if s.err != nil {
		return Review{}, s.err
	}
	review := s.reviews[0]
	if len(s.reviews) > 1 {
		s.reviews = s.reviews[1:]
	}
	return review, nil
}

type stubFixer struct {
	out   content.Artifact
	err   error
	calls int
}

func (f *stubFixer) Fix(context.Context, content.Artifact, []Patch) (content.Artifact, error) {
	f.calls++
	if f.err != nil {
		return content.Artifact{}, f.err
	}
	return f.out, nil
}

func testArticle(body string) content.Artifact {
	return content.NewArticle(&content.Article{Title: "Handling Returns", Body: body})
}

func TestLoop_PassSkipsRepair(t *testing.T) {
	scorer := &stubScorer{reviews: []Review{{Score: 85, Pass: true}}}
	fixer := &stubFixer{}
	loop := NewLoop(scorer, fixer)

	res := loop.Run(context.Background(), testArticle("original"), content.UnitContext{Topic: "Returns"})

	assert.Equal(t, 85, res.Score)
	assert.True(t, res.Pass)
	assert.False(t, res.Repaired)
	assert.Equal(t, 1, scorer.calls)
	assert.Zero(t, fixer.calls)
	assert.Equal(t, "original", res.Artifact.Article.Body)
}

func TestLoop_FailWithPatchesRepairsOnce(t *testing.T) {
	scorer := &stubScorer{reviews: []Review{
		{Score: 55, Pass: false, Patches: []Patch{{Target: "body", Instruction: "add an example"}}},
		{Score: 80, Pass: true},
	}}
	fixer := &stubFixer{out: testArticle("repaired")}
	loop := NewLoop(scorer, fixer)

	res := loop.Run(context.Background(), testArticle("original"), content.UnitContext{Topic: "Returns"})

	assert.Equal(t, 1, fixer.calls, "exactly one repair")
	assert.Equal(t, 2, scorer.calls, "exactly one re-score")
	assert.True(t, res.Repaired)
	assert.Equal(t, 80, res.Score)
	assert.Equal(t, "repaired", res.Artifact.Article.Body)
}

func TestLoop_RescoreAcceptedEvenIfWorse(t *testing.T) {
	scorer := &stubScorer{reviews: []Review{
		{Score: 60, Pass: false, Patches: []Patch{{Target: "body", Instruction: "tighten"}}},
		{Score: 40, Pass: false, Patches: []Patch{{Target: "body", Instruction: "tighten more"}}},
	}}
	fixer := &stubFixer{out: testArticle("repaired")}
	loop := NewLoop(scorer, fixer)

	res := loop.Run(context.Background(), testArticle("original"), content.UnitContext{})

	assert.Equal(t, 1, fixer.calls, "no second repair even when the re-score fails")
	assert.Equal(t, 2, scorer.calls)
	assert.Equal(t, 40, res.Score)
	assert.True(t, res.Repaired)
	assert.Equal(t, "repaired", res.Artifact.Article.Body)
}

func TestLoop_FailWithoutPatchesKeepsOriginal(t *testing.T) {
	scorer := &stubScorer{reviews: []Review{{Score: 55, Pass: false}}}
	fixer := &stubFixer{out: testArticle("repaired")}
	loop := NewLoop(scorer, fixer)

	res := loop.Run(context.Background(), testArticle("original"), content.UnitContext{})

	assert.Zero(t, fixer.calls)
	assert.Equal(t, 55, res.Score)
	assert.False(t, res.Repaired)
	assert.Equal(t, "original", res.Artifact.Article.Body)
}

func TestLoop_ScorerFailureUsesFallback(t *testing.T) {
	scorer := &stubScorer{err: errors.New("service unavailable")}
	fixer := &stubFixer{out: testArticle("repaired")}
	loop := NewLoop(scorer, fixer)

	res := loop.Run(context.Background(), testArticle("original"), content.UnitContext{})

	assert.Equal(t, FallbackScore, res.Score)
	assert.True(t, res.Degraded)
	assert.Equal(t, "original", res.Artifact.Article.Body, "original artifact kept on scorer failure")
	assert.Zero(t, fixer.calls)
}

func TestLoop_FixerFailureUsesFallback(t *testing.T) {
	scorer := &stubScorer{reviews: []Review{
		{Score: 50, Pass: false, Patches: []Patch{{Target: "body", Instruction: "expand"}}},
	}}
	fixer := &stubFixer{err: errors.New("service unavailable")}
	loop := NewLoop(scorer, fixer)

	res := loop.Run(context.Background(), testArticle("original"), content.UnitContext{})

	assert.Equal(t, FallbackScore, res.Score)
	assert.True(t, res.Degraded)
	assert.Equal(t, "original", res.Artifact.Article.Body)
	assert.Equal(t, 1, scorer.calls, "no re-score after a failed repair")
}

func TestLoop_RescoreFailureUsesFallback(t *testing.T) {
	first := true
	scorer := &flakyScorer{first: &first}
	fixer := &stubFixer{out: testArticle("repaired")}
	loop := NewLoop(scorer, fixer)

	res := loop.Run(context.Background(), testArticle("original"), content.UnitContext{})

	assert.Equal(t, FallbackScore, res.Score)
	assert.True(t, res.Degraded)
	assert.Equal(t, "original", res.Artifact.Article.Body, "original kept when the re-score fails")
}

// flakyScorer fails the review but errors on the re-score
type flakyScorer struct {
	first *bool
}

func (s *flakyScorer) Score(context.Context, content.Artifact, content.UnitContext) (Review, error) {
	if *s.first {
		*s.first = false
		return Review{Score: 50, Patches: []Patch{{Target: "body", Instruction: "expand"}}}, nil
	}
	return Review{}, errors.New("service unavailable")
}

func TestUnitScore(t *testing.T) {
	tests := []struct {
		name     string
		scores   []int
		expected int
	}{
		{"empty", nil, 0},
		{"single", []int{80}, 80},
		{"rounds up", []int{80, 81}, 81},
		{"rounds down", []int{80, 80, 81}, 80},
		{"mixed", []int{100, 50, 75, 60}, 71},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var results []Result
			for _, s := range tt.scores {
				results = append(results, Result{Score: s})
			}
			assert.Equal(t, tt.expected, UnitScore(results))
		})
	}
}
