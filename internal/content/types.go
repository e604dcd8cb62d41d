// Package content defines the generated artifact types and the generators
// that produce them through the completion service.
package content

import "strings"

// Kind identifies one content variant. Artifact is a tagged union over these
// kinds: exactly one payload pointer is set, matching Kind.
type Kind string

// Content kinds produced for every unit
const (
	KindArticle  Kind = "article"
	KindQuiz     Kind = "quiz"
	KindScript   Kind = "script"
	KindExercise Kind = "exercise"
)

// Kinds returns every content kind in generation order
func Kinds() []Kind {
	return []Kind{KindArticle, KindQuiz, KindScript, KindExercise}
}

// Article is a long-form written training piece
type Article struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Question is one multiple-choice quiz question
type Question struct {
	Prompt      string   `json:"prompt"`
	Choices     []string `json:"choices"`
	AnswerIndex int      `json:"answer_index"`
	Explanation string   `json:"explanation,omitempty"`
}

// Quiz is a set of multiple-choice questions for a unit
type Quiz struct {
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// Script is a presenter script for a training video
type Script struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Exercise is a hands-on scenario with tasks and success criteria
type Exercise struct {
	Title           string   `json:"title"`
	Scenario        string   `json:"scenario"`
	Tasks           []string `json:"tasks"`
	SuccessCriteria []string `json:"success_criteria"`
}

// Artifact is the tagged union of all content variants. The Kind tag selects
// which payload pointer is populated; the others stay nil.
type Artifact struct {
	Kind     Kind      `json:"kind"`
	Article  *Article  `json:"article,omitempty"`
	Quiz     *Quiz     `json:"quiz,omitempty"`
	Script   *Script   `json:"script,omitempty"`
	Exercise *Exercise `json:"exercise,omitempty"`
}

// NewArticle wraps an article in an Artifact
func NewArticle(a *Article) Artifact {
	return Artifact{Kind: KindArticle, Article: a}
}

// NewQuiz wraps a quiz in an Artifact
func NewQuiz(q *Quiz) Artifact {
	return Artifact{Kind: KindQuiz, Quiz: q}
}

// NewScript wraps a script in an Artifact
func NewScript(s *Script) Artifact {
	return Artifact{Kind: KindScript, Script: s}
}

// NewExercise wraps an exercise in an Artifact
func NewExercise(e *Exercise) Artifact {
	return Artifact{Kind: KindExercise, Exercise: e}
}

// Title returns the artifact's title regardless of variant
func (a Artifact) Title() string {
	switch a.Kind {
	case KindArticle:
		if a.Article != nil {
			return a.Article.Title
		}
	case KindQuiz:
		if a.Quiz != nil {
			return a.Quiz.Title
		}
	case KindScript:
		if a.Script != nil {
			return a.Script.Title
		}
	case KindExercise:
		if a.Exercise != nil {
			return a.Exercise.Title
		}
	}
	return ""
}

// Text flattens the artifact to plain text for scoring and repair
func (a Artifact) Text() string {
	switch a.Kind {
	case KindArticle:
		if a.Article != nil {
			return a.Article.Title + "\n\n" + a.Article.Body
		}
	case KindQuiz:
		if a.Quiz != nil {
			var b strings.Builder
			b.WriteString(a.Quiz.Title)
			for _, q := range a.Quiz.Questions {
				b.WriteString("\n\n")
				b.WriteString(q.Prompt)
				for i, c := range q.Choices {
					b.WriteString("\n")
					if i == q.AnswerIndex {
						b.WriteString("* ")
					} else {
						b.WriteString("- ")
					}
					b.WriteString(c)
				}
			}
			return b.String()
		}
	case KindScript:
		if a.Script != nil {
			return a.Script.Title + "\n\n" + a.Script.Body
		}
	case KindExercise:
		if a.Exercise != nil {
			var b strings.Builder
			b.WriteString(a.Exercise.Title)
			b.WriteString("\n\n")
			b.WriteString(a.Exercise.Scenario)
			for _, task := range a.Exercise.Tasks {
				b.WriteString("\n- ")
				b.WriteString(task)
			}
			return b.String()
		}
	}
	return ""
}

// Valid reports whether exactly the payload matching Kind is set
func (a Artifact) Valid() bool {
	set := 0
	if a.Article != nil {
		set++
	}
	if a.Quiz != nil {
		set++
	}
	if a.Script != nil {
		set++
	}
	if a.Exercise != nil {
		set++
	}
	if set != 1 {
		return false
	}
	switch a.Kind {
	case KindArticle:
		return a.Article != nil
	case KindQuiz:
		return a.Quiz != nil
	case KindScript:
		return a.Script != nil
	case KindExercise:
		return a.Exercise != nil
	}
	return false
}

// FrameworkOption is one candidate pedagogical framework
type FrameworkOption struct {
	Name      string  `json:"name"`
	Rationale string  `json:"rationale"`
	FitScore  float64 `json:"fit_score"`
}

// Approach is one candidate structure for the program
type Approach struct {
	Title     string   `json:"title"`
	Summary   string   `json:"summary"`
	Strengths []string `json:"strengths,omitempty"`
}

// ArcStage is one stage of the learning arc
type ArcStage struct {
	Title     string `json:"title"`
	Objective string `json:"objective"`
}

// LearningArc is the ordered sequence of stages for route A programs
type LearningArc struct {
	Stages []ArcStage `json:"stages"`
}

// Topic is one row of the content matrix: a unit of content to generate
type Topic struct {
	Topic         string `json:"topic"`
	AudienceLevel string `json:"audience_level"`
	Objective     string `json:"objective"`
}

// Matrix is the plan for batch generation: one Topic per content unit
type Matrix struct {
	Units []Topic `json:"units"`
}
