package content

import "fmt"

// Placeholder builds a deterministic stand-in artifact for a unit whose
// generation failed. Placeholders carry the unit's topic and objective so a
// reviewer can finish the piece by hand, and they score low enough that the
// batch summary flags them.
func Placeholder(kind Kind, uc UnitContext) Artifact {
	switch kind {
	case KindArticle:
		return NewArticle(&Article{
			Title: placeholderTitle("Article", uc.Topic),
			Body:  placeholderBody(uc),
		})
	case KindQuiz:
		return NewQuiz(&Quiz{
			Title: placeholderTitle("Quiz", uc.Topic),
			Questions: []Question{{
				Prompt:      fmt.Sprintf("Placeholder question for %q. Replace before delivery.", uc.Topic),
				Choices:     []string{"To be written", "To be written", "To be written", "To be written"},
				AnswerIndex: 0,
			}},
		})
	case KindScript:
		return NewScript(&Script{
			Title: placeholderTitle("Script", uc.Topic),
			Body:  placeholderBody(uc),
		})
	case KindExercise:
		return NewExercise(&Exercise{
			Title:           placeholderTitle("Exercise", uc.Topic),
			Scenario:        placeholderBody(uc),
			Tasks:           []string{"To be written"},
			SuccessCriteria: []string{"To be written"},
		})
	default:
		return Artifact{}
	}
}

func placeholderTitle(label, topic string) string {
	return fmt.Sprintf("[PLACEHOLDER] %s: %s", label, topic)
}

func placeholderBody(uc UnitContext) string {
	return fmt.Sprintf(
		"Content generation failed for this unit and must be completed manually.\n\nTopic: %s\nAudience: %s\nObjective: %s",
		uc.Topic, uc.AudienceLevel, uc.Objective,
	)
}
