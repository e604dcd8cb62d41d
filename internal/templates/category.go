// Package templates provides stored, categorized instruction templates with
// compiled-in defaults, plus the renderer that substitutes variables into
// them. Operators tune generation behavior by overriding a category's
// template; code never needs to change.
package templates

// Category binds a pipeline step to the template used to build its
// instruction. The set is fixed: one category per distinct generation step.
type Category string

// Template categories
const (
	CategoryBriefAnalysis      Category = "brief_analysis"
	CategoryFrameworkSelection Category = "framework_selection"
	CategoryApproachGeneration Category = "approach_generation"
	CategoryResearchSummary    Category = "research_summary"
	CategoryArcGeneration      Category = "arc_generation"
	CategoryMatrixGeneration   Category = "matrix_generation"
	CategoryArticleGeneration  Category = "article_generation"
	CategoryQuizGeneration     Category = "quiz_generation"
	CategoryScriptGeneration   Category = "script_generation"
	CategoryExerciseGeneration Category = "exercise_generation"
	CategoryQualityScoring     Category = "quality_scoring"
	CategoryContentRepair      Category = "content_repair"
)

// Categories returns every known category in a stable order
func Categories() []Category {
	return []Category{
		CategoryBriefAnalysis,
		CategoryFrameworkSelection,
		CategoryApproachGeneration,
		CategoryResearchSummary,
		CategoryArcGeneration,
		CategoryMatrixGeneration,
		CategoryArticleGeneration,
		CategoryQuizGeneration,
		CategoryScriptGeneration,
		CategoryExerciseGeneration,
		CategoryQualityScoring,
		CategoryContentRepair,
	}
}

// ValidCategory reports whether c names a known category
func ValidCategory(c Category) bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}
