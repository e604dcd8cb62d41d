// Package workflow implements the session state machine that drives the
// multi-step, human-gated content generation process.
package workflow

// Step is a named node in the fixed workflow graph
type Step string

// Workflow steps. The graph is fixed at compile time: sessions branch once at
// route selection and re-converge at matrix generation.
const (
	StepBrief              Step = "brief"
	StepFrameworkSelection Step = "framework_selection"
	StepRouteSelection     Step = "route_selection"
	StepRouteAUpload       Step = "route_a_upload"
	StepContentReview      Step = "content_review"
	StepApproachSelectionA Step = "approach_selection_a"
	StepArcGeneration      Step = "arc_generation"
	StepArcReview          Step = "arc_review"
	StepRouteBResearch     Step = "route_b_research"
	StepApproachSelectionB Step = "approach_selection_b"
	StepMatrixGeneration   Step = "matrix_generation"
	StepMatrixReview       Step = "matrix_review"
	StepSampleGeneration   Step = "sample_generation"
	StepSampleValidation   Step = "sample_validation"
	StepBatchGeneration    Step = "batch_generation"
	StepCompleted          Step = "completed"
)

// Route is one of two mutually exclusive paths a session commits to once:
// route A derives content from uploaded material, route B from research.
type Route string

// Route values
const (
	RouteA    Route = "A"
	RouteB    Route = "B"
	RouteNone Route = ""
)

// successors maps each step to its legal next steps. Gated steps carry two
// edges: forward on approve and back to the retry target on any other
// decision.
var successors = map[Step][]Step{
	StepBrief:              {StepFrameworkSelection},
	StepFrameworkSelection: {StepRouteSelection},
	StepRouteSelection:     {StepRouteAUpload, StepRouteBResearch},
	StepRouteAUpload:       {StepContentReview},
	StepContentReview:      {StepApproachSelectionA, StepRouteAUpload},
	StepApproachSelectionA: {StepArcGeneration},
	StepArcGeneration:      {StepArcReview},
	StepArcReview:          {StepMatrixGeneration, StepArcGeneration},
	StepRouteBResearch:     {StepApproachSelectionB},
	StepApproachSelectionB: {StepMatrixGeneration},
	StepMatrixGeneration:   {StepMatrixReview},
	StepMatrixReview:       {StepSampleGeneration, StepMatrixGeneration},
	StepSampleGeneration:   {StepSampleValidation},
	StepSampleValidation:   {StepBatchGeneration, StepSampleGeneration},
	StepBatchGeneration:    {StepCompleted},
	StepCompleted:          {},
}

// stepRoute marks route-exclusive steps. Steps absent from this map are
// common to both routes.
var stepRoute = map[Step]Route{
	StepRouteAUpload:       RouteA,
	StepContentReview:      RouteA,
	StepApproachSelectionA: RouteA,
	StepArcGeneration:      RouteA,
	StepArcReview:          RouteA,
	StepRouteBResearch:     RouteB,
	StepApproachSelectionB: RouteB,
}

// retryTargets maps each human-gated step to the step a rejection loops
// back to.
var retryTargets = map[Step]Step{
	StepContentReview:    StepRouteAUpload,
	StepArcReview:        StepArcGeneration,
	StepMatrixReview:     StepMatrixGeneration,
	StepSampleValidation: StepSampleGeneration,
}

// InitialStep returns the step every new session starts at
func InitialStep() Step {
	return StepBrief
}

// ValidStep reports whether s names a step in the graph
func ValidStep(s Step) bool {
	_, ok := successors[s]
	return ok
}

// ValidRoute reports whether r is a selectable route
func ValidRoute(r Route) bool {
	return r == RouteA || r == RouteB
}

// IsTerminal reports whether s has no outgoing edges
func IsTerminal(s Step) bool {
	return len(successors[s]) == 0 && ValidStep(s)
}

// IsGated reports whether s requires a human decision before advancing
func IsGated(s Step) bool {
	_, ok := retryTargets[s]
	return ok
}

// RetryTarget returns the step a rejection at a gated step loops back to
func RetryTarget(s Step) (Step, bool) {
	target, ok := retryTargets[s]
	return target, ok
}

// StepRoute returns the route a step belongs to, or RouteNone for steps
// shared by both routes
func StepRoute(s Step) Route {
	return stepRoute[s]
}

// Successors returns the legal next steps from current under the given
// route. Steps belonging to the other route are excluded; before a route is
// chosen, no route-exclusive step is reachable.
func Successors(current Step, route Route) []Step {
	var out []Step
	for _, next := range successors[current] {
		if r := stepRoute[next]; r != RouteNone && r != route {
			continue
		}
		out = append(out, next)
	}
	return out
}

// CanAdvance reports whether next is a legal successor of current under the
// given route
func CanAdvance(current, next Step, route Route) bool {
	for _, s := range Successors(current, route) {
		if s == next {
			return true
		}
	}
	return false
}

// routeEntered reports whether the session has entered a route-exclusive
// step, after which the route is immutable.
func routeEntered(current Step) bool {
	return stepRoute[current] != RouteNone || isPostBranch(current)
}

// isPostBranch reports whether current sits past the point where the two
// routes re-converge.
func isPostBranch(current Step) bool {
	switch current {
	case StepMatrixGeneration, StepMatrixReview, StepSampleGeneration,
		StepSampleValidation, StepBatchGeneration, StepCompleted:
		return true
	}
	return false
}
