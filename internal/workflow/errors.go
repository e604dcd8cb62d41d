package workflow

import "fmt"

// SessionNotFoundError indicates an operation referenced a session that
// does not exist
type SessionNotFoundError struct {
	SessionID string
}

func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("session not found: %s", e.SessionID)
}

// InvalidTransitionError indicates an attempt to move a session to a step
// that is not reachable from its current step under its route. This is a
// caller bug and is never retried.
type InvalidTransitionError struct {
	From  Step
	To    Step
	Route Route
}

func (e *InvalidTransitionError) Error() string {
	if e.Route == RouteNone {
		return fmt.Sprintf("invalid transition from %s to %s (no route selected)", e.From, e.To)
	}
	return fmt.Sprintf("invalid transition from %s to %s on route %s", e.From, e.To, e.Route)
}

// MissingRequiredDataError indicates a step's generator was invoked before
// its prerequisite step data was written
type MissingRequiredDataError struct {
	Step Step
	Key  string
}

func (e *MissingRequiredDataError) Error() string {
	return fmt.Sprintf("step %s requires missing data %q", e.Step, e.Key)
}

// RouteCommittedError indicates an attempt to change a session's route after
// a route-exclusive step has been entered
type RouteCommittedError struct {
	Committed Route
	Requested Route
}

func (e *RouteCommittedError) Error() string {
	return fmt.Sprintf("route %s is committed and cannot be changed to %s", e.Committed, e.Requested)
}
