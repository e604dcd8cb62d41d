package pipeline

import "fmt"

// RequestError marks caller input the orchestrator rejected: an empty
// submission, a selection that names no generated option, or an invalid gate
// decision. Session state is untouched when one is returned.
type RequestError struct {
	Msg string
}

func (e *RequestError) Error() string {
	return e.Msg
}

func requestErrorf(format string, args ...any) *RequestError {
	return &RequestError{Msg: fmt.Sprintf(format, args...)}
}
