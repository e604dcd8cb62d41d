package workflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/jonathan/coursecraft/internal/db"
)

// Store is the persistence surface the state machine depends on. *db.DB
// satisfies it; tests substitute an in-memory implementation.
type Store interface {
	CreateSession(ctx context.Context, input db.SessionInput) (*db.Session, error)
	GetSession(ctx context.Context, sessionID uuid.UUID) (*db.Session, error)
	UpdateSessionStep(ctx context.Context, sessionID uuid.UUID, step string) error
	UpdateSessionRoute(ctx context.Context, sessionID uuid.UUID, route string) error
	UpdateSessionStatus(ctx context.Context, sessionID uuid.UUID, status string) error
	SaveStepData(ctx context.Context, sessionID uuid.UUID, key string, value any) error
	GetStepData(ctx context.Context, sessionID uuid.UUID, key string) ([]byte, error)
	InsertDecision(ctx context.Context, sessionID uuid.UUID, step, decision, feedback string) (*db.Decision, error)
	ListDecisions(ctx context.Context, sessionID uuid.UUID) ([]db.Decision, error)
}

// Machine owns session lifecycle: current step, route, step data, and the
// decision history. Transitions for the same session are serialized through a
// per-session lock; different sessions proceed independently.
type Machine struct {
	store Store

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewMachine creates a state machine backed by the given store
func NewMachine(store Store) *Machine {
	return &Machine{
		store: store,
		locks: make(map[uuid.UUID]*sync.Mutex),
	}
}

// sessionLock returns the mutex guarding one session's transitions
func (m *Machine) sessionLock(sessionID uuid.UUID) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[sessionID] = lock
	}
	return lock
}

// CreateSession allocates a new active session at the initial step
func (m *Machine) CreateSession(ctx context.Context, clientName, industry string) (*db.Session, error) {
	return m.store.CreateSession(ctx, db.SessionInput{
		ClientName:  clientName,
		Industry:    industry,
		CurrentStep: string(InitialStep()),
	})
}

// Session retrieves a session, failing if it does not exist
func (m *Machine) Session(ctx context.Context, sessionID uuid.UUID) (*db.Session, error) {
	session, err := m.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, &SessionNotFoundError{SessionID: sessionID.String()}
	}
	return session, nil
}

// SetRoute commits a session to a route. The choice is one-time: once a
// route-exclusive step has been entered the route is immutable.
func (m *Machine) SetRoute(ctx context.Context, sessionID uuid.UUID, route Route) error {
	if !ValidRoute(route) {
		return fmt.Errorf("invalid route: %q", route)
	}

	lock := m.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := m.Session(ctx, sessionID)
	if err != nil {
		return err
	}

	current := Step(session.CurrentStep)
	committed := Route(session.Route)
	if committed == route {
		return nil
	}
	if committed != RouteNone && routeEntered(current) {
		return &RouteCommittedError{Committed: committed, Requested: route}
	}

	return m.store.UpdateSessionRoute(ctx, sessionID, string(route))
}

// AdvanceToStep moves a session along one edge of the graph. Moving to a
// step outside the current step's successor set under the session's route
// fails with InvalidTransitionError; nothing is clamped silently.
func (m *Machine) AdvanceToStep(ctx context.Context, sessionID uuid.UUID, next Step) error {
	if !ValidStep(next) {
		return fmt.Errorf("unknown step: %q", next)
	}

	lock := m.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := m.Session(ctx, sessionID)
	if err != nil {
		return err
	}

	current := Step(session.CurrentStep)
	route := Route(session.Route)

	if session.Status != db.SessionActive {
		return &InvalidTransitionError{From: current, To: next, Route: route}
	}
	if !CanAdvance(current, next, route) {
		return &InvalidTransitionError{From: current, To: next, Route: route}
	}

	if err := m.store.UpdateSessionStep(ctx, sessionID, string(next)); err != nil {
		return err
	}
	if next == StepCompleted {
		return m.store.UpdateSessionStatus(ctx, sessionID, db.SessionCompleted)
	}
	return nil
}

// CompleteSession performs the terminal transition. Only valid once the
// session has reached batch generation.
func (m *Machine) CompleteSession(ctx context.Context, sessionID uuid.UUID) error {
	return m.AdvanceToStep(ctx, sessionID, StepCompleted)
}

// PauseSession marks a session paused without touching its current step
func (m *Machine) PauseSession(ctx context.Context, sessionID uuid.UUID) error {
	lock := m.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := m.Session(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Status == db.SessionCompleted {
		return fmt.Errorf("cannot pause completed session %s", sessionID)
	}
	return m.store.UpdateSessionStatus(ctx, sessionID, db.SessionPaused)
}

// ResumeSession reactivates a paused session at its saved step
func (m *Machine) ResumeSession(ctx context.Context, sessionID uuid.UUID) error {
	lock := m.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := m.Session(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Status != db.SessionPaused {
		return fmt.Errorf("session %s is not paused", sessionID)
	}
	return m.store.UpdateSessionStatus(ctx, sessionID, db.SessionActive)
}

// SaveStepData upserts a step-data value. Saving does not transition state.
func (m *Machine) SaveStepData(ctx context.Context, sessionID uuid.UUID, key string, value any) error {
	if key == "" {
		return fmt.Errorf("step data key is empty")
	}
	return m.store.SaveStepData(ctx, sessionID, key, value)
}

// GetStepData reads a step-data value. A key never written yields
// (nil, false, nil) — absence is a normal outcome, not an error.
func (m *Machine) GetStepData(ctx context.Context, sessionID uuid.UUID, key string) ([]byte, bool, error) {
	value, err := m.store.GetStepData(ctx, sessionID, key)
	if err != nil {
		return nil, false, err
	}
	if value == nil {
		return nil, false, nil
	}
	return value, true, nil
}

// RequireStepData reads a step-data value that a generator depends on,
// failing with MissingRequiredDataError when absent
func (m *Machine) RequireStepData(ctx context.Context, sessionID uuid.UUID, step Step, key string) ([]byte, error) {
	value, ok, err := m.GetStepData(ctx, sessionID, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &MissingRequiredDataError{Step: step, Key: key}
	}
	return value, nil
}

// RecordDecision appends an immutable decision record at a gated step. It
// does not transition by itself: the caller advances separately based on the
// decision value, which lets a rejection be logged even when the resulting
// transition is a retry loop.
func (m *Machine) RecordDecision(ctx context.Context, sessionID uuid.UUID, step Step, decision, feedback string) (*db.Decision, error) {
	if !IsGated(step) {
		return nil, fmt.Errorf("step %s is not a decision gate", step)
	}
	if decision == "" {
		return nil, fmt.Errorf("decision value is empty")
	}
	if _, err := m.Session(ctx, sessionID); err != nil {
		return nil, err
	}
	return m.store.InsertDecision(ctx, sessionID, string(step), decision, feedback)
}

// Decisions returns a session's decision history in audit order
func (m *Machine) Decisions(ctx context.Context, sessionID uuid.UUID) ([]db.Decision, error) {
	return m.store.ListDecisions(ctx, sessionID)
}

// NextStepForDecision resolves the edge a decision at a gated step follows:
// forward on approve, back to the retry target otherwise.
func NextStepForDecision(step Step, decision string) (Step, error) {
	if !IsGated(step) {
		return "", fmt.Errorf("step %s is not a decision gate", step)
	}
	if decision == db.DecisionApprove {
		return successors[step][0], nil
	}
	target, _ := RetryTarget(step)
	return target, nil
}
