// Package progress streams batch job events to at most one subscriber per
// job. Events published with nobody listening are dropped, never buffered.
package progress

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType classifies a progress event
type EventType string

// Progress event types emitted during a batch run
const (
	EventStepStarted   EventType = "step-started"
	EventStepCompleted EventType = "step-completed"
	EventUnitStarted   EventType = "unit-started"
	EventUnitCompleted EventType = "unit-completed"
	EventError         EventType = "error"
	EventComplete      EventType = "complete"
)

// Event is one progress update for a batch job
type Event struct {
	Type      EventType      `json:"type"`
	Message   string         `json:"message,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// subscriberBuffer absorbs short bursts so a slow reader doesn't silently
// lose every event, but Publish never blocks on a full channel.
const subscriberBuffer = 16

// Broadcaster routes events to the single active subscriber of each job.
// Registering a new subscriber for a job replaces the previous one.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[uuid.UUID]chan Event
}

// NewBroadcaster creates an empty broadcaster
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[uuid.UUID]chan Event)}
}

// Subscribe registers the caller as the job's subscriber and returns its
// event channel. Any previous subscriber's channel is closed; readers must
// treat a closed channel as displacement, not job completion.
func (b *Broadcaster) Subscribe(jobID uuid.UUID) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if prev, ok := b.subs[jobID]; ok {
		close(prev)
	}
	ch := make(chan Event, subscriberBuffer)
	b.subs[jobID] = ch
	return ch
}

// Unsubscribe removes the subscription if ch is still the job's current
// channel. A stale channel, already displaced by a newer subscriber, is
// left alone.
func (b *Broadcaster) Unsubscribe(jobID uuid.UUID, ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	current, ok := b.subs[jobID]
	if !ok || current != ch {
		return
	}
	delete(b.subs, jobID)
	close(current)
}

// Publish delivers an event to the job's subscriber. Without a subscriber,
// or with a full channel, the event is dropped.
func (b *Broadcaster) Publish(jobID uuid.UUID, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	// The send stays under the lock so a concurrent Subscribe cannot close
	// the channel mid-publish. It never blocks, so the lock is held briefly.
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.subs[jobID]
	if !ok {
		return
	}
	select {
	case ch <- event:
	default:
	}
}

// Close closes the job's subscription if one exists. Used when a batch run
// finishes so the SSE handler can end the response.
func (b *Broadcaster) Close(jobID uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subs[jobID]; ok {
		delete(b.subs, jobID)
		close(ch)
	}
}
