package progress

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublish_NoSubscriberIsSafe(t *testing.T) {
	b := NewBroadcaster()

	assert.NotPanics(t, func() {
		b.Publish(uuid.New(), Event{Type: EventStepStarted, Message: "generating"})
	})
}

func TestSubscribeReceivesEvents(t *testing.T) {
	b := NewBroadcaster()
	jobID := uuid.New()

	ch := b.Subscribe(jobID)
	b.Publish(jobID, Event{Type: EventUnitCompleted, Message: "unit 1 done"})

	select {
	case ev := <-ch:
		assert.Equal(t, EventUnitCompleted, ev.Type)
		assert.Equal(t, "unit 1 done", ev.Message)
		assert.False(t, ev.Timestamp.IsZero(), "timestamp stamped on publish")
	case <-time.After(time.Second):
		t.Fatal("expected event was not delivered")
	}
}

func TestSubscribe_LastRegisteredWins(t *testing.T) {
	b := NewBroadcaster()
	jobID := uuid.New()

	first := b.Subscribe(jobID)
	second := b.Subscribe(jobID)

	_, open := <-first
	assert.False(t, open, "first subscriber's channel closed on displacement")

	b.Publish(jobID, Event{Type: EventComplete})
	select {
	case ev := <-second:
		assert.Equal(t, EventComplete, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("second subscriber did not receive the event")
	}
}

func TestPublish_AfterDisconnectIsSafe(t *testing.T) {
	b := NewBroadcaster()
	jobID := uuid.New()

	ch := b.Subscribe(jobID)
	b.Unsubscribe(jobID, ch)

	assert.NotPanics(t, func() {
		b.Publish(jobID, Event{Type: EventStepCompleted})
	})

	_, open := <-ch
	assert.False(t, open, "channel closed on unsubscribe")
}

func TestUnsubscribe_StaleChannelIgnored(t *testing.T) {
	b := NewBroadcaster()
	jobID := uuid.New()

	stale := b.Subscribe(jobID)
	current := b.Subscribe(jobID)

	// The displaced reader unsubscribes late; the live subscription survives.
	b.Unsubscribe(jobID, stale)
	b.Publish(jobID, Event{Type: EventError, Message: "unit 3 failed"})

	select {
	case ev := <-current:
		assert.Equal(t, EventError, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("live subscriber lost its subscription")
	}
}

func TestPublish_FullBufferDropsEvent(t *testing.T) {
	b := NewBroadcaster()
	jobID := uuid.New()
	ch := b.Subscribe(jobID)

	for i := 0; i < subscriberBuffer+5; i++ {
		b.Publish(jobID, Event{Type: EventUnitCompleted})
	}

	received := 0
	for {
		select {
		case <-ch:
			received++
		default:
			assert.Equal(t, subscriberBuffer, received, "overflow events dropped, not queued")
			return
		}
	}
}

func TestClose_EndsSubscription(t *testing.T) {
	b := NewBroadcaster()
	jobID := uuid.New()
	ch := b.Subscribe(jobID)

	b.Close(jobID)

	_, open := <-ch
	require.False(t, open)
	assert.NotPanics(t, func() { b.Close(jobID) }, "closing an unknown job is a no-op")
}

func TestJobsAreIsolated(t *testing.T) {
	b := NewBroadcaster()
	jobA := uuid.New()
	jobB := uuid.New()

	chA := b.Subscribe(jobA)
	chB := b.Subscribe(jobB)

	b.Publish(jobA, Event{Type: EventStepStarted, Message: "for A"})

	select {
	case ev := <-chA:
		assert.Equal(t, "for A", ev.Message)
	case <-time.After(time.Second):
		t.Fatal("job A subscriber did not receive its event")
	}

	select {
	case <-chB:
		t.Fatal("job B received an event for job A")
	default:
	}
}
