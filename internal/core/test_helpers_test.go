package core

import (
	"testing"
	"time"
)

// relayFunc adapts a function to the Relay interface for tests.
type relayFunc func(RelayFrame) error

func (f relayFunc) Publish(frame RelayFrame) error { return f(frame) }

// newLoopbackHub builds a hub whose broadcasts are delivered back
// locally, synchronously.
func newLoopbackHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil)
	hub.BindRelay(relayFunc(func(frame RelayFrame) error {
		hub.Deliver(frame)
		return nil
	}))
	return hub
}

func mustEvent(t *testing.T, ch <-chan Event, eventType string) Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev.Type == eventType {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event %q not received", eventType)
	return Event{}
}

func mustNoEvent(t *testing.T, ch <-chan Event) {
	t.Helper()

	select {
	case ev := <-ch:
		t.Fatalf("expected no event, got %q", ev.Type)
	case <-time.After(50 * time.Millisecond):
	}
}
