package ws

import (
	"testing"
)

func TestPublishFansOutToAllClientsOfUser(t *testing.T) {
	hub := NewHub()
	c1 := &client{userID: "u1", send: make(chan Event, sendBufferSize)}
	c2 := &client{userID: "u1", send: make(chan Event, sendBufferSize)}
	other := &client{userID: "u2", send: make(chan Event, sendBufferSize)}
	hub.register(c1)
	hub.register(c2)
	hub.register(other)

	hub.Publish("u1", "timer:update", map[string]int{"elapsed": 5})

	for _, c := range []*client{c1, c2} {
		select {
		case event := <-c.send:
			if event.Event != "timer:update" {
				t.Fatalf("unexpected event name %q", event.Event)
			}
		default:
			t.Fatal("expected a buffered event for every client of u1")
		}
	}
	select {
	case event := <-other.send:
		t.Fatalf("u2 should not receive u1 events, got %q", event.Event)
	default:
	}
}

func TestPublishToOfflineUserIsNoop(t *testing.T) {
	hub := NewHub()
	// Must not panic or block with nobody registered.
	hub.Publish("ghost", "timer:update", nil)
	if hub.IsOnline("ghost") {
		t.Fatal("ghost should be offline")
	}
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	hub := NewHub()
	c := &client{userID: "u1", send: make(chan Event, sendBufferSize)}
	hub.register(c)

	// Overfill the buffer; the surplus publishes must drop, not block.
	for i := 0; i < sendBufferSize+5; i++ {
		hub.Publish("u1", "timer:update", i)
	}
	if got := len(c.send); got != sendBufferSize {
		t.Fatalf("expected %d buffered events, got %d", sendBufferSize, got)
	}
}

func TestUnregisterRemovesUserWhenLastClientLeaves(t *testing.T) {
	hub := NewHub()
	c1 := &client{userID: "u1", send: make(chan Event, 1)}
	c2 := &client{userID: "u1", send: make(chan Event, 1)}
	hub.register(c1)
	hub.register(c2)

	hub.unregister(c1)
	if !hub.IsOnline("u1") {
		t.Fatal("u1 should still be online with one client left")
	}
	hub.unregister(c2)
	if hub.IsOnline("u1") {
		t.Fatal("u1 should be offline after the last client left")
	}
	if hub.ConnectedUsers() != 0 {
		t.Fatalf("expected no connected users, got %d", hub.ConnectedUsers())
	}

	// Double unregister must be harmless.
	hub.unregister(c2)
}
