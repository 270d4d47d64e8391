// Pointdeck - Planning Poker Room State Server
// Copyright 2026 Pointdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pointdeck/pointdeck

package websocket

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// newTestClient builds a client without a live connection. Tests drain
// c.send directly instead of running the pumps.
func newTestClient(hub *Hub, roomID, userID, connID string) *Client {
	return NewClient(hub, nil, roomID, userID, connID)
}

func runHub(t *testing.T, hub *Hub) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := hub.RunWithContext(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("RunWithContext returned %v", err)
		}
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return cancel
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never met")
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := NewHub(func(context.Context, string, string) (interface{}, error) {
		return nil, nil
	})
	runHub(t, hub)

	c1 := newTestClient(hub, "room-1", "u1", "conn-1")
	c2 := newTestClient(hub, "room-1", "u2", "conn-2")
	hub.Register <- c1
	hub.Register <- c2

	waitFor(t, time.Second, func() bool { return hub.RoomClientCount("room-1") == 2 })

	hub.Unregister <- c1
	waitFor(t, time.Second, func() bool { return hub.RoomClientCount("room-1") == 1 })

	// Double unregister of the same client must be harmless.
	hub.Unregister <- c1
	waitFor(t, time.Second, func() bool { return hub.RoomClientCount("room-1") == 1 })
}

func TestHubBroadcastRendersPerViewer(t *testing.T) {
	hub := NewHub(func(_ context.Context, roomID, viewerID string) (interface{}, error) {
		return map[string]string{"room": roomID, "viewer": viewerID}, nil
	})
	runHub(t, hub)

	c1 := newTestClient(hub, "room-1", "u1", "conn-1")
	c2 := newTestClient(hub, "room-1", "u2", "conn-2")
	other := newTestClient(hub, "room-2", "u3", "conn-3")
	hub.Register <- c1
	hub.Register <- c2
	hub.Register <- other
	waitFor(t, time.Second, func() bool { return hub.ClientCount() == 3 })

	hub.BroadcastRoomState("room-1")

	for _, c := range []*Client{c1, c2} {
		select {
		case msg := <-c.send:
			if msg.Type != MessageTypeRoomState {
				t.Errorf("unexpected message type %s", msg.Type)
			}
			data, ok := msg.Data.(map[string]string)
			if !ok {
				t.Fatalf("unexpected data %T", msg.Data)
			}
			if data["viewer"] != c.userID {
				t.Errorf("snapshot rendered for %s, want %s", data["viewer"], c.userID)
			}
		case <-time.After(time.Second):
			t.Fatalf("client %s never received the broadcast", c.userID)
		}
	}

	select {
	case msg := <-other.send:
		t.Errorf("client in another room received %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubFixedMessageBroadcast(t *testing.T) {
	hub := NewHub(func(context.Context, string, string) (interface{}, error) {
		t.Error("fixed-message broadcast must not render snapshots")
		return nil, nil
	})
	runHub(t, hub)

	c1 := newTestClient(hub, "room-1", "u1", "conn-1")
	hub.Register <- c1
	waitFor(t, time.Second, func() bool { return hub.ClientCount() == 1 })

	hub.BroadcastCountdown("room-1", 3)

	select {
	case msg := <-c1.send:
		if msg.Type != MessageTypeCountdown {
			t.Errorf("unexpected type %s", msg.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("countdown broadcast never arrived")
	}
}

func TestHubOnDisconnect(t *testing.T) {
	hub := NewHub(func(context.Context, string, string) (interface{}, error) {
		return nil, nil
	})

	var mu sync.Mutex
	var gotRoom, gotUser, gotConn string
	hub.OnDisconnect(func(roomID, userID, connID string) {
		mu.Lock()
		defer mu.Unlock()
		gotRoom, gotUser, gotConn = roomID, userID, connID
	})
	runHub(t, hub)

	c1 := newTestClient(hub, "room-1", "u1", "conn-1")
	hub.Register <- c1
	waitFor(t, time.Second, func() bool { return hub.ClientCount() == 1 })
	hub.Unregister <- c1
	waitFor(t, time.Second, func() bool { return hub.ClientCount() == 0 })

	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return gotConn == "conn-1"
	})
	mu.Lock()
	defer mu.Unlock()
	if gotRoom != "room-1" || gotUser != "u1" {
		t.Errorf("disconnect callback got (%s, %s)", gotRoom, gotUser)
	}
}

func TestHubDropsSlowClientAndReleasesPresence(t *testing.T) {
	hub := NewHub(func(context.Context, string, string) (interface{}, error) {
		return nil, nil
	})

	var mu sync.Mutex
	var droppedConn string
	hub.OnDisconnect(func(roomID, userID, connID string) {
		mu.Lock()
		defer mu.Unlock()
		droppedConn = connID
	})
	runHub(t, hub)

	c1 := newTestClient(hub, "room-1", "u1", "conn-1")
	hub.Register <- c1
	waitFor(t, time.Second, func() bool { return hub.ClientCount() == 1 })

	// Nothing drains c1.send, so broadcasts beyond its buffer capacity
	// must get the client dropped rather than block the hub.
	for i := 0; i < cap(c1.send)+1; i++ {
		hub.BroadcastCountdown("room-1", 3)
	}

	waitFor(t, time.Second, func() bool { return hub.ClientCount() == 0 })
	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return droppedConn == "conn-1"
	})

	// The read pump's own unregister after the drop must not fire the
	// disconnect callback a second time. Registering another client
	// afterward proves the hub processed the unregister.
	mu.Lock()
	droppedConn = ""
	mu.Unlock()
	hub.Unregister <- c1
	c2 := newTestClient(hub, "room-1", "u2", "conn-2")
	hub.Register <- c2
	waitFor(t, time.Second, func() bool { return hub.ClientCount() == 1 })

	mu.Lock()
	defer mu.Unlock()
	if droppedConn != "" {
		t.Error("disconnect callback fired twice for one connection")
	}
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub := NewHub(func(context.Context, string, string) (interface{}, error) {
		return nil, nil
	})
	cancel := runHub(t, hub)

	c1 := newTestClient(hub, "room-1", "u1", "conn-1")
	hub.Register <- c1
	waitFor(t, time.Second, func() bool { return hub.ClientCount() == 1 })

	cancel()
	waitFor(t, time.Second, func() bool { return hub.ClientCount() == 0 })

	select {
	case _, open := <-c1.send:
		if open {
			t.Error("expected send channel closed on shutdown")
		}
	case <-time.After(time.Second):
		t.Error("send channel still open after shutdown")
	}
}
