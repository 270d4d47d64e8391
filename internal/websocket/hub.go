// Pointdeck - Planning Poker Room State Server
// Copyright 2026 Pointdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pointdeck/pointdeck

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/pointdeck/pointdeck/internal/logging"
	"github.com/pointdeck/pointdeck/internal/metrics"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types pushed to clients.
const (
	MessageTypeRoomState   = "room_state"
	MessageTypeCountdown   = "countdown_started"
	MessageTypeRoomDeleted = "room_deleted"
	MessageTypePing        = "ping"
	MessageTypePong        = "pong"
)

// Message is one WebSocket frame payload.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// StateFunc renders the room snapshot for one viewer. The hub calls it
// once per connected client on every room broadcast.
type StateFunc func(ctx context.Context, roomID, viewerID string) (interface{}, error)

// DisconnectFunc is invoked after a client is unregistered, so the
// engine can drop the connection from the member's presence.
type DisconnectFunc func(roomID, userID, connID string)

// TouchFunc is invoked on client pings to refresh the connection's
// TTL-bounded presence and session entries.
type TouchFunc func(roomID, userID, connID string)

// roomEvent asks the hub to push to every client of one room.
type roomEvent struct {
	roomID string
	// message overrides the per-viewer snapshot when non-nil (countdown
	// announcements, deletion notices).
	message *Message
}

// Hub maintains the set of active clients grouped by room and fans
// messages out to them.
type Hub struct {
	rooms      map[string]map[*Client]bool
	events     chan roomEvent
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex

	stateFn      StateFunc
	onDisconnect DisconnectFunc
	onTouch      TouchFunc
}

// NewHub creates a hub rendering snapshots through stateFn.
func NewHub(stateFn StateFunc) *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		events:     make(chan roomEvent, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		stateFn:    stateFn,
	}
}

// OnDisconnect registers the callback invoked when a client leaves.
// Must be called before RunWithContext.
func (h *Hub) OnDisconnect(fn DisconnectFunc) {
	h.onDisconnect = fn
}

// OnTouch registers the callback invoked on client pings. Must be
// called before any client starts its pumps.
func (h *Hub) OnTouch(fn TouchFunc) {
	h.onTouch = fn
}

// BroadcastRoomState pushes a fresh per-viewer snapshot to every client
// of the room. Non-blocking; a saturated hub drops the event and clients
// resync on their next broadcast.
func (h *Hub) BroadcastRoomState(roomID string) {
	select {
	case h.events <- roomEvent{roomID: roomID}:
	default:
		logging.Warn().Str("room_id", roomID).Msg("hub event queue full, dropping state broadcast")
	}
}

// BroadcastCountdown announces a started reveal countdown to the room.
func (h *Hub) BroadcastCountdown(roomID string, seconds float64) {
	msg := &Message{Type: MessageTypeCountdown, Data: map[string]float64{"seconds": seconds}}
	select {
	case h.events <- roomEvent{roomID: roomID, message: msg}:
	default:
		logging.Warn().Str("room_id", roomID).Msg("hub event queue full, dropping countdown broadcast")
	}
}

// BroadcastRoomDeleted tells the room's clients the room is gone. Their
// connections close on the next read after the server drops them.
func (h *Hub) BroadcastRoomDeleted(roomID string) {
	msg := &Message{Type: MessageTypeRoomDeleted}
	select {
	case h.events <- roomEvent{roomID: roomID, message: msg}:
	default:
		logging.Warn().Str("room_id", roomID).Msg("hub event queue full, dropping deletion broadcast")
	}
}

// RunWithContext runs the hub until the context is canceled. Designed
// for suture supervision; a restart re-registers nothing because client
// connections die with the hub.
//
// Selection is priority ordered so client state is consistent before
// events are processed: shutdown, then lifecycle, then room events.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case event := <-h.events:
			h.dispatch(ctx, event)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	clients, ok := h.rooms[client.roomID]
	if !ok {
		clients = make(map[*Client]bool)
		h.rooms[client.roomID] = clients
	}
	clients[client] = true
	total := h.clientCountLocked()
	h.mu.Unlock()

	metrics.WSConnectedClients.Inc()
	logging.Info().Str("room_id", client.roomID).Str("user_id", client.userID).
		Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	removed := false
	if clients, ok := h.rooms[client.roomID]; ok {
		if _, present := clients[client]; present {
			delete(clients, client)
			close(client.send)
			removed = true
		}
		if len(clients) == 0 {
			delete(h.rooms, client.roomID)
		}
	}
	total := h.clientCountLocked()
	h.mu.Unlock()

	if !removed {
		return
	}
	metrics.WSConnectedClients.Dec()
	logging.Info().Str("room_id", client.roomID).Str("user_id", client.userID).
		Int("total_clients", total).Msg("websocket client disconnected")

	if h.onDisconnect != nil {
		h.onDisconnect(client.roomID, client.userID, client.connID)
	}
}

// dispatch fans one room event out to the room's clients in client-id
// order, rendering a per-viewer snapshot unless the event carries a
// fixed message. A client whose send buffer is full is dropped.
func (h *Hub) dispatch(ctx context.Context, event roomEvent) {
	h.mu.Lock()

	clients := make([]*Client, 0, len(h.rooms[event.roomID]))
	for client := range h.rooms[event.roomID] {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })

	var toRemove []*Client
	for _, client := range clients {
		msg := event.message
		if msg == nil {
			state, err := h.stateFn(ctx, event.roomID, client.userID)
			if err != nil {
				logging.Warn().Err(err).Str("room_id", event.roomID).
					Str("user_id", client.userID).Msg("snapshot render failed, skipping client")
				continue
			}
			msg = &Message{Type: MessageTypeRoomState, Data: state}
		}

		select {
		case client.send <- *msg:
			metrics.WSMessagesSent.Inc()
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.rooms[event.roomID], client)
		metrics.WSConnectedClients.Dec()
	}
	if room, ok := h.rooms[event.roomID]; ok && len(room) == 0 {
		delete(h.rooms, event.roomID)
	}
	h.mu.Unlock()

	// A dropped client is as disconnected as an unregistered one; its
	// presence must be released the same way. The later Unregister from
	// its read pump finds the client already gone and is a no-op.
	for _, client := range toRemove {
		logging.Warn().Str("room_id", event.roomID).Str("user_id", client.userID).
			Msg("client send buffer full, dropping connection")
		if h.onDisconnect != nil {
			h.onDisconnect(client.roomID, client.userID, client.connID)
		}
	}
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clientCountLocked()
}

// RoomClientCount returns the number of clients connected to one room.
func (h *Hub) RoomClientCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

func (h *Hub) clientCountLocked() int {
	total := 0
	for _, clients := range h.rooms {
		total += len(clients)
	}
	return total
}

func (h *Hub) logGracefulShutdown(ctx context.Context) {
	count := h.ClientCount()
	h.closeAllClients()

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", count).
		Msg("websocket hub stopped")
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for roomID, clients := range h.rooms {
		for client := range clients {
			close(client.send)
			metrics.WSConnectedClients.Dec()
		}
		delete(h.rooms, roomID)
	}
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	if ctx.Err() == context.DeadlineExceeded {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}
