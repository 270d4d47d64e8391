// Pointdeck - Planning Poker Room State Server
// Copyright 2026 Pointdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pointdeck/pointdeck

package websocket

import (
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/pointdeck/pointdeck/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024

	// Inbound frames per second per connection. Clients only send pings
	// and occasional resync requests; anything chattier is misbehaving.
	readRateLimit = 10
	readRateBurst = 20
)

// clientIDCounter assigns monotonically increasing ids so broadcast
// iteration order is stable.
var clientIDCounter atomic.Uint64

// Client is the middleman between one websocket connection and the hub.
type Client struct {
	id     uint64
	hub    *Hub
	conn   *websocket.Conn
	send   chan Message
	roomID string
	userID string
	connID string

	limiter *rate.Limiter
}

// NewClient creates a client bound to one (room, user, connection).
func NewClient(hub *Hub, conn *websocket.Conn, roomID, userID, connID string) *Client {
	return &Client{
		id:      clientIDCounter.Add(1),
		hub:     hub,
		conn:    conn,
		send:    make(chan Message, 64),
		roomID:  roomID,
		userID:  userID,
		connID:  connID,
		limiter: rate.NewLimiter(rate.Limit(readRateLimit), readRateBurst),
	}
}

// ConnID returns the connection id this client was registered under.
func (c *Client) ConnID() string {
	return c.connID
}

// readPump consumes inbound frames until the connection dies, then
// unregisters the client. Inbound traffic is ping/resync only; frames
// beyond the rate limit close the connection.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Error().Err(err).Str("room_id", c.roomID).Msg("unexpected websocket close")
			}
			break
		}

		if !c.limiter.Allow() {
			logging.Warn().Str("room_id", c.roomID).Str("user_id", c.userID).
				Msg("websocket read rate limit exceeded, closing")
			break
		}

		switch msg.Type {
		case MessageTypePing:
			if c.hub.onTouch != nil {
				c.hub.onTouch(c.roomID, c.userID, c.connID)
			}
			select {
			case c.send <- Message{Type: MessageTypePong}:
			default:
			}
		case MessageTypeRoomState:
			// Client-requested resync.
			c.hub.BroadcastRoomState(c.roomID)
		}
	}
}

// writePump flushes outbound messages and keeps the connection alive
// with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				logging.Error().Err(err).Msg("failed to write websocket message")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start begins the client's read and write pumps.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}
