// Pointdeck - Planning Poker Room State Server
// Copyright 2026 Pointdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pointdeck/pointdeck

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/pointdeck/pointdeck/internal/logging"
	"github.com/pointdeck/pointdeck/internal/middleware"
	"github.com/pointdeck/pointdeck/internal/models"
	ws "github.com/pointdeck/pointdeck/internal/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:   1024,
	WriteBufferSize:  1024,
	HandshakeTimeout: 10 * time.Second,
	// Origin enforcement belongs to the fronting proxy; this service is
	// not internet-facing.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// JoinRoom handles GET /api/v1/rooms/{roomID}/ws. Upgrading joins the
// caller as a member (idempotent for already-joined users), registers
// the connection, and starts pushing per-viewer snapshots. Closing the
// connection drops it from presence; the member leaves only when its
// last connection is gone.
func (h *Handler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	userID := middleware.GetUserID(r.Context())

	name := r.URL.Query().Get("name")
	if name == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "name query parameter is required", nil)
		return
	}
	if len(name) > 64 {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "name must be at most 64 characters", nil)
		return
	}

	if _, err := h.engine.GetRoom(r.Context(), roomID); err != nil {
		respondEngineError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		logging.Warn().Err(err).Str("room_id", roomID).Msg("websocket upgrade failed")
		return
	}

	connID := uuid.NewString()
	user := models.User{ID: userID, Name: name, CreatedAt: time.Now().UTC()}
	if err := h.engine.AddMember(r.Context(), roomID, user, connID); err != nil {
		logging.Error().Err(err).Str("room_id", roomID).Str("user_id", userID).Msg("join failed")
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "join failed"))
		_ = conn.Close()
		return
	}

	client := ws.NewClient(h.hub, conn, roomID, userID, connID)
	h.hub.Register <- client
	client.Start()

	h.hub.BroadcastRoomState(roomID)
}
