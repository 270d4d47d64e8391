// Pointdeck - Planning Poker Room State Server
// Copyright 2026 Pointdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pointdeck/pointdeck

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pointdeck/pointdeck/internal/cache"
	"github.com/pointdeck/pointdeck/internal/database"
	"github.com/pointdeck/pointdeck/internal/middleware"
	"github.com/pointdeck/pointdeck/internal/models"
	"github.com/pointdeck/pointdeck/internal/room"
	ws "github.com/pointdeck/pointdeck/internal/websocket"
)

// Handler processes HTTP requests against the room engine.
type Handler struct {
	engine    *room.Engine
	hub       *ws.Hub
	db        *database.DB
	cache     *cache.Store
	startTime time.Time
}

// NewHandler creates the API handler with its dependencies.
func NewHandler(engine *room.Engine, hub *ws.Hub, db *database.DB, store *cache.Store) *Handler {
	return &Handler{
		engine:    engine,
		hub:       hub,
		db:        db,
		cache:     store,
		startTime: time.Now(),
	}
}

type createRoomRequest struct {
	Name         string `json:"name" validate:"required,min=1,max=128"`
	VotingSystem string `json:"votingSystem" validate:"required"`
}

// CreateRoom handles POST /api/v1/rooms.
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if !decodeBody(w, r, &req) {
		return
	}

	hostID := middleware.GetUserID(r.Context())
	created, err := h.engine.CreateRoom(r.Context(), req.Name, models.VotingSystem(req.VotingSystem), hostID)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// ListRooms handles GET /api/v1/rooms, returning rooms the caller hosts
// or participates in.
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	limit := getIntParam(r, "limit", 50)
	offset := getIntParam(r, "offset", 0)

	rooms, err := h.engine.ListRoomsForUser(r.Context(), middleware.GetUserID(r.Context()), limit, offset)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	if rooms == nil {
		rooms = []models.Room{}
	}
	respondJSON(w, http.StatusOK, rooms)
}

// GetRoomState handles GET /api/v1/rooms/{roomID}. The snapshot is
// scoped to the caller: unrevealed votes of other members never appear.
func (h *Handler) GetRoomState(w http.ResponseWriter, r *http.Request) {
	state, err := h.engine.GetRoomState(r.Context(), chi.URLParam(r, "roomID"), middleware.GetUserID(r.Context()))
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

// UpdateSettings handles PATCH /api/v1/rooms/{roomID}. Host only.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	var patch models.RoomSettingsPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	if patch.Empty() {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "no settings supplied", nil)
		return
	}

	current, err := h.engine.GetRoom(r.Context(), roomID)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	if current.HostID != middleware.GetUserID(r.Context()) {
		respondEngineError(w, room.ErrForbidden)
		return
	}

	updated, err := h.engine.UpdateSettings(r.Context(), roomID, patch)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	h.hub.BroadcastRoomState(roomID)
	respondJSON(w, http.StatusOK, updated)
}

// DeleteRoom handles DELETE /api/v1/rooms/{roomID}. Host only.
func (h *Handler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	current, err := h.engine.GetRoom(r.Context(), roomID)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	if current.HostID != middleware.GetUserID(r.Context()) {
		respondEngineError(w, room.ErrForbidden)
		return
	}

	if err := h.engine.DeleteRoom(r.Context(), roomID); err != nil {
		respondEngineError(w, err)
		return
	}

	h.hub.BroadcastRoomDeleted(roomID)
	respondJSON(w, http.StatusOK, map[string]string{"deleted": roomID})
}

// MemberCount handles GET /api/v1/rooms/{roomID}/members/count.
func (h *Handler) MemberCount(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	if _, err := h.engine.GetRoom(r.Context(), roomID); err != nil {
		respondEngineError(w, err)
		return
	}

	count, err := h.engine.GetActiveMemberCount(r.Context(), roomID)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"count": count})
}

type castVoteRequest struct {
	Value string `json:"value" validate:"max=16"`
}

// CastVote handles POST /api/v1/rooms/{roomID}/vote. An empty value
// retracts the caller's vote.
func (h *Handler) CastVote(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	var req castVoteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.engine.CastVote(r.Context(), roomID, middleware.GetUserID(r.Context()), req.Value); err != nil {
		respondEngineError(w, err)
		return
	}

	h.hub.BroadcastRoomState(roomID)
	respondJSON(w, http.StatusOK, map[string]bool{"accepted": true})
}

// RevealVotes handles POST /api/v1/rooms/{roomID}/reveal. Permitted for
// the host always, and for any member when the room's reveal policy is
// "everyone".
func (h *Handler) RevealVotes(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	current, err := h.engine.GetRoom(r.Context(), roomID)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	if !canControlReveal(current, middleware.GetUserID(r.Context())) {
		respondEngineError(w, room.ErrForbidden)
		return
	}

	countdown, err := h.engine.RevealVotes(r.Context(), roomID)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	if countdown {
		h.hub.BroadcastCountdown(roomID, h.engine.CountdownSeconds())
	} else {
		h.hub.BroadcastRoomState(roomID)
	}
	respondJSON(w, http.StatusOK, map[string]bool{"countdown": countdown})
}

// ResetVotes handles POST /api/v1/rooms/{roomID}/reset. Same permission
// rule as reveal.
func (h *Handler) ResetVotes(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	current, err := h.engine.GetRoom(r.Context(), roomID)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	if !canControlReveal(current, middleware.GetUserID(r.Context())) {
		respondEngineError(w, room.ErrForbidden)
		return
	}

	if err := h.engine.ResetVotes(r.Context(), roomID); err != nil {
		respondEngineError(w, err)
		return
	}

	h.hub.BroadcastRoomState(roomID)
	respondJSON(w, http.StatusOK, map[string]bool{"reset": true})
}

// VotingSystems handles GET /api/v1/voting-systems.
func (h *Handler) VotingSystems(w http.ResponseWriter, r *http.Request) {
	systems := models.VotingSystems()
	catalog := make([]map[string]interface{}, 0, len(systems))
	for _, vs := range systems {
		catalog = append(catalog, map[string]interface{}{
			"id":   vs,
			"deck": vs.Deck(),
		})
	}
	respondJSON(w, http.StatusOK, catalog)
}

// Health handles GET /api/v1/health, probing both stores. A sick Fast
// Store degrades the report but the service stays up (reads fall back
// to durable), so only a durable failure flips the status code.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK

	durable := "up"
	if err := h.db.Ping(r.Context()); err != nil {
		durable = "down"
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	fast := "up"
	if err := h.cache.Healthy(); err != nil {
		fast = "degraded"
		if status == "healthy" {
			status = "degraded"
		}
	}

	respondJSON(w, code, map[string]interface{}{
		"status":         status,
		"durable_store":  durable,
		"fast_store":     fast,
		"uptime_seconds": int(time.Since(h.startTime).Seconds()),
		"ws_clients":     h.hub.ClientCount(),
	})
}

// canControlReveal reports whether the user may reveal or reset.
func canControlReveal(rm *models.Room, userID string) bool {
	if rm.HostID == userID {
		return true
	}
	return rm.RevealPolicy == models.RevealPolicyEveryone
}
