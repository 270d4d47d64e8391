// Pointdeck - Planning Poker Room State Server
// Copyright 2026 Pointdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pointdeck/pointdeck

package room

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pointdeck/pointdeck/internal/cache"
	"github.com/pointdeck/pointdeck/internal/config"
	"github.com/pointdeck/pointdeck/internal/database"
	"github.com/pointdeck/pointdeck/internal/logging"
	"github.com/pointdeck/pointdeck/internal/metrics"
	"github.com/pointdeck/pointdeck/internal/models"
)

// defaultListLimit bounds ListRoomsForUser when the caller passes no limit.
const defaultListLimit = 50

// Engine is the Room State Engine. Both store handles are long-lived
// process-wide clients constructed at startup and injected here.
type Engine struct {
	db    *database.DB
	cache *cache.Store
	cfg   config.RoomConfig
	log   zerolog.Logger

	// countdownSeq invalidates pending countdown reveals. Reset and
	// delete bump the room's sequence; a deferred reveal fires only if
	// the sequence it captured is still current.
	mu           sync.Mutex
	countdownSeq map[string]uint64
	onRevealed   func(roomID string)
}

// NewEngine creates the engine with its injected store handles.
func NewEngine(db *database.DB, store *cache.Store, cfg config.RoomConfig) *Engine {
	return &Engine{
		db:           db,
		cache:        store,
		cfg:          cfg,
		log:          logging.With().Str("component", "room-engine").Logger(),
		countdownSeq: make(map[string]uint64),
	}
}

// GetRoom returns the room, reading the Fast Store first and falling back
// to the Durable Store on miss or error. A durable hit repopulates the
// cache best-effort. Not-found is returned only when the room is absent
// from both stores.
func (e *Engine) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	room, err := e.cache.GetRoom(id)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, cache.ErrNotFound) {
		e.log.Debug().Err(err).Str("room_id", id).Msg("fast store room read failed, falling back")
	}
	metrics.CacheFallbacks.WithLabelValues("get_room").Inc()

	room, err = e.db.GetRoom(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}

	e.seedRoom(room)
	return room, nil
}

// seedRoom writes the room record into the Fast Store, logging failures
// instead of propagating them.
func (e *Engine) seedRoom(room *models.Room) {
	if err := e.cache.SetRoom(room); err != nil {
		metrics.CacheWriteFailures.WithLabelValues("set_room").Inc()
		e.log.Warn().Err(err).Str("room_id", room.ID).Msg("failed to repopulate room in fast store")
	}
}

// CreateRoom creates a new room hosted by hostID. The durable insert is
// authoritative; the cache seed afterward is best-effort.
func (e *Engine) CreateRoom(ctx context.Context, name string, votingSystem models.VotingSystem, hostID string) (room *models.Room, err error) {
	defer func(start time.Time) { metrics.ObserveEngineOp("create_room", start, err) }(time.Now())

	if !votingSystem.Valid() {
		return nil, ErrInvalidVotingSystem
	}

	room = &models.Room{
		ID:               uuid.NewString(),
		Name:             name,
		HostID:           hostID,
		VotingSystem:     votingSystem,
		RevealPolicy:     models.RevealPolicyHost,
		CountdownEnabled: false,
		Revealed:         false,
		CreatedAt:        time.Now().UTC(),
	}

	if err = e.db.InsertRoom(ctx, room); err != nil {
		return nil, err
	}

	e.seedRoom(room)
	e.log.Info().
		Str("room_id", room.ID).
		Str("host_id", hostID).
		Str("voting_system", string(votingSystem)).
		Msg("room created")
	return room, nil
}

// UpdateSettings applies a partial settings update to both stores. Only
// the supplied fields change.
func (e *Engine) UpdateSettings(ctx context.Context, id string, patch models.RoomSettingsPatch) (room *models.Room, err error) {
	defer func(start time.Time) { metrics.ObserveEngineOp("update_settings", start, err) }(time.Now())

	if patch.VotingSystem != nil && !patch.VotingSystem.Valid() {
		return nil, ErrInvalidVotingSystem
	}
	if patch.RevealPolicy != nil && !patch.RevealPolicy.Valid() {
		return nil, ErrInvalidRevealPolicy
	}

	room, err = e.GetRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return room, nil
	}

	if err = e.db.UpdateRoomSettings(ctx, id, patch); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	patch.Apply(room)
	e.seedRoom(room)
	return room, nil
}

// DeleteRoom removes the room from both stores. Fast Store cleanup
// failures are tolerated; the durable deletion failing fails the call.
func (e *Engine) DeleteRoom(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { metrics.ObserveEngineOp("delete_room", start, err) }(time.Now())

	if _, err = e.GetRoom(ctx, id); err != nil {
		return err
	}

	e.bumpCountdownSeq(id)

	if cerr := e.cache.PurgeRoom(id); cerr != nil {
		metrics.CacheWriteFailures.WithLabelValues("purge_room").Inc()
		e.log.Warn().Err(cerr).Str("room_id", id).Msg("failed to purge room from fast store")
	}

	if err = e.db.DeleteRoom(ctx, id); err != nil {
		return err
	}

	e.log.Info().Str("room_id", id).Msg("room deleted")
	return nil
}

// GetActiveMemberCount returns how many members hold at least one live
// connection. If the Fast Store cannot answer, the durable participant
// count is the best available fallback.
func (e *Engine) GetActiveMemberCount(ctx context.Context, id string) (int, error) {
	count, err := e.cache.ActiveMemberCount(id)
	if err == nil {
		return count, nil
	}
	metrics.CacheFallbacks.WithLabelValues("active_member_count").Inc()
	e.log.Debug().Err(err).Str("room_id", id).Msg("fast store presence read failed, falling back")
	return e.db.CountParticipants(ctx, id)
}

// ListRoomsForUser returns rooms the user hosts or participates in,
// newest first, paginated.
func (e *Engine) ListRoomsForUser(ctx context.Context, userID string, limit, offset int) ([]models.Room, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return e.db.ListRoomsForUser(ctx, userID, limit, offset)
}

// bumpCountdownSeq invalidates any pending countdown reveal for the room
// and returns the new sequence.
func (e *Engine) bumpCountdownSeq(roomID string) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.countdownSeq[roomID]++
	return e.countdownSeq[roomID]
}

// currentCountdownSeq returns the room's current countdown sequence.
func (e *Engine) currentCountdownSeq(roomID string) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.countdownSeq[roomID]
}
