// Pointdeck - Planning Poker Room State Server
// Copyright 2026 Pointdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pointdeck/pointdeck

package room

import (
	"context"
	"errors"
	"time"

	"github.com/pointdeck/pointdeck/internal/cache"
	"github.com/pointdeck/pointdeck/internal/metrics"
	"github.com/pointdeck/pointdeck/internal/models"
)

// MapSession binds a connection id to its (user, room) pair in the Fast
// Store. The binding is TTL-bounded; a write failure is logged and the
// connection proceeds, since a later lookup miss is recoverable.
func (e *Engine) MapSession(connID, userID, roomID string) {
	binding := models.SessionBinding{UserID: userID, RoomID: roomID}
	if err := e.cache.PutSession(connID, binding); err != nil {
		metrics.CacheWriteFailures.WithLabelValues("put_session").Inc()
		e.log.Warn().Err(err).Str("conn_id", connID).Str("room_id", roomID).Msg("session mapping write failed")
	}
}

// UnmapSession removes the connection's session binding.
func (e *Engine) UnmapSession(connID string) {
	if err := e.cache.DeleteSession(connID); err != nil {
		e.log.Warn().Err(err).Str("conn_id", connID).Msg("session mapping delete failed")
	}
}

// LookupBySessionID resolves a connection id to its binding, refreshing
// the binding's TTL on hit.
func (e *Engine) LookupBySessionID(connID string) (models.SessionBinding, error) {
	binding, err := e.cache.GetSession(connID)
	if errors.Is(err, cache.ErrNotFound) {
		return models.SessionBinding{}, ErrSessionNotFound
	}
	if err != nil {
		return models.SessionBinding{}, err
	}
	if terr := e.cache.TouchSession(connID); terr != nil {
		e.log.Debug().Err(terr).Str("conn_id", connID).Msg("session touch failed")
	}
	return binding, nil
}

// TouchPresence refreshes the TTL windows behind a live connection: the
// session binding and the connection's presence key. Called on client
// pings so an idle-but-connected member never expires out of the room.
func (e *Engine) TouchPresence(roomID, userID, connID string) {
	if err := e.cache.TouchSession(connID); err != nil {
		e.log.Debug().Err(err).Str("conn_id", connID).Msg("session touch failed")
	}
	if err := e.cache.AddConnection(roomID, userID, connID); err != nil {
		e.log.Debug().Err(err).Str("conn_id", connID).Msg("presence touch failed")
	}
}

// AddMember registers the user as a member of the room and records the
// connection. The durable writes are authoritative; Fast Store writes
// are best-effort mirrors. Joining an already-joined room adds the
// connection without duplicating membership.
func (e *Engine) AddMember(ctx context.Context, roomID string, user models.User, connID string) (err error) {
	defer func(start time.Time) { metrics.ObserveEngineOp("add_member", start, err) }(time.Now())

	if _, err = e.GetRoom(ctx, roomID); err != nil {
		return err
	}

	// A cold member set must be rebuilt before this join lands, or the
	// cache would claim the joiner is the only member.
	e.ensureHydrated(ctx, roomID)

	if err = e.db.UpsertUser(ctx, &user); err != nil {
		return err
	}
	if err = e.db.UpsertParticipant(ctx, roomID, user.ID); err != nil {
		return err
	}

	member := models.Member{ID: user.ID, Name: user.Name, JoinedAt: time.Now().UTC()}
	if cerr := e.cache.SetMember(roomID, member); cerr != nil {
		metrics.CacheWriteFailures.WithLabelValues("set_member").Inc()
		e.log.Warn().Err(cerr).Str("room_id", roomID).Str("user_id", user.ID).Msg("member cache write failed")
	}
	if cerr := e.cache.AddConnection(roomID, user.ID, connID); cerr != nil {
		metrics.CacheWriteFailures.WithLabelValues("add_connection").Inc()
		e.log.Warn().Err(cerr).Str("room_id", roomID).Str("user_id", user.ID).Msg("connection cache write failed")
	}

	e.MapSession(connID, user.ID, roomID)
	return nil
}

// RemoveConnectionFromMember drops one of the member's connections. Only
// when the last connection is gone does the member actually leave: the
// durable participant row, the cached member record, and the member's
// vote are all removed. Returns whether the member fully left.
//
// A Fast Store failure while counting connections returns (false, nil):
// evicting a user who may still hold live connections is worse than
// leaving a stale membership to expire.
func (e *Engine) RemoveConnectionFromMember(ctx context.Context, roomID, userID, connID string) (left bool, err error) {
	defer func(start time.Time) { metrics.ObserveEngineOp("remove_connection", start, err) }(time.Now())

	e.UnmapSession(connID)

	remaining, cerr := e.cache.RemoveConnection(roomID, userID, connID)
	if cerr != nil {
		e.log.Warn().Err(cerr).Str("room_id", roomID).Str("user_id", userID).Msg("connection removal failed, keeping membership")
		return false, nil
	}
	if remaining > 0 {
		return false, nil
	}

	if err = e.db.DeleteVote(ctx, roomID, userID); err != nil {
		return false, err
	}
	if err = e.db.DeleteParticipant(ctx, roomID, userID); err != nil {
		return false, err
	}

	if cerr := e.cache.RemoveMember(roomID, userID); cerr != nil {
		metrics.CacheWriteFailures.WithLabelValues("remove_member").Inc()
		e.log.Warn().Err(cerr).Str("room_id", roomID).Str("user_id", userID).Msg("member cache removal failed")
	}
	return true, nil
}
