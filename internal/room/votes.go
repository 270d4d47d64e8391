// Pointdeck - Planning Poker Room State Server
// Copyright 2026 Pointdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pointdeck/pointdeck

package room

import (
	"context"
	"time"

	"github.com/pointdeck/pointdeck/internal/metrics"
)

// CastVote records or retracts a member's vote. An empty value retracts.
// Votes are rejected once the round is revealed; a re-vote before reveal
// overwrites the previous value. The durable write is authoritative and
// the Fast Store mirror is best-effort.
func (e *Engine) CastVote(ctx context.Context, roomID, userID, value string) (err error) {
	defer func(start time.Time) { metrics.ObserveEngineOp("cast_vote", start, err) }(time.Now())

	room, err := e.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if room.Revealed {
		return ErrAlreadyRevealed
	}

	if value == "" {
		if err = e.db.DeleteVote(ctx, roomID, userID); err != nil {
			return err
		}
		if cerr := e.cache.DeleteVote(roomID, userID); cerr != nil {
			metrics.CacheWriteFailures.WithLabelValues("delete_vote").Inc()
			e.log.Warn().Err(cerr).Str("room_id", roomID).Str("user_id", userID).Msg("vote cache delete failed")
		}
		return nil
	}

	if err = e.db.UpsertVote(ctx, roomID, userID, value); err != nil {
		return err
	}
	if cerr := e.cache.SetVote(roomID, userID, value); cerr != nil {
		metrics.CacheWriteFailures.WithLabelValues("set_vote").Inc()
		e.log.Warn().Err(cerr).Str("room_id", roomID).Str("user_id", userID).Msg("vote cache write failed")
	}
	return nil
}

// RevealVotes transitions the round to revealed. When the room has its
// countdown enabled the reveal is deferred and (true, nil) is returned
// so the caller can announce the countdown; the actual flip happens
// after the countdown window unless a reset or delete intervenes.
// Revealing an already-revealed round is a no-op.
func (e *Engine) RevealVotes(ctx context.Context, roomID string) (countdown bool, err error) {
	defer func(start time.Time) { metrics.ObserveEngineOp("reveal_votes", start, err) }(time.Now())

	room, err := e.GetRoom(ctx, roomID)
	if err != nil {
		return false, err
	}
	if room.Revealed {
		return false, nil
	}

	if room.CountdownEnabled {
		e.scheduleReveal(roomID)
		return true, nil
	}

	return false, e.doReveal(ctx, roomID)
}

// ResetVotes clears every vote and returns the round to hidden. Any
// in-flight countdown reveal is invalidated so it cannot flip the fresh
// round. Durable failures escalate; Fast Store cleanup is best-effort.
func (e *Engine) ResetVotes(ctx context.Context, roomID string) (err error) {
	defer func(start time.Time) { metrics.ObserveEngineOp("reset_votes", start, err) }(time.Now())

	room, err := e.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}

	e.bumpCountdownSeq(roomID)

	if err = e.db.SetRevealed(ctx, roomID, false); err != nil {
		return err
	}
	if err = e.db.DeleteVotesForRoom(ctx, roomID); err != nil {
		return err
	}

	room.Revealed = false
	e.seedRoom(room)
	if cerr := e.cache.DeleteVotesForRoom(roomID); cerr != nil {
		metrics.CacheWriteFailures.WithLabelValues("delete_votes").Inc()
		e.log.Warn().Err(cerr).Str("room_id", roomID).Msg("vote cache purge failed")
	}
	return nil
}

// doReveal flips the revealed flag in both stores, durable first.
func (e *Engine) doReveal(ctx context.Context, roomID string) error {
	if err := e.db.SetRevealed(ctx, roomID, true); err != nil {
		return err
	}

	room, err := e.db.GetRoom(ctx, roomID)
	if err != nil {
		e.log.Warn().Err(err).Str("room_id", roomID).Msg("room re-read after reveal failed")
		return nil
	}
	e.seedRoom(room)
	return nil
}
