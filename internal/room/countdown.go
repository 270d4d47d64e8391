// Pointdeck - Planning Poker Room State Server
// Copyright 2026 Pointdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pointdeck/pointdeck

package room

import (
	"context"
	"errors"
	"time"

	"github.com/pointdeck/pointdeck/internal/database"
)

// scheduleReveal arms a deferred reveal for the room's current round.
// The timer captures the room's countdown sequence; a reset or delete
// bumps the sequence and the stale timer becomes a no-op. The margin
// gives clients time to finish the countdown animation before the flip.
func (e *Engine) scheduleReveal(roomID string) {
	seq := e.currentCountdownSeq(roomID)
	delay := e.cfg.CountdownDuration + e.cfg.CountdownMargin

	e.log.Debug().Str("room_id", roomID).Dur("delay", delay).Msg("countdown reveal scheduled")
	time.AfterFunc(delay, func() {
		e.completeCountdownReveal(roomID, seq)
	})
}

// CountdownSeconds returns the countdown duration clients should
// display, excluding the server-side margin.
func (e *Engine) CountdownSeconds() float64 {
	return e.cfg.CountdownDuration.Seconds()
}

// completeCountdownReveal performs the deferred flip. It reads the
// Durable Store directly so a stale cached record cannot resurrect a
// round that was reset or deleted while the countdown ran.
func (e *Engine) completeCountdownReveal(roomID string, seq uint64) {
	if e.currentCountdownSeq(roomID) != seq {
		e.log.Debug().Str("room_id", roomID).Msg("countdown reveal superseded, skipping")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	room, err := e.db.GetRoom(ctx, roomID)
	if errors.Is(err, database.ErrNotFound) {
		return
	}
	if err != nil {
		e.log.Error().Err(err).Str("room_id", roomID).Msg("countdown reveal room read failed")
		return
	}
	if room.Revealed {
		return
	}

	if err := e.doReveal(ctx, roomID); err != nil {
		e.log.Error().Err(err).Str("room_id", roomID).Msg("countdown reveal failed")
		return
	}
	e.notifyRevealed(roomID)
}

// notifyRevealed tells the registered listener that a deferred reveal
// completed, so connected clients receive the flipped state without
// polling. Nil when no transport is attached.
func (e *Engine) notifyRevealed(roomID string) {
	e.mu.Lock()
	fn := e.onRevealed
	e.mu.Unlock()
	if fn != nil {
		fn(roomID)
	}
}

// OnRevealed registers the callback invoked after a deferred countdown
// reveal completes. At most one listener; later calls replace earlier.
func (e *Engine) OnRevealed(fn func(roomID string)) {
	e.mu.Lock()
	e.onRevealed = fn
	e.mu.Unlock()
}
