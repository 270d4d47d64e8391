// Pointdeck - Planning Poker Room State Server
// Copyright 2026 Pointdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pointdeck/pointdeck

package room

import (
	"context"

	"github.com/pointdeck/pointdeck/internal/metrics"
	"github.com/pointdeck/pointdeck/internal/models"
)

// rehydrate writes the room's members and votes back into the Fast Store
// using the same upsert semantics as live writes, and returns the durable
// vote map so the current response is served from the freshly loaded
// values without a second read. Write failures are logged; they never
// abort the enclosing read.
func (e *Engine) rehydrate(ctx context.Context, roomID string, members []models.Member) map[string]string {
	metrics.RehydrationsTotal.WithLabelValues("members").Inc()
	e.log.Info().Str("room_id", roomID).Int("members", len(members)).Msg("rehydrating room from durable store")

	for _, member := range members {
		if err := e.cache.SetMember(roomID, member); err != nil {
			metrics.RehydrationFailures.Inc()
			e.log.Warn().Err(err).Str("room_id", roomID).Str("user_id", member.ID).Msg("member rehydration write failed")
		}
	}

	votes, err := e.db.ListVotes(ctx, roomID)
	if err != nil {
		metrics.RehydrationFailures.Inc()
		e.log.Error().Err(err).Str("room_id", roomID).Msg("vote read during rehydration failed")
		return map[string]string{}
	}
	if len(votes) > 0 {
		e.rehydrateVotes(roomID, votes)
	}
	return votes
}

// rehydrateVotes writes the durable vote map into the Fast Store.
func (e *Engine) rehydrateVotes(roomID string, votes map[string]string) {
	metrics.RehydrationsTotal.WithLabelValues("votes").Inc()
	for userID, value := range votes {
		if err := e.cache.SetVote(roomID, userID, value); err != nil {
			metrics.RehydrationFailures.Inc()
			e.log.Warn().Err(err).Str("room_id", roomID).Str("user_id", userID).Msg("vote rehydration write failed")
		}
	}
}

// ensureHydrated rebuilds the Fast Store member set from the Durable
// Store when it is cold while durable participants exist. Used before
// membership mutations so a join never lands in a half-empty set.
func (e *Engine) ensureHydrated(ctx context.Context, roomID string) {
	members, err := e.cache.GetMembers(roomID)
	if err == nil && len(members) > 0 {
		return
	}

	durableMembers, derr := e.db.ListMembers(ctx, roomID)
	if derr != nil {
		e.log.Error().Err(derr).Str("room_id", roomID).Msg("durable member read during hydration failed")
		return
	}
	if len(durableMembers) > 0 {
		e.rehydrate(ctx, roomID, durableMembers)
	}
}
