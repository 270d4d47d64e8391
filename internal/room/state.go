// Pointdeck - Planning Poker Room State Server
// Copyright 2026 Pointdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pointdeck/pointdeck

package room

import (
	"context"
	"time"

	"github.com/pointdeck/pointdeck/internal/metrics"
	"github.com/pointdeck/pointdeck/internal/models"
)

// GetRoomState computes the derived, viewer-specific room snapshot.
//
// Visibility: once revealed, every member's vote value is exposed to
// every viewer. While unrevealed, the votes map holds at most the
// viewer's own value; other members are represented solely by HasVoted.
//
// The read never fails because the Fast Store is cold or erroring: a
// cold member set or missing vote entries trigger rehydration from the
// Durable Store, and the freshly loaded values serve this response
// directly.
func (e *Engine) GetRoomState(ctx context.Context, roomID, viewerID string) (state *models.RoomState, err error) {
	defer func(start time.Time) { metrics.ObserveEngineOp("get_room_state", start, err) }(time.Now())

	room, err := e.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	members, votes := e.assembleMembers(ctx, roomID)
	return buildState(room, members, votes, viewerID), nil
}

// assembleMembers gathers the member list and vote map, rehydrating
// whichever of the two the Fast Store has lost. Failures degrade to the
// best data assembled from whichever source responded.
func (e *Engine) assembleMembers(ctx context.Context, roomID string) ([]models.Member, map[string]string) {
	members, err := e.cache.GetMembers(roomID)
	if err != nil {
		metrics.CacheFallbacks.WithLabelValues("get_members").Inc()
		e.log.Debug().Err(err).Str("room_id", roomID).Msg("fast store member read failed, falling back")
		members = nil
	}

	if len(members) == 0 {
		durableMembers, derr := e.db.ListMembers(ctx, roomID)
		if derr != nil {
			e.log.Error().Err(derr).Str("room_id", roomID).Msg("durable member read failed")
			return members, map[string]string{}
		}
		if len(durableMembers) > 0 {
			// Cache was cold while the room has participants.
			votes := e.rehydrate(ctx, roomID, durableMembers)
			return durableMembers, votes
		}
		return durableMembers, map[string]string{}
	}

	votes, verr := e.cache.GetVotes(roomID)
	if verr != nil || len(votes) == 0 {
		// Either the vote read failed or every vote entry is gone while
		// members remain. The Durable Store decides whether votes exist.
		durableVotes, derr := e.db.ListVotes(ctx, roomID)
		if derr != nil {
			e.log.Error().Err(derr).Str("room_id", roomID).Msg("durable vote read failed")
			if votes == nil {
				votes = map[string]string{}
			}
			return members, votes
		}
		if len(durableVotes) > 0 {
			e.rehydrateVotes(roomID, durableVotes)
		}
		return members, durableVotes
	}

	return members, votes
}

// buildState derives the RoomState for one viewer. Votes of users no
// longer in the member list are not exposed.
func buildState(room *models.Room, members []models.Member, votes map[string]string, viewerID string) *models.RoomState {
	state := &models.RoomState{
		ID:               room.ID,
		Name:             room.Name,
		HostID:           room.HostID,
		VotingSystem:     room.VotingSystem,
		RevealPolicy:     room.RevealPolicy,
		CountdownEnabled: room.CountdownEnabled,
		Revealed:         room.Revealed,
		Members:          make([]models.MemberState, 0, len(members)),
		Votes:            make(map[string]string),
	}

	for _, m := range members {
		value, hasVoted := votes[m.ID]
		state.Members = append(state.Members, models.MemberState{
			ID:       m.ID,
			Name:     m.Name,
			HasVoted: hasVoted,
		})
		if !hasVoted {
			continue
		}
		if room.Revealed || m.ID == viewerID {
			state.Votes[m.ID] = value
		}
	}

	return state
}
