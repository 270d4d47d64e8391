// Pointdeck - Planning Poker Room State Server
// Copyright 2026 Pointdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pointdeck/pointdeck

package models

// MemberState is one room member as seen in a state snapshot. HasVoted is
// always populated; the vote value itself lives in RoomState.Votes and is
// subject to the visibility rule.
type MemberState struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	HasVoted bool   `json:"hasVoted"`
}

// RoomState is the derived, viewer-specific snapshot of a room. It is
// never stored; the engine computes it per request.
//
// Visibility rule for Votes: while the room is unrevealed, the map holds
// at most the viewer's own vote. Once revealed, it holds every member's
// vote value.
type RoomState struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	HostID           string            `json:"hostId"`
	VotingSystem     VotingSystem      `json:"votingSystem"`
	RevealPolicy     RevealPolicy      `json:"revealPolicy"`
	CountdownEnabled bool              `json:"countdownEnabled"`
	Revealed         bool              `json:"revealed"`
	Members          []MemberState     `json:"members"`
	Votes            map[string]string `json:"votes"`
}
