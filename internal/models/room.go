// Pointdeck - Planning Poker Room State Server
// Copyright 2026 Pointdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pointdeck/pointdeck

// Package models defines the domain types shared across the Room State
// Store: durable records (User, Room, Participant, Vote) and the derived,
// never-stored RoomState snapshot.
package models

import "time"

// RevealPolicy controls who may trigger reveal and reset in a room.
type RevealPolicy string

const (
	// RevealPolicyHost restricts reveal/reset to the room's host.
	RevealPolicyHost RevealPolicy = "host"

	// RevealPolicyEveryone allows any member to reveal/reset.
	RevealPolicyEveryone RevealPolicy = "everyone"
)

// Valid reports whether p is a known reveal policy.
func (p RevealPolicy) Valid() bool {
	return p == RevealPolicyHost || p == RevealPolicyEveryone
}

// Room is the canonical room record. The Durable Store owns it; the Fast
// Store holds a TTL-bounded cached copy refreshed on every mutation.
type Room struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	HostID           string       `json:"hostId"`
	VotingSystem     VotingSystem `json:"votingSystem"`
	RevealPolicy     RevealPolicy `json:"revealPolicy"`
	CountdownEnabled bool         `json:"countdownEnabled"`
	Revealed         bool         `json:"revealed"`
	CreatedAt        time.Time    `json:"createdAt"`
}

// RoomSettingsPatch is a partial settings update. Nil fields are left
// untouched.
type RoomSettingsPatch struct {
	Name             *string       `json:"name,omitempty"`
	VotingSystem     *VotingSystem `json:"votingSystem,omitempty"`
	RevealPolicy     *RevealPolicy `json:"revealPolicy,omitempty"`
	CountdownEnabled *bool         `json:"countdownEnabled,omitempty"`
}

// Empty reports whether the patch carries no fields at all.
func (p RoomSettingsPatch) Empty() bool {
	return p.Name == nil && p.VotingSystem == nil && p.RevealPolicy == nil && p.CountdownEnabled == nil
}

// Apply copies the patch's non-nil fields onto the room.
func (p RoomSettingsPatch) Apply(r *Room) {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.VotingSystem != nil {
		r.VotingSystem = *p.VotingSystem
	}
	if p.RevealPolicy != nil {
		r.RevealPolicy = *p.RevealPolicy
	}
	if p.CountdownEnabled != nil {
		r.CountdownEnabled = *p.CountdownEnabled
	}
}
