// Pointdeck - Planning Poker Room State Server
// Copyright 2026 Pointdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pointdeck/pointdeck

package models

import "time"

// User is the canonical user record, owned by the Durable Store and
// mirrored opportunistically into Fast Store member records.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Participant is a (room, user) membership fact. Unique per pair;
// re-joining refreshes JoinedAt rather than erroring.
type Participant struct {
	RoomID   string    `json:"roomId"`
	UserID   string    `json:"userId"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Member is a participant joined with its user record, the shape the
// engine assembles room state from.
type Member struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joinedAt"`
}

// SessionBinding resolves a connection id to its (user, room) pair. The
// binding is TTL-bounded in the Fast Store; many bindings may reference
// the same user.
type SessionBinding struct {
	UserID string `json:"userId"`
	RoomID string `json:"roomId"`
}
