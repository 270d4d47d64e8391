// Pointdeck - Planning Poker Room State Server
// Copyright 2026 Pointdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pointdeck/pointdeck

package models

import "time"

// Vote is a cast vote, unique per (room, user). Absence of a record means
// "has not voted"; an empty value is equivalent to absence and deletes
// the record in both stores.
type Vote struct {
	RoomID    string    `json:"roomId"`
	UserID    string    `json:"userId"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"createdAt"`
}
