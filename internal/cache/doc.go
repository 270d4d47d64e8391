// Pointdeck - Planning Poker Room State Server
// Copyright 2026 Pointdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pointdeck/pointdeck

// Package cache is the Fast Store: a TTL-bounded BadgerDB view of live
// room session state, optimized for the frequent reads of an active
// voting round.
//
// Everything in here is derived and reconstructible from the Durable
// Store, so entries may expire or the whole store may be lost without
// violating correctness; the room engine rehydrates on demand. Every
// operation runs behind a circuit breaker so a sick Badger degrades the
// system to durable-only reads instead of adding per-call latency.
//
// Key layout (all entries share one inactivity TTL):
//
//	room:{id}                     room metadata record
//	room:{id}:member:{uid}        member record; key presence == membership
//	room:{id}:vote:{uid}          vote value
//	room:{id}:conn:{uid}:{connID} presence marker, one key per connection
//	sess:{connID}                 session binding {userID, roomID}
package cache
