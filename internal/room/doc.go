// Pointdeck - Planning Poker Room State Server
// Copyright 2026 Pointdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pointdeck/pointdeck

// Package room implements the Room State Engine: the orchestrator that
// keeps the Fast Store view of a room synchronized with the Durable
// Store, tracks multi-connection presence, enforces the vote lifecycle
// and computes viewer-specific state snapshots.
//
// Store roles are strict: the Durable Store is the integrity anchor, so
// write failures on the primary mutating paths (create, cast, reveal,
// reset, delete) surface to the caller. The Fast Store is a derived
// cache, so its write failures are logged and its read failures fall
// back to the Durable Store, self-healing via rehydration.
//
// The engine exposes unchecked primitives: the transport collaborator
// authenticates the user and performs host/policy authorization before
// calling in.
package room
