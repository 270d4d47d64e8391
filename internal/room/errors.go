// Pointdeck - Planning Poker Room State Server
// Copyright 2026 Pointdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pointdeck/pointdeck

package room

import "errors"

var (
	// ErrRoomNotFound indicates the room is absent from both stores.
	ErrRoomNotFound = errors.New("room not found")

	// ErrSessionNotFound indicates the connection has no live binding.
	ErrSessionNotFound = errors.New("session not found")

	// ErrAlreadyRevealed rejects a vote cast after the room was revealed.
	ErrAlreadyRevealed = errors.New("votes already revealed")

	// ErrForbidden indicates the caller's authorization check failed.
	// The engine never returns it itself; the transport collaborator
	// uses it when a host-only action is attempted by a non-host.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidVotingSystem rejects an unknown voting system identifier.
	ErrInvalidVotingSystem = errors.New("invalid voting system")

	// ErrInvalidRevealPolicy rejects an unknown reveal policy.
	ErrInvalidRevealPolicy = errors.New("invalid reveal policy")
)
