// Pointdeck - Planning Poker Room State Server
// Copyright 2026 Pointdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pointdeck/pointdeck

// Package websocket provides real-time state push to connected room
// members. The hub tracks clients per room; a room broadcast renders a
// fresh snapshot per viewer, because unrevealed votes are visible only
// to their owner and a shared payload would leak them.
package websocket
