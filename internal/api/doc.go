// Pointdeck - Planning Poker Room State Server
// Copyright 2026 Pointdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pointdeck/pointdeck

// Package api provides the HTTP surface: a Chi router over the room
// engine plus the WebSocket upgrade endpoint. Identity arrives as an
// X-User-ID header set by the authenticating reverse proxy; this
// service performs no credential verification of its own.
package api
