// Pointdeck - Planning Poker Room State Server
// Copyright 2026 Pointdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pointdeck/pointdeck

// Package supervisor arranges long-running components under a suture
// tree. The messaging layer (WebSocket hub) and the API layer (HTTP
// server) sit in separate child supervisors so a hub crash restarts
// fan-out without tearing down the HTTP listener.
package supervisor
