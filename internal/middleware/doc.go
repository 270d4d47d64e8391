// Pointdeck - Planning Poker Room State Server
// Copyright 2026 Pointdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pointdeck/pointdeck

// Package middleware provides HTTP middleware shared across the API:
// request IDs, structured request logging, Prometheus instrumentation,
// and caller identity extraction.
package middleware
