// Pointdeck - Planning Poker Room State Server
// Copyright 2026 Pointdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pointdeck/pointdeck

// Package database is the Durable Store: canonical records for users,
// rooms, votes and participation, backed by DuckDB through database/sql.
//
// The Durable Store is the integrity anchor of the Room State Store.
// Entries never expire; they are removed only by explicit deletion. Each
// per-row operation (upsert/delete) is atomic individually; there are no
// cross-table transactions because each table's invariant can be
// independently re-established through cache rehydration.
package database
