// Pointdeck - Planning Poker Room State Server
// Copyright 2026 Pointdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pointdeck/pointdeck

package database

import (
	"context"
	"fmt"
	"time"
)

// createTables creates the schema if it does not exist. DuckDB applies
// each statement atomically; CREATE IF NOT EXISTS makes startup
// idempotent across restarts.
func (db *DB) createTables() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id         VARCHAR PRIMARY KEY,
			name       VARCHAR NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS rooms (
			id                VARCHAR PRIMARY KEY,
			name              VARCHAR NOT NULL,
			host_id           VARCHAR NOT NULL,
			voting_system     VARCHAR NOT NULL,
			reveal_policy     VARCHAR NOT NULL,
			countdown_enabled BOOLEAN NOT NULL DEFAULT FALSE,
			revealed          BOOLEAN NOT NULL DEFAULT FALSE,
			created_at        TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS votes (
			room_id    VARCHAR NOT NULL,
			user_id    VARCHAR NOT NULL,
			value      VARCHAR NOT NULL,
			created_at TIMESTAMP NOT NULL,
			PRIMARY KEY (room_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS participants (
			room_id   VARCHAR NOT NULL,
			user_id   VARCHAR NOT NULL,
			joined_at TIMESTAMP NOT NULL,
			PRIMARY KEY (room_id, user_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rooms_host ON rooms (host_id)`,
		`CREATE INDEX IF NOT EXISTS idx_participants_user ON participants (user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_votes_room ON votes (room_id)`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}
