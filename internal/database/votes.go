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

// UpsertVote records or replaces the (room, user) vote value.
func (db *DB) UpsertVote(ctx context.Context, roomID, userID, value string) error {
	query := `
		INSERT INTO votes (room_id, user_id, value, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (room_id, user_id) DO UPDATE SET value = excluded.value, created_at = excluded.created_at
	`
	if _, err := db.conn.ExecContext(ctx, query, roomID, userID, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert vote (%s, %s): %w", roomID, userID, err)
	}
	return nil
}

// DeleteVote removes one vote record. Deleting an absent vote is not an
// error; the end state is the same.
func (db *DB) DeleteVote(ctx context.Context, roomID, userID string) error {
	if _, err := db.conn.ExecContext(ctx,
		`DELETE FROM votes WHERE room_id = ? AND user_id = ?`, roomID, userID); err != nil {
		return fmt.Errorf("delete vote (%s, %s): %w", roomID, userID, err)
	}
	return nil
}

// DeleteVotesForRoom removes every vote record for the room.
func (db *DB) DeleteVotesForRoom(ctx context.Context, roomID string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM votes WHERE room_id = ?`, roomID); err != nil {
		return fmt.Errorf("delete votes for room %s: %w", roomID, err)
	}
	return nil
}

// ListVotes returns the room's votes as a userID -> value map, the shape
// rehydration and state assembly consume.
func (db *DB) ListVotes(ctx context.Context, roomID string) (map[string]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT user_id, value FROM votes WHERE room_id = ?`, roomID)
	if err != nil {
		return nil, fmt.Errorf("list votes for room %s: %w", roomID, err)
	}
	defer closeWithLog(rows, "votes result set")

	votes := make(map[string]string)
	for rows.Next() {
		var userID, value string
		if err := rows.Scan(&userID, &value); err != nil {
			return nil, fmt.Errorf("scan vote row: %w", err)
		}
		votes[userID] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vote rows: %w", err)
	}
	return votes, nil
}
