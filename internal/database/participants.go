// Pointdeck - Planning Poker Room State Server
// Copyright 2026 Pointdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pointdeck/pointdeck

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/pointdeck/pointdeck/internal/models"
)

// UpsertParticipant records the (room, user) membership fact. Re-joining
// refreshes joined_at rather than erroring.
func (db *DB) UpsertParticipant(ctx context.Context, roomID, userID string) error {
	query := `
		INSERT INTO participants (room_id, user_id, joined_at)
		VALUES (?, ?, ?)
		ON CONFLICT (room_id, user_id) DO UPDATE SET joined_at = excluded.joined_at
	`
	if _, err := db.conn.ExecContext(ctx, query, roomID, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert participant (%s, %s): %w", roomID, userID, err)
	}
	return nil
}

// DeleteParticipant removes one membership row.
func (db *DB) DeleteParticipant(ctx context.Context, roomID, userID string) error {
	if _, err := db.conn.ExecContext(ctx,
		`DELETE FROM participants WHERE room_id = ? AND user_id = ?`, roomID, userID); err != nil {
		return fmt.Errorf("delete participant (%s, %s): %w", roomID, userID, err)
	}
	return nil
}

// ListMembers returns the room's participants joined with their user
// records, ordered by join time. This is the rehydration source for the
// Fast Store member set.
func (db *DB) ListMembers(ctx context.Context, roomID string) ([]models.Member, error) {
	query := `
		SELECT u.id, u.name, p.joined_at
		FROM participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.room_id = ?
		ORDER BY p.joined_at, u.id
	`

	rows, err := db.conn.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("list members for room %s: %w", roomID, err)
	}
	defer closeWithLog(rows, "members result set")

	var members []models.Member
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan member row: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate member rows: %w", err)
	}
	return members, nil
}

// CountParticipants returns the number of membership rows for the room.
func (db *DB) CountParticipants(ctx context.Context, roomID string) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM participants WHERE room_id = ?`, roomID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count participants for room %s: %w", roomID, err)
	}
	return count, nil
}
