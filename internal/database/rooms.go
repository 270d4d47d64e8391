// Pointdeck - Planning Poker Room State Server
// Copyright 2026 Pointdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pointdeck/pointdeck

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/pointdeck/pointdeck/internal/models"
)

// InsertRoom creates the canonical room row. This insert is authoritative:
// room creation fails if and only if this fails.
func (db *DB) InsertRoom(ctx context.Context, room *models.Room) error {
	query := `
		INSERT INTO rooms (id, name, host_id, voting_system, reveal_policy, countdown_enabled, revealed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.conn.ExecContext(ctx, query,
		room.ID, room.Name, room.HostID, string(room.VotingSystem),
		string(room.RevealPolicy), room.CountdownEnabled, room.Revealed, room.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert room %s: %w", room.ID, err)
	}
	return nil
}

// GetRoom returns the room by id, or ErrNotFound.
func (db *DB) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	query := `
		SELECT id, name, host_id, voting_system, reveal_policy, countdown_enabled, revealed, created_at
		FROM rooms WHERE id = ?
	`

	var room models.Room
	var votingSystem, revealPolicy string
	err := db.conn.QueryRowContext(ctx, query, id).Scan(
		&room.ID, &room.Name, &room.HostID, &votingSystem,
		&revealPolicy, &room.CountdownEnabled, &room.Revealed, &room.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get room %s: %w", id, err)
	}

	room.VotingSystem = models.VotingSystem(votingSystem)
	room.RevealPolicy = models.RevealPolicy(revealPolicy)
	return &room, nil
}

// UpdateRoomSettings writes only the patch's supplied fields. A patch with
// no fields is a no-op.
func (db *DB) UpdateRoomSettings(ctx context.Context, id string, patch models.RoomSettingsPatch) error {
	if patch.Empty() {
		return nil
	}

	var sets []string
	var args []interface{}

	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.VotingSystem != nil {
		sets = append(sets, "voting_system = ?")
		args = append(args, string(*patch.VotingSystem))
	}
	if patch.RevealPolicy != nil {
		sets = append(sets, "reveal_policy = ?")
		args = append(args, string(*patch.RevealPolicy))
	}
	if patch.CountdownEnabled != nil {
		sets = append(sets, "countdown_enabled = ?")
		args = append(args, *patch.CountdownEnabled)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE rooms SET %s WHERE id = ?", strings.Join(sets, ", "))

	res, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update room %s settings: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetRevealed flips the revealed flag in the canonical record.
func (db *DB) SetRevealed(ctx context.Context, id string, revealed bool) error {
	res, err := db.conn.ExecContext(ctx, `UPDATE rooms SET revealed = ? WHERE id = ?`, revealed, id)
	if err != nil {
		return fmt.Errorf("set room %s revealed=%t: %w", id, revealed, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteRoom removes the room and its dependent rows. Dependents go first
// so a partial failure never leaves orphaned votes or participants behind
// a deleted room.
func (db *DB) DeleteRoom(ctx context.Context, id string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM votes WHERE room_id = ?`, id); err != nil {
		return fmt.Errorf("delete votes for room %s: %w", id, err)
	}
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM participants WHERE room_id = ?`, id); err != nil {
		return fmt.Errorf("delete participants for room %s: %w", id, err)
	}
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete room %s: %w", id, err)
	}
	return nil
}

// ListRoomsForUser returns the union of rooms the user hosts and rooms the
// user participates in, de-duplicated (host attribution wins), newest
// first, paginated by limit and offset.
func (db *DB) ListRoomsForUser(ctx context.Context, userID string, limit, offset int) ([]models.Room, error) {
	query := `
		SELECT id, name, host_id, voting_system, reveal_policy, countdown_enabled, revealed, created_at
		FROM rooms
		WHERE host_id = ?
		   OR id IN (SELECT room_id FROM participants WHERE user_id = ?)
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?
	`

	rows, err := db.conn.QueryContext(ctx, query, userID, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list rooms for user %s: %w", userID, err)
	}
	defer closeWithLog(rows, "rooms result set")

	var rooms []models.Room
	for rows.Next() {
		var room models.Room
		var votingSystem, revealPolicy string
		if err := rows.Scan(
			&room.ID, &room.Name, &room.HostID, &votingSystem,
			&revealPolicy, &room.CountdownEnabled, &room.Revealed, &room.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan room row: %w", err)
		}
		room.VotingSystem = models.VotingSystem(votingSystem)
		room.RevealPolicy = models.RevealPolicy(revealPolicy)
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate room rows: %w", err)
	}
	return rooms, nil
}
