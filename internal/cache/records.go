// Pointdeck - Planning Poker Room State Server
// Copyright 2026 Pointdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pointdeck/pointdeck

package cache

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/pointdeck/pointdeck/internal/models"
)

// recordSchemaVersion is bumped whenever a serialized record shape
// changes. Decoding rejects any other version, so a stale record after an
// upgrade reads as a miss and rehydration rebuilds it.
const recordSchemaVersion = 1

// roomRecord is the serialized room metadata entry.
type roomRecord struct {
	Schema           int       `json:"schema"`
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	HostID           string    `json:"hostId"`
	VotingSystem     string    `json:"votingSystem"`
	RevealPolicy     string    `json:"revealPolicy"`
	CountdownEnabled bool      `json:"countdownEnabled"`
	Revealed         bool      `json:"revealed"`
	CreatedAt        time.Time `json:"createdAt"`
}

// memberRecord is the serialized member entry. JoinedAt keeps state
// snapshots ordered without a durable round-trip.
type memberRecord struct {
	Schema   int       `json:"schema"`
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joinedAt"`
}

// sessionRecord is the serialized connection binding.
type sessionRecord struct {
	Schema int    `json:"schema"`
	UserID string `json:"userId"`
	RoomID string `json:"roomId"`
}

func encodeRoom(room *models.Room) ([]byte, error) {
	return json.Marshal(roomRecord{
		Schema:           recordSchemaVersion,
		ID:               room.ID,
		Name:             room.Name,
		HostID:           room.HostID,
		VotingSystem:     string(room.VotingSystem),
		RevealPolicy:     string(room.RevealPolicy),
		CountdownEnabled: room.CountdownEnabled,
		Revealed:         room.Revealed,
		CreatedAt:        room.CreatedAt,
	})
}

func decodeRoom(data []byte) (*models.Room, error) {
	var rec roomRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode room record: %w", err)
	}
	if rec.Schema != recordSchemaVersion {
		return nil, fmt.Errorf("room record schema %d: %w", rec.Schema, ErrNotFound)
	}
	return &models.Room{
		ID:               rec.ID,
		Name:             rec.Name,
		HostID:           rec.HostID,
		VotingSystem:     models.VotingSystem(rec.VotingSystem),
		RevealPolicy:     models.RevealPolicy(rec.RevealPolicy),
		CountdownEnabled: rec.CountdownEnabled,
		Revealed:         rec.Revealed,
		CreatedAt:        rec.CreatedAt,
	}, nil
}

func encodeMember(member models.Member) ([]byte, error) {
	return json.Marshal(memberRecord{
		Schema:   recordSchemaVersion,
		ID:       member.ID,
		Name:     member.Name,
		JoinedAt: member.JoinedAt,
	})
}

func decodeMember(data []byte) (models.Member, error) {
	var rec memberRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return models.Member{}, fmt.Errorf("decode member record: %w", err)
	}
	if rec.Schema != recordSchemaVersion {
		return models.Member{}, fmt.Errorf("member record schema %d: %w", rec.Schema, ErrNotFound)
	}
	return models.Member{ID: rec.ID, Name: rec.Name, JoinedAt: rec.JoinedAt}, nil
}

func encodeSession(binding models.SessionBinding) ([]byte, error) {
	return json.Marshal(sessionRecord{
		Schema: recordSchemaVersion,
		UserID: binding.UserID,
		RoomID: binding.RoomID,
	})
}

func decodeSession(data []byte) (models.SessionBinding, error) {
	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return models.SessionBinding{}, fmt.Errorf("decode session record: %w", err)
	}
	if rec.Schema != recordSchemaVersion {
		return models.SessionBinding{}, fmt.Errorf("session record schema %d: %w", rec.Schema, ErrNotFound)
	}
	return models.SessionBinding{UserID: rec.UserID, RoomID: rec.RoomID}, nil
}
