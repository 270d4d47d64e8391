// Pointdeck - Planning Poker Room State Server
// Copyright 2026 Pointdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pointdeck/pointdeck

package cache

import (
	"github.com/pointdeck/pointdeck/internal/models"
)

// PutSession stores the connection binding. Idempotent: re-mapping the
// same connection overwrites the record and refreshes its TTL.
func (s *Store) PutSession(connID string, binding models.SessionBinding) error {
	data, err := encodeSession(binding)
	if err != nil {
		return err
	}
	return s.set(sessionKey(connID), data)
}

// GetSession resolves a connection id to its (user, room) binding, or
// ErrNotFound if the binding is absent or expired.
func (s *Store) GetSession(connID string) (models.SessionBinding, error) {
	data, err := s.get(sessionKey(connID))
	if err != nil {
		return models.SessionBinding{}, err
	}
	return decodeSession(data)
}

// DeleteSession removes the connection binding.
func (s *Store) DeleteSession(connID string) error {
	return s.delete(sessionKey(connID))
}

// TouchSession refreshes the binding's TTL without changing its contents.
// Transport pings call this so an idle-but-open tab does not lose its
// binding.
func (s *Store) TouchSession(connID string) error {
	binding, err := s.GetSession(connID)
	if err != nil {
		return err
	}
	return s.PutSession(connID, binding)
}
