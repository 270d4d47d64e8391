// Pointdeck - Planning Poker Room State Server
// Copyright 2026 Pointdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pointdeck/pointdeck

package cache

import (
	"strings"

	"github.com/dgraph-io/badger/v4"
)

// AddConnection adds one connection id to a member's presence set.
// Idempotent: re-adding refreshes the entry's TTL.
func (s *Store) AddConnection(roomID, userID, connID string) error {
	return s.set(connKey(roomID, userID, connID), []byte{1})
}

// RemoveConnection removes one connection id from a member's presence set
// and returns the number of connections the member still holds. A zero
// return is the only signal that the member has fully left the room.
func (s *Store) RemoveConnection(roomID, userID, connID string) (int, error) {
	if err := s.delete(connKey(roomID, userID, connID)); err != nil {
		return 0, err
	}
	return s.countPrefix(connPrefix(roomID, userID))
}

// ConnectionCount returns the member's live connection count.
func (s *Store) ConnectionCount(roomID, userID string) (int, error) {
	return s.countPrefix(connPrefix(roomID, userID))
}

// ActiveMemberCount returns how many distinct members hold at least one
// live connection in the room.
func (s *Store) ActiveMemberCount(roomID string) (int, error) {
	users := make(map[string]struct{})
	err := s.do(func() error {
		return s.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.PrefetchValues = false
			it := txn.NewIterator(opts)
			defer it.Close()

			prefix := []byte(connRoomPrefix(roomID))
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				rest := strings.TrimPrefix(string(it.Item().Key()), string(prefix))
				// Key tail is {userID}:{connID}.
				if idx := strings.IndexByte(rest, ':'); idx > 0 {
					users[rest[:idx]] = struct{}{}
				}
			}
			return nil
		})
	})
	if err != nil {
		return 0, err
	}
	return len(users), nil
}
