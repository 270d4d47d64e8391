// Pointdeck - Planning Poker Room State Server
// Copyright 2026 Pointdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pointdeck/pointdeck

package cache

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/pointdeck/pointdeck/internal/models"
)

// SetRoom writes the room metadata record.
func (s *Store) SetRoom(room *models.Room) error {
	data, err := encodeRoom(room)
	if err != nil {
		return err
	}
	return s.set(roomKey(room.ID), data)
}

// GetRoom reads the cached room record, or ErrNotFound on miss.
func (s *Store) GetRoom(roomID string) (*models.Room, error) {
	data, err := s.get(roomKey(roomID))
	if err != nil {
		return nil, err
	}
	return decodeRoom(data)
}

// SetMember upserts one member record into the room's member set.
func (s *Store) SetMember(roomID string, member models.Member) error {
	data, err := encodeMember(member)
	if err != nil {
		return err
	}
	return s.set(memberKey(roomID, member.ID), data)
}

// RemoveMember drops the member record and the member's vote entry.
func (s *Store) RemoveMember(roomID, userID string) error {
	if err := s.delete(memberKey(roomID, userID)); err != nil {
		return err
	}
	return s.delete(voteKey(roomID, userID))
}

// GetMembers scans the room's member set, ordered by join time. An empty
// slice with nil error means the set is cold (or genuinely empty); the
// engine decides which by consulting the Durable Store.
func (s *Store) GetMembers(roomID string) ([]models.Member, error) {
	var members []models.Member
	err := s.do(func() error {
		return s.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.PrefetchValues = true
			it := txn.NewIterator(opts)
			defer it.Close()

			prefix := []byte(memberPrefix(roomID))
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				err := it.Item().Value(func(val []byte) error {
					member, err := decodeMember(val)
					if err != nil {
						// Stale schema reads as a miss; skip so one bad
						// record does not blank the whole set.
						if errors.Is(err, ErrNotFound) {
							return nil
						}
						return err
					}
					members = append(members, member)
					return nil
				})
				if err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(members, func(i, j int) bool {
		if members[i].JoinedAt.Equal(members[j].JoinedAt) {
			return members[i].ID < members[j].ID
		}
		return members[i].JoinedAt.Before(members[j].JoinedAt)
	})
	return members, nil
}

// SetVote writes one member's vote value. The room's other vote keys
// are rewritten in the same transaction so all votes share one TTL
// start: with per-key TTLs a single member's vote could expire alone,
// which reads as not-yet-cast and is invisible to the emptiness check
// that triggers durable reconciliation.
func (s *Store) SetVote(roomID, userID, value string) error {
	return s.do(func() error {
		return s.db.Update(func(txn *badger.Txn) error {
			prefix := []byte(votePrefix(roomID))
			target := voteKey(roomID, userID)

			refresh := make(map[string][]byte)
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				item := it.Item()
				key := string(item.KeyCopy(nil))
				if key == target {
					continue
				}
				val, err := item.ValueCopy(nil)
				if err != nil {
					it.Close()
					return err
				}
				refresh[key] = val
			}
			it.Close()

			for key, val := range refresh {
				if err := txn.SetEntry(s.entry(key, val)); err != nil {
					return err
				}
			}
			return txn.SetEntry(s.entry(target, []byte(value)))
		})
	})
}

// DeleteVote removes one member's vote entry.
func (s *Store) DeleteVote(roomID, userID string) error {
	return s.delete(voteKey(roomID, userID))
}

// DeleteVotesForRoom removes every vote entry for the room.
func (s *Store) DeleteVotesForRoom(roomID string) error {
	return s.deletePrefix(votePrefix(roomID))
}

// GetVotes returns the room's cached votes as a userID -> value map.
func (s *Store) GetVotes(roomID string) (map[string]string, error) {
	votes := make(map[string]string)
	err := s.do(func() error {
		return s.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.PrefetchValues = true
			it := txn.NewIterator(opts)
			defer it.Close()

			prefix := []byte(votePrefix(roomID))
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				item := it.Item()
				userID := strings.TrimPrefix(string(item.Key()), string(prefix))
				err := item.Value(func(val []byte) error {
					votes[userID] = string(val)
					return nil
				})
				if err != nil {
					return fmt.Errorf("read vote %s: %w", item.Key(), err)
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return votes, nil
}

// PurgeRoom removes every Fast Store key scoped to the room: metadata,
// member records, vote entries and per-member connection sets.
func (s *Store) PurgeRoom(roomID string) error {
	if err := s.delete(roomKey(roomID)); err != nil {
		return err
	}
	return s.deletePrefix(roomScopePrefix(roomID))
}
