// Pointdeck - Planning Poker Room State Server
// Copyright 2026 Pointdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pointdeck/pointdeck

package cache

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/pointdeck/pointdeck/internal/config"
	"github.com/pointdeck/pointdeck/internal/logging"
	"github.com/pointdeck/pointdeck/internal/metrics"
)

// ErrNotFound indicates the requested entry is absent or expired.
var ErrNotFound = errors.New("cache entry not found")

// Store is the Fast Store handle. One long-lived instance is constructed
// at startup and injected into the room engine.
type Store struct {
	db  *badger.DB
	ttl time.Duration
	cb  *gobreaker.CircuitBreaker[any]
}

// Open opens the Badger-backed store with the configured TTL window.
func Open(cfg *config.CacheConfig) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
			return nil, fmt.Errorf("create cache directory %s: %w", cfg.Dir, err)
		}
		opts = badger.DefaultOptions(cfg.Dir)
	}
	opts.Logger = nil // Badger's own logger is too chatty; we log state changes ourselves

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	return &Store{
		db:  db,
		ttl: cfg.TTL,
		cb:  newBreaker(),
	}, nil
}

// newBreaker builds the circuit breaker guarding every store operation.
// Misses are successes; only I/O failures count toward tripping.
func newBreaker() *gobreaker.CircuitBreaker[any] {
	name := "fast-store"
	metrics.CacheBreakerState.Set(0) // 0 = closed

	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Fast Store circuit breaker state change")
			metrics.CacheBreakerState.Set(breakerStateValue(to))
		},
	})
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}

// do runs one store operation through the breaker.
func (s *Store) do(fn func() error) error {
	_, err := s.cb.Execute(func() (any, error) {
		return nil, fn()
	})
	return err
}

// TTL returns the configured inactivity window.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Healthy probes the store through the breaker with an empty read
// transaction. Returns the breaker's error while it is open.
func (s *Store) Healthy() error {
	return s.do(func() error {
		return s.db.View(func(*badger.Txn) error { return nil })
	})
}

// Close closes the underlying Badger instance.
func (s *Store) Close() error {
	return s.db.Close()
}

// entry builds a TTL-bounded Badger entry.
func (s *Store) entry(key string, value []byte) *badger.Entry {
	return badger.NewEntry([]byte(key), value).WithTTL(s.ttl)
}

// get reads one key, mapping Badger's not-found to ErrNotFound.
func (s *Store) get(key string) ([]byte, error) {
	var out []byte
	err := s.do(func() error {
		return s.db.View(func(txn *badger.Txn) error {
			item, err := txn.Get([]byte(key))
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			if err != nil {
				return fmt.Errorf("get %s: %w", key, err)
			}
			return item.Value(func(val []byte) error {
				out = append([]byte(nil), val...)
				return nil
			})
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// set writes one TTL-bounded key.
func (s *Store) set(key string, value []byte) error {
	return s.do(func() error {
		return s.db.Update(func(txn *badger.Txn) error {
			return txn.SetEntry(s.entry(key, value))
		})
	})
}

// delete removes one key; deleting an absent key is not an error.
func (s *Store) delete(key string) error {
	return s.do(func() error {
		return s.db.Update(func(txn *badger.Txn) error {
			err := txn.Delete([]byte(key))
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		})
	})
}

// deletePrefix removes every key under the prefix in one transaction.
func (s *Store) deletePrefix(prefix string) error {
	return s.do(func() error {
		return s.db.Update(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.PrefetchValues = false
			it := txn.NewIterator(opts)
			defer it.Close()

			p := []byte(prefix)
			var keys [][]byte
			for it.Seek(p); it.ValidForPrefix(p); it.Next() {
				keys = append(keys, it.Item().KeyCopy(nil))
			}
			for _, key := range keys {
				if err := txn.Delete(key); err != nil {
					return fmt.Errorf("delete %s: %w", key, err)
				}
			}
			return nil
		})
	})
}

// countPrefix counts live keys under the prefix.
func (s *Store) countPrefix(prefix string) (int, error) {
	count := 0
	err := s.do(func() error {
		return s.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.PrefetchValues = false
			it := txn.NewIterator(opts)
			defer it.Close()

			p := []byte(prefix)
			for it.Seek(p); it.ValidForPrefix(p); it.Next() {
				count++
			}
			return nil
		})
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
