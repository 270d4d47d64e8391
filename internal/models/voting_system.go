// Pointdeck - Planning Poker Room State Server
// Copyright 2026 Pointdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pointdeck/pointdeck

package models

// VotingSystem identifies the card deck a room votes with.
type VotingSystem string

const (
	VotingSystemFibonacci         VotingSystem = "fibonacci"
	VotingSystemModifiedFibonacci VotingSystem = "modified-fibonacci"
	VotingSystemTShirt            VotingSystem = "tshirt"
	VotingSystemPowersOfTwo       VotingSystem = "powers-of-two"
)

// votingSystemDecks maps each system to its card values. The "?" card is
// the standard abstain/unsure option in every deck.
var votingSystemDecks = map[VotingSystem][]string{
	VotingSystemFibonacci:         {"0", "1", "2", "3", "5", "8", "13", "21", "34", "55", "89", "?"},
	VotingSystemModifiedFibonacci: {"0", "0.5", "1", "2", "3", "5", "8", "13", "20", "40", "100", "?"},
	VotingSystemTShirt:            {"XS", "S", "M", "L", "XL", "XXL", "?"},
	VotingSystemPowersOfTwo:       {"1", "2", "4", "8", "16", "32", "64", "?"},
}

// Valid reports whether s is a known voting system.
func (s VotingSystem) Valid() bool {
	_, ok := votingSystemDecks[s]
	return ok
}

// Deck returns the card values for the system, or nil if unknown.
func (s VotingSystem) Deck() []string {
	deck, ok := votingSystemDecks[s]
	if !ok {
		return nil
	}
	out := make([]string, len(deck))
	copy(out, deck)
	return out
}

// VotingSystems returns the catalog of known systems in stable order.
func VotingSystems() []VotingSystem {
	return []VotingSystem{
		VotingSystemFibonacci,
		VotingSystemModifiedFibonacci,
		VotingSystemTShirt,
		VotingSystemPowersOfTwo,
	}
}
