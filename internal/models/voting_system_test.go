// Pointdeck - Planning Poker Room State Server
// Copyright 2026 Pointdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pointdeck/pointdeck

package models

import "testing"

func TestVotingSystemValid(t *testing.T) {
	for _, vs := range VotingSystems() {
		if !vs.Valid() {
			t.Errorf("catalog system %q reported invalid", vs)
		}
	}
	if VotingSystem("planning-dice").Valid() {
		t.Error("unknown system reported valid")
	}
}

func TestVotingSystemDeck(t *testing.T) {
	deck := VotingSystemTShirt.Deck()
	if len(deck) == 0 {
		t.Fatal("tshirt deck is empty")
	}
	if deck[len(deck)-1] != "?" {
		t.Errorf("deck should end with the abstain card, got %q", deck[len(deck)-1])
	}

	// The returned slice is a copy; mutating it must not poison the catalog.
	deck[0] = "mutated"
	if VotingSystemTShirt.Deck()[0] == "mutated" {
		t.Error("Deck returned shared backing array")
	}

	if VotingSystem("bogus").Deck() != nil {
		t.Error("unknown system should have nil deck")
	}
}
