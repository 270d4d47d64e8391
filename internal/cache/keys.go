// Pointdeck - Planning Poker Room State Server
// Copyright 2026 Pointdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pointdeck/pointdeck

package cache

// Key builders for the Fast Store layout. Room, user and connection ids
// are UUIDs and never contain the ':' separator.

func roomKey(roomID string) string {
	return "room:" + roomID
}

func memberKey(roomID, userID string) string {
	return "room:" + roomID + ":member:" + userID
}

func memberPrefix(roomID string) string {
	return "room:" + roomID + ":member:"
}

func voteKey(roomID, userID string) string {
	return "room:" + roomID + ":vote:" + userID
}

func votePrefix(roomID string) string {
	return "room:" + roomID + ":vote:"
}

func connKey(roomID, userID, connID string) string {
	return "room:" + roomID + ":conn:" + userID + ":" + connID
}

func connPrefix(roomID, userID string) string {
	return "room:" + roomID + ":conn:" + userID + ":"
}

func connRoomPrefix(roomID string) string {
	return "room:" + roomID + ":conn:"
}

func roomScopePrefix(roomID string) string {
	return "room:" + roomID + ":"
}

func sessionKey(connID string) string {
	return "sess:" + connID
}
