// Pointdeck - Planning Poker Room State Server
// Copyright 2026 Pointdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pointdeck/pointdeck

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/pointdeck/pointdeck/internal/logging"
	"github.com/pointdeck/pointdeck/internal/models"
	"github.com/pointdeck/pointdeck/internal/room"
	"github.com/pointdeck/pointdeck/internal/validation"
)

// respondJSON writes a success envelope.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	writeEnvelope(w, status, &models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}

// respondError writes an error envelope, logging the underlying error
// when one is supplied.
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().Str("code", code).Err(err).Msg("api error")
	}
	writeEnvelope(w, status, &models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error:    &models.APIError{Code: code, Message: message},
	})
}

func writeEnvelope(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("failed to write response")
	}
}

// respondEngineError maps engine sentinels to HTTP statuses. Anything
// unmapped is an internal failure.
func respondEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, room.ErrRoomNotFound):
		respondError(w, http.StatusNotFound, "ROOM_NOT_FOUND", "room not found", nil)
	case errors.Is(err, room.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "session not found", nil)
	case errors.Is(err, room.ErrAlreadyRevealed):
		respondError(w, http.StatusConflict, "ALREADY_REVEALED", "votes are already revealed", nil)
	case errors.Is(err, room.ErrForbidden):
		respondError(w, http.StatusForbidden, "FORBIDDEN", "operation not permitted", nil)
	case errors.Is(err, room.ErrInvalidVotingSystem):
		respondError(w, http.StatusBadRequest, "INVALID_VOTING_SYSTEM", "unknown voting system", nil)
	case errors.Is(err, room.ErrInvalidRevealPolicy):
		respondError(w, http.StatusBadRequest, "INVALID_REVEAL_POLICY", "unknown reveal policy", nil)
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", err)
	}
}

// getIntParam extracts an integer query parameter with a default.
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// decodeBody decodes a JSON request body into dst and validates it.
// Returns false after writing the error response when the body is bad.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "request body is not valid JSON", nil)
		return false
	}
	if verr := validation.ValidateStruct(dst); verr != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", verr.Error(), nil)
		return false
	}
	return true
}
