// Pointdeck - Planning Poker Room State Server
// Copyright 2026 Pointdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pointdeck/pointdeck

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/pointdeck/pointdeck/internal/cache"
	"github.com/pointdeck/pointdeck/internal/config"
	"github.com/pointdeck/pointdeck/internal/database"
	"github.com/pointdeck/pointdeck/internal/models"
	"github.com/pointdeck/pointdeck/internal/room"
	ws "github.com/pointdeck/pointdeck/internal/websocket"
)

type apiHarness struct {
	engine *room.Engine
	server *httptest.Server
}

func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()

	db, err := database.New(&config.DatabaseConfig{
		Path:      filepath.Join(t.TempDir(), "test.duckdb"),
		MaxMemory: "256MB",
	})
	if err != nil {
		t.Fatalf("database.New failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store, err := cache.Open(&config.CacheConfig{InMemory: true, TTL: time.Hour})
	if err != nil {
		t.Fatalf("cache.Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	engine := room.NewEngine(db, store, config.RoomConfig{CountdownDuration: 50 * time.Millisecond})
	hub := ws.NewHub(func(ctx context.Context, roomID, viewerID string) (interface{}, error) {
		return engine.GetRoomState(ctx, roomID, viewerID)
	})
	hub.OnDisconnect(func(roomID, userID, connID string) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, _ = engine.RemoveConnectionFromMember(ctx, roomID, userID, connID)
	})

	hubCtx, hubCancel := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		_ = hub.RunWithContext(hubCtx)
	}()
	t.Cleanup(func() {
		hubCancel()
		<-hubDone
	})

	handler := NewHandler(engine, hub, db, store)
	server := httptest.NewServer(NewRouter(handler, &config.ServerConfig{RateLimitDisabled: true}))
	t.Cleanup(server.Close)

	return &apiHarness{engine: engine, server: server}
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// do issues one request as userID and decodes the response envelope.
func (h *apiHarness) do(t *testing.T, method, path, userID string, body interface{}) (int, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, h.server.URL+path, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return resp.StatusCode, env
}

// createRoom makes a room through the API and returns it.
func (h *apiHarness) createRoom(t *testing.T, hostID string) models.Room {
	t.Helper()
	status, env := h.do(t, http.MethodPost, "/api/v1/rooms", hostID, map[string]string{
		"name":         "Sprint 42",
		"votingSystem": string(models.VotingSystemFibonacci),
	})
	if status != http.StatusCreated {
		t.Fatalf("create room: status %d, error %+v", status, env.Error)
	}
	var rm models.Room
	if err := json.Unmarshal(env.Data, &rm); err != nil {
		t.Fatalf("decode room: %v", err)
	}
	return rm
}

// join registers a member directly against the engine, as the websocket
// handler would on connect.
func (h *apiHarness) join(t *testing.T, roomID, userID, name string) {
	t.Helper()
	user := models.User{ID: userID, Name: name, CreatedAt: time.Now().UTC()}
	if err := h.engine.AddMember(context.Background(), roomID, user, "conn-"+userID); err != nil {
		t.Fatalf("AddMember(%s) failed: %v", userID, err)
	}
}

func TestIdentityRequired(t *testing.T) {
	h := newAPIHarness(t)

	status, env := h.do(t, http.MethodGet, "/api/v1/rooms", "", nil)
	if status != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", status)
	}
	if env.Error == nil || env.Error.Code != "UNAUTHENTICATED" {
		t.Errorf("unexpected error %+v", env.Error)
	}
}

func TestCreateAndGetRoom(t *testing.T) {
	h := newAPIHarness(t)
	created := h.createRoom(t, "host-1")

	if created.HostID != "host-1" {
		t.Errorf("hostId = %s", created.HostID)
	}
	if created.RevealPolicy != models.RevealPolicyHost {
		t.Errorf("default reveal policy = %s", created.RevealPolicy)
	}

	status, env := h.do(t, http.MethodGet, "/api/v1/rooms/"+created.ID, "host-1", nil)
	if status != http.StatusOK {
		t.Fatalf("get room: status %d, error %+v", status, env.Error)
	}
	var state models.RoomState
	if err := json.Unmarshal(env.Data, &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.ID != created.ID || state.Revealed {
		t.Errorf("unexpected state %+v", state)
	}

	t.Run("missing_room", func(t *testing.T) {
		status, env := h.do(t, http.MethodGet, "/api/v1/rooms/nope", "host-1", nil)
		if status != http.StatusNotFound {
			t.Errorf("status = %d, want 404", status)
		}
		if env.Error == nil || env.Error.Code != "ROOM_NOT_FOUND" {
			t.Errorf("unexpected error %+v", env.Error)
		}
	})

	t.Run("invalid_voting_system", func(t *testing.T) {
		status, env := h.do(t, http.MethodPost, "/api/v1/rooms", "host-1", map[string]string{
			"name":         "Bad",
			"votingSystem": "dice",
		})
		if status != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", status)
		}
		if env.Error == nil || env.Error.Code != "INVALID_VOTING_SYSTEM" {
			t.Errorf("unexpected error %+v", env.Error)
		}
	})

	t.Run("missing_name", func(t *testing.T) {
		status, env := h.do(t, http.MethodPost, "/api/v1/rooms", "host-1", map[string]string{
			"votingSystem": string(models.VotingSystemFibonacci),
		})
		if status != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", status)
		}
		if env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
			t.Errorf("unexpected error %+v", env.Error)
		}
	})
}

func TestVoteVisibilityOverHTTP(t *testing.T) {
	h := newAPIHarness(t)
	created := h.createRoom(t, "host-1")
	h.join(t, created.ID, "host-1", "Host")
	h.join(t, created.ID, "u2", "Bob")

	status, env := h.do(t, http.MethodPost, "/api/v1/rooms/"+created.ID+"/vote", "u2", map[string]string{"value": "8"})
	if status != http.StatusOK {
		t.Fatalf("cast vote: status %d, error %+v", status, env.Error)
	}

	getState := func(t *testing.T, viewer string) models.RoomState {
		t.Helper()
		status, env := h.do(t, http.MethodGet, "/api/v1/rooms/"+created.ID, viewer, nil)
		if status != http.StatusOK {
			t.Fatalf("get state: status %d, error %+v", status, env.Error)
		}
		var state models.RoomState
		if err := json.Unmarshal(env.Data, &state); err != nil {
			t.Fatalf("decode state: %v", err)
		}
		return state
	}

	t.Run("voter_sees_own_vote", func(t *testing.T) {
		state := getState(t, "u2")
		if got := state.Votes["u2"]; got != "8" {
			t.Errorf("own vote = %q, want 8", got)
		}
	})

	t.Run("others_see_has_voted_only", func(t *testing.T) {
		state := getState(t, "host-1")
		if _, leaked := state.Votes["u2"]; leaked {
			t.Error("hidden vote value leaked to another viewer")
		}
		for _, m := range state.Members {
			if m.ID == "u2" && !m.HasVoted {
				t.Error("hasVoted flag not set for voter")
			}
		}
	})

	t.Run("reveal_exposes_all_votes", func(t *testing.T) {
		status, env := h.do(t, http.MethodPost, "/api/v1/rooms/"+created.ID+"/reveal", "host-1", nil)
		if status != http.StatusOK {
			t.Fatalf("reveal: status %d, error %+v", status, env.Error)
		}
		state := getState(t, "host-1")
		if !state.Revealed || state.Votes["u2"] != "8" {
			t.Errorf("post-reveal state %+v", state)
		}
	})

	t.Run("vote_after_reveal_conflicts", func(t *testing.T) {
		status, env := h.do(t, http.MethodPost, "/api/v1/rooms/"+created.ID+"/vote", "u2", map[string]string{"value": "13"})
		if status != http.StatusConflict {
			t.Errorf("status = %d, want 409", status)
		}
		if env.Error == nil || env.Error.Code != "ALREADY_REVEALED" {
			t.Errorf("unexpected error %+v", env.Error)
		}
	})

	t.Run("reset_hides_votes_again", func(t *testing.T) {
		status, env := h.do(t, http.MethodPost, "/api/v1/rooms/"+created.ID+"/reset", "host-1", nil)
		if status != http.StatusOK {
			t.Fatalf("reset: status %d, error %+v", status, env.Error)
		}
		state := getState(t, "host-1")
		if state.Revealed || len(state.Votes) != 0 {
			t.Errorf("post-reset state %+v", state)
		}
	})
}

func TestRevealAuthorization(t *testing.T) {
	h := newAPIHarness(t)
	created := h.createRoom(t, "host-1")
	h.join(t, created.ID, "host-1", "Host")
	h.join(t, created.ID, "u2", "Bob")

	t.Run("non_host_forbidden_under_host_policy", func(t *testing.T) {
		status, env := h.do(t, http.MethodPost, "/api/v1/rooms/"+created.ID+"/reveal", "u2", nil)
		if status != http.StatusForbidden {
			t.Errorf("status = %d, want 403", status)
		}
		if env.Error == nil || env.Error.Code != "FORBIDDEN" {
			t.Errorf("unexpected error %+v", env.Error)
		}
	})

	t.Run("everyone_policy_allows_members", func(t *testing.T) {
		policy := models.RevealPolicyEveryone
		status, env := h.do(t, http.MethodPatch, "/api/v1/rooms/"+created.ID, "host-1",
			models.RoomSettingsPatch{RevealPolicy: &policy})
		if status != http.StatusOK {
			t.Fatalf("patch settings: status %d, error %+v", status, env.Error)
		}

		status, env = h.do(t, http.MethodPost, "/api/v1/rooms/"+created.ID+"/reveal", "u2", nil)
		if status != http.StatusOK {
			t.Errorf("reveal by member: status %d, error %+v", status, env.Error)
		}
	})
}

func TestSettingsAndDeleteHostOnly(t *testing.T) {
	h := newAPIHarness(t)
	created := h.createRoom(t, "host-1")

	name := "Renamed"
	t.Run("non_host_cannot_patch", func(t *testing.T) {
		status, _ := h.do(t, http.MethodPatch, "/api/v1/rooms/"+created.ID, "intruder",
			models.RoomSettingsPatch{Name: &name})
		if status != http.StatusForbidden {
			t.Errorf("status = %d, want 403", status)
		}
	})

	t.Run("empty_patch_rejected", func(t *testing.T) {
		status, env := h.do(t, http.MethodPatch, "/api/v1/rooms/"+created.ID, "host-1",
			models.RoomSettingsPatch{})
		if status != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", status)
		}
		if env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
			t.Errorf("unexpected error %+v", env.Error)
		}
	})

	t.Run("invalid_reveal_policy", func(t *testing.T) {
		bad := models.RevealPolicy("anarchy")
		status, env := h.do(t, http.MethodPatch, "/api/v1/rooms/"+created.ID, "host-1",
			models.RoomSettingsPatch{RevealPolicy: &bad})
		if status != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", status)
		}
		if env.Error == nil || env.Error.Code != "INVALID_REVEAL_POLICY" {
			t.Errorf("unexpected error %+v", env.Error)
		}
	})

	t.Run("non_host_cannot_delete", func(t *testing.T) {
		status, _ := h.do(t, http.MethodDelete, "/api/v1/rooms/"+created.ID, "intruder", nil)
		if status != http.StatusForbidden {
			t.Errorf("status = %d, want 403", status)
		}
	})

	t.Run("host_deletes", func(t *testing.T) {
		status, env := h.do(t, http.MethodDelete, "/api/v1/rooms/"+created.ID, "host-1", nil)
		if status != http.StatusOK {
			t.Fatalf("delete: status %d, error %+v", status, env.Error)
		}
		status, _ = h.do(t, http.MethodGet, "/api/v1/rooms/"+created.ID, "host-1", nil)
		if status != http.StatusNotFound {
			t.Errorf("status after delete = %d, want 404", status)
		}
	})
}

func TestMemberCountEndpoint(t *testing.T) {
	h := newAPIHarness(t)
	created := h.createRoom(t, "host-1")
	h.join(t, created.ID, "host-1", "Host")
	h.join(t, created.ID, "u2", "Bob")

	status, env := h.do(t, http.MethodGet, "/api/v1/rooms/"+created.ID+"/members/count", "host-1", nil)
	if status != http.StatusOK {
		t.Fatalf("member count: status %d, error %+v", status, env.Error)
	}
	var data map[string]int
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode count: %v", err)
	}
	if data["count"] != 2 {
		t.Errorf("count = %d, want 2", data["count"])
	}
}

func TestListRoomsScopedToCaller(t *testing.T) {
	h := newAPIHarness(t)
	mine := h.createRoom(t, "host-1")
	h.createRoom(t, "host-2")

	status, env := h.do(t, http.MethodGet, "/api/v1/rooms", "host-1", nil)
	if status != http.StatusOK {
		t.Fatalf("list rooms: status %d, error %+v", status, env.Error)
	}
	var rooms []models.Room
	if err := json.Unmarshal(env.Data, &rooms); err != nil {
		t.Fatalf("decode rooms: %v", err)
	}
	if len(rooms) != 1 || rooms[0].ID != mine.ID {
		t.Errorf("unexpected rooms %+v", rooms)
	}
}

func TestVotingSystemsOpenEndpoint(t *testing.T) {
	h := newAPIHarness(t)

	status, env := h.do(t, http.MethodGet, "/api/v1/voting-systems", "", nil)
	if status != http.StatusOK {
		t.Fatalf("voting systems: status %d, error %+v", status, env.Error)
	}
	var catalog []struct {
		ID   string   `json:"id"`
		Deck []string `json:"deck"`
	}
	if err := json.Unmarshal(env.Data, &catalog); err != nil {
		t.Fatalf("decode catalog: %v", err)
	}
	if len(catalog) == 0 {
		t.Fatal("empty voting system catalog")
	}
	for _, vs := range catalog {
		if len(vs.Deck) == 0 {
			t.Errorf("system %s has an empty deck", vs.ID)
		}
	}
}

// wsURL rewrites the harness server URL into a websocket join URL.
func (h *apiHarness) wsURL(roomID, name string) string {
	u := "ws" + strings.TrimPrefix(h.server.URL, "http")
	u += "/api/v1/rooms/" + roomID + "/ws"
	if name != "" {
		u += "?name=" + name
	}
	return u
}

func TestJoinRoomWebSocket(t *testing.T) {
	h := newAPIHarness(t)
	created := h.createRoom(t, "host-1")

	header := http.Header{"X-User-ID": []string{"host-1"}}
	conn, resp, err := websocket.DefaultDialer.Dial(h.wsURL(created.ID, "Host"), header)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("websocket dial through router failed (status %d): %v", status, err)
	}
	defer func() { _ = conn.Close() }()

	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("set read deadline: %v", err)
	}
	var msg struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read first frame: %v", err)
	}
	if msg.Type != "room_state" {
		t.Fatalf("first frame type = %s, want room_state", msg.Type)
	}
	var state models.RoomState
	if err := json.Unmarshal(msg.Data, &state); err != nil {
		t.Fatalf("decode state frame: %v", err)
	}
	if len(state.Members) != 1 || state.Members[0].ID != "host-1" {
		t.Errorf("unexpected members after join: %+v", state.Members)
	}

	t.Run("join_registers_presence", func(t *testing.T) {
		count, err := h.engine.GetActiveMemberCount(context.Background(), created.ID)
		if err != nil {
			t.Fatalf("GetActiveMemberCount failed: %v", err)
		}
		if count != 1 {
			t.Errorf("active members = %d, want 1", count)
		}
	})

	t.Run("missing_name_rejected_before_upgrade", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial(h.wsURL(created.ID, ""), header)
		if err == nil {
			t.Fatal("expected handshake failure without a name")
		}
		if resp == nil || resp.StatusCode != http.StatusBadRequest {
			t.Errorf("unexpected handshake response %+v", resp)
		}
	})

	t.Run("unknown_room_rejected", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial(h.wsURL("nope", "Host"), header)
		if err == nil {
			t.Fatal("expected handshake failure for unknown room")
		}
		if resp == nil || resp.StatusCode != http.StatusNotFound {
			t.Errorf("unexpected handshake response %+v", resp)
		}
	})

	t.Run("close_releases_presence", func(t *testing.T) {
		if err := conn.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			count, err := h.engine.GetActiveMemberCount(context.Background(), created.ID)
			if err == nil && count == 0 {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
		t.Error("presence not released after connection close")
	})
}

func TestHealthEndpoint(t *testing.T) {
	h := newAPIHarness(t)

	status, env := h.do(t, http.MethodGet, "/api/v1/health", "", nil)
	if status != http.StatusOK {
		t.Fatalf("health: status %d", status)
	}
	var data map[string]interface{}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if data["status"] != "healthy" {
		t.Errorf("status = %v", data["status"])
	}
	if data["durable_store"] != "up" || data["fast_store"] != "up" {
		t.Errorf("store health %v / %v", data["durable_store"], data["fast_store"])
	}
}
