// Pointdeck - Planning Poker Room State Server
// Copyright 2026 Pointdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pointdeck/pointdeck

// Command server runs the Pointdeck room state server.
//
// The server keeps real-time planning poker room state in a two-tier
// store: a TTL-bounded BadgerDB cache for hot reads and presence, and a
// DuckDB file as the durable source of truth. Clients talk to it over a
// small REST surface plus one WebSocket per room connection.
//
// Configuration comes from config.yaml, /etc/pointdeck/config.yaml, or
// the path in CONFIG_PATH, overridable via POINTDECK_* environment
// variables, e.g.:
//
//	POINTDECK_SERVER_PORT=8737
//	POINTDECK_DATABASE_PATH=/data/pointdeck.duckdb
//	POINTDECK_CACHE_DIR=/data/cache
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pointdeck/pointdeck/internal/api"
	"github.com/pointdeck/pointdeck/internal/cache"
	"github.com/pointdeck/pointdeck/internal/config"
	"github.com/pointdeck/pointdeck/internal/database"
	"github.com/pointdeck/pointdeck/internal/logging"
	"github.com/pointdeck/pointdeck/internal/room"
	"github.com/pointdeck/pointdeck/internal/supervisor"
	"github.com/pointdeck/pointdeck/internal/supervisor/services"
	ws "github.com/pointdeck/pointdeck/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("cache_dir", cfg.Cache.Dir).
		Bool("cache_in_memory", cfg.Cache.InMemory).
		Msg("Configuration loaded")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize durable store")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Durable store close failed")
		}
	}()

	store, err := cache.Open(&cfg.Cache)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open fast store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Fast store close failed")
		}
	}()

	engine := room.NewEngine(db, store, cfg.Room)

	hub := ws.NewHub(func(ctx context.Context, roomID, viewerID string) (interface{}, error) {
		return engine.GetRoomState(ctx, roomID, viewerID)
	})
	hub.OnDisconnect(func(roomID, userID, connID string) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		left, err := engine.RemoveConnectionFromMember(ctx, roomID, userID, connID)
		if err != nil {
			logging.Error().Err(err).Str("room_id", roomID).Str("user_id", userID).Msg("member removal failed")
			return
		}
		if left {
			hub.BroadcastRoomState(roomID)
		}
	})
	hub.OnTouch(engine.TouchPresence)
	engine.OnRevealed(hub.BroadcastRoomState)

	handler := api.NewHandler(engine, hub, db, store)
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(handler, &cfg.Server),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Server stopped gracefully")
}
