// Pointdeck - Planning Poker Room State Server
// Copyright 2026 Pointdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pointdeck/pointdeck

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pointdeck/pointdeck/internal/config"
	"github.com/pointdeck/pointdeck/internal/middleware"
)

// NewRouter builds the HTTP routing tree.
//
// Identity is required on every room endpoint; health, metrics, and the
// voting-system catalog are open. Mutating endpoints share one rate
// limit bucket per IP.
func NewRouter(handler *Handler, cfg *config.ServerConfig) http.Handler {
	r := chi.NewRouter()

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-User-ID", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)

		r.With(httprate.LimitByIP(600, time.Minute)).Get("/health", handler.Health)
		r.Get("/voting-systems", handler.VotingSystems)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Identity)
			r.Use(rateLimit(cfg))

			r.Post("/rooms", handler.CreateRoom)
			r.Get("/rooms", handler.ListRooms)

			r.Route("/rooms/{roomID}", func(r chi.Router) {
				r.Get("/", handler.GetRoomState)
				r.Patch("/", handler.UpdateSettings)
				r.Delete("/", handler.DeleteRoom)
				r.Get("/members/count", handler.MemberCount)
				r.Post("/vote", handler.CastVote)
				r.Post("/reveal", handler.RevealVotes)
				r.Post("/reset", handler.ResetVotes)
				r.Get("/ws", handler.JoinRoom)
			})
		})
	})

	return r
}

// rateLimit builds the per-IP limiter from config, or a no-op when
// rate limiting is disabled.
func rateLimit(cfg *config.ServerConfig) func(http.Handler) http.Handler {
	if cfg.RateLimitDisabled {
		return func(next http.Handler) http.Handler { return next }
	}
	requests := cfg.RateLimitReqs
	if requests <= 0 {
		requests = 300
	}
	window := cfg.RateLimitWindow
	if window <= 0 {
		window = time.Minute
	}
	return httprate.LimitByIP(requests, window)
}
