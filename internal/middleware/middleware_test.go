// Pointdeck - Planning Poker Room State Server
// Copyright 2026 Pointdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pointdeck/pointdeck

package middleware

import (
	"bufio"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestID(t *testing.T) {
	t.Run("generates_when_absent", func(t *testing.T) {
		var seen string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r.Context())
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if seen == "" {
			t.Error("request id missing from context")
		}
		if rec.Header().Get("X-Request-ID") != seen {
			t.Error("response header does not match context id")
		}
	})

	t.Run("honors_upstream_id", func(t *testing.T) {
		var seen string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "upstream-123")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		if seen != "upstream-123" {
			t.Errorf("expected upstream id, got %s", seen)
		}
	})
}

func TestIdentity(t *testing.T) {
	t.Run("rejects_missing_header", func(t *testing.T) {
		handler := Identity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler should not run without identity")
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "UNAUTHENTICATED") {
			t.Errorf("unexpected body: %s", rec.Body.String())
		}
	})

	t.Run("passes_user_id", func(t *testing.T) {
		var seen string
		handler := Identity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetUserID(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-User-ID", "u1")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		if seen != "u1" {
			t.Errorf("expected u1, got %s", seen)
		}
	})
}

func TestPrometheusMetricsPassesThrough(t *testing.T) {
	handler := PrometheusMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/brew", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status not propagated: %d", rec.Code)
	}
}

// hijackableRecorder fakes a hijack-capable writer, as a live HTTP/1.1
// connection would provide.
type hijackableRecorder struct {
	*httptest.ResponseRecorder
	hijacked bool
}

func (h *hijackableRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h.hijacked = true
	return nil, nil, nil
}

// Wrapped writers must remain hijackable or websocket upgrades behind
// the middleware chain fail their http.Hijacker assertion.
func TestWrappedWriterStaysHijackable(t *testing.T) {
	middlewares := map[string]func(http.Handler) http.Handler{
		"prometheus":     PrometheusMetrics,
		"request_logger": RequestLogger,
	}

	for name, mw := range middlewares {
		t.Run(name, func(t *testing.T) {
			rec := &hijackableRecorder{ResponseRecorder: httptest.NewRecorder()}
			handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hj, ok := w.(http.Hijacker)
				if !ok {
					t.Fatal("wrapped writer lost http.Hijacker")
				}
				if _, _, err := hj.Hijack(); err != nil {
					t.Fatalf("Hijack failed: %v", err)
				}
			}))

			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
			if !rec.hijacked {
				t.Error("hijack did not reach the underlying writer")
			}
		})
	}
}
