// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/gps_telemetry/internal/observability"
	"github.com/relabs-tech/gps_telemetry/internal/telemetry"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// StatusServer exposes the loop's published snapshot over HTTP. It only ever
// reads the store.
type StatusServer struct {
	store      *telemetry.Store
	staleAfter time.Duration
	poll       time.Duration
	now        func() time.Time
}

// NewStatusServer reports unhealthy once the loop has not ticked for
// staleAfter.
func NewStatusServer(store *telemetry.Store, staleAfter time.Duration) *StatusServer {
	return &StatusServer{
		store:      store,
		staleAfter: staleAfter,
		poll:       200 * time.Millisecond,
		now:        time.Now,
	}
}

func (s *StatusServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/fix", s.handleFix)
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", observability.Handler())
	return mux
}

// Serve listens on port until ctx is cancelled.
func (s *StatusServer) Serve(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("web: shutdown: %v", err)
		}
	}()

	log.Printf("web: status server listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web: %w", err)
	}
	return nil
}

func (s *StatusServer) handleFix(w http.ResponseWriter, r *http.Request) {
	st, ok := s.store.Status()
	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(st.Fix); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

func (s *StatusServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	st, ok := s.store.Status()
	if !ok {
		http.Error(w, "loop has not ticked yet", http.StatusServiceUnavailable)
		return
	}
	if age := s.now().Sub(st.TickedAt); age > s.staleAfter {
		http.Error(w, fmt.Sprintf("last tick %v ago", age.Round(time.Millisecond)), http.StatusServiceUnavailable)
		return
	}
	fmt.Fprintln(w, "ok")
}

// handleWS pushes the fix to the client whenever it changes, starting with
// the current one.
func (s *StatusServer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	// Reads only serve to notice the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	var sent uint64
	for {
		if st, ok := s.store.Status(); ok && st.Version != sent {
			if err := conn.WriteJSON(st.Fix); err != nil {
				log.Printf("web: websocket write error: %v", err)
				return
			}
			sent = st.Version
		}

		select {
		case <-gone:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}
