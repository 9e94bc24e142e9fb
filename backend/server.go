// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package backend

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/c2FmZQ/storage"
)

func generateETag(data []byte) string {
	return fmt.Sprintf("\"%x\"", sha256.Sum256(data))
}

func parsePagination(r *http.Request) (int, int, string, string, string) {
	limit := 50
	offset := 0
	sortBy := r.URL.Query().Get("sortBy")
	order := r.URL.Query().Get("order")
	query := r.URL.Query().Get("q")

	if l := r.URL.Query().Get("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil {
			limit = val
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if val, err := strconv.Atoi(o); err == nil {
			offset = val
		}
	}

	if limit < 1 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	return limit, offset, sortBy, order, query
}

// Options represent server options.
type Options struct {
	Addr       string
	DataDir    string
	Debug      bool
	GameStore  *GameStore
	Storage    *storage.Storage
	Hub        *ProgressHub
	Stats      *BatchStats
	Config     Config
	Listener   net.Listener
	AuthSecret string
}

// Server represents the running server instance.
type Server struct {
	httpServer *http.Server
	store      *GameStore
}

// Shutdown gracefully shuts down the server, flushing dirty games first.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []string

	if s.store != nil {
		if err := s.store.FlushAll(); err != nil {
			errs = append(errs, fmt.Sprintf("flush: %v", err))
		}
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Sprintf("http: %v", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %s", strings.Join(errs, ", "))
	}
	return nil
}

// StartServer starts the web server and registers the API handlers.
func StartServer(opts Options) (*Server, error) {
	store, handler := NewServerHandler(opts)

	httpServer := &http.Server{
		Addr:    opts.Addr,
		Handler: handler,
	}

	go func() {
		var err error
		if opts.Listener != nil {
			log.Printf("Starting HTTP server on provided listener %s...", opts.Listener.Addr())
			err = httpServer.Serve(opts.Listener)
		} else {
			log.Printf("Server starting on %s...\n", opts.Addr)
			err = httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, net.ErrClosed) && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
		}
	}()

	return &Server{
		httpServer: httpServer,
		store:      store,
	}, nil
}

// NewServerHandler creates and configures the HTTP handler for the server.
func NewServerHandler(opts Options) (*GameStore, http.Handler) {
	if opts.DataDir == "" {
		opts.DataDir = "data"
	}
	if opts.Storage == nil {
		opts.Storage = storage.New(opts.DataDir, nil)
	}

	store := opts.GameStore
	if store == nil {
		store = NewGameStore(opts.DataDir, opts.Storage)
	}
	store.Debug = opts.Debug

	hub := opts.Hub
	if hub == nil {
		hub = NewProgressHub()
		go hub.Run()
	}

	stats := opts.Stats
	if stats == nil {
		stats = NewBatchStats()
	}

	cfg := opts.Config.withDefaults()

	mux := http.NewServeMux()

	mux.HandleFunc("/api/games", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}

		limit, offset, sortBy, order, query := parsePagination(r)

		var all []GameMetadata
		for meta, err := range store.ListAllGameMetadata() {
			if err != nil {
				log.Printf("Internal Server Error listing games: %v", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			if query != "" && !metadataMatches(meta, query) {
				continue
			}
			all = append(all, meta)
		}
		sortMetadata(all, sortBy, order)

		total := len(all)
		var page []GameMetadata
		if offset < total {
			end := offset + limit
			if end > total {
				end = total
			}
			page = all[offset:end]
		}
		if page == nil {
			page = []GameMetadata{}
		}

		respData := struct {
			Data []GameMetadata `json:"data"`
			Meta struct {
				Total  int `json:"total"`
				Offset int `json:"offset"`
				Limit  int `json:"limit"`
			} `json:"meta"`
		}{
			Data: page,
		}
		respData.Meta.Total = total
		respData.Meta.Offset = offset
		respData.Meta.Limit = limit

		response, err := json.Marshal(respData)
		if err != nil {
			log.Printf("Internal Server Error during JSON Marshal: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		etag := generateETag(response)
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		w.Header().Set("ETag", etag)
		w.Header().Set("Content-Type", "application/json")
		w.Write(response)
	})

	mux.HandleFunc("/api/game/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}

		rest := strings.TrimPrefix(r.URL.Path, "/api/game/")
		gameID := rest
		boxscore := false
		if strings.HasSuffix(rest, "/boxscore") {
			gameID = strings.TrimSuffix(rest, "/boxscore")
			boxscore = true
		}
		if gameID == "" {
			http.Error(w, "Bad Request: gameId is missing", http.StatusBadRequest)
			return
		}

		g, err := store.LoadGame(gameID)
		if err != nil {
			if os.IsNotExist(err) {
				http.Error(w, "Not Found: Game not found", http.StatusNotFound)
			} else {
				log.Printf("Internal Server Error loading game %s: %v", gameID, err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
			return
		}

		var data []byte
		if boxscore {
			data, err = json.Marshal(Boxscore(g))
		} else {
			data, err = json.Marshal(g)
		}
		if err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		etag := generateETag(data)
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		w.Header().Set("ETag", etag)
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	mux.HandleFunc("/api/process", requireAuth(opts, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 8*1024*1024))
		if err != nil {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		inputs, err := parseInputFile(body)
		if err != nil {
			http.Error(w, "Bad Request: expected a game input or an array of game inputs", http.StatusBadRequest)
			return
		}
		if len(inputs) == 0 {
			http.Error(w, "Bad Request: empty batch", http.StatusBadRequest)
			return
		}
		if len(inputs) > 100 {
			http.Error(w, "Bad Request: batch size too large (max 100)", http.StatusBadRequest)
			return
		}

		type processResult struct {
			GameID    string `json:"gameId,omitempty"`
			Anomalies int    `json:"anomalies"`
			Error     string `json:"error,omitempty"`
		}
		results := make([]processResult, 0, len(inputs))

		for i := range inputs {
			start := time.Now()
			g, err := Reconstruct(inputs[i], cfg)
			if err != nil {
				stats.RecordFailure()
				results = append(results, processResult{GameID: inputs[i].ID, Error: err.Error()})
				hub.Broadcast(Message{Type: MsgTypeGameFailed, GameId: inputs[i].ID, Error: err.Error()})
				continue
			}
			if err := store.SaveGame(g); err != nil {
				stats.RecordFailure()
				log.Printf("Error saving game %s: %v", g.ID, err)
				results = append(results, processResult{GameID: g.ID, Error: "failed to save"})
				continue
			}
			stats.RecordGame(g, time.Since(start))
			results = append(results, processResult{GameID: g.ID, Anomalies: len(g.Anomalies)})
			hub.Broadcast(Message{Type: MsgTypeGameDone, GameId: g.ID, Anomalies: len(g.Anomalies)})
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"results": results})
	}))

	mux.HandleFunc("/api/delete-game", requireAuth(opts, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		var body struct {
			GameID string `json:"gameId"`
		}
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&body); err != nil || body.GameID == "" {
			http.Error(w, "Bad Request: gameId is missing", http.StatusBadRequest)
			return
		}
		if err := store.DeleteGame(body.GameID); err != nil {
			log.Printf("Internal Server Error deleting game %s: %v", body.GameID, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(stats.Snapshot())
	})

	mux.HandleFunc("/api/ws", func(w http.ResponseWriter, r *http.Request) {
		ServeWS(hub, w, r)
	})

	handler := http.Handler(mux)
	handler = jwtAuthMiddleware(opts, handler)
	handler = loggingMiddleware(handler)
	handler = securityMiddleware(handler)

	return store, handler
}

func metadataMatches(meta GameMetadata, query string) bool {
	q := strings.ToLower(query)
	for _, s := range []string{meta.ID, meta.Date, meta.Away, meta.Home, TeamName(meta.Away), TeamName(meta.Home)} {
		if strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}

func sortMetadata(metas []GameMetadata, sortBy, order string) {
	less := func(a, b GameMetadata) bool { return a.ID < b.ID }
	switch sortBy {
	case "date":
		less = func(a, b GameMetadata) bool {
			if a.Date != b.Date {
				return a.Date < b.Date
			}
			return a.ID < b.ID
		}
	case "away":
		less = func(a, b GameMetadata) bool {
			if a.Away != b.Away {
				return a.Away < b.Away
			}
			return a.ID < b.ID
		}
	case "home":
		less = func(a, b GameMetadata) bool {
			if a.Home != b.Home {
				return a.Home < b.Home
			}
			return a.ID < b.ID
		}
	}
	sort.Slice(metas, func(i, j int) bool {
		if order == "desc" {
			return less(metas[j], metas[i])
		}
		return less(metas[i], metas[j])
	})
}

// securityMiddleware adds HTTP security headers to responses.
func securityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs the method and URL path of every incoming HTTP request.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("Received request: %s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
