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
	"encoding/json"
	"fmt"
	"iter"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/c2FmZQ/storage"
)

// GameMetadata contains only the fields needed for listings, kept in a
// sidecar file so listing games never loads full timelines.
type GameMetadata struct {
	ID        string `json:"id"`
	Date      string `json:"date,omitempty"`
	Away      string `json:"away"`
	Home      string `json:"home"`
	FinalAway int    `json:"finalAway"`
	FinalHome int    `json:"finalHome"`
	Status    string `json:"status"`
	Anomalies int    `json:"anomalies"`
}

func metadataOf(g *Game) GameMetadata {
	return GameMetadata{
		ID:        g.ID,
		Date:      g.Date,
		Away:      g.Away,
		Home:      g.Home,
		FinalAway: g.FinalAway,
		FinalHome: g.FinalHome,
		Status:    g.Status,
		Anomalies: len(g.Anomalies),
	}
}

// GameStore persists reconstructed games to disk. Writes are atomic via the
// storage layer; an in-memory cache keeps recently touched games warm, and a
// dirty set supports deferred flushing during batch runs.
type GameStore struct {
	DataDir string
	Debug   bool
	storage *storage.Storage
	mu      sync.Map // *sync.RWMutex per game ID
	cache   sync.Map // latest JSON []byte per game ID

	dirtyMu sync.Mutex
	dirty   map[string]bool
}

// NewGameStore creates a new GameStore backed by s.
func NewGameStore(dataDir string, s *storage.Storage) *GameStore {
	return &GameStore{
		DataDir: dataDir,
		storage: s,
		dirty:   make(map[string]bool),
	}
}

func gameFilenames(gameID string) (string, string) {
	encoded := url.PathEscape(gameID)
	return filepath.Join("games", fmt.Sprintf("%s.json", encoded)),
		filepath.Join("games", fmt.Sprintf("%s.meta.json", encoded))
}

// SaveGame saves the game and its metadata sidecar atomically.
func (gs *GameStore) SaveGame(game *Game) error {
	m, _ := gs.mu.LoadOrStore(game.ID, &sync.RWMutex{})
	mutex := m.(*sync.RWMutex)

	mutex.Lock()
	defer mutex.Unlock()

	filename, metaFilename := gameFilenames(game.ID)

	if err := gs.storage.SaveDataFile(filename, game); err != nil {
		return fmt.Errorf("storage.SaveDataFile: %w", err)
	}

	meta := metadataOf(game)
	if err := gs.storage.SaveDataFile(metaFilename, &meta); err != nil {
		// Non-fatal: listings fall back to the main file.
		log.Printf("Warning: failed to save metadata sidecar for game %s: %v", game.ID, err)
	}

	if jsonBytes, err := json.Marshal(game); err == nil {
		gs.cache.Store(game.ID, jsonBytes)
	}

	gs.dirtyMu.Lock()
	delete(gs.dirty, game.ID)
	gs.dirtyMu.Unlock()

	return nil
}

// SaveGameInMemory updates the cache and marks the game dirty; the write to
// disk is deferred until Flush. With forceSync it behaves like SaveGame.
func (gs *GameStore) SaveGameInMemory(game *Game, forceSync bool) error {
	jsonBytes, err := json.Marshal(game)
	if err != nil {
		return err
	}
	gs.cache.Store(game.ID, jsonBytes)

	if forceSync {
		return gs.SaveGame(game)
	}

	gs.dirtyMu.Lock()
	gs.dirty[game.ID] = true
	gs.dirtyMu.Unlock()
	return nil
}

// Flush persists one game to disk if it is dirty.
func (gs *GameStore) Flush(gameID string) error {
	gs.dirtyMu.Lock()
	if !gs.dirty[gameID] {
		gs.dirtyMu.Unlock()
		return nil
	}
	gs.dirtyMu.Unlock()

	val, ok := gs.cache.Load(gameID)
	if !ok {
		gs.dirtyMu.Lock()
		delete(gs.dirty, gameID)
		gs.dirtyMu.Unlock()
		return fmt.Errorf("game %s marked dirty but not found in cache", gameID)
	}

	var g Game
	if err := json.Unmarshal(val.([]byte), &g); err != nil {
		return fmt.Errorf("unmarshal game from cache for flush: %w", err)
	}
	// SaveGame clears the dirty flag.
	return gs.SaveGame(&g)
}

// FlushAll persists all dirty games to disk.
func (gs *GameStore) FlushAll() error {
	gs.dirtyMu.Lock()
	dirtyIDs := make([]string, 0, len(gs.dirty))
	for id := range gs.dirty {
		dirtyIDs = append(dirtyIDs, id)
	}
	gs.dirtyMu.Unlock()

	for _, id := range dirtyIDs {
		if err := gs.Flush(id); err != nil {
			return fmt.Errorf("flush game %s: %w", id, err)
		}
	}
	return nil
}

// LoadGame loads a reconstructed game by ID.
func (gs *GameStore) LoadGame(gameID string) (*Game, error) {
	if val, ok := gs.cache.Load(gameID); ok {
		var g Game
		if err := json.Unmarshal(val.([]byte), &g); err == nil {
			if gs.Debug {
				log.Printf("[CACHE] Hit for game %s", gameID)
			}
			return &g, nil
		}
		gs.cache.Delete(gameID)
	}
	if gs.Debug {
		log.Printf("[CACHE] Miss for game %s", gameID)
	}

	m, _ := gs.mu.LoadOrStore(gameID, &sync.RWMutex{})
	mutex := m.(*sync.RWMutex)

	mutex.RLock()
	defer mutex.RUnlock()

	filename, _ := gameFilenames(gameID)

	var g Game
	if err := gs.storage.ReadDataFile(filename, &g); err != nil {
		if os.IsNotExist(err) {
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("ReadDataFile: %w", err)
	}
	if g.SchemaVersion > CurrentSchemaVersion {
		return nil, fmt.Errorf("unsupported schema version %d", g.SchemaVersion)
	}

	if jsonBytes, err := json.Marshal(&g); err == nil {
		gs.cache.Store(gameID, jsonBytes)
	}
	return &g, nil
}

// LoadGameAsJSON is a helper for API handlers that just want bytes.
func (gs *GameStore) LoadGameAsJSON(gameID string) ([]byte, error) {
	g, err := gs.LoadGame(gameID)
	if err != nil {
		return nil, err
	}
	return json.Marshal(g)
}

// DeleteGame removes a game and its metadata sidecar from disk.
func (gs *GameStore) DeleteGame(gameID string) error {
	m, _ := gs.mu.LoadOrStore(gameID, &sync.RWMutex{})
	mutex := m.(*sync.RWMutex)

	mutex.Lock()
	defer mutex.Unlock()

	gs.cache.Delete(gameID)
	gs.dirtyMu.Lock()
	delete(gs.dirty, gameID)
	gs.dirtyMu.Unlock()

	filename, metaFilename := gameFilenames(gameID)
	if err := os.Remove(filepath.Join(gs.DataDir, filename)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not delete game file: %w", err)
	}
	if err := os.Remove(filepath.Join(gs.DataDir, metaFilename)); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not delete meta file for game %s: %v", gameID, err)
	}
	return nil
}

// ListAllGameMetadata iterates metadata for all stored games without loading
// full timelines, preferring the sidecar files and falling back to the main
// file when a sidecar is missing or unreadable. Dirty in-memory games are
// included last.
func (gs *GameStore) ListAllGameMetadata() iter.Seq2[GameMetadata, error] {
	return func(yield func(GameMetadata, error) bool) {
		gamesDir := filepath.Join(gs.DataDir, "games")
		files, err := os.ReadDir(gamesDir)
		if err != nil && !os.IsNotExist(err) {
			yield(GameMetadata{}, fmt.Errorf("could not read games directory: %w", err))
			return
		}

		hasMeta := make(map[string]bool)
		hasGame := make(map[string]bool)
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			name := f.Name()
			if strings.HasSuffix(name, ".meta.json") {
				if id, err := url.PathUnescape(strings.TrimSuffix(name, ".meta.json")); err == nil {
					hasMeta[id] = true
				}
			} else if strings.HasSuffix(name, ".json") {
				if id, err := url.PathUnescape(strings.TrimSuffix(name, ".json")); err == nil {
					hasGame[id] = true
				}
			}
		}

		processed := make(map[string]bool)

		for id := range hasMeta {
			processed[id] = true

			_, metaFilename := gameFilenames(id)
			var meta GameMetadata
			if err := gs.storage.ReadDataFile(metaFilename, &meta); err != nil {
				log.Printf("Warning: failed to load metadata for %s: %v. Falling back to main file.", id, err)
				hasGame[id] = true
				processed[id] = false
				continue
			}
			if !yield(meta, nil) {
				return
			}
		}

		for id := range hasGame {
			if processed[id] {
				continue
			}
			processed[id] = true

			g, err := gs.LoadGame(id)
			if err != nil {
				log.Printf("Warning: failed to load game %s from disk: %v", id, err)
				continue
			}
			if !yield(metadataOf(g), nil) {
				return
			}
		}

		gs.dirtyMu.Lock()
		dirtyIDs := make([]string, 0, len(gs.dirty))
		for id := range gs.dirty {
			dirtyIDs = append(dirtyIDs, id)
		}
		gs.dirtyMu.Unlock()

		for _, id := range dirtyIDs {
			if processed[id] {
				continue
			}
			g, err := gs.LoadGame(id)
			if err != nil {
				log.Printf("Error: failed to load dirty game %s: %v", id, err)
				continue
			}
			if !yield(metadataOf(g), nil) {
				return
			}
		}
	}
}

// ListAllGames iterates full Game objects for every game found on disk or
// dirty in memory.
func (gs *GameStore) ListAllGames() iter.Seq2[*Game, error] {
	return func(yield func(*Game, error) bool) {
		gamesDir := filepath.Join(gs.DataDir, "games")
		files, err := os.ReadDir(gamesDir)
		if err != nil && !os.IsNotExist(err) {
			yield(nil, fmt.Errorf("could not read games directory: %w", err))
			return
		}

		seen := make(map[string]bool)
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") || strings.HasSuffix(f.Name(), ".meta.json") {
				continue
			}
			id, err := url.PathUnescape(strings.TrimSuffix(f.Name(), ".json"))
			if err != nil {
				continue
			}
			seen[id] = true

			g, err := gs.LoadGame(id)
			if err != nil {
				log.Printf("Warning: could not load game '%s': %v", id, err)
				continue
			}
			if !yield(g, nil) {
				return
			}
		}

		gs.dirtyMu.Lock()
		dirtyIDs := make([]string, 0, len(gs.dirty))
		for id := range gs.dirty {
			dirtyIDs = append(dirtyIDs, id)
		}
		gs.dirtyMu.Unlock()

		for _, id := range dirtyIDs {
			if seen[id] {
				continue
			}
			g, err := gs.LoadGame(id)
			if err != nil {
				log.Printf("Error: failed to load dirty game %s: %v", id, err)
				continue
			}
			if !yield(g, nil) {
				return
			}
		}
	}
}
