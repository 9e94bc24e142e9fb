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
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// BatchRunner reconstructs a set of games concurrently with a bounded worker
// pool and persists the results.
type BatchRunner struct {
	Store   *GameStore
	Config  Config
	Stats   *BatchStats
	Hub     *ProgressHub // optional
	Workers int

	unknownMu sync.Mutex
	unknown   []string
}

func NewBatchRunner(store *GameStore, cfg Config) *BatchRunner {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &BatchRunner{
		Store:   store,
		Config:  cfg,
		Stats:   NewBatchStats(),
		Workers: workers,
	}
}

// LoadInputs reads game inputs from path. A directory is scanned for *.json
// files, each holding either a single input or an array of inputs. A single
// file is read the same way.
func LoadInputs(path string) ([]GameInput, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	var files []string
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
				continue
			}
			files = append(files, filepath.Join(path, e.Name()))
		}
		sort.Strings(files)
	} else {
		files = []string{path}
	}

	var inputs []GameInput
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f, err)
		}
		parsed, err := parseInputFile(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", f, err)
		}
		inputs = append(inputs, parsed...)
	}
	return inputs, nil
}

func parseInputFile(data []byte) ([]GameInput, error) {
	trimmed := strings.TrimLeftFunc(string(data), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if strings.HasPrefix(trimmed, "[") {
		var inputs []GameInput
		if err := json.Unmarshal(data, &inputs); err != nil {
			return nil, err
		}
		return inputs, nil
	}
	var input GameInput
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, err
	}
	return []GameInput{input}, nil
}

// Run processes all inputs and blocks until the pool drains. Failed games are
// logged and counted, never fatal to the batch. The context cancels pending
// work but lets in-flight games finish.
func (br *BatchRunner) Run(ctx context.Context, inputs []GameInput) error {
	jobs := make(chan GameInput)
	var wg sync.WaitGroup

	for i := 0; i < br.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for input := range jobs {
				br.processOne(input, len(inputs))
			}
		}()
	}

feed:
	for _, input := range inputs {
		select {
		case jobs <- input:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := br.Store.FlushAll(); err != nil {
		return fmt.Errorf("flush games: %w", err)
	}
	if err := br.writeUnknownPlays(); err != nil {
		log.Printf("Warning: could not write unknown plays log: %v", err)
	}

	snap := br.Stats.Snapshot()
	log.Printf("Batch complete: %d processed, %d failed, %d anomalies, %d key plays in %.1fs",
		snap.Processed, snap.Failed, snap.Anomalies, snap.KeyPlays, snap.UptimeSec)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

func (br *BatchRunner) processOne(input GameInput, total int) {
	start := time.Now()
	game, err := Reconstruct(input, br.Config)
	if err != nil {
		br.Stats.RecordFailure()
		var incomplete *IncompleteGameError
		if errors.As(err, &incomplete) {
			log.Printf("Skipping game %s: %v", input.ID, err)
		} else {
			log.Printf("Error reconstructing game %s: %v", input.ID, err)
		}
		br.notify(Message{Type: MsgTypeGameFailed, GameId: input.ID, Error: err.Error()})
		br.progress(total)
		return
	}

	for _, a := range game.Anomalies {
		if a.Code == AnomalyUnrecognizedPlayPattern {
			br.recordUnknown(game.ID, a)
		}
	}

	if err := br.Store.SaveGameInMemory(game, false); err != nil {
		br.Stats.RecordFailure()
		log.Printf("Error saving game %s: %v", game.ID, err)
		br.notify(Message{Type: MsgTypeGameFailed, GameId: game.ID, Error: err.Error()})
		br.progress(total)
		return
	}

	br.Stats.RecordGame(game, time.Since(start))
	br.notify(Message{Type: MsgTypeGameDone, GameId: game.ID, Anomalies: len(game.Anomalies)})
	br.progress(total)
}

func (br *BatchRunner) notify(msg Message) {
	if br.Hub != nil {
		br.Hub.Broadcast(msg)
	}
}

func (br *BatchRunner) progress(total int) {
	if br.Hub == nil {
		return
	}
	snap := br.Stats.Snapshot()
	br.Hub.Broadcast(Message{
		Type:      MsgTypeBatchProgress,
		Processed: snap.Processed,
		Failed:    snap.Failed,
		Total:     total,
	})
}

func (br *BatchRunner) recordUnknown(gameID string, a Anomaly) {
	br.unknownMu.Lock()
	defer br.unknownMu.Unlock()
	br.unknown = append(br.unknown,
		fmt.Sprintf("%s\tinning %d %s play %d\t%s", gameID, a.Inning, a.Half, a.PlayIndex, a.Detail))
}

// writeUnknownPlays appends every unrecognized play description to a log file
// in the data directory so the rule table can be extended by hand.
func (br *BatchRunner) writeUnknownPlays() error {
	br.unknownMu.Lock()
	lines := append([]string(nil), br.unknown...)
	br.unknownMu.Unlock()

	if len(lines) == 0 {
		return nil
	}
	sort.Strings(lines)

	path := filepath.Join(br.Store.DataDir, "unknown_plays.txt")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, line := range lines {
		if _, err := fmt.Fprintln(f, line); err != nil {
			return err
		}
	}
	log.Printf("Logged %d unrecognized plays to %s", len(lines), path)
	return nil
}
