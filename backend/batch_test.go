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
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeInputFile(t *testing.T, dir, name string, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadInputsSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := writeInputFile(t, dir, "game.json", sampleGame())

	inputs, err := LoadInputs(path)
	if err != nil {
		t.Fatalf("LoadInputs: %v", err)
	}
	if len(inputs) != 1 || inputs[0].Away != "BOS" {
		t.Errorf("inputs = %+v", inputs)
	}
}

func TestLoadInputsArrayFile(t *testing.T) {
	dir := t.TempDir()
	path := writeInputFile(t, dir, "games.json", []GameInput{sampleGame(), sampleGame()})

	inputs, err := LoadInputs(path)
	if err != nil {
		t.Fatalf("LoadInputs: %v", err)
	}
	if len(inputs) != 2 {
		t.Errorf("inputs = %d, want 2", len(inputs))
	}
}

func TestLoadInputsDirectory(t *testing.T) {
	dir := t.TempDir()
	writeInputFile(t, dir, "b.json", sampleGame())
	a := sampleGame()
	a.Away = "CHC"
	writeInputFile(t, dir, "a.json", a)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	inputs, err := LoadInputs(dir)
	if err != nil {
		t.Fatalf("LoadInputs: %v", err)
	}
	if len(inputs) != 2 {
		t.Fatalf("inputs = %d, want 2", len(inputs))
	}
	// Files are read in name order.
	if inputs[0].Away != "CHC" || inputs[1].Away != "BOS" {
		t.Errorf("order = %s, %s", inputs[0].Away, inputs[1].Away)
	}
}

func TestLoadInputsBadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadInputs(path); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestBatchRun(t *testing.T) {
	gs := newTestStore(t)
	cfg := Config{Workers: 3}

	var inputs []GameInput
	for i := 0; i < 5; i++ {
		in := sampleGame()
		in.Date = fmt.Sprintf("2026-05-%02d", i+1)
		inputs = append(inputs, in)
	}
	// One input that fails hard: missing its third out mid-game.
	broken := sampleGame()
	broken.Plays = append(broken.Plays[:2], broken.Plays[3:]...)
	inputs = append(inputs, broken)

	br := NewBatchRunner(gs, cfg)
	if err := br.Run(context.Background(), inputs); err != nil {
		t.Fatalf("Run: %v", err)
	}

	snap := br.Stats.Snapshot()
	if snap.Processed != 5 {
		t.Errorf("processed = %d, want 5", snap.Processed)
	}
	if snap.Failed != 1 {
		t.Errorf("failed = %d, want 1", snap.Failed)
	}
	if snap.Latency.Count != 5 {
		t.Errorf("latency count = %d, want 5", snap.Latency.Count)
	}

	// Run flushes everything it reconstructed.
	var count int
	for _, err := range gs.ListAllGameMetadata() {
		if err != nil {
			t.Fatalf("ListAllGameMetadata: %v", err)
		}
		count++
	}
	if count != 5 {
		t.Errorf("stored games = %d, want 5", count)
	}
}

func TestBatchRunUnknownPlaysLog(t *testing.T) {
	gs := newTestStore(t)

	in := sampleGame()
	in.Plays[1].Description = "Play suspended due to weather."

	br := NewBatchRunner(gs, Config{Workers: 1})
	if err := br.Run(context.Background(), []GameInput{in}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(gs.DataDir, "unknown_plays.txt"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	line := strings.TrimSpace(string(data))
	if !strings.Contains(line, "inning 1 top play 1") {
		t.Errorf("unknown plays line = %q", line)
	}
	if !strings.Contains(line, "suspended") {
		t.Errorf("line missing original description: %q", line)
	}

	snap := br.Stats.Snapshot()
	if snap.Processed != 1 || snap.Anomalies != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestBatchRunCancelled(t *testing.T) {
	gs := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var inputs []GameInput
	for i := 0; i < 50; i++ {
		inputs = append(inputs, sampleGame())
	}
	br := NewBatchRunner(gs, Config{Workers: 1})
	if err := br.Run(ctx, inputs); err != context.Canceled {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
}

func TestHistogramAddMerge(t *testing.T) {
	var h Histogram
	h.Add(0)
	h.Add(7 * time.Millisecond) // bucket 1
	h.Add(time.Minute)          // clamps to the last bucket

	if h.Count != 3 {
		t.Errorf("count = %d", h.Count)
	}
	if h.Buckets[0] != 1 || h.Buckets[1] != 1 || h.Buckets[LatencyBuckets-1] != 1 {
		t.Errorf("buckets = %v", h.Buckets)
	}

	var h2 Histogram
	h2.Add(0)
	h2.Merge(&h)
	if h2.Count != 4 || h2.Buckets[0] != 2 {
		t.Errorf("merged: count=%d buckets[0]=%d", h2.Count, h2.Buckets[0])
	}
	h2.Merge(nil)
	if h2.Count != 4 {
		t.Errorf("merge(nil) changed count: %d", h2.Count)
	}
}
