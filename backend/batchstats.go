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
	"sync"
	"time"
)

const LatencyBuckets = 101
const LatencyBucketSize = 5 * time.Millisecond

// Histogram tracks per-game reconstruction latency in fixed-width buckets.
type Histogram struct {
	Buckets [LatencyBuckets]uint64 `json:"b"`
	Count   uint64                 `json:"c"`
	Sum     float64                `json:"s"` // Sum of durations in milliseconds
}

func (h *Histogram) Add(d time.Duration) {
	ms := float64(d.Milliseconds())
	idx := int(d / LatencyBucketSize)
	if idx >= LatencyBuckets {
		idx = LatencyBuckets - 1
	}
	h.Buckets[idx]++
	h.Count++
	h.Sum += ms
}

func (h *Histogram) Merge(other *Histogram) {
	if other == nil {
		return
	}
	for i := 0; i < LatencyBuckets; i++ {
		h.Buckets[i] += other.Buckets[i]
	}
	h.Count += other.Count
	h.Sum += other.Sum
}

// BatchStats accumulates counters across a batch run. It is safe for
// concurrent use by worker goroutines.
type BatchStats struct {
	mu sync.Mutex

	processed int
	failed    int
	anomalies int
	keyPlays  int
	latency   Histogram
	started   time.Time
}

func NewBatchStats() *BatchStats {
	return &BatchStats{started: time.Now()}
}

// RecordGame records a successfully reconstructed game.
func (s *BatchStats) RecordGame(g *Game, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed++
	s.anomalies += len(g.Anomalies)
	s.keyPlays += len(g.KeyPlays())
	s.latency.Add(d)
}

// RecordFailure records a game that could not be reconstructed.
func (s *BatchStats) RecordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed++
}

// StatsSnapshot is the JSON shape returned by the status endpoint.
type StatsSnapshot struct {
	Processed int       `json:"processed"`
	Failed    int       `json:"failed"`
	Anomalies int       `json:"anomalies"`
	KeyPlays  int       `json:"keyPlays"`
	Latency   Histogram `json:"latency"`
	UptimeSec float64   `json:"uptimeSec"`
}

func (s *BatchStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StatsSnapshot{
		Processed: s.processed,
		Failed:    s.failed,
		Anomalies: s.anomalies,
		KeyPlays:  s.keyPlays,
		Latency:   s.latency,
		UptimeSec: time.Since(s.started).Seconds(),
	}
}
