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
	"fmt"

	"github.com/google/uuid"
)

// Anomaly codes. Per-play anomalies are recovered locally with a degraded
// record; only structural incompleteness (IncompleteGameError) is fatal for
// a game.
const (
	AnomalyUnrecognizedPlayPattern = "UNRECOGNIZED_PLAY_PATTERN"
	AnomalyIllegalAdvancement      = "ILLEGAL_ADVANCEMENT"
	AnomalyInconsistentOutCount    = "INCONSISTENT_OUT_COUNT"
	AnomalyAmbiguousEarnedRun      = "AMBIGUOUS_EARNED_RUN"
)

// anomalyNamespace seeds name-based anomaly IDs. IDs must be deterministic
// so reprocessing identical input yields a bit-identical Game.
var anomalyNamespace = uuid.MustParse("5ba0e3a4-1d5c-4a8f-9a42-6a1f0c5d7e21")

// Anomaly records a recovered irregularity encountered while reconstructing
// a game, with enough location detail for a consuming layer to highlight the
// degraded play.
type Anomaly struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Inning    int    `json:"inning,omitempty"`
	Half      string `json:"half,omitempty"`
	PlayIndex int    `json:"playIndex"` // index into the half-inning's plays
	Detail    string `json:"detail,omitempty"`
	Recovery  string `json:"recovery,omitempty"`
}

func newAnomaly(code, detail, recovery string) Anomaly {
	return Anomaly{
		Code:     code,
		Detail:   detail,
		Recovery: recovery,
	}
}

// locate stamps the game location onto an anomaly and derives its ID from
// the location and code (name-based, stable across reruns).
func (a Anomaly) locate(inning int, half string, playIndex int) Anomaly {
	a.Inning = inning
	a.Half = half
	a.PlayIndex = playIndex
	name := fmt.Sprintf("%s|%d|%s|%d|%s", a.Code, inning, half, playIndex, a.Detail)
	a.ID = uuid.NewSHA1(anomalyNamespace, []byte(name)).String()
	return a
}
