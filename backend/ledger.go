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

import "fmt"

// RunAttribution classifies one run scored in a half-inning: earned or
// unearned, and the pitcher it is charged to. The charged pitcher is the
// responsible pitcher of the runner who scored, never the pitcher on the
// mound at the moment of scoring.
type RunAttribution struct {
	PlayIndex      int    `json:"playIndex"`
	Runner         string `json:"runner"`
	Earned         bool   `json:"earned"`
	ChargedPitcher string `json:"chargedPitcher,omitempty"`
	Ghost          bool   `json:"ghost,omitempty"`
}

// AttributeRuns replays a half-inning counterfactually, assuming no fielding
// errors occurred, and classifies every run as earned or unearned.
//
// Each error in the real sequence is treated as a would-be out in the
// reconstruction. A run is unearned when, at the moment the runner crossed
// the plate, the defense would already have recorded three outs in the
// error-free replay; when the scoring runner originally reached base on an
// error; or when the runner is the automatic extra-inning placeholder.
//
// Overlapping errors in the same half-inning make the reconstruction
// genuinely ambiguous (the original scoring rulebooks disagree on the
// re-credit); those cases are flagged with an AmbiguousEarnedRun anomaly
// rather than silently resolved.
func AttributeRuns(plays []PlateAppearance) ([]RunAttribution, []Anomaly) {
	var (
		attributions []RunAttribution
		anomalies    []Anomaly
		cfOuts       int // outs in the error-free reconstruction
		errorPlays   int
	)

	for i, pa := range plays {
		if pa.Event.Error {
			// The out the defense would have recorded without the error
			// lands before any run on the same play can cross.
			errorPlays++
			cfOuts++
		}

		for _, runner := range pa.Scored {
			att := RunAttribution{
				PlayIndex:      i,
				Runner:         runner.PlayerID,
				ChargedPitcher: runner.ResponsiblePitcher,
				Ghost:          runner.Ghost,
			}
			switch {
			case runner.Ghost:
				att.Earned = false
			case runner.ReachedOnError:
				att.Earned = false
			case cfOuts >= 3:
				att.Earned = false
				if errorPlays >= 2 {
					anomalies = append(anomalies, newAnomaly(AnomalyAmbiguousEarnedRun,
						fmt.Sprintf("run by %s ruled unearned via reconstructed third out after %d errors in the half-inning", runner.PlayerID, errorPlays),
						"standard rule applied; contested case flagged for review").
						locate(pa.Inning, pa.Half, i))
				}
			default:
				att.Earned = true
			}
			attributions = append(attributions, att)
		}

		if pa.Event.CleanOuts {
			cfOuts += pa.OutsAfter - pa.OutsBefore
		}
	}

	return attributions, anomalies
}

// EarnedRunTotals sums earned runs per charged pitcher. Ghost-runner runs
// are unearned and never charged.
func EarnedRunTotals(attributions []RunAttribution) map[string]int {
	totals := make(map[string]int)
	for _, att := range attributions {
		if att.Earned && att.ChargedPitcher != "" {
			totals[att.ChargedPitcher]++
		}
	}
	return totals
}
