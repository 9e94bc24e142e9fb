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

// gameNamespace seeds name-based game IDs for inputs that carry none.
var gameNamespace = uuid.MustParse("9c1f3b62-87ee-4d10-b8a3-52fb1e9ad004")

// Reconstruct runs the full pipeline over one game's ordered play list:
// normalize each play, fold the base state, attribute earned runs, flag key
// plays, and assemble the final Game. It performs no I/O and is
// deterministic: identical input yields a bit-identical Game.
//
// Per-play anomalies are recovered with degraded records; only a
// ValidateGameInput failure or IncompleteGameError is fatal for the game.
func Reconstruct(input GameInput, cfg Config) (*Game, error) {
	cfg = cfg.withDefaults()

	if err := ValidateGameInput(&input); err != nil {
		return nil, fmt.Errorf("invalid game input: %w", err)
	}
	if input.ID == "" {
		name := fmt.Sprintf("%s|%s|%s", input.Date, input.Away, input.Home)
		input.ID = uuid.NewSHA1(gameNamespace, []byte(name)).String()
	}

	var (
		halves    []HalfInning
		anomalies []Anomaly
	)
	for _, group := range groupByHalf(input.Plays) {
		hi, halfAnoms := reconstructHalf(group, cfg)
		halves = append(halves, hi)
		anomalies = append(anomalies, halfAnoms...)
	}

	return AssembleGame(input, halves, anomalies)
}

// groupByHalf splits the ordered play list into consecutive half-inning
// groups. Order within each group is preserved.
func groupByHalf(plays []RawPlay) [][]RawPlay {
	var groups [][]RawPlay
	start := 0
	for i := 1; i <= len(plays); i++ {
		if i == len(plays) || plays[i].Inning != plays[start].Inning || plays[i].Half != plays[start].Half {
			groups = append(groups, plays[start:i])
			start = i
		}
	}
	return groups
}

// reconstructHalf folds one half-inning's plays into plate appearance
// records and runs the earned-run ledger over the result.
func reconstructHalf(plays []RawPlay, cfg Config) (HalfInning, []Anomaly) {
	inning := plays[0].Inning
	half := plays[0].Half
	startingPitcher := plays[0].Pitcher

	hi := HalfInning{Inning: inning, Half: half}
	var anomalies []Anomaly

	// cfg comes through withDefaults, so the pointers are set.
	regulation := *cfg.RegulationInnings
	threshold := *cfg.KeyPlayThreshold

	state := StartHalfInning(inning, regulation, startingPitcher)
	outs := 0

	for i, rp := range plays {
		ev, evAnoms := Normalize(rp, PlayContext{OutsBefore: outs, Bases: state})
		adv := Advance(state, ev, rp.Pitcher, rp.Batter)

		playAnoms := append(evAnoms, adv.Issues...)

		recorded := adv.Outs
		runs := adv.Runs
		scored := adv.Scored
		if outs+recorded > 3 {
			recovery := "out count capped at 3"
			if runs > 0 {
				// Runs on a play past the third out never happened.
				recovery = "out count capped at 3, runs on the play discarded"
				runs = 0
				scored = nil
			}
			playAnoms = append(playAnoms, newAnomaly(AnomalyInconsistentOutCount,
				fmt.Sprintf("play would record out number %d", outs+recorded),
				recovery))
			recorded = 3 - outs
		}

		pa := PlateAppearance{
			Index:      i,
			Inning:     inning,
			Half:       half,
			Batter:     rp.Batter,
			Pitcher:    rp.Pitcher,
			Pitches:    rp.Pitches,
			Event:      ev,
			Before:     state,
			After:      adv.State,
			OutsBefore: outs,
			OutsAfter:  outs + recorded,
			Runs:       runs,
			Scored:     scored,
			WPBefore:   rp.WPBefore,
			WPAfter:    rp.WPAfter,
			KeyPlay:    IsKeyPlay(rp.WPBefore, rp.WPAfter, threshold),
			Flagged:    len(playAnoms) > 0,
		}
		hi.Plays = append(hi.Plays, pa)

		for _, a := range playAnoms {
			anomalies = append(anomalies, a.locate(inning, half, i))
		}

		state = adv.State
		outs = pa.OutsAfter
		hi.Runs += runs
		if ev.IsHit() {
			hi.Hits++
		}
		if ev.Error {
			hi.Errors++
		}
	}

	hi.Outs = outs

	runLog, ledgerAnoms := AttributeRuns(hi.Plays)
	hi.RunLog = runLog
	anomalies = append(anomalies, ledgerAnoms...)
	for _, att := range runLog {
		if att.Earned {
			hi.EarnedRuns++
		}
	}

	hi.Pitchers = pitcherStints(hi.Plays, startingPitcher, inning > regulation)
	return hi, anomalies
}

// pitcherStints lists the pitchers who appeared in the half-inning, in
// order, each with the runners whose presence on base they are responsible
// for. The ghost runner belongs to the half-inning's starting pitcher.
func pitcherStints(plays []PlateAppearance, startingPitcher string, ghost bool) []PitcherStint {
	var stints []PitcherStint
	idx := map[string]int{}

	ensure := func(pitcher string) int {
		if i, ok := idx[pitcher]; ok {
			return i
		}
		stints = append(stints, PitcherStint{Pitcher: pitcher})
		idx[pitcher] = len(stints) - 1
		return len(stints) - 1
	}

	i := ensure(startingPitcher)
	if ghost {
		stints[i].Runners = append(stints[i].Runners, GhostRunnerID)
	}

	for _, pa := range plays {
		i := ensure(pa.Pitcher)
		if pa.Event.BatterReaches {
			stints[i].Runners = append(stints[i].Runners, pa.Batter)
		}
	}
	return stints
}
