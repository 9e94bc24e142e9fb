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
	"sort"

	"github.com/ttbt-io/rekap/backend/playtext"
)

// PlateAppearance is the fully resolved record of one play: the event, the
// base state around it, and the scoring produced by it. Values are produced
// once by the pipeline and never mutated, so earlier stages can always be
// re-examined unchanged.
type PlateAppearance struct {
	Index   int    `json:"index"`
	Inning  int    `json:"inning"`
	Half    string `json:"half"`
	Batter  string `json:"batter"`
	Pitcher string `json:"pitcher"`

	Pitches []string  `json:"pitches,omitempty"`
	Event   PlayEvent `json:"event"`

	Before     BaseState `json:"before"`
	After      BaseState `json:"after"`
	OutsBefore int       `json:"outsBefore"`
	OutsAfter  int       `json:"outsAfter"`

	Runs   int      `json:"runs"`
	Scored []Runner `json:"scored,omitempty"` // who crossed the plate, with responsibility intact

	WPBefore float64 `json:"wpBefore"`
	WPAfter  float64 `json:"wpAfter"`
	KeyPlay  bool    `json:"keyPlay,omitempty"`

	// Flagged marks a record degraded by a recovered anomaly.
	Flagged bool `json:"flagged,omitempty"`
}

// PitcherStint lists one pitcher's appearance in a half-inning with the
// exact runners they are responsible for.
type PitcherStint struct {
	Pitcher string   `json:"pitcher"`
	Runners []string `json:"runners,omitempty"`
}

// HalfInning is an ordered sequence of plate appearances with its final out
// count and run classification.
type HalfInning struct {
	Inning int    `json:"inning"`
	Half   string `json:"half"`

	Plays []PlateAppearance `json:"plays"`

	Outs       int `json:"outs"`
	Runs       int `json:"runs"`
	EarnedRuns int `json:"earnedRuns"`
	Hits       int `json:"hits"`
	Errors     int `json:"errors"` // committed by the fielding team during this half

	RunLog   []RunAttribution `json:"runLog,omitempty"`
	Pitchers []PitcherStint   `json:"pitchers,omitempty"`
}

// LinescoreRow is one team's line: runs per inning plus R/H/E totals.
// An inning the team never batted in (a skipped bottom half) is -1.
type LinescoreRow struct {
	ByInning []int `json:"byInning"`
	Runs     int   `json:"runs"`
	Hits     int   `json:"hits"`
	Errors   int   `json:"errors"`
}

// Linescore is the cumulative box-score grid for both teams.
type Linescore struct {
	Innings int          `json:"innings"`
	Away    LinescoreRow `json:"away"`
	Home    LinescoreRow `json:"home"`
}

// BatterLine is one batter's scorecard row: outcome code per inning plus
// counting stats.
type BatterLine struct {
	Batter  string         `json:"batter"`
	Innings map[int]string `json:"innings"` // inning number -> scorecard code
	PA      int            `json:"pa"`
	H       int            `json:"h"`
	BB      int            `json:"bb"`
	SO      int            `json:"so"`
}

// Game is the fully reconstructed timeline handed to the rendering layer:
// every plate appearance resolved, every run classified and charged, every
// key play flagged. Rendering performs no further scoring logic.
type Game struct {
	ID            string `json:"id"`
	SchemaVersion int    `json:"schemaVersion"`

	Date       string `json:"date,omitempty"`
	Venue      string `json:"venue,omitempty"`
	Weather    string `json:"weather,omitempty"`
	Attendance int    `json:"attendance,omitempty"`

	Away     string `json:"away"`
	Home     string `json:"home"`
	AwayName string `json:"awayName,omitempty"`
	HomeName string `json:"homeName,omitempty"`

	Lineups          map[string][]string `json:"lineups,omitempty"`
	StartingPitchers map[string]string   `json:"startingPitchers,omitempty"`

	HalfInnings []HalfInning `json:"halfInnings"`
	Linescore   Linescore    `json:"linescore"`
	FinalAway   int          `json:"finalAway"`
	FinalHome   int          `json:"finalHome"`

	PitcherEarnedRuns map[string]int          `json:"pitcherEarnedRuns,omitempty"`
	Scorecards        map[string][]BatterLine `json:"scorecards,omitempty"`

	Anomalies []Anomaly `json:"anomalies,omitempty"`
	Status    string    `json:"status"`
}

// KeyPlays returns the plate appearances flagged by the detector, in game
// order.
func (g *Game) KeyPlays() []PlateAppearance {
	var out []PlateAppearance
	for _, hi := range g.HalfInnings {
		for _, pa := range hi.Plays {
			if pa.KeyPlay {
				out = append(out, pa)
			}
		}
	}
	return out
}

// AssembleGame folds the reconstructed half-innings, ledger output and
// detector flags into the final Game value. It fails with
// IncompleteGameError when a half-inning other than the game's final one
// ends short of three outs.
func AssembleGame(input GameInput, halves []HalfInning, anomalies []Anomaly) (*Game, error) {
	for i, hi := range halves {
		if i < len(halves)-1 && hi.Outs < 3 {
			return nil, &IncompleteGameError{Inning: hi.Inning, Half: hi.Half, Outs: hi.Outs}
		}
	}

	g := &Game{
		ID:               input.ID,
		SchemaVersion:    CurrentSchemaVersion,
		Date:             input.Date,
		Venue:            input.Venue,
		Weather:          input.Weather,
		Attendance:       input.Attendance,
		Away:             input.Away,
		Home:             input.Home,
		AwayName:         TeamName(input.Away),
		HomeName:         TeamName(input.Home),
		Lineups:          input.Lineups,
		StartingPitchers: input.StartingPitchers,
		HalfInnings:      halves,
		Anomalies:        anomalies,
		Status:           StatusFinal,
	}

	g.Linescore = buildLinescore(halves)
	g.FinalAway = g.Linescore.Away.Runs
	g.FinalHome = g.Linescore.Home.Runs

	g.PitcherEarnedRuns = make(map[string]int)
	for _, hi := range halves {
		for p, er := range EarnedRunTotals(hi.RunLog) {
			g.PitcherEarnedRuns[p] += er
		}
	}

	g.Scorecards = buildScorecards(input, halves)
	return g, nil
}

func buildLinescore(halves []HalfInning) Linescore {
	innings := 0
	for _, hi := range halves {
		if hi.Inning > innings {
			innings = hi.Inning
		}
	}

	ls := Linescore{Innings: innings}
	ls.Away.ByInning = make([]int, innings)
	ls.Home.ByInning = make([]int, innings)
	for i := range ls.Away.ByInning {
		ls.Away.ByInning[i] = -1
		ls.Home.ByInning[i] = -1
	}

	for _, hi := range halves {
		idx := hi.Inning - 1
		if hi.Half == HalfTop {
			ls.Away.ByInning[idx] = hi.Runs
			ls.Away.Runs += hi.Runs
			ls.Away.Hits += hi.Hits
			// Errors during the top half are committed by the home defense.
			ls.Home.Errors += hi.Errors
		} else {
			ls.Home.ByInning[idx] = hi.Runs
			ls.Home.Runs += hi.Runs
			ls.Home.Hits += hi.Hits
			ls.Away.Errors += hi.Errors
		}
	}
	return ls
}

// buildScorecards computes the per-batter scorecard rows per team: the
// outcome code in each inning the batter completed a plate appearance, plus
// PA/H/BB/SO tallies.
func buildScorecards(input GameInput, halves []HalfInning) map[string][]BatterLine {
	type acc struct {
		line  *BatterLine
		order int
	}
	teams := map[string]map[string]*acc{input.Away: {}, input.Home: {}}
	next := 0

	for _, hi := range halves {
		team := input.Away
		if hi.Half == HalfBottom {
			team = input.Home
		}
		for _, pa := range hi.Plays {
			if !pa.Event.IsPlateAppearanceEnd() {
				continue
			}
			a, ok := teams[team][pa.Batter]
			if !ok {
				a = &acc{line: &BatterLine{Batter: pa.Batter, Innings: make(map[int]string)}, order: next}
				next++
				teams[team][pa.Batter] = a
			}
			a.line.Innings[hi.Inning] = pa.Event.Code
			a.line.PA++
			if pa.Event.IsHit() {
				a.line.H++
			}
			switch pa.Event.Kind {
			case playtext.KindWalk:
				a.line.BB++
			case playtext.KindStrikeout:
				a.line.SO++
			}
		}
	}

	out := make(map[string][]BatterLine, len(teams))
	for team, batters := range teams {
		accs := make([]*acc, 0, len(batters))
		for _, a := range batters {
			accs = append(accs, a)
		}
		// First-appearance order approximates the batting order.
		sort.Slice(accs, func(i, j int) bool { return accs[i].order < accs[j].order })
		lines := make([]BatterLine, len(accs))
		for i, a := range accs {
			lines[i] = *a.line
		}
		out[team] = lines
	}
	return out
}
