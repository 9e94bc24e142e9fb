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

	"github.com/ttbt-io/rekap/backend/playtext"
)

// Base identifies a base on the diamond. BaseHome is a movement target only;
// a runner who reaches it scores and leaves the base state.
type Base int

const (
	BaseNone Base = iota
	BaseFirst
	BaseSecond
	BaseThird
	BaseHome
)

func (b Base) String() string {
	switch b {
	case BaseFirst:
		return "1B"
	case BaseSecond:
		return "2B"
	case BaseThird:
		return "3B"
	case BaseHome:
		return "home"
	default:
		return "-"
	}
}

// RawPlay is one row of the acquired play-by-play feed for a game,
// exactly as the data-acquisition layer hands it over. Immutable input.
type RawPlay struct {
	Inning       int      `json:"inning"`
	Half         string   `json:"half"` // "top" or "bottom"
	Batter       string   `json:"batter"`
	Pitcher      string   `json:"pitcher"`
	Description  string   `json:"description"`
	Pitches      []string `json:"pitches,omitempty"` // ball/strike/foul/in_play tags
	RunsScored   int      `json:"runsScored"`
	OutsRecorded int      `json:"outsRecorded"`
	WPBefore     float64  `json:"wpBefore"`
	WPAfter      float64  `json:"wpAfter"`
}

// GameInput is the envelope the data-acquisition collaborator produces:
// one game's ordered plays plus pass-through metadata.
type GameInput struct {
	ID               string            `json:"id,omitempty"`
	Date             string            `json:"date,omitempty"`
	Venue            string            `json:"venue,omitempty"`
	Weather          string            `json:"weather,omitempty"`
	Attendance       int               `json:"attendance,omitempty"`
	Away             string            `json:"away"`
	Home             string            `json:"home"`
	Lineups          map[string][]string `json:"lineups,omitempty"`          // team code -> batting order
	StartingPitchers map[string]string   `json:"startingPitchers,omitempty"` // team code -> pitcher id
	Plays            []RawPlay           `json:"plays"`
}

// RunnerMove describes what happens to one existing runner on a play.
// To is ignored when Out is set.
type RunnerMove struct {
	From Base `json:"from"`
	To   Base `json:"to,omitempty"`
	Out  bool `json:"out,omitempty"`
}

// PlayEvent is the canonical outcome of one raw play, derived once by the
// normalizer and immutable thereafter.
type PlayEvent struct {
	Kind     playtext.Kind `json:"kind"`
	Code     string        `json:"code"`               // scorecard notation ("GO6-3", "F8", "HR", "-")
	Fielders []int         `json:"fielders,omitempty"` // ordered, for relay credit

	Moves []RunnerMove `json:"moves,omitempty"` // one per existing runner that moves or is retired

	BatterReaches bool `json:"batterReaches,omitempty"`
	BatterBase    Base `json:"batterBase,omitempty"` // BaseHome on a home run
	BatterOut     bool `json:"batterOut,omitempty"`

	Outs      int  `json:"outs"`          // outs recorded on the play
	RBI       int  `json:"rbi,omitempty"` // runs batted in credited to the batter
	CleanOuts bool `json:"cleanOuts"`     // false when the play involved an error
	Error     bool `json:"error,omitempty"`

	// Fallback marks the degraded generic-out event emitted when no
	// classification rule matched the description.
	Fallback bool `json:"fallback,omitempty"`
}

// IsHit reports whether the event counts as a base hit.
func (e PlayEvent) IsHit() bool {
	switch e.Kind {
	case playtext.KindSingle, playtext.KindDouble, playtext.KindTriple, playtext.KindHomeRun:
		return true
	}
	return false
}

// IsPlateAppearanceEnd reports whether the event ends the batter's turn.
// Runner-only events (steals, wild pitches) do not.
func (e PlayEvent) IsPlateAppearanceEnd() bool {
	switch e.Kind {
	case playtext.KindStolenBase, playtext.KindCaughtStealing,
		playtext.KindWildPitch, playtext.KindPassedBall:
		return false
	}
	return true
}

// creditsRBI reports whether runs scoring on this event are batted in.
// Runs on errors, wild pitches, passed balls, steals and double plays
// are not credited to the batter.
func (e PlayEvent) creditsRBI() bool {
	switch e.Kind {
	case playtext.KindError, playtext.KindWildPitch, playtext.KindPassedBall,
		playtext.KindStolenBase, playtext.KindCaughtStealing,
		playtext.KindDoublePlay, playtext.KindTriplePlay:
		return false
	}
	return !e.Fallback
}

// PlayContext is the game situation a play description is resolved against.
type PlayContext struct {
	OutsBefore int
	Bases      BaseState
}

// IncompleteGameError is the hard failure raised when terminal assembly
// cannot find required closing state for a half-inning.
type IncompleteGameError struct {
	Inning int
	Half   string
	Outs   int
}

func (e *IncompleteGameError) Error() string {
	return fmt.Sprintf("incomplete game data: %s of inning %d ends with %d outs", e.Half, e.Inning, e.Outs)
}
