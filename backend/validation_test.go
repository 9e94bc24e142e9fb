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
	"strings"
	"testing"
)

func validInput() GameInput {
	return GameInput{
		Away: "BOS",
		Home: "NYY",
		Plays: []RawPlay{
			{Inning: 1, Half: HalfTop, Batter: "adams", Pitcher: "homer", Description: "Adams strikes out swinging."},
		},
	}
}

func TestValidateGameInput(t *testing.T) {
	in := validInput()
	if err := ValidateGameInput(&in); err != nil {
		t.Errorf("valid input rejected: %v", err)
	}
}

func TestValidateGameInputFailures(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(in *GameInput)
		want   string
	}{
		{"missing away", func(in *GameInput) { in.Away = "" }, "missing team codes"},
		{"missing home", func(in *GameInput) { in.Home = "" }, "missing team codes"},
		{"long team code", func(in *GameInput) { in.Away = strings.Repeat("X", 11) }, "away team code too long"},
		{"long game ID", func(in *GameInput) { in.ID = strings.Repeat("a", 65) }, "game ID too long"},
		{"long venue", func(in *GameInput) { in.Venue = strings.Repeat("v", 101) }, "venue too long"},
		{"no plays", func(in *GameInput) { in.Plays = nil }, "no plays"},
		{"bad inning", func(in *GameInput) { in.Plays[0].Inning = 0 }, "invalid inning"},
		{"bad half", func(in *GameInput) { in.Plays[0].Half = "middle" }, "invalid half"},
		{"missing batter", func(in *GameInput) { in.Plays[0].Batter = "" }, "missing batter"},
		{"missing pitcher", func(in *GameInput) { in.Plays[0].Pitcher = "" }, "missing pitcher"},
		{"long description", func(in *GameInput) { in.Plays[0].Description = strings.Repeat("x", 501) }, "description too long"},
		{"bad pitch tag", func(in *GameInput) { in.Plays[0].Pitches = []string{"ball", "spitball"} }, "invalid pitch tag"},
		{"runs out of range", func(in *GameInput) { in.Plays[0].RunsScored = 5 }, "invalid runs scored"},
		{"outs out of range", func(in *GameInput) { in.Plays[0].OutsRecorded = 4 }, "invalid outs recorded"},
		{"wp out of range", func(in *GameInput) { in.Plays[0].WPAfter = 1.2 }, "win probability out of range"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			err := ValidateGameInput(&in)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("err = %q, want it to contain %q", err, tc.want)
			}
		})
	}
}

func TestValidatePlayOrder(t *testing.T) {
	type step struct {
		inning int
		half   string
	}
	for _, tc := range []struct {
		name  string
		steps []step
		ok    bool
	}{
		{"same half", []step{{1, HalfTop}, {1, HalfTop}}, true},
		{"top then bottom", []step{{1, HalfTop}, {1, HalfBottom}}, true},
		{"next inning", []step{{1, HalfBottom}, {2, HalfTop}}, true},
		{"skipped bottom", []step{{9, HalfTop}, {10, HalfTop}}, true},
		{"bottom then top same inning", []step{{1, HalfBottom}, {1, HalfTop}}, false},
		{"inning goes back", []step{{2, HalfTop}, {1, HalfTop}}, false},
		{"inning skips ahead", []step{{1, HalfBottom}, {3, HalfTop}}, false},
		{"next inning starts at bottom", []step{{1, HalfBottom}, {2, HalfBottom}}, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			plays := make([]RawPlay, len(tc.steps))
			for i, s := range tc.steps {
				plays[i] = RawPlay{Inning: s.inning, Half: s.half, Batter: "b", Pitcher: "p"}
			}
			in := GameInput{Away: "A", Home: "H", Plays: plays}
			err := ValidateGameInput(&in)
			if tc.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Error("expected an ordering error")
			}
		})
	}
}
