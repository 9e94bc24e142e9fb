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
	"testing"
)

func TestStartHalfInningGhostRunner(t *testing.T) {
	bs := StartHalfInning(10, 9, "hurler")
	if bs.Second == nil {
		t.Fatal("expected ghost runner on second in the 10th")
	}
	r := bs.Second
	if !r.Ghost || r.PlayerID != GhostRunnerID || r.ResponsiblePitcher != "hurler" {
		t.Errorf("ghost runner = %+v", r)
	}
	if bs.First != nil || bs.Third != nil {
		t.Error("only second base should be occupied")
	}

	if bs := StartHalfInning(9, 9, "hurler"); !bs.Empty() {
		t.Error("no ghost runner in regulation innings")
	}
	// A shorter regulation length moves the activation point.
	if bs := StartHalfInning(8, 7, "hurler"); bs.Second == nil {
		t.Error("expected ghost runner past a 7-inning regulation")
	}
}

func TestAdvanceDoesNotMutateInput(t *testing.T) {
	state := BaseState{First: runnerOn(BaseFirst, "adams")}
	ev := PlayEvent{
		BatterReaches: true,
		BatterBase:    BaseFirst,
		Moves:         []RunnerMove{{From: BaseFirst, To: BaseSecond}},
	}
	_ = Advance(state, ev, "hurler", "jones")

	if state.First == nil || state.First.PlayerID != "adams" || state.Second != nil {
		t.Errorf("input state mutated: %s", state)
	}
}

func TestAdvanceScoresLeadRunner(t *testing.T) {
	state := BaseState{
		Second: runnerOn(BaseSecond, "baker"),
		Third:  runnerOn(BaseThird, "cole"),
	}
	ev := PlayEvent{
		BatterReaches: true,
		BatterBase:    BaseFirst,
		Moves: []RunnerMove{
			{From: BaseThird, To: BaseHome},
			{From: BaseSecond, To: BaseThird},
		},
	}
	res := Advance(state, ev, "hurler", "jones")

	if res.Runs != 1 || len(res.Scored) != 1 || res.Scored[0].PlayerID != "cole" {
		t.Errorf("runs = %d, scored = %+v", res.Runs, res.Scored)
	}
	if res.State.Third == nil || res.State.Third.PlayerID != "baker" {
		t.Errorf("third = %+v, want baker", res.State.Third)
	}
	if res.State.First == nil || res.State.First.PlayerID != "jones" {
		t.Errorf("first = %+v, want jones", res.State.First)
	}
	if len(res.Issues) != 0 {
		t.Errorf("unexpected issues: %+v", res.Issues)
	}
}

func TestAdvanceKeepsResponsiblePitcher(t *testing.T) {
	// The runner was put on by the starter; the reliever is on the mound
	// when the runner advances and scores.
	state := BaseState{Second: &Runner{PlayerID: "adams", ResponsiblePitcher: "starter", Base: BaseSecond}}
	ev := PlayEvent{Moves: []RunnerMove{{From: BaseSecond, To: BaseHome}}}
	res := Advance(state, ev, "reliever", "jones")

	if len(res.Scored) != 1 {
		t.Fatalf("scored = %+v, want 1 runner", res.Scored)
	}
	if res.Scored[0].ResponsiblePitcher != "starter" {
		t.Errorf("responsible pitcher = %s, want starter", res.Scored[0].ResponsiblePitcher)
	}
}

func TestAdvanceBatterReachedOnError(t *testing.T) {
	ev := PlayEvent{
		Kind:          "ERROR",
		BatterReaches: true,
		BatterBase:    BaseFirst,
		Error:         true,
	}
	res := Advance(BaseState{}, ev, "hurler", "jones")
	if res.State.First == nil || !res.State.First.ReachedOnError {
		t.Errorf("first = %+v, want ReachedOnError", res.State.First)
	}
}

func TestAdvanceIllegalMoves(t *testing.T) {
	tests := []struct {
		name  string
		state BaseState
		ev    PlayEvent
		issue string
	}{
		{
			name:  "move from unoccupied base",
			state: BaseState{},
			ev:    PlayEvent{Moves: []RunnerMove{{From: BaseSecond, To: BaseThird}}},
			issue: AnomalyIllegalAdvancement,
		},
		{
			name:  "backward movement",
			state: BaseState{Second: runnerOn(BaseSecond, "baker")},
			ev:    PlayEvent{Moves: []RunnerMove{{From: BaseSecond, To: BaseFirst}}},
			issue: AnomalyIllegalAdvancement,
		},
		{
			name: "double occupancy",
			state: BaseState{
				First:  runnerOn(BaseFirst, "adams"),
				Second: runnerOn(BaseSecond, "baker"),
			},
			ev:    PlayEvent{Moves: []RunnerMove{{From: BaseFirst, To: BaseSecond}}},
			issue: AnomalyIllegalAdvancement,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := Advance(tc.state, tc.ev, "hurler", "jones")
			if len(res.Issues) == 0 {
				t.Fatal("expected an issue")
			}
			found := false
			for _, iss := range res.Issues {
				if iss.Code == tc.issue {
					found = true
				}
			}
			if !found {
				t.Errorf("issues = %+v, want %s", res.Issues, tc.issue)
			}
			// Recovery must preserve all runners not legitimately moved.
			if res.State.Count()+res.Outs < tc.state.Count() {
				t.Errorf("runners lost: before %d, after %d", tc.state.Count(), res.State.Count())
			}
		})
	}
}

func TestAdvanceBackwardMoveHoldsRunner(t *testing.T) {
	state := BaseState{Second: runnerOn(BaseSecond, "baker")}
	ev := PlayEvent{Moves: []RunnerMove{{From: BaseSecond, To: BaseFirst}}}
	res := Advance(state, ev, "hurler", "jones")

	if res.State.Second == nil || res.State.Second.PlayerID != "baker" {
		t.Errorf("state = %s, want baker held at second", res.State)
	}
}
