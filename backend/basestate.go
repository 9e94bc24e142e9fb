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
	"strings"

	"github.com/ttbt-io/rekap/backend/playtext"
)

// Runner is one runner on base. ResponsiblePitcher is fixed at the moment the
// runner reaches base and never reassigned, which is what keeps earned-run
// attribution correct across mid-inning pitching changes.
type Runner struct {
	PlayerID           string `json:"playerId"`
	ResponsiblePitcher string `json:"responsiblePitcher"`
	Base               Base   `json:"base"`
	Ghost              bool   `json:"ghost,omitempty"`
	ReachedOnError     bool   `json:"reachedOnError,omitempty"`
}

// GhostRunnerID is the placeholder identity used for automatic extra-inning
// runners.
const GhostRunnerID = "ghost-runner"

// BaseState holds at most one runner per base. It is treated as an immutable
// value: Advance returns a new state and never mutates its input.
type BaseState struct {
	First  *Runner `json:"first,omitempty"`
	Second *Runner `json:"second,omitempty"`
	Third  *Runner `json:"third,omitempty"`
}

// Empty reports whether no base is occupied.
func (bs BaseState) Empty() bool {
	return bs.First == nil && bs.Second == nil && bs.Third == nil
}

// Count returns the number of occupied bases.
func (bs BaseState) Count() int {
	n := 0
	for _, r := range []*Runner{bs.First, bs.Second, bs.Third} {
		if r != nil {
			n++
		}
	}
	return n
}

// At returns the runner occupying base b, or nil.
func (bs BaseState) At(b Base) *Runner {
	switch b {
	case BaseFirst:
		return bs.First
	case BaseSecond:
		return bs.Second
	case BaseThird:
		return bs.Third
	}
	return nil
}

// Runners returns copies of the occupied runners, lead runner first.
func (bs BaseState) Runners() []Runner {
	var out []Runner
	for _, b := range []Base{BaseThird, BaseSecond, BaseFirst} {
		if r := bs.At(b); r != nil {
			out = append(out, *r)
		}
	}
	return out
}

// String renders the occupancy compactly, e.g. "1:jones 3:smith".
func (bs BaseState) String() string {
	if bs.Empty() {
		return "empty"
	}
	var parts []string
	for _, b := range []Base{BaseFirst, BaseSecond, BaseThird} {
		if r := bs.At(b); r != nil {
			parts = append(parts, fmt.Sprintf("%d:%s", int(b), r.PlayerID))
		}
	}
	return strings.Join(parts, " ")
}

func (bs *BaseState) set(b Base, r *Runner) {
	switch b {
	case BaseFirst:
		bs.First = r
	case BaseSecond:
		bs.Second = r
	case BaseThird:
		bs.Third = r
	}
}

// clone returns a deep copy so the new state can be modified without
// touching the previous one.
func (bs BaseState) clone() BaseState {
	var out BaseState
	for _, b := range []Base{BaseFirst, BaseSecond, BaseThird} {
		if r := bs.At(b); r != nil {
			cp := *r
			out.set(b, &cp)
		}
	}
	return out
}

// StartHalfInning returns the initial base state for a half-inning. For any
// half-inning past the regulation length a placeholder runner is placed on
// second base, charged to the half-inning's starting pitcher, before the
// first plate appearance.
func StartHalfInning(inning, regulationInnings int, startingPitcher string) BaseState {
	var bs BaseState
	if inning > regulationInnings {
		bs.Second = &Runner{
			PlayerID:           GhostRunnerID,
			ResponsiblePitcher: startingPitcher,
			Base:               BaseSecond,
			Ghost:              true,
		}
	}
	return bs
}

// AdvanceResult is the outcome of applying one event to a base state.
type AdvanceResult struct {
	State  BaseState
	Runs   int
	Outs   int
	Scored []Runner  // runners who crossed the plate, batter included on a home run
	Issues []Anomaly // recovered invariant violations, location unset
}

// Advance applies the event's runner-advancement instructions to state and
// returns the new state. Invariant violations (backward movement, double
// occupancy, moves for unoccupied bases) are recovered best-effort and
// reported as IllegalAdvancement issues rather than aborting: a defective
// play is flagged, not dropped.
func Advance(state BaseState, ev PlayEvent, pitcher, batter string) AdvanceResult {
	res := AdvanceResult{}
	next := BaseState{}
	src := state.clone()

	moveFor := func(b Base) *RunnerMove {
		for i := range ev.Moves {
			if ev.Moves[i].From == b {
				return &ev.Moves[i]
			}
		}
		return nil
	}

	// Check moves that reference empty bases first; they signal a
	// normalizer defect.
	for _, m := range ev.Moves {
		if src.At(m.From) == nil {
			res.Issues = append(res.Issues, newAnomaly(AnomalyIllegalAdvancement,
				fmt.Sprintf("move from unoccupied base %s", m.From),
				"move ignored"))
		}
	}

	// Process lead runners first so a trailing runner never collides with
	// a base its lead runner is about to vacate.
	for _, b := range []Base{BaseThird, BaseSecond, BaseFirst} {
		r := src.At(b)
		if r == nil {
			continue
		}
		m := moveFor(b)
		if m == nil {
			// Runner holds.
			if next.At(b) != nil {
				res.Issues = append(res.Issues, newAnomaly(AnomalyIllegalAdvancement,
					fmt.Sprintf("runner %s held at occupied base %s", r.PlayerID, b),
					"runner removed from state"))
				continue
			}
			cp := *r
			next.set(b, &cp)
			continue
		}
		if m.Out {
			res.Outs++
			continue
		}
		if m.To == BaseHome {
			cp := *r
			res.Runs++
			res.Scored = append(res.Scored, cp)
			continue
		}
		if m.To <= b || m.To <= BaseNone {
			res.Issues = append(res.Issues, newAnomaly(AnomalyIllegalAdvancement,
				fmt.Sprintf("runner %s instructed to advance from %s to %s", r.PlayerID, b, m.To),
				"runner held at original base"))
			if next.At(b) == nil {
				cp := *r
				next.set(b, &cp)
			}
			continue
		}
		if next.At(m.To) != nil {
			res.Issues = append(res.Issues, newAnomaly(AnomalyIllegalAdvancement,
				fmt.Sprintf("runner %s advanced to occupied base %s", r.PlayerID, m.To),
				"runner held at original base"))
			if next.At(b) == nil {
				cp := *r
				cp.Base = b
				next.set(b, &cp)
			}
			continue
		}
		cp := *r
		cp.Base = m.To
		next.set(m.To, &cp)
	}

	if ev.BatterOut {
		res.Outs++
	}
	if ev.BatterReaches {
		br := Runner{
			PlayerID:           batter,
			ResponsiblePitcher: pitcher,
			Base:               ev.BatterBase,
			ReachedOnError:     ev.Kind == playtext.KindError,
		}
		if ev.BatterBase == BaseHome {
			res.Runs++
			res.Scored = append(res.Scored, br)
		} else if next.At(ev.BatterBase) != nil {
			res.Issues = append(res.Issues, newAnomaly(AnomalyIllegalAdvancement,
				fmt.Sprintf("batter %s reached occupied base %s", batter, ev.BatterBase),
				"batter runner dropped from state"))
		} else {
			next.set(ev.BatterBase, &br)
		}
	}

	res.State = next
	return res
}
