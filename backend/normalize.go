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
	"regexp"
	"strings"

	"github.com/ttbt-io/rekap/backend/playtext"
)

// Normalize classifies one raw play description into a concrete PlayEvent,
// resolved against the current game situation. It is a pure function of its
// inputs and the static rule table in the playtext package.
//
// When no classification rule matches, the play degrades to a generic out
// with no runner advancement and an UnrecognizedPlayPattern anomaly is
// returned alongside; partial output is preferred to failing the game.
func Normalize(raw RawPlay, ctx PlayContext) (PlayEvent, []Anomaly) {
	res := playtext.Classify(raw.Description)
	if !res.Matched {
		ev := PlayEvent{
			Kind:      playtext.KindGroundOut,
			Code:      "-",
			BatterOut: true,
			Outs:      1,
			CleanOuts: true,
			Fallback:  true,
		}
		a := newAnomaly(AnomalyUnrecognizedPlayPattern,
			snippet(raw.Description),
			"treated as generic out with no runner advancement")
		return ev, []Anomaly{a}
	}

	ev := resolveTemplate(res, raw, ctx)
	var anomalies []Anomaly
	ev, noteAnomalies := applyRunnerNotes(ev, res.Notes, raw, ctx)
	anomalies = append(anomalies, noteAnomalies...)

	// A double play retires two. With no force on and no runner clause
	// naming the second out, the lead runner not otherwise moving takes it;
	// when nobody is left to take it the play is flagged.
	if ev.Kind == playtext.KindDoublePlay && countOuts(ev) < 2 {
		if lead := leadUncommittedRunner(ctx.Bases, ev.Moves); lead != BaseNone {
			ev.Moves = append(ev.Moves, RunnerMove{From: lead, Out: true})
		} else {
			anomalies = append(anomalies, newAnomaly(AnomalyIllegalAdvancement,
				snippet(raw.Description),
				"double play with only one out accounted for"))
		}
	}

	ev.Outs = countOuts(ev)
	ev.RBI = countRBI(ev)
	return ev, anomalies
}

// snippet trims a description for anomaly reporting.
func snippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 120 {
		return s[:117] + "..."
	}
	return s
}

var stealTargetRe = regexp.MustCompile(`(?i)\b(?:stole|steals|stealing)\s+(second|third|home)\b`)

// resolveTemplate turns a matched template into a concrete event using the
// default runner-advancement rule for its kind. Explicit runner clauses are
// applied afterwards and override these defaults.
func resolveTemplate(res playtext.Result, raw RawPlay, ctx PlayContext) PlayEvent {
	ev := PlayEvent{
		Kind:      res.Kind,
		Code:      res.Code,
		Fielders:  res.Fielders,
		CleanOuts: true,
	}
	bases := ctx.Bases

	switch res.Kind {
	case playtext.KindStrikeout:
		ev.BatterOut = true

	case playtext.KindWalk, playtext.KindHitByPitch, playtext.KindCatcherInterference:
		ev.BatterReaches = true
		ev.BatterBase = BaseFirst
		ev.Moves = forcedChain(bases)

	case playtext.KindSingle:
		ev.BatterReaches = true
		ev.BatterBase = BaseFirst
		ev.Moves = advanceAll(bases, 2)

	case playtext.KindDouble:
		ev.BatterReaches = true
		ev.BatterBase = BaseSecond
		ev.Moves = advanceAll(bases, 3)

	case playtext.KindTriple:
		ev.BatterReaches = true
		ev.BatterBase = BaseThird
		ev.Moves = advanceAll(bases, 3)

	case playtext.KindHomeRun:
		ev.BatterReaches = true
		ev.BatterBase = BaseHome
		ev.Moves = advanceAll(bases, 3)

	case playtext.KindGroundOut, playtext.KindFlyOut:
		ev.BatterOut = true

	case playtext.KindFieldersChoice:
		ev.BatterReaches = true
		ev.BatterBase = BaseFirst
		if lead := leadForcedRunner(bases); lead != BaseNone {
			ev.Moves = append(ev.Moves, RunnerMove{From: lead, Out: true})
			// Trailing forced runners still advance behind the out.
			for _, m := range forcedChain(bases) {
				if m.From != lead {
					ev.Moves = append(ev.Moves, m)
				}
			}
		} else {
			// Nobody to force; score it as a plain groundout.
			ev.BatterReaches = false
			ev.BatterOut = true
		}

	case playtext.KindDoublePlay:
		ev.BatterOut = true
		if lead := leadForcedRunner(bases); lead != BaseNone {
			ev.Moves = append(ev.Moves, RunnerMove{From: lead, Out: true})
		}

	case playtext.KindTriplePlay:
		ev.BatterOut = true
		outs := 0
		for _, b := range []Base{BaseThird, BaseSecond, BaseFirst} {
			if bases.At(b) != nil && outs < 2 {
				ev.Moves = append(ev.Moves, RunnerMove{From: b, Out: true})
				outs++
			}
		}

	case playtext.KindSacrificeFly:
		ev.BatterOut = true
		if bases.Third != nil {
			ev.Moves = append(ev.Moves, RunnerMove{From: BaseThird, To: BaseHome})
		}

	case playtext.KindSacrificeBunt:
		ev.BatterOut = true
		ev.Moves = advanceAll(bases, 1)

	case playtext.KindError:
		ev.BatterReaches = true
		ev.BatterBase = BaseFirst
		ev.Moves = advanceAll(bases, 1)
		ev.Error = true
		ev.CleanOuts = false

	case playtext.KindStolenBase:
		from := leadStealer(bases)
		if m := stealTargetRe.FindStringSubmatch(raw.Description); m != nil {
			if tgt, ok := map[string]Base{"second": BaseSecond, "third": BaseThird, "home": BaseHome}[strings.ToLower(m[1])]; ok {
				if tgt == BaseHome {
					from = BaseThird
				} else {
					from = tgt - 1
				}
			}
		}
		if from != BaseNone && bases.At(from) != nil {
			ev.Moves = append(ev.Moves, RunnerMove{From: from, To: from + 1})
		}

	case playtext.KindCaughtStealing:
		from := leadStealer(bases)
		if m := stealTargetRe.FindStringSubmatch(raw.Description); m != nil {
			if tgt, ok := map[string]Base{"second": BaseSecond, "third": BaseThird, "home": BaseHome}[strings.ToLower(m[1])]; ok {
				if tgt == BaseHome {
					from = BaseThird
				} else {
					from = tgt - 1
				}
			}
		}
		if from != BaseNone && bases.At(from) != nil {
			ev.Moves = append(ev.Moves, RunnerMove{From: from, Out: true})
		}

	case playtext.KindWildPitch, playtext.KindPassedBall:
		ev.Moves = advanceAll(bases, 1)
	}

	return ev
}

// advanceAll moves every runner forward by n bases, capped at home.
// The default for hits follows the one-extra-base convention: a runner takes
// the bases the hit forces plus one, unless the description says otherwise.
func advanceAll(bases BaseState, n int) []RunnerMove {
	var moves []RunnerMove
	for _, b := range []Base{BaseThird, BaseSecond, BaseFirst} {
		if bases.At(b) == nil {
			continue
		}
		to := b + Base(n)
		if to > BaseHome {
			to = BaseHome
		}
		moves = append(moves, RunnerMove{From: b, To: to})
	}
	return moves
}

// forcedChain computes the moves for runners forced ahead by the batter
// taking first: the runner on first always, the others only while the chain
// behind them is unbroken.
func forcedChain(bases BaseState) []RunnerMove {
	var moves []RunnerMove
	if bases.First == nil {
		return nil
	}
	if bases.Second != nil && bases.Third != nil {
		moves = append(moves, RunnerMove{From: BaseThird, To: BaseHome})
	}
	if bases.Second != nil {
		moves = append(moves, RunnerMove{From: BaseSecond, To: BaseThird})
	}
	moves = append(moves, RunnerMove{From: BaseFirst, To: BaseSecond})
	return moves
}

// leadForcedRunner returns the base of the most advanced runner in the force
// chain started by the batter, or BaseNone when first base is open.
func leadForcedRunner(bases BaseState) Base {
	if bases.First == nil {
		return BaseNone
	}
	if bases.Second == nil {
		return BaseFirst
	}
	if bases.Third == nil {
		return BaseSecond
	}
	return BaseThird
}

// leadUncommittedRunner returns the most advanced occupied base that no move
// already covers, or BaseNone.
func leadUncommittedRunner(bases BaseState, moves []RunnerMove) Base {
	for _, b := range []Base{BaseThird, BaseSecond, BaseFirst} {
		if bases.At(b) == nil {
			continue
		}
		covered := false
		for _, m := range moves {
			if m.From == b {
				covered = true
				break
			}
		}
		if !covered {
			return b
		}
	}
	return BaseNone
}

// leadStealer returns the most advanced runner with an open base ahead.
func leadStealer(bases BaseState) Base {
	if bases.Third != nil {
		return BaseNone // stealing home is never assumed
	}
	if bases.Second != nil {
		return BaseSecond
	}
	if bases.First != nil {
		return BaseFirst
	}
	return BaseNone
}

// applyRunnerNotes overrides the default advancement with the explicit
// runner clauses parsed from the description ("jones scored", "smith out at
// third"). A clause naming the batter adjusts the batter's disposition
// instead.
func applyRunnerNotes(ev PlayEvent, notes []playtext.RunnerNote, raw RawPlay, ctx PlayContext) (PlayEvent, []Anomaly) {
	var anomalies []Anomaly
	for _, note := range notes {
		if nameMatches(note.Name, raw.Batter) {
			switch {
			case note.Scores:
				ev.BatterReaches = true
				ev.BatterBase = BaseHome
			case note.Out:
				ev.BatterReaches = false
				ev.BatterOut = true
			case note.To > 0:
				ev.BatterReaches = true
				ev.BatterBase = Base(note.To)
			}
			continue
		}

		from := findRunnerByName(ctx.Bases, note.Name)
		if from == BaseNone {
			anomalies = append(anomalies, newAnomaly(AnomalyIllegalAdvancement,
				fmt.Sprintf("runner clause %q matches no runner on base", note.Name),
				"clause ignored"))
			continue
		}

		ev.Moves = removeMove(ev.Moves, from)
		switch {
		case note.Hold:
			// Default move removed; runner stays put.
		case note.Out:
			ev.Moves = append(ev.Moves, RunnerMove{From: from, Out: true})
		case note.Scores:
			ev.Moves = append(ev.Moves, RunnerMove{From: from, To: BaseHome})
		case note.To > 0:
			ev.Moves = append(ev.Moves, RunnerMove{From: from, To: Base(note.To)})
		}
	}
	return ev, anomalies
}

func removeMove(moves []RunnerMove, from Base) []RunnerMove {
	out := moves[:0:0]
	for _, m := range moves {
		if m.From != from {
			out = append(out, m)
		}
	}
	return out
}

// findRunnerByName matches a clause name fragment against the runners on
// base, lead runner first. IDs in the feeds are player names, so a
// case-insensitive containment check in either direction is enough.
func findRunnerByName(bases BaseState, name string) Base {
	for _, b := range []Base{BaseThird, BaseSecond, BaseFirst} {
		r := bases.At(b)
		if r != nil && nameMatches(name, r.PlayerID) {
			return b
		}
	}
	return BaseNone
}

func nameMatches(fragment, id string) bool {
	fragment = strings.ToLower(strings.TrimSpace(fragment))
	id = strings.ToLower(strings.TrimSpace(id))
	if fragment == "" || id == "" {
		return false
	}
	if strings.Contains(id, fragment) || strings.Contains(fragment, id) {
		return true
	}
	// Fall back to last-name matching: "b. smith" vs "bob smith".
	ft := lastToken(fragment)
	it := lastToken(id)
	return ft != "" && ft == it
}

func lastToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

func countOuts(ev PlayEvent) int {
	outs := 0
	if ev.BatterOut {
		outs++
	}
	for _, m := range ev.Moves {
		if m.Out {
			outs++
		}
	}
	return outs
}

// countRBI counts the runs the resolved event would bat in. The simulator
// recomputes actual runs; this is the batter-credit figure.
func countRBI(ev PlayEvent) int {
	if !ev.creditsRBI() {
		return 0
	}
	rbi := 0
	if ev.BatterReaches && ev.BatterBase == BaseHome {
		rbi++
	}
	for _, m := range ev.Moves {
		if !m.Out && m.To == BaseHome {
			rbi++
		}
	}
	return rbi
}
