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
)

// validateStringLen checks if the string length is within the limit.
func validateStringLen(s string, max int, name string) error {
	if len(s) > max {
		return fmt.Errorf("%s too long (max %d chars)", name, max)
	}
	return nil
}

// validPitchTags is the closed set of per-pitch tags a RawPlay may carry.
var validPitchTags = map[string]bool{
	PitchTagBall:   true,
	PitchTagStrike: true,
	PitchTagFoul:   true,
	PitchTagInPlay: true,
}

// ValidateGameInput validates the acquisition envelope before the pipeline
// touches it: field shapes, value ranges, and the inning ordering of the
// play list. Structural problems here are a hard failure for the game.
func ValidateGameInput(in *GameInput) error {
	if err := validateStringLen(in.ID, 64, "game ID"); err != nil {
		return err
	}
	if in.Away == "" || in.Home == "" {
		return fmt.Errorf("missing team codes")
	}
	if err := validateStringLen(in.Away, 10, "away team code"); err != nil {
		return err
	}
	if err := validateStringLen(in.Home, 10, "home team code"); err != nil {
		return err
	}
	if err := validateStringLen(in.Venue, 100, "venue"); err != nil {
		return err
	}
	if err := validateStringLen(in.Weather, 100, "weather"); err != nil {
		return err
	}
	if len(in.Plays) == 0 {
		return fmt.Errorf("no plays")
	}

	for i := range in.Plays {
		if err := validateRawPlay(&in.Plays[i]); err != nil {
			return fmt.Errorf("invalid play at index %d: %w", i, err)
		}
	}
	return validatePlayOrder(in.Plays)
}

func validateRawPlay(p *RawPlay) error {
	if p.Inning < 1 {
		return fmt.Errorf("invalid inning: %d", p.Inning)
	}
	if p.Half != HalfTop && p.Half != HalfBottom {
		return fmt.Errorf("invalid half: %q", p.Half)
	}
	if p.Batter == "" {
		return fmt.Errorf("missing batter")
	}
	if err := validateStringLen(p.Batter, 50, "batter"); err != nil {
		return err
	}
	if p.Pitcher == "" {
		return fmt.Errorf("missing pitcher")
	}
	if err := validateStringLen(p.Pitcher, 50, "pitcher"); err != nil {
		return err
	}
	if err := validateStringLen(p.Description, 500, "description"); err != nil {
		return err
	}
	for _, tag := range p.Pitches {
		if !validPitchTags[tag] {
			return fmt.Errorf("invalid pitch tag: %q", tag)
		}
	}
	if p.RunsScored < 0 || p.RunsScored > 4 {
		return fmt.Errorf("invalid runs scored: %d", p.RunsScored)
	}
	if p.OutsRecorded < 0 || p.OutsRecorded > 3 {
		return fmt.Errorf("invalid outs recorded: %d", p.OutsRecorded)
	}
	if p.WPBefore < 0 || p.WPBefore > 1 || p.WPAfter < 0 || p.WPAfter > 1 {
		return fmt.Errorf("win probability out of range")
	}
	return nil
}

// validatePlayOrder checks that the play list walks through half-innings in
// game order: top before bottom, innings ascending, no going back.
func validatePlayOrder(plays []RawPlay) error {
	prev := plays[0]
	for i := 1; i < len(plays); i++ {
		cur := plays[i]
		ok := false
		switch {
		case cur.Inning == prev.Inning && cur.Half == prev.Half:
			ok = true
		case cur.Inning == prev.Inning && prev.Half == HalfTop && cur.Half == HalfBottom:
			ok = true
		case cur.Inning == prev.Inning+1 && cur.Half == HalfTop:
			ok = true
		}
		if !ok {
			return fmt.Errorf("plays out of order at index %d: %s of %d after %s of %d",
				i, cur.Half, cur.Inning, prev.Half, prev.Inning)
		}
		prev = cur
	}
	return nil
}
