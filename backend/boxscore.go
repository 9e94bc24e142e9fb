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

// KeyPlaySummary is the compact key-play record included in boxscores.
type KeyPlaySummary struct {
	Inning      int     `json:"inning"`
	Half        string  `json:"half"`
	Batter      string  `json:"batter"`
	Code        string  `json:"code"`
	WPBefore    float64 `json:"wpBefore"`
	WPAfter     float64 `json:"wpAfter"`
	Description string  `json:"description,omitempty"`
}

// BoxscoreView is the game summary served without the play-by-play payload.
type BoxscoreView struct {
	ID         string `json:"id"`
	Date       string `json:"date,omitempty"`
	Venue      string `json:"venue,omitempty"`
	Attendance int    `json:"attendance,omitempty"`

	Away     string `json:"away"`
	Home     string `json:"home"`
	AwayName string `json:"awayName,omitempty"`
	HomeName string `json:"homeName,omitempty"`

	Linescore Linescore `json:"linescore"`
	FinalAway int       `json:"finalAway"`
	FinalHome int       `json:"finalHome"`

	PitcherEarnedRuns map[string]int          `json:"pitcherEarnedRuns,omitempty"`
	Scorecards        map[string][]BatterLine `json:"scorecards,omitempty"`
	KeyPlays          []KeyPlaySummary        `json:"keyPlays,omitempty"`

	Anomalies int    `json:"anomalies"`
	Status    string `json:"status"`
}

// Boxscore derives the summary view from a reconstructed game.
func Boxscore(g *Game) BoxscoreView {
	v := BoxscoreView{
		ID:                g.ID,
		Date:              g.Date,
		Venue:             g.Venue,
		Attendance:        g.Attendance,
		Away:              g.Away,
		Home:              g.Home,
		AwayName:          g.AwayName,
		HomeName:          g.HomeName,
		Linescore:         g.Linescore,
		FinalAway:         g.FinalAway,
		FinalHome:         g.FinalHome,
		PitcherEarnedRuns: g.PitcherEarnedRuns,
		Scorecards:        g.Scorecards,
		Anomalies:         len(g.Anomalies),
		Status:            g.Status,
	}
	for _, pa := range g.KeyPlays() {
		v.KeyPlays = append(v.KeyPlays, KeyPlaySummary{
			Inning:   pa.Inning,
			Half:     pa.Half,
			Batter:   pa.Batter,
			Code:     pa.Event.Code,
			WPBefore: pa.WPBefore,
			WPAfter:  pa.WPAfter,
		})
	}
	return v
}
