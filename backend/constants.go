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

// Schema Versions
const (
	SchemaVersionV1      = 1
	CurrentSchemaVersion = SchemaVersionV1
)

const CurrentAppVersion = "0.1.0"

// Inning halves
const (
	HalfTop    = "top"
	HalfBottom = "bottom"
)

// Pitch tags carried on RawPlay records.
const (
	PitchTagBall   = "ball"
	PitchTagStrike = "strike"
	PitchTagFoul   = "foul"
	PitchTagInPlay = "in_play"
)

// Game statuses
const (
	StatusFinal     = "final"
	StatusSuspended = "suspended"
)

// Defaults for the reconstruction config surface.
const (
	DefaultRegulationInnings = 9
	DefaultKeyPlayThreshold  = 0.10
)

// teamNames maps the common scoreboard abbreviations to full team names.
// Passed through to output metadata so the rendering layer does not need
// its own table. Historical codes (BRO, WSA, PHA...) map to the franchise
// name in use at the time.
var teamNames = map[string]string{
	"ARI": "Arizona Diamondbacks",
	"ATL": "Atlanta Braves",
	"BAL": "Baltimore Orioles",
	"BOS": "Boston Red Sox",
	"BRO": "Brooklyn Dodgers",
	"BSN": "Boston Braves",
	"CHC": "Chicago Cubs",
	"CHW": "Chicago White Sox",
	"CIN": "Cincinnati Reds",
	"CLE": "Cleveland Guardians",
	"COL": "Colorado Rockies",
	"DET": "Detroit Tigers",
	"FLA": "Florida Marlins",
	"HOU": "Houston Astros",
	"KCR": "Kansas City Royals",
	"LAA": "Los Angeles Angels",
	"LAD": "Los Angeles Dodgers",
	"MIA": "Miami Marlins",
	"MIL": "Milwaukee Brewers",
	"MIN": "Minnesota Twins",
	"MON": "Montreal Expos",
	"NYM": "New York Mets",
	"NYY": "New York Yankees",
	"OAK": "Oakland Athletics",
	"PHA": "Philadelphia Athletics",
	"PHI": "Philadelphia Phillies",
	"PIT": "Pittsburgh Pirates",
	"SDP": "San Diego Padres",
	"SEA": "Seattle Mariners",
	"SFG": "San Francisco Giants",
	"SLB": "St. Louis Browns",
	"STL": "St. Louis Cardinals",
	"TBR": "Tampa Bay Rays",
	"TEX": "Texas Rangers",
	"TOR": "Toronto Blue Jays",
	"WSH": "Washington Nationals",
	"WSA": "Washington Senators",
}

// TeamName returns the full name for a scoreboard abbreviation, or the
// abbreviation itself when unknown.
func TeamName(code string) string {
	if name, ok := teamNames[code]; ok {
		return name
	}
	return code
}
