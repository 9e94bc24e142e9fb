package playtext

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind enumerates the canonical play outcome kinds a description can
// classify into.
type Kind string

const (
	KindStrikeout           Kind = "STRIKEOUT"
	KindWalk                Kind = "WALK"
	KindHitByPitch          Kind = "HIT_BY_PITCH"
	KindSingle              Kind = "SINGLE"
	KindDouble              Kind = "DOUBLE"
	KindTriple              Kind = "TRIPLE"
	KindHomeRun             Kind = "HOME_RUN"
	KindGroundOut           Kind = "GROUND_OUT"
	KindFlyOut              Kind = "FLY_OUT"
	KindFieldersChoice      Kind = "FIELDERS_CHOICE"
	KindDoublePlay          Kind = "DOUBLE_PLAY"
	KindTriplePlay          Kind = "TRIPLE_PLAY"
	KindSacrificeFly        Kind = "SACRIFICE_FLY"
	KindSacrificeBunt       Kind = "SACRIFICE_BUNT"
	KindError               Kind = "ERROR"
	KindCatcherInterference Kind = "CATCHER_INTERFERENCE"
	KindStolenBase          Kind = "STOLEN_BASE"
	KindCaughtStealing      Kind = "CAUGHT_STEALING"
	KindWildPitch           Kind = "WILD_PITCH"
	KindPassedBall          Kind = "PASSED_BALL"
)

// Target bases used in runner notes. 4 means home plate.
const (
	TargetFirst  = 1
	TargetSecond = 2
	TargetThird  = 3
	TargetHome   = 4
)

// rule is one entry in the ordered classification table. match decides
// whether the rule applies to the cleaned main clause; build fills in the
// kind, scorecard code and fielders.
type rule struct {
	name  string
	match func(s string) bool
	build func(s string, r *Result)
}

func hasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// positionWords maps fielding position phrases to scorer numbering 1-9.
// Longer phrases must be listed before their prefixes (e.g. "first baseman"
// before "first base") so extraction is unambiguous.
var positionWords = []struct {
	phrase string
	num    int
}{
	{"first baseman", 3},
	{"second baseman", 4},
	{"third baseman", 5},
	{"shortstop", 6},
	{"short stop", 6},
	{"left fielder", 7},
	{"left field", 7},
	{"center fielder", 8},
	{"center field", 8},
	{"right fielder", 9},
	{"right field", 9},
	{"catcher", 2},
	{"pitcher", 1},
}

// positionAbbrs maps the short forms used in terse feeds ("6-4-3", "ss to 1b").
var positionAbbrs = map[string]int{
	"p": 1, "c": 2, "1b": 3, "2b": 4, "3b": 5, "ss": 6, "lf": 7, "cf": 8, "rf": 9,
}

var fielderChainRe = regexp.MustCompile(`\b([1-9])((?:\s*-\s*[1-9])+)\b`)
var abbrRe = regexp.MustCompile(`\b(ss|lf|cf|rf|1b|2b|3b)\b`)

// extractFielders pulls the ordered fielder chain out of a clause.
// It prefers an explicit numeric chain like "6-3", then falls back to
// position phrases in the order they appear.
func extractFielders(s string) []int {
	if m := fielderChainRe.FindStringSubmatch(s); m != nil {
		out := []int{int(m[1][0] - '0')}
		for _, part := range strings.Split(m[2], "-") {
			part = strings.TrimSpace(part)
			if len(part) == 1 && part[0] >= '1' && part[0] <= '9' {
				out = append(out, int(part[0]-'0'))
			}
		}
		return out
	}

	type hit struct {
		idx int
		num int
	}
	var hits []hit
	for _, pw := range positionWords {
		idx := strings.Index(s, pw.phrase)
		for idx >= 0 {
			hits = append(hits, hit{idx, pw.num})
			next := strings.Index(s[idx+len(pw.phrase):], pw.phrase)
			if next < 0 {
				break
			}
			idx = idx + len(pw.phrase) + next
		}
		// Mask matched phrases so "first baseman" does not also match a
		// shorter overlapping phrase later in the table.
		s = strings.ReplaceAll(s, pw.phrase, strings.Repeat("#", len(pw.phrase)))
	}
	for _, m := range abbrRe.FindAllStringSubmatchIndex(s, -1) {
		abbr := s[m[2]:m[3]]
		if n, ok := positionAbbrs[abbr]; ok {
			hits = append(hits, hit{m[2], n})
		}
	}
	// Order by position in the text.
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].idx < hits[j-1].idx; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
	var out []int
	for _, h := range hits {
		out = append(out, h.num)
	}
	return out
}

func fielderCode(prefix string, fielders []int, def int) string {
	if len(fielders) == 0 {
		if def == 0 {
			return prefix
		}
		return fmt.Sprintf("%s%d", prefix, def)
	}
	parts := make([]string, len(fielders))
	for i, f := range fielders {
		parts[i] = fmt.Sprintf("%d", f)
	}
	if prefix == "GO" && len(fielders) > 1 {
		return "GO" + strings.Join(parts, "-")
	}
	return prefix + parts[0]
}

// rules is the ordered classification table, most specific first. A tie goes
// to the earlier rule, so multi-word outcomes ("lined into a double play")
// must come before the generic forms they contain ("lined out").
var rules = []rule{
	{
		name:  "triple-play",
		match: func(s string) bool { return strings.Contains(s, "triple play") },
		build: func(s string, r *Result) {
			r.Kind = KindTriplePlay
			r.Fielders = extractFielders(s)
			r.Code = "TP"
		},
	},
	{
		name:  "double-play",
		match: func(s string) bool { return strings.Contains(s, "double play") },
		build: func(s string, r *Result) {
			r.Kind = KindDoublePlay
			r.Fielders = extractFielders(s)
			r.Code = "DP"
		},
	},
	{
		name:  "sacrifice-fly",
		match: func(s string) bool { return hasAny(s, "sacrifice fly", "sac fly") },
		build: func(s string, r *Result) {
			r.Kind = KindSacrificeFly
			r.Fielders = extractFielders(s)
			r.Code = fielderCode("SF", r.Fielders, 0)
		},
	},
	{
		name:  "sacrifice-bunt",
		match: func(s string) bool { return hasAny(s, "sacrifice bunt", "sac bunt", "sacrifices", "sacrificed") },
		build: func(s string, r *Result) {
			r.Kind = KindSacrificeBunt
			r.Fielders = extractFielders(s)
			r.Code = "SAC"
		},
	},
	{
		name: "catcher-interference",
		match: func(s string) bool {
			return strings.Contains(s, "interference")
		},
		build: func(s string, r *Result) {
			r.Kind = KindCatcherInterference
			r.Code = "CI"
		},
	},
	{
		name:  "hit-by-pitch",
		match: func(s string) bool { return hasAny(s, "hit by pitch", "hit by a pitch") },
		build: func(s string, r *Result) {
			r.Kind = KindHitByPitch
			r.Code = "HBP"
		},
	},
	{
		name:  "wild-pitch",
		match: func(s string) bool { return strings.Contains(s, "wild pitch") },
		build: func(s string, r *Result) {
			r.Kind = KindWildPitch
			r.Code = "WP"
		},
	},
	{
		name:  "passed-ball",
		match: func(s string) bool { return strings.Contains(s, "passed ball") },
		build: func(s string, r *Result) {
			r.Kind = KindPassedBall
			r.Code = "PB"
		},
	},
	{
		name:  "caught-stealing",
		match: func(s string) bool { return hasAny(s, "caught stealing", "out stealing") },
		build: func(s string, r *Result) {
			r.Kind = KindCaughtStealing
			r.Fielders = extractFielders(s)
			r.Code = "CS"
		},
	},
	{
		name:  "stolen-base",
		match: func(s string) bool { return hasAny(s, "stolen base", "steals ", "stole ") },
		build: func(s string, r *Result) {
			r.Kind = KindStolenBase
			r.Code = "SB"
		},
	},
	{
		name: "home-run",
		match: func(s string) bool {
			return hasAny(s, "home run", "homers", "homered", "grand slam")
		},
		build: func(s string, r *Result) {
			r.Kind = KindHomeRun
			r.Code = "HR"
		},
	},
	{
		name:  "triple",
		match: func(s string) bool { return hasAny(s, "triples", "tripled", "triple ") || strings.HasSuffix(s, "triple") },
		build: func(s string, r *Result) {
			r.Kind = KindTriple
			r.Code = "3B"
		},
	},
	{
		name:  "double",
		match: func(s string) bool { return hasAny(s, "doubles", "doubled", "double ") || strings.HasSuffix(s, "double") },
		build: func(s string, r *Result) {
			r.Kind = KindDouble
			r.Code = "2B"
		},
	},
	{
		name:  "single",
		match: func(s string) bool { return hasAny(s, "singles", "singled", "single ") || strings.HasSuffix(s, "single") },
		build: func(s string, r *Result) {
			r.Kind = KindSingle
			r.Code = "1B"
		},
	},
	{
		name: "walk",
		match: func(s string) bool {
			return hasAny(s, "walks", "walked", "base on balls", "intentional walk", "intentionally walked")
		},
		build: func(s string, r *Result) {
			r.Kind = KindWalk
			r.Code = "BB"
		},
	},
	{
		name: "strikeout",
		match: func(s string) bool {
			return hasAny(s, "strikes out", "struck out", "strikeout", "called out on strikes")
		},
		build: func(s string, r *Result) {
			r.Kind = KindStrikeout
			if hasAny(s, "looking", "called out on strikes") {
				r.Looking = true
				r.Code = "ꓘ" // backward K, struck out looking
			} else {
				r.Code = "K"
			}
		},
	},
	{
		name: "fielders-choice",
		match: func(s string) bool {
			return hasAny(s, "fielder's choice", "fielders choice", "force out", "forceout", "forces out")
		},
		build: func(s string, r *Result) {
			r.Kind = KindFieldersChoice
			r.Fielders = extractFielders(s)
			r.Code = "FC"
		},
	},
	{
		name: "error",
		match: func(s string) bool {
			return hasAny(s, "error", "misplayed", "dropped the throw")
		},
		build: func(s string, r *Result) {
			r.Kind = KindError
			r.Fielders = extractFielders(s)
			r.Code = fielderCode("E", r.Fielders, 0)
		},
	},
	{
		name: "ground-out",
		match: func(s string) bool {
			return hasAny(s, "grounds out", "grounded out", "groundout", "ground out", "grounds into")
		},
		build: func(s string, r *Result) {
			r.Kind = KindGroundOut
			r.Fielders = extractFielders(s)
			if strings.Contains(s, "unassisted") && len(r.Fielders) == 1 && r.Fielders[0] == 3 {
				r.Code = "GO3U"
			} else {
				r.Code = fielderCode("GO", r.Fielders, 0)
			}
		},
	},
	{
		name: "line-out",
		match: func(s string) bool {
			return hasAny(s, "lines out", "lined out", "lineout", "line out", "line drive")
		},
		build: func(s string, r *Result) {
			r.Kind = KindFlyOut
			r.Fielders = extractFielders(s)
			r.Code = fielderCode("L", r.Fielders, 0)
		},
	},
	{
		name: "pop-out",
		match: func(s string) bool {
			return hasAny(s, "pops out", "popped out", "popout", "pop out", "pop fly", "popfly", "pops up")
		},
		build: func(s string, r *Result) {
			r.Kind = KindFlyOut
			r.Fielders = extractFielders(s)
			r.Code = fielderCode("P", r.Fielders, 0)
		},
	},
	{
		name: "foul-out",
		match: func(s string) bool {
			return hasAny(s, "fouls out", "fouled out")
		},
		build: func(s string, r *Result) {
			r.Kind = KindFlyOut
			r.Fielders = extractFielders(s)
			r.Code = fielderCode("F", r.Fielders, 2)
		},
	},
	{
		name: "fly-out",
		match: func(s string) bool {
			return hasAny(s, "flies out", "flied out", "flyout", "fly out", "flyball", "fly ball")
		},
		build: func(s string, r *Result) {
			r.Kind = KindFlyOut
			r.Fielders = extractFielders(s)
			r.Code = fielderCode("F", r.Fielders, 0)
		},
	},
}
