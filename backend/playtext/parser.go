package playtext

import (
	"regexp"
	"strings"
)

// RunnerNote is an explicit runner instruction parsed from a trailing clause
// of a play description, e.g. "Jones scored" or "Smith out at third".
type RunnerNote struct {
	Name   string // runner name fragment as written
	To     int    // target base 1-3, TargetHome when Scores, 0 when Out/Hold
	Out    bool
	OutAt  int // base the runner was retired at, when known
	Scores bool
	Hold   bool
}

// Result is the outcome template matched from a play description. The
// normalizer resolves it against the live base state to produce a concrete
// event.
type Result struct {
	Kind     Kind
	Code     string // scorecard notation, e.g. "GO6-3", "F8", "HR"
	Fielders []int  // ordered, for relay credit
	Looking  bool   // strikeout looking
	Notes    []RunnerNote
	Matched  bool   // false means no rule applied and the caller must fall back
	Rule     string // name of the matched rule, for diagnostics
}

var (
	parenRe  = regexp.MustCompile(`\([^)]*\)`)
	spacesRe = regexp.MustCompile(`\s+`)

	noteScoresRe = regexp.MustCompile(`^(.+?)\s+scor(?:es|ed)$`)
	noteOutRe    = regexp.MustCompile(`^(.+?)\s+(?:thrown out|forced out|doubled off|picked off|out)\s+at\s+(first|second|third|home)\b`)
	noteOffRe    = regexp.MustCompile(`^(.+?)\s+(?:doubled|picked)\s+off\s+(first|second|third)\b`)
	noteAdvRe    = regexp.MustCompile(`^(.+?)\s+(?:advanced?\s+to|to)\s+(second|third)\b`)
	noteHoldRe   = regexp.MustCompile(`^(.+?)\s+(?:holds|held)\s+at\s+(second|third)\b`)

	// Filler words the feeds sprinkle into descriptions that carry no
	// classification signal.
	fillerRe = regexp.MustCompile(`\b(deep|shallow|short|weak|sharp|softly|hard|thru|through the hole)\b`)
)

var baseNames = map[string]int{
	"first":  TargetFirst,
	"second": TargetSecond,
	"third":  TargetThird,
	"home":   TargetHome,
}

// Classify runs the description through the ordered rule table and returns
// the matched template. Result.Matched is false when nothing applied; the
// caller decides the fallback.
//
// The first clause of the description carries the batter's outcome; trailing
// clauses ("Jones scored", "Smith to third") become RunnerNotes. When the
// first clause alone does not match, the whole text is retried before giving
// up, since some feeds bury the outcome mid-sentence.
func Classify(description string) Result {
	cleaned := clean(description)
	if cleaned == "" {
		return Result{}
	}

	clauses := splitClauses(cleaned)
	main := clauses[0]

	res := Result{}
	// Trailing clauses that are not runner notes stay visible to build:
	// "grounds out, shortstop to first baseman" carries its fielders there.
	buildText := main
	for _, cl := range clauses[1:] {
		if note, ok := parseRunnerNote(cl); ok {
			res.Notes = append(res.Notes, note)
		} else {
			buildText += ", " + cl
		}
	}

	for _, ru := range rules {
		if ru.match(main) {
			ru.build(buildText, &res)
			res.Matched = true
			res.Rule = ru.name
			return res
		}
	}
	for _, ru := range rules {
		if ru.match(cleaned) {
			ru.build(cleaned, &res)
			res.Matched = true
			res.Rule = ru.name
			return res
		}
	}
	return res
}

// clean lowercases the text, strips parentheticals (pitch counts, hit
// distances) and filler adjectives, and collapses whitespace.
func clean(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = parenRe.ReplaceAllString(s, " ")
	s = fillerRe.ReplaceAllString(s, " ")
	s = spacesRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// splitClauses splits a cleaned description on sentence and clause
// boundaries. The result always has at least one element.
func splitClauses(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '.' || r == ',' || r == ';'
	})
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		out = []string{s}
	}
	return out
}

// parseRunnerNote matches one trailing clause against the runner note
// patterns. Order matters: "out at" must win over the generic "to" pattern.
func parseRunnerNote(clause string) (RunnerNote, bool) {
	if m := noteScoresRe.FindStringSubmatch(clause); m != nil {
		return RunnerNote{Name: trimName(m[1]), To: TargetHome, Scores: true}, true
	}
	if m := noteOutRe.FindStringSubmatch(clause); m != nil {
		return RunnerNote{Name: trimName(m[1]), Out: true, OutAt: baseNames[m[2]]}, true
	}
	// "doubled off second" is the usual lineout phrasing, no "at".
	if m := noteOffRe.FindStringSubmatch(clause); m != nil {
		return RunnerNote{Name: trimName(m[1]), Out: true, OutAt: baseNames[m[2]]}, true
	}
	if m := noteHoldRe.FindStringSubmatch(clause); m != nil {
		return RunnerNote{Name: trimName(m[1]), Hold: true}, true
	}
	if m := noteAdvRe.FindStringSubmatch(clause); m != nil {
		return RunnerNote{Name: trimName(m[1]), To: baseNames[m[2]]}, true
	}
	return RunnerNote{}, false
}

func trimName(s string) string {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"and ", "with "} {
		s = strings.TrimPrefix(s, prefix)
	}
	return s
}
