// internal/puzzle/extract.go
//
// Solution extractor.
// Responsibilities:
//   - Clean raw move text (comments, variations, NAGs, results).
//   - Capture the first move of a mate-in-one.
//   - Capture {first, reply, mate} of a mate-in-two through an ordered list
//     of strategies, each tolerating one formatting variant.
//
// Extraction never fails loudly: an unmatched record yields empty tokens
// and the caller decides whether the puzzle is playable.

package puzzle

import (
	"regexp"
	"strings"
)

// san matches one move in standard algebraic notation with an optional
// check or mate suffix. Longer castling must stay ahead of the shorter one.
const san = `((?:O-O-O|O-O|0-0-0|0-0|[KQRBN][a-h]?[1-8]?x?[a-h][1-8]|[a-h](?:x[a-h])?[1-8](?:=?[QRBN])?)[+#]?)`

const (
	moveNo      = `\d+\s*\.`
	blackMarker = `(?:\d+\s*)?\.\.\.`
	separator   = `[^A-Za-z0-9]`
)

// Strategy captures a mate-in-two solution from one textual variant.
type Strategy struct {
	Name string
	re   *regexp.Regexp
}

// Match applies the strategy to cleaned move text.
func (s Strategy) Match(text string) (Solution, bool) {
	m := s.re.FindStringSubmatch(text)
	if m == nil {
		return Solution{}, false
	}
	return Solution{First: Token(m[1]), Reply: Token(m[2]), Mate: Token(m[3])}, true
}

// MateInTwoStrategies are tried in this order and the first match wins.
// Looser patterns come last: tried earlier they can mis-capture text that a
// stricter pattern reads correctly.
var MateInTwoStrategies = []Strategy{
	{
		// 1.Qg6+ Kh8 2.Qg7#
		Name: "plain",
		re:   regexp.MustCompile(moveNo + `\s*` + san + `\s+` + san + `\s+` + moveNo + `\s*` + san),
	},
	{
		// 1.Qg6+ 1...Kh8 2.Qg7#   or   1.Qg6+ ... Kh8 2.Qg7#
		Name: "black-to-move-marker",
		re: regexp.MustCompile(moveNo + `\s*` + san + `\s+` + blackMarker + `\s*` + san + `\s+` +
			moveNo + `\s*` + san),
	},
	{
		// 1.Qg6+! -- Kh8 2.Qg7#
		Name: "punctuation-separated",
		re: regexp.MustCompile(moveNo + `\s*` + san + separator + `+` + san + separator + `*` +
			moveNo + `+\s*` + san),
	},
	{
		// 1...Qg3+ 2.Kh1 Qg2#
		Name: "black-first",
		re:   regexp.MustCompile(blackMarker + `\s*` + san + `\s+` + moveNo + `\s*` + san + `\s+` + san),
	},
}

var firstMoveRe = regexp.MustCompile(`\d+\s*\.+\s*` + san)

var (
	commentRe     = regexp.MustCompile(`\{[^}]*\}`)
	variationRe   = regexp.MustCompile(`\([^()]*\)`)
	lineCommentRe = regexp.MustCompile(`;[^\n]*`)
	nagRe         = regexp.MustCompile(`\$\d+`)
	suffixRe      = regexp.MustCompile(`([A-Za-z0-9+#])[!?]+`)
	resultRe      = regexp.MustCompile(`(?:1-0|0-1|1/2-1/2|\*)\s*$`)
	spaceRe       = regexp.MustCompile(`\s+`)
)

// Extract derives the solution of rec from its category and move text.
func Extract(rec Record) Solution {
	text := CleanMoveText(rec.MoveText)
	if rec.Category == MateInOne {
		m := firstMoveRe.FindStringSubmatch(text)
		if m == nil {
			return Solution{}
		}
		return Solution{First: Token(m[1])}
	}
	for _, st := range MateInTwoStrategies {
		if sol, ok := st.Match(text); ok {
			return sol
		}
	}
	return Solution{}
}

// CleanMoveText removes commentary so that no annotation can leak into a
// captured token, and collapses whitespace.
func CleanMoveText(text string) string {
	text = lineCommentRe.ReplaceAllString(text, " ")
	text = commentRe.ReplaceAllString(text, " ")
	// variations may nest; peel the innermost until none remain
	for variationRe.MatchString(text) {
		text = variationRe.ReplaceAllString(text, " ")
	}
	text = nagRe.ReplaceAllString(text, " ")
	text = suffixRe.ReplaceAllString(text, "$1") // Qg6+! -> Qg6+
	text = spaceRe.ReplaceAllString(text, " ")
	text = resultRe.ReplaceAllString(strings.TrimSpace(text), "")
	return strings.TrimSpace(text)
}
