// internal/puzzle/parser.go
//
// Record parser for PGN-style puzzle collections.
// Responsibilities:
//   - Split a multi-puzzle blob into record chunks at the opening tag.
//   - Extract tag pairs, the board position (FEN tag) and the category field.
//   - Keep the remaining move text for the solution extractor.
//
// Notes:
//   - Chunks without a FEN tag are dropped silently; partial trailing
//     chunks are expected at blob boundaries.
//   - Records keep input order and receive a stable 0-based Index.

package puzzle

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

// RecordDelimiter is the tag that opens every record in the source text.
const RecordDelimiter = "[Event "

// positionTag holds the board position of a record.
const positionTag = "FEN"

// categoryTags are inspected in order for the category field.
var categoryTags = []string{"Annotator", "White", "Event", "Black"}

var (
	tagPairRe   = regexp.MustCompile(`\[(\w+)\s+"([^"]*)"\]`)
	mateInOneRe = regexp.MustCompile(`(?i)\bmate\s+in\s+(?:one|1)\b`)
)

// Parse splits blob into puzzle records.
func Parse(blob string) []Record {
	chunks := splitRecords(blob)
	out := make([]Record, 0, len(chunks))
	for _, chunk := range chunks {
		rec, ok := parseRecord(chunk)
		if !ok {
			continue
		}
		rec.Index = len(out)
		rec.ID = fmt.Sprintf("puzzle-%d", rec.Index+1)
		out = append(out, rec)
	}
	if dropped := len(chunks) - len(out); dropped > 0 {
		log.Debug().Int("accepted", len(out)).Int("dropped", dropped).Msg("parsed puzzle records")
	}
	return out
}

// splitRecords cuts blob at every RecordDelimiter. Text before the first
// delimiter belongs to no record and is discarded.
func splitRecords(blob string) []string {
	blob = strings.ReplaceAll(blob, "\r\n", "\n")
	parts := strings.Split(blob, RecordDelimiter)
	if len(parts) <= 1 {
		return nil
	}
	chunks := make([]string, 0, len(parts)-1)
	for _, p := range parts[1:] {
		chunks = append(chunks, RecordDelimiter+p)
	}
	return chunks
}

func parseRecord(chunk string) (Record, bool) {
	tags := make(map[string]string)
	for _, m := range tagPairRe.FindAllStringSubmatch(chunk, -1) {
		if _, seen := tags[m[1]]; !seen {
			tags[m[1]] = m[2]
		}
	}
	fen := strings.TrimSpace(tags[positionTag])
	if fen == "" {
		return Record{}, false
	}
	desc := categoryField(tags)
	return Record{
		Position:    fen,
		MoveText:    strings.TrimSpace(tagPairRe.ReplaceAllString(chunk, "")),
		Category:    categoryOf(desc),
		Description: desc,
		Tags:        tags,
	}, true
}

// categoryField picks the first category tag mentioning a mate, falling back
// to the first non-empty one.
func categoryField(tags map[string]string) string {
	for _, name := range categoryTags {
		if v := tags[name]; strings.Contains(strings.ToLower(v), "mate") {
			return v
		}
	}
	for _, name := range categoryTags {
		if v := strings.TrimSpace(tags[name]); v != "" && v != "?" {
			return v
		}
	}
	return ""
}

// categoryOf defaults to MateInTwo unless a mate-in-one marker is present.
func categoryOf(field string) Category {
	if mateInOneRe.MatchString(field) {
		return MateInOne
	}
	return MateInTwo
}
