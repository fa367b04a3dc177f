// internal/puzzle/types.go
//
// Core type definitions for puzzle records.
// Defines:
//   - Category: mate-in-one or mate-in-two.
//   - Record: one parsed puzzle entry (position + raw move text + metadata).
//   - Solution: the expected move triple extracted from a record.

package puzzle

// Category selects the extraction grammar and the validation path for a record.
type Category string

const (
	MateInOne Category = "mate_in_one"
	MateInTwo Category = "mate_in_two"
)

// Record is one puzzle entry as found in the source text.
// Records are created by Parse and never modified afterwards.
type Record struct {
	ID          string            // "puzzle-<Index+1>"
	Position    string            // FEN tag value (may be placement-only)
	MoveText    string            // raw move text with tag pairs removed
	Category    Category          // derived from the category field
	Index       int               // 0-based ordinal among accepted records
	Description string            // category field as written in the source
	Tags        map[string]string // all tag pairs of the record
}

// Solution is the expected move sequence of a puzzle.
// An empty Token means the move is absent.
type Solution struct {
	First Token `json:"first"`
	Reply Token `json:"reply,omitempty"`
	Mate  Token `json:"mate,omitempty"`
}

// Complete reports whether the solution is playable for the given category.
func (s Solution) Complete(c Category) bool {
	if s.First == "" {
		return false
	}
	if c == MateInOne {
		return true
	}
	return s.Reply != "" && s.Mate != ""
}

// Missing names the first absent move for the category, or "" when complete.
func (s Solution) Missing(c Category) string {
	switch {
	case s.First == "":
		return "first move"
	case c == MateInOne:
		return ""
	case s.Reply == "":
		return "opponent response"
	case s.Mate == "":
		return "mate move"
	}
	return ""
}
