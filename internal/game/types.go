// internal/game/types.go
//
// Core type definitions for the puzzle session state machine.
// Defines:
//   - Phase: where a session is in the solution sequence.
//   - MoveResult: outcome of one move attempt, mapped by the board to
//     "keep the piece" or "snap back".
//   - Event: asynchronous notifications (solved, opponent reply applied/failed).
//   - State: the full session value handed out as a snapshot.

package game

import (
	"github.com/MaGaiDeN/Chess-Puzzle-Trainer/internal/puzzle"
	"github.com/MaGaiDeN/Chess-Puzzle-Trainer/internal/rules"
)

// Phase is the position of a session in its solution sequence.
type Phase string

const (
	PhaseIdle                  Phase = "idle"
	PhaseAwaitingFirstMove     Phase = "awaiting_first_move"
	PhaseAwaitingOpponentReply Phase = "awaiting_opponent_reply"
	PhaseAwaitingMateMove      Phase = "awaiting_mate_move"
	PhaseSolved                Phase = "solved"
)

// MoveResult is the outcome of a move attempt.
// Possible values:
//   - "applied":                 the move stays on the board.
//   - "illegal_chess_move":      the rules engine rejected it; snap back.
//   - "illegal_solution_move":   legal, but not the solution; reverted.
//   - "awaiting_promotion":      a promotion piece must be chosen first.
//   - "ignored":                 the board is not accepting input right now.
type MoveResult string

const (
	ResultApplied             MoveResult = "applied"
	ResultIllegalChessMove    MoveResult = "illegal_chess_move"
	ResultIllegalSolutionMove MoveResult = "illegal_solution_move"
	ResultAwaitingPromotion   MoveResult = "awaiting_promotion"
	ResultIgnored             MoveResult = "ignored"
)

// Reverted reports whether the board should snap the piece back.
func (r MoveResult) Reverted() bool {
	return r == ResultIllegalChessMove || r == ResultIllegalSolutionMove || r == ResultIgnored
}

// EventKind identifies an Event.
type EventKind string

const (
	EventSolved       EventKind = "solved"
	EventReplyApplied EventKind = "reply_applied"
	EventReplyFailed  EventKind = "reply_failed"
)

// Event is delivered to the session's notify func outside of its lock.
type Event struct {
	Kind         EventKind
	PuzzleID     string
	FirstAttempt bool   // EventSolved only
	Move         string // SAN of the reply or of the mating move
	Err          error  // EventReplyFailed only
}

// State holds the full state of one puzzle session.
type State struct {
	Puzzle                puzzle.Record       `json:"-"`
	Solution              puzzle.Solution     `json:"-"`
	Phase                 Phase               `json:"phase"`
	History               []rules.AppliedMove `json:"history"`
	AwaitingOpponentReply bool                `json:"awaitingOpponentReply"`
	FirstAttempt          bool                `json:"firstAttempt"`
	Pending               *rules.Move         `json:"pending,omitempty"` // move waiting for a promotion piece
	ReplyErr              string              `json:"replyError,omitempty"`
	Position              string              `json:"fen"`
	Start                 string              `json:"startFen"` // position before History[0]
}

// clone returns a copy that shares no slices or pointers with s.
func (s State) clone() State {
	out := s
	out.History = append([]rules.AppliedMove(nil), s.History...)
	if s.Pending != nil {
		p := *s.Pending
		out.Pending = &p
	}
	return out
}
