// internal/rules/engine.go
//
// Rules engine contract consumed by the puzzle session, plus an adapter over
// github.com/corentings/chess/v2.
//
// Notes:
//   - Illegal moves are reported with ok=false, never with a panic or error.
//   - UndoLast restores the position before the last applied move by reloading
//     its FEN, so outcome flags never leak from an undone move.
//   - Placement-only FEN strings are completed with "w - - 0 1" defaults.

package rules

import (
	"fmt"
	"strings"

	"github.com/corentings/chess/v2"

	"github.com/MaGaiDeN/Chess-Puzzle-Trainer/internal/puzzle"
)

// Move is a board-level move as emitted by a drag on the board.
// Promotion is one of "q", "r", "b", "n" or empty.
type Move struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

// AppliedMove describes a move the engine accepted.
type AppliedMove struct {
	SAN       string `json:"san"`
	UCI       string `json:"uci"`
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
	FEN       string `json:"fen"` // position after the move
}

// Engine is the chess rules collaborator of a puzzle session.
type Engine interface {
	Load(fen string) error
	Apply(m Move) (AppliedMove, bool)
	ApplySAN(token string) (AppliedMove, bool)
	UndoLast() bool
	IsCheckmate() bool
	Position() string
	LegalMoves() []string
	IsPromotion(from, to string) bool
}

// ChessEngine implements Engine on top of corentings/chess.
type ChessEngine struct {
	game    *chess.Game
	history []string // FEN before each applied move
}

// NewChessEngine returns an engine in the standard starting position.
func NewChessEngine() *ChessEngine {
	return &ChessEngine{game: chess.NewGame()}
}

// Load replaces the game with the given position and clears the history.
func (e *ChessEngine) Load(fen string) error {
	g, err := gameFromFEN(CompleteFEN(fen))
	if err != nil {
		return err
	}
	e.game = g
	e.history = nil
	return nil
}

// Apply plays a from/to(/promotion) move.
func (e *ChessEngine) Apply(m Move) (AppliedMove, bool) {
	want := strings.ToLower(m.From + m.To + m.Promotion)
	pos := e.game.Position()
	notation := chess.UCINotation{}
	for _, cand := range e.game.ValidMoves() {
		if notation.Encode(pos, &cand) == want {
			return e.push(&cand)
		}
	}
	return AppliedMove{}, false
}

// ApplySAN plays a move given in algebraic notation. Check and mate
// suffixes are ignored, and the spellings puzzle.Token normalizes ("0-0",
// "e8Q") are accepted.
func (e *ChessEngine) ApplySAN(token string) (AppliedMove, bool) {
	want := puzzle.Token(token).Normalize()
	if want == "" {
		return AppliedMove{}, false
	}
	pos := e.game.Position()
	moves := e.game.ValidMoves()
	if decoded, err := (chess.AlgebraicNotation{}).Decode(pos, string(want)); err == nil && decoded != nil {
		for i := range moves {
			if moves[i].S1() == decoded.S1() && moves[i].S2() == decoded.S2() && moves[i].Promo() == decoded.Promo() {
				return e.push(&moves[i])
			}
		}
	}
	// the decoder is stricter than the normalizer; fall back to comparing
	// against the SAN of every legal move
	notation := chess.AlgebraicNotation{}
	for i := range moves {
		if puzzle.Equivalent(puzzle.Token(notation.Encode(pos, &moves[i])), want) {
			return e.push(&moves[i])
		}
	}
	return AppliedMove{}, false
}

func (e *ChessEngine) push(m *chess.Move) (AppliedMove, bool) {
	pos := e.game.Position()
	before := e.game.FEN()
	san := chess.AlgebraicNotation{}.Encode(pos, m)
	uci := chess.UCINotation{}.Encode(pos, m)
	if err := e.game.Move(m, nil); err != nil {
		return AppliedMove{}, false
	}
	e.history = append(e.history, before)
	applied := AppliedMove{
		SAN:  san,
		UCI:  uci,
		From: uci[:2],
		To:   uci[2:4],
		FEN:  e.game.FEN(),
	}
	if len(uci) > 4 {
		applied.Promotion = uci[4:]
	}
	return applied, true
}

// UndoLast reverts the last applied move. It reports false when there is
// nothing to undo.
func (e *ChessEngine) UndoLast() bool {
	n := len(e.history)
	if n == 0 {
		return false
	}
	g, err := gameFromFEN(e.history[n-1])
	if err != nil {
		return false
	}
	e.game = g
	e.history = e.history[:n-1]
	return true
}

// IsCheckmate reports whether the side to move is checkmated.
func (e *ChessEngine) IsCheckmate() bool {
	return e.game.Position().Status() == chess.Checkmate
}

// Position returns the current FEN.
func (e *ChessEngine) Position() string { return e.game.FEN() }

// LegalMoves lists the legal moves in SAN.
func (e *ChessEngine) LegalMoves() []string {
	pos := e.game.Position()
	moves := e.game.ValidMoves()
	out := make([]string, 0, len(moves))
	for i := range moves {
		out = append(out, chess.AlgebraicNotation{}.Encode(pos, &moves[i]))
	}
	return out
}

// IsPromotion reports whether a legal move from->to needs a promotion piece.
func (e *ChessEngine) IsPromotion(from, to string) bool {
	for _, m := range e.game.ValidMoves() {
		if m.S1().String() == from && m.S2().String() == to && m.Promo() != chess.NoPieceType {
			return true
		}
	}
	return false
}

func gameFromFEN(fen string) (*chess.Game, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("rules: load position %q: %w", fen, err)
	}
	return chess.NewGame(opt), nil
}

// CompleteFEN fills the fields a placement-only (or truncated) FEN omits.
func CompleteFEN(fen string) string {
	defaults := []string{"", "w", "-", "-", "0", "1"}
	fields := strings.Fields(fen)
	if len(fields) == 0 || len(fields) >= len(defaults) {
		return strings.Join(fields, " ")
	}
	return strings.Join(append(fields, defaults[len(fields):]...), " ")
}
