// internal/game/session.go
//
// Puzzle session state machine for a single player and a single puzzle at
// a time.
// Responsibilities:
//   - Load a puzzle, refusing incomplete solutions before any play.
//   - Judge move attempts against the expected solution step.
//   - Play the scripted opponent reply after a short delay.
//   - Suspend promotion moves until a piece is chosen.
//
// State transitions (mate in two):
//   awaiting_first_move → awaiting_opponent_reply → awaiting_mate_move → solved
// Mate in one goes straight from awaiting_first_move to solved.
//
// Notes:
//   - All transitions happen under mu. The delayed reply re-checks a
//     generation counter, so Load/Close discard it atomically.
//   - Events are delivered after mu is released.

package game

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/MaGaiDeN/Chess-Puzzle-Trainer/internal/puzzle"
	"github.com/MaGaiDeN/Chess-Puzzle-Trainer/internal/rules"
)

// DefaultReplyDelay leaves the board time to animate the player's move.
const DefaultReplyDelay = 400 * time.Millisecond

var (
	// ErrUnplayable reports a puzzle whose extracted solution is incomplete.
	ErrUnplayable = errors.New("unplayable puzzle")
	// ErrMalformed reports a puzzle position the rules engine cannot load.
	ErrMalformed = errors.New("malformed puzzle position")
	// ErrReplyRejected reports a stored opponent reply that is illegal in the
	// position reached. It is a data fault, not a player error.
	ErrReplyRejected = errors.New("opponent reply rejected")
)

// Option configures a Session.
type Option func(*Session)

// WithReplyDelay sets the pause before the opponent reply is played.
func WithReplyDelay(d time.Duration) Option {
	return func(s *Session) {
		if d >= 0 {
			s.replyDelay = d
		}
	}
}

// WithNotify registers the receiver of session events.
func WithNotify(fn func(Event)) Option {
	return func(s *Session) { s.notify = fn }
}

// Session drives one puzzle at a time against a rules engine.
type Session struct {
	ID string

	mu         sync.Mutex
	engine     rules.Engine
	state      State
	replyDelay time.Duration
	notify     func(Event)
	gen        uint64      // bumped whenever a pending reply must be discarded
	timer      *time.Timer // pending opponent reply
}

// NewSession constructs an idle session.
func NewSession(engine rules.Engine, opts ...Option) *Session {
	s := &Session{
		ID:         uuid.NewString(),
		engine:     engine,
		state:      State{Phase: PhaseIdle},
		replyDelay: DefaultReplyDelay,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load resets the session onto rec. An incomplete solution or an unloadable
// position leaves the session idle and returns ErrUnplayable/ErrMalformed.
func (s *Session) Load(rec puzzle.Record, sol puzzle.Solution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelReplyLocked()
	s.state = State{Puzzle: rec, Solution: sol, Phase: PhaseIdle, FirstAttempt: true}

	if !sol.Complete(rec.Category) {
		return fmt.Errorf("%w: %s: missing %s", ErrUnplayable, rec.ID, sol.Missing(rec.Category))
	}
	if err := s.engine.Load(rec.Position); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, rec.ID, err)
	}
	s.state.Phase = PhaseAwaitingFirstMove
	s.state.Position = s.engine.Position()
	s.state.Start = s.state.Position
	return nil
}

// Attempt submits a board move.
func (s *Session) Attempt(m rules.Move) MoveResult {
	s.mu.Lock()
	res, events := s.attemptLocked(m)
	s.mu.Unlock()
	s.emit(events)
	return res
}

// AttemptSAN submits a move written in algebraic notation.
func (s *Session) AttemptSAN(token string) MoveResult {
	s.mu.Lock()
	var (
		res    MoveResult
		events []Event
	)
	if !s.acceptingLocked() {
		res = ResultIgnored
	} else if applied, ok := s.engine.ApplySAN(token); !ok {
		res = ResultIllegalChessMove
	} else {
		res, events = s.judgeLocked(applied)
	}
	s.mu.Unlock()
	s.emit(events)
	return res
}

// ResolvePromotion completes a pending promotion with piece ("q", "r", "b"
// or "n"). An empty piece cancels the move without any state change.
func (s *Session) ResolvePromotion(piece string) MoveResult {
	s.mu.Lock()
	if s.state.Pending == nil {
		s.mu.Unlock()
		return ResultIgnored
	}
	m := *s.state.Pending
	s.state.Pending = nil

	piece = strings.ToLower(strings.TrimSpace(piece))
	if !validPromotion(piece) {
		s.mu.Unlock()
		return ResultIllegalChessMove
	}
	m.Promotion = piece
	res, events := s.attemptLocked(m)
	s.mu.Unlock()
	s.emit(events)
	return res
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Close discards any pending opponent reply.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelReplyLocked()
}

func (s *Session) attemptLocked(m rules.Move) (MoveResult, []Event) {
	if !s.acceptingLocked() {
		return ResultIgnored, nil
	}
	if m.Promotion == "" && s.engine.IsPromotion(m.From, m.To) {
		pending := m
		s.state.Pending = &pending
		return ResultAwaitingPromotion, nil
	}
	applied, ok := s.engine.Apply(m)
	if !ok {
		return ResultIllegalChessMove, nil
	}
	return s.judgeLocked(applied)
}

// acceptingLocked reports whether the player may move now. During the
// opponent reply window input is ignored rather than queued.
func (s *Session) acceptingLocked() bool {
	if s.state.Pending != nil {
		return false
	}
	return s.state.Phase == PhaseAwaitingFirstMove || s.state.Phase == PhaseAwaitingMateMove
}

// judgeLocked compares an engine-accepted move with the expected step.
func (s *Session) judgeLocked(applied rules.AppliedMove) (MoveResult, []Event) {
	st := &s.state
	expected := st.Solution.First
	if st.Phase == PhaseAwaitingMateMove {
		expected = st.Solution.Mate
	}
	final := st.Puzzle.Category == puzzle.MateInOne || st.Phase == PhaseAwaitingMateMove

	ok := puzzle.Equivalent(puzzle.Token(applied.SAN), expected)
	if ok && final && !s.engine.IsCheckmate() {
		ok = false
	}
	if !ok {
		s.engine.UndoLast()
		st.FirstAttempt = false
		st.Position = s.engine.Position()
		return ResultIllegalSolutionMove, nil
	}

	st.History = append(st.History, applied)
	st.Position = applied.FEN
	if final {
		st.Phase = PhaseSolved
		log.Debug().Str("puzzle", st.Puzzle.ID).Bool("firstAttempt", st.FirstAttempt).Msg("puzzle solved")
		return ResultApplied, []Event{{
			Kind:         EventSolved,
			PuzzleID:     st.Puzzle.ID,
			FirstAttempt: st.FirstAttempt,
			Move:         applied.SAN,
		}}
	}

	st.Phase = PhaseAwaitingOpponentReply
	st.AwaitingOpponentReply = true
	s.scheduleReplyLocked()
	return ResultApplied, nil
}

func (s *Session) scheduleReplyLocked() {
	s.gen++
	gen := s.gen
	s.timer = time.AfterFunc(s.replyDelay, func() { s.applyReply(gen) })
}

// applyReply plays the stored opponent reply unless it was discarded.
func (s *Session) applyReply(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.state.Phase != PhaseAwaitingOpponentReply {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	st := &s.state
	reply := st.Solution.Reply

	var ev Event
	if applied, ok := s.engine.ApplySAN(string(reply)); ok {
		st.History = append(st.History, applied)
		st.Position = applied.FEN
		st.Phase = PhaseAwaitingMateMove
		st.AwaitingOpponentReply = false
		ev = Event{Kind: EventReplyApplied, PuzzleID: st.Puzzle.ID, Move: applied.SAN}
	} else {
		err := fmt.Errorf("%w: %s: %q in %s", ErrReplyRejected, st.Puzzle.ID, reply, s.engine.Position())
		st.ReplyErr = err.Error()
		log.Error().Err(err).Str("puzzle", st.Puzzle.ID).Msg("opponent reply failed")
		ev = Event{Kind: EventReplyFailed, PuzzleID: st.Puzzle.ID, Move: string(reply), Err: err}
	}
	s.mu.Unlock()
	s.emit([]Event{ev})
}

func (s *Session) cancelReplyLocked() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) emit(events []Event) {
	if s.notify == nil {
		return
	}
	for _, ev := range events {
		s.notify(ev)
	}
}

func validPromotion(piece string) bool {
	switch piece {
	case "q", "r", "b", "n":
		return true
	}
	return false
}
