// internal/httpserver/routes_session.go
//
// Puzzle session endpoints:
//   - POST /session/new       → load puzzle {index} into a new session
//   - POST /session/next      → load the next playable puzzle into a session
//   - POST /session/move      → attempt a move (from/to[/promotion] or san)
//   - POST /session/promotion → resolve or cancel a pending promotion
//   - GET  /session/{id}      → current state (poll after the reply delay)
//
// A session belongs to the anonymous cookie that created it (or the account
// logged in on it); other callers get 404.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/MaGaiDeN/Chess-Puzzle-Trainer/internal/auth"
	"github.com/MaGaiDeN/Chess-Puzzle-Trainer/internal/daily"
	"github.com/MaGaiDeN/Chess-Puzzle-Trainer/internal/game"
	"github.com/MaGaiDeN/Chess-Puzzle-Trainer/internal/puzzle"
	"github.com/MaGaiDeN/Chess-Puzzle-Trainer/internal/rules"
)

var errNoSuchPuzzle = errors.New("no such puzzle")

// sessionMeta is the server-side bookkeeping of one session.
type sessionMeta struct {
	mu      sync.Mutex
	anonID  string
	userID  string
	solveID string // solves row of the current puzzle
	started time.Time
	touched time.Time // last request that used the session
	daily   *dailyRun // nil for regular sessions
}

type dailyRun struct {
	date  string
	index int
}

func (m *sessionMeta) playerIDLocked() string {
	if m.userID != "" {
		return m.userID
	}
	return m.anonID
}

func (s *Server) mountSession(r chi.Router) {
	r.Post("/session/new", s.handleNewSession)
	r.Post("/session/next", s.handleNextSession)
	r.Post("/session/move", s.handleMove)
	r.Post("/session/promotion", s.handlePromotion)
	r.Get("/session/{id}", s.handleGetSession)
}

// sessionView is the JSON snapshot handed to the board.
type sessionView struct {
	SessionID   string          `json:"sessionId"`
	PuzzleID    string          `json:"puzzleId"`
	Index       int             `json:"index"`
	Category    puzzle.Category `json:"category"`
	Description string          `json:"description"`
	Daily       bool            `json:"daily"`
	game.State
}

func viewOf(sess *game.Session, m *sessionMeta) sessionView {
	st := sess.Snapshot()
	m.mu.Lock()
	isDaily := m.daily != nil
	m.mu.Unlock()
	return sessionView{
		SessionID:   sess.ID,
		PuzzleID:    st.Puzzle.ID,
		Index:       st.Puzzle.Index,
		Category:    st.Puzzle.Category,
		Description: st.Puzzle.Description,
		Daily:       isDaily,
		State:       st,
	}
}

type loadErrorRes struct {
	Error     string `json:"error"`
	Reason    string `json:"reason"`
	SessionID string `json:"sessionId,omitempty"`
	Index     int    `json:"index"`
}

// writeLoadError maps a failed Load to 404/422.
func writeLoadError(w http.ResponseWriter, sessionID string, index int, err error) {
	res := loadErrorRes{Reason: err.Error(), SessionID: sessionID, Index: index}
	status := http.StatusUnprocessableEntity
	switch {
	case errors.Is(err, errNoSuchPuzzle):
		res.Error, status = "not_found", http.StatusNotFound
	case errors.Is(err, game.ErrUnplayable):
		res.Error = "unplayable"
	case errors.Is(err, game.ErrMalformed):
		res.Error = "malformed"
	default:
		res.Error, status = "server_error", http.StatusInternalServerError
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(res)
}

// openSession creates and registers a session on puzzle index. The session
// is kept even when the puzzle is unplayable, so the caller can move on
// with /session/next.
func (s *Server) openSession(w http.ResponseWriter, r *http.Request, index int, run *dailyRun) (*game.Session, *sessionMeta, error) {
	if _, ok := s.cat().Record(index); !ok {
		return nil, nil, errNoSuchPuzzle
	}
	m := &sessionMeta{anonID: s.auth.Cookies.EnsureAnonID(w, r), daily: run, touched: time.Now()}
	if u := auth.FromContext(r.Context()); u != nil {
		m.userID = u.ID
	}
	sess := game.NewSession(s.newEngine(),
		game.WithReplyDelay(s.cfg.ReplyDelay),
		game.WithNotify(s.onEvent(m)),
	)
	loadErr := s.loadPuzzle(r.Context(), sess, m, index)

	if err := s.sessions.Save(r.Context(), sess); err != nil {
		sess.Close()
		return nil, nil, err
	}
	s.mu.Lock()
	s.meta[sess.ID] = m
	var stale string
	if run == nil {
		stale = s.current[m.anonID]
		s.current[m.anonID] = sess.ID
	}
	s.mu.Unlock()
	if stale != "" {
		s.dropSession(stale)
	}
	return sess, m, loadErr
}

func (s *Server) dropSession(id string) {
	ctx, cancel := bgCtx()
	defer cancel()
	_ = s.sessions.Delete(ctx, id)
	s.mu.Lock()
	delete(s.meta, id)
	s.mu.Unlock()
}

// loadPuzzle loads catalog entry index into sess and opens a solves row.
func (s *Server) loadPuzzle(ctx context.Context, sess *game.Session, m *sessionMeta, index int) error {
	rec, ok := s.cat().Record(index)
	if !ok {
		return errNoSuchPuzzle
	}
	sol, _ := s.cat().Solution(index)
	if err := sess.Load(rec, sol); err != nil {
		return err
	}

	m.mu.Lock()
	m.solveID = uuid.NewString()
	m.started = time.Now()
	solveID, userID, anonID := m.solveID, m.userID, m.anonID
	m.mu.Unlock()

	var owner any
	if userID != "" {
		owner = userID
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO solves (id, user_id, anonymous_id, puzzle_id, status, started_at)
	                     VALUES (?,?,?,?,'playing',?)`,
		solveID, owner, anonID, rec.ID, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		log.Warn().Err(err).Str("puzzle", rec.ID).Msg("insert solve row")
	}
	return nil
}

// lookupSession finds a session owned by the caller or writes 404.
func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request, id string) (*game.Session, *sessionMeta, bool) {
	sess, m, ok := s.ownedSession(w, r, id)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "session "+id)
	}
	return sess, m, ok
}

// ownedSession finds a session owned by the caller. A logged-in caller
// adopts a session started anonymously in the same browser.
func (s *Server) ownedSession(w http.ResponseWriter, r *http.Request, id string) (*game.Session, *sessionMeta, bool) {
	sess, err := s.sessions.Get(r.Context(), id)
	s.mu.Lock()
	m := s.meta[id]
	s.mu.Unlock()
	if err != nil || m == nil {
		return nil, nil, false
	}

	anon := s.auth.Cookies.EnsureAnonID(w, r)
	user := auth.FromContext(r.Context())
	m.mu.Lock()
	defer m.mu.Unlock()
	owned := anon == m.anonID || (user != nil && user.ID == m.userID)
	if !owned {
		return nil, nil, false
	}
	if user != nil && m.userID == "" {
		m.userID = user.ID
	}
	m.touched = time.Now()
	return sess, m, true
}

// evictIdle drops sessions no request has used for longer than ttl and
// returns how many went. Daily sessions age out too; /daily/new then starts
// a fresh one.
func (s *Server) evictIdle(now time.Time, ttl time.Duration) int {
	var stale []string
	s.mu.Lock()
	for id, m := range s.meta {
		m.mu.Lock()
		idle := now.Sub(m.touched) > ttl
		anon := m.anonID
		m.mu.Unlock()
		if !idle {
			continue
		}
		stale = append(stale, id)
		if s.current[anon] == id {
			delete(s.current, anon)
		}
	}
	s.mu.Unlock()

	for _, id := range stale {
		s.dropSession(id)
		if s.daily != nil {
			s.daily.forget(id)
		}
	}
	return len(stale)
}

// onEvent receives session events outside of the session lock.
func (s *Server) onEvent(m *sessionMeta) func(game.Event) {
	return func(ev game.Event) {
		switch ev.Kind {
		case game.EventSolved:
			s.recordSolve(m, ev)
		case game.EventReplyApplied:
			log.Debug().Str("puzzle", ev.PuzzleID).Str("move", ev.Move).Msg("opponent replied")
		case game.EventReplyFailed:
			m.mu.Lock()
			solveID := m.solveID
			m.mu.Unlock()
			ctx, cancel := bgCtx()
			defer cancel()
			if _, err := s.db.ExecContext(ctx, `UPDATE solves SET status='broken' WHERE id=?`, solveID); err != nil {
				log.Warn().Err(err).Msg("mark solve broken")
			}
		}
	}
}

// recordSolve writes progress, solve history, stats and daily result.
// Every write is best effort.
func (s *Server) recordSolve(m *sessionMeta, ev game.Event) {
	ctx, cancel := bgCtx()
	defer cancel()

	m.mu.Lock()
	player, userID, solveID, started, run := m.playerIDLocked(), m.userID, m.solveID, m.started, m.daily
	m.mu.Unlock()

	if tr, err := s.progress.For(ctx, player); err != nil {
		log.Warn().Err(err).Str("player", player).Msg("load progress")
	} else {
		_, counted := tr.RecordCompletion(ctx, ev.PuzzleID, ev.FirstAttempt)
		if counted && userID != "" {
			if err := s.auth.Users.BumpStats(ctx, userID, ev.FirstAttempt); err != nil {
				log.Warn().Err(err).Str("user", userID).Msg("bump stats")
			}
		}
	}

	if _, err := s.db.ExecContext(ctx, `UPDATE solves SET status='solved', first_attempt=?, finished_at=? WHERE id=?`,
		ev.FirstAttempt, time.Now().UTC().Format(time.RFC3339Nano), solveID); err != nil {
		log.Warn().Err(err).Str("solve", solveID).Msg("finish solve")
	}

	if run != nil {
		err := s.daily.store.InsertResult(ctx, daily.Result{
			UserID:       player,
			Date:         run.date,
			PuzzleIndex:  run.index,
			FirstAttempt: ev.FirstAttempt,
			ElapsedMs:    int(time.Since(started).Milliseconds()),
		})
		if err != nil {
			log.Warn().Err(err).Str("player", player).Msg("insert daily result")
		}
	}
}

// -----------------------------------------------------------------------------
// /session/new, /session/next

type newSessionReq struct {
	Index int `json:"index"`
}

func (s *Server) handleNewSession(w http.ResponseWriter, r *http.Request) {
	var req newSessionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	sess, m, err := s.openSession(w, r, req.Index, nil)
	if err != nil {
		id := ""
		if sess != nil {
			id = sess.ID
		}
		writeLoadError(w, id, req.Index, err)
		return
	}
	_ = json.NewEncoder(w).Encode(viewOf(sess, m))
}

type sessionReq struct {
	SessionID string `json:"sessionId"`
}

// handleNextSession walks forward (with wrap-around) to the first playable
// puzzle after the current one.
func (s *Server) handleNextSession(w http.ResponseWriter, r *http.Request) {
	var req sessionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	sess, m, ok := s.lookupSession(w, r, req.SessionID)
	if !ok {
		return
	}
	m.mu.Lock()
	isDaily := m.daily != nil
	m.mu.Unlock()
	if isDaily {
		writeError(w, http.StatusConflict, "daily_session", "the daily puzzle cannot be skipped")
		return
	}

	idx := sess.Snapshot().Puzzle.Index
	for i := 0; i < s.cat().Len(); i++ {
		idx = s.cat().Next(idx)
		err := s.loadPuzzle(r.Context(), sess, m, idx)
		if err == nil {
			_ = json.NewEncoder(w).Encode(viewOf(sess, m))
			return
		}
		if !errors.Is(err, game.ErrUnplayable) && !errors.Is(err, game.ErrMalformed) {
			writeLoadError(w, sess.ID, idx, err)
			return
		}
		log.Debug().Err(err).Int("index", idx).Msg("skipping puzzle")
	}
	writeError(w, http.StatusUnprocessableEntity, "no_playable_puzzle", "")
}

// -----------------------------------------------------------------------------
// /session/move, /session/promotion, /session/{id}

type moveReq struct {
	SessionID string `json:"sessionId"`
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion"`
	SAN       string `json:"san"`
}

type moveRes struct {
	Result   game.MoveResult `json:"result"`
	Reverted bool            `json:"reverted"` // board should snap the piece back
	State    sessionView     `json:"state"`
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	req.SAN = strings.TrimSpace(req.SAN)
	if req.SAN == "" && (req.From == "" || req.To == "") {
		writeError(w, http.StatusBadRequest, "invalid_move", "need from/to or san")
		return
	}
	sess, m, ok := s.lookupSession(w, r, req.SessionID)
	if !ok {
		return
	}

	var res game.MoveResult
	if req.SAN != "" {
		res = sess.AttemptSAN(req.SAN)
	} else {
		res = sess.Attempt(rules.Move{
			From:      strings.ToLower(req.From),
			To:        strings.ToLower(req.To),
			Promotion: strings.ToLower(req.Promotion),
		})
	}
	_ = json.NewEncoder(w).Encode(moveRes{Result: res, Reverted: res.Reverted(), State: viewOf(sess, m)})
}

type promotionReq struct {
	SessionID string `json:"sessionId"`
	Piece     string `json:"piece"` // q, r, b, n; empty cancels
}

func (s *Server) handlePromotion(w http.ResponseWriter, r *http.Request) {
	var req promotionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	sess, m, ok := s.lookupSession(w, r, req.SessionID)
	if !ok {
		return
	}
	res := sess.ResolvePromotion(req.Piece)
	_ = json.NewEncoder(w).Encode(moveRes{Result: res, Reverted: res.Reverted(), State: viewOf(sess, m)})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, m, ok := s.lookupSession(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	_ = json.NewEncoder(w).Encode(viewOf(sess, m))
}
