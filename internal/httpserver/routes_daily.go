// internal/httpserver/routes_daily.go
//
// HTTP routes for the daily puzzle.
// Exposes three endpoints under /daily:
//   - GET  /daily             → today's puzzle and whether the caller solved it
//   - POST /daily/new         → start (or resume) a session on today's puzzle
//   - GET  /daily/leaderboard → top 20 results for today (or ?date=YYYY-MM-DD)
//
// Moves go through the regular /session/move endpoint. The first solve of
// the day is stored in daily_results; later solves are ignored.
// Puzzle selection is deterministic: date + salt, skipping unplayable entries.

package httpserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MaGaiDeN/Chess-Puzzle-Trainer/internal/daily"
)

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv      *Server
	store    *daily.Store
	salt     string
	sessions map[string]string // session IDs keyed by playerID|date
	mu       sync.Mutex        // guards sessions
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	s.daily = &dailyServer{
		srv:      s,
		store:    daily.NewStore(s.db),
		salt:     s.cfg.DailySalt,
		sessions: make(map[string]string),
	}
	dd := s.daily
	r.Route("/daily", func(r chi.Router) {
		r.Get("/", dd.handleToday)
		r.Post("/new", dd.handleNew)
		r.Get("/leaderboard", dd.handleLeaderboard)
	})
}

// today returns today's date key and puzzle index. ok is false when the
// catalog has no playable puzzle.
func (d *dailyServer) today() (date string, idx int, ok bool) {
	now := time.Now().UTC()
	date = daily.DateKey(now)
	cat := d.srv.cat()
	idx, ok = daily.Pick(now, d.salt, cat.Len(), func(i int) bool {
		rec, found := cat.Record(i)
		if !found {
			return false
		}
		sol, _ := cat.Solution(i)
		return sol.Complete(rec.Category)
	})
	return date, idx, ok
}

// -----------------------------------------------------------------------------
// GET /daily

type todayRes struct {
	Date     string `json:"date"`
	Index    int    `json:"index"`
	PuzzleID string `json:"puzzleId"`
	Played   bool   `json:"played"`
}

func (d *dailyServer) handleToday(w http.ResponseWriter, r *http.Request) {
	date, idx, ok := d.today()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no_puzzles", "")
		return
	}
	uid := d.srv.auth.PlayerID(w, r)
	played, err := d.store.AlreadyPlayed(r.Context(), uid, date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error", "")
		return
	}
	rec, _ := d.srv.cat().Record(idx)
	_ = json.NewEncoder(w).Encode(todayRes{Date: date, Index: idx, PuzzleID: rec.ID, Played: played})
}

// -----------------------------------------------------------------------------
// POST /daily/new

// newRes is returned by /daily/new.
type newRes struct {
	Date    string       `json:"date"`
	Played  bool         `json:"played"`
	Session *sessionView `json:"session,omitempty"`
}

// handleNew creates or reuses today's daily session.
// - If the player already has a DB row for today → Played=true.
// - Otherwise create/reuse an in-memory session and return its state.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	date, idx, ok := d.today()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no_puzzles", "")
		return
	}
	uid := d.srv.auth.PlayerID(w, r)

	if played, err := d.store.AlreadyPlayed(r.Context(), uid, date); err == nil && played {
		_ = json.NewEncoder(w).Encode(newRes{Date: date, Played: true})
		return
	}

	key := uid + "|" + date
	d.mu.Lock()
	id, found := d.sessions[key]
	d.mu.Unlock()
	if found {
		if sess, m, ok := d.srv.ownedSession(w, r, id); ok {
			v := viewOf(sess, m)
			_ = json.NewEncoder(w).Encode(newRes{Date: date, Session: &v})
			return
		}
	}

	sess, m, err := d.srv.openSession(w, r, idx, &dailyRun{date: date, index: idx})
	if err != nil {
		id := ""
		if sess != nil {
			id = sess.ID
		}
		writeLoadError(w, id, idx, err)
		return
	}
	d.mu.Lock()
	d.sessions[key] = sess.ID
	d.mu.Unlock()

	v := viewOf(sess, m)
	_ = json.NewEncoder(w).Encode(newRes{Date: date, Session: &v})
}

// -----------------------------------------------------------------------------
// GET /daily/leaderboard

// lbRes is returned by /daily/leaderboard.
type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(time.Now().UTC())
	}
	rows, err := d.store.Leaderboard(r.Context(), date, 20)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error", "")
		return
	}
	_ = json.NewEncoder(w).Encode(lbRes{Date: date, Top: rows})
}

// forget removes the daily session id from the resume map.
func (d *dailyServer) forget(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, sid := range d.sessions {
		if sid == id {
			delete(d.sessions, key)
		}
	}
}
