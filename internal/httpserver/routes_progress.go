package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MaGaiDeN/Chess-Puzzle-Trainer/internal/auth"
	"github.com/MaGaiDeN/Chess-Puzzle-Trainer/internal/progress"
)

func (s *Server) mountProgress(r chi.Router) {
	r.Get("/progress", s.handleProgress)
	r.Get("/progress/history", s.handleHistory)
}

type progressRes struct {
	progress.Summary
	Solved []string `json:"solved"`
}

// handleProgress returns the caller's summary against the whole catalog.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	tr, err := s.progress.For(r.Context(), s.auth.PlayerID(w, r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "progress_unavailable", err.Error())
		return
	}
	_ = json.NewEncoder(w).Encode(progressRes{
		Summary: tr.Summary(s.cat().Len()),
		Solved:  tr.Snapshot().Solved,
	})
}

type historyRow struct {
	ID           string `json:"id"`
	PuzzleID     string `json:"puzzleId"`
	Status       string `json:"status"`
	FirstAttempt bool   `json:"firstAttempt"`
	StartedAt    string `json:"startedAt"`
	FinishedAt   string `json:"finishedAt,omitempty"`
}

// handleHistory lists the caller's 50 most recent puzzle sessions.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	ownerClause, owner := `anonymous_id=?`, s.auth.PlayerID(w, r)
	if me := auth.FromContext(r.Context()); me != nil {
		ownerClause, owner = `user_id=?`, me.ID
	}
	rows, err := s.db.QueryContext(r.Context(), `SELECT id, puzzle_id, status, first_attempt, started_at, COALESCE(finished_at,'')
	                         FROM solves WHERE `+ownerClause+` ORDER BY started_at DESC LIMIT 50`, owner)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error", "")
		return
	}
	defer rows.Close()

	out := []historyRow{}
	for rows.Next() {
		var h historyRow
		if err := rows.Scan(&h.ID, &h.PuzzleID, &h.Status, &h.FirstAttempt, &h.StartedAt, &h.FinishedAt); err == nil {
			out = append(out, h)
		}
	}
	_ = json.NewEncoder(w).Encode(out)
}
