package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/MaGaiDeN/Chess-Puzzle-Trainer/internal/auth"
)

// Request payload for signup/login.
type credentialsReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// mountAuthRoutes registers /auth/*.
func (s *Server) mountAuthRoutes() {
	s.r.Post("/auth/signup", s.handleSignup)
	s.r.Post("/auth/login", s.handleLogin)
	s.r.Post("/auth/logout", s.handleLogout)
	s.r.With(s.auth.Require).Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(auth.FromContext(r.Context()))
	})
}

// handleSignup creates a new user, signs a JWT, sets auth cookie, and claims anon progress.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentialsReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "")
		return
	}
	u, err := s.auth.Users.Create(r.Context(), body.Username, body.Password)
	if errors.Is(err, auth.ErrUsernameTaken) {
		writeError(w, http.StatusConflict, "Username taken", "")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}
	s.startSession(w, r, u)
}

// handleLogin authenticates user, sets cookie, and claims anon progress.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentialsReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "")
		return
	}
	u, err := s.auth.Users.Authenticate(r.Context(), body.Username, body.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid username or password", "")
		return
	}
	s.startSession(w, r, u)
}

// handleLogout clears the auth cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.Cookies.ClearAuth(w)
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, u *auth.User) {
	tok, exp, err := s.auth.Issuer.Sign(u.ID, u.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sign_failed", "")
		return
	}
	s.auth.Cookies.SetAuth(w, tok, exp)
	s.claimAnon(r.Context(), s.auth.Cookies.EnsureAnonID(w, r), u.ID)
	_ = json.NewEncoder(w).Encode(u)
}

// claimAnon transfers anonymous progress, solves and daily results to a user account.
func (s *Server) claimAnon(ctx context.Context, anonID, userID string) {
	if anonID == "" || userID == "" {
		return
	}
	if _, err := s.progress.Claim(ctx, anonID, userID); err != nil {
		log.Warn().Err(err).Msg("claim anon progress")
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE solves SET user_id=? WHERE anonymous_id=? AND user_id IS NULL`, userID, anonID); err != nil {
		log.Warn().Err(err).Msg("claim anon solves")
	}
	if err := s.daily.store.Claim(ctx, anonID, userID); err != nil {
		log.Warn().Err(err).Msg("claim anon daily results")
	}
}
