// internal/httpserver/server.go
//
// HTTP server wiring for the puzzle trainer.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/puzzles".
//   - Session endpoints (optional auth): /session/*.
//   - Progress endpoints (optional auth): /progress, /progress/history.
//   - Daily puzzle endpoints (optional auth): mounted under /daily.
//   - Auth endpoints: /auth/*.
//   - Completion bookkeeping: progress, solve history, user stats and daily
//     results are written when a session reports a solve.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Guests are identified by an anonymous cookie; their progress is merged
//     into the account on signup/login.

package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/MaGaiDeN/Chess-Puzzle-Trainer/internal/auth"
	"github.com/MaGaiDeN/Chess-Puzzle-Trainer/internal/config"
	"github.com/MaGaiDeN/Chess-Puzzle-Trainer/internal/progress"
	"github.com/MaGaiDeN/Chess-Puzzle-Trainer/internal/puzzle"
	"github.com/MaGaiDeN/Chess-Puzzle-Trainer/internal/rules"
	"github.com/MaGaiDeN/Chess-Puzzle-Trainer/internal/store"
)

// Deps are the collaborators of a Server.
type Deps struct {
	Config   config.Config
	Catalog  *puzzle.Catalog
	Sessions store.Sessions
	Progress *progress.Registry
	DB       *sql.DB

	// NewEngine builds the rules engine of each session; nil means
	// rules.NewChessEngine.
	NewEngine func() rules.Engine
}

// Server bundles router, catalog, session store, progress and DB handle.
type Server struct {
	r         *chi.Mux
	cfg       config.Config
	catalog   atomic.Pointer[puzzle.Catalog] // swapped by POST /puzzles
	sessions  store.Sessions
	progress  *progress.Registry
	db        *sql.DB
	auth      *auth.Authenticator
	newEngine func() rules.Engine
	daily     *dailyServer

	mu      sync.Mutex
	meta    map[string]*sessionMeta // keyed by session ID
	current map[string]string       // anonymous id -> latest regular session ID
}

// New constructs a Server, installs middleware, and registers routes.
func New(d Deps) *Server {
	s := &Server{
		r:         chi.NewRouter(),
		cfg:       d.Config,
		sessions:  d.Sessions,
		progress:  d.Progress,
		db:        d.DB,
		newEngine: d.NewEngine,
		meta:      make(map[string]*sessionMeta),
		current:   make(map[string]string),
	}
	s.cat().Store(d.Catalog)
	if s.newEngine == nil {
		s.newEngine = func() rules.Engine { return rules.NewChessEngine() }
	}
	s.auth = &auth.Authenticator{
		Users:   auth.NewUsers(d.DB),
		Issuer:  auth.NewIssuer(d.Config.JWTSecret, d.Config.JWTExpiry),
		Cookies: auth.Cookies{Name: d.Config.CookieName, Secure: d.Config.Production},
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(cors(d.Config.ClientOrigin))     // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"chess-puzzle-trainer","endpoints":["/health","/puzzles","/session/*","/progress","/daily/*","/auth/*"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	// Puzzles, sessions and progress: OPTIONAL AUTH (guests can play)
	s.r.Group(func(r chi.Router) {
		r.Use(s.auth.Optional)
		r.Get("/puzzles", s.handlePuzzles)
		r.With(s.auth.Require, chimw.RequestSize(maxUploadBytes)).Post("/puzzles", s.handleUpload)
		s.mountSession(r)
		s.mountProgress(r)
		s.mountDaily(r)
	})

	s.mountAuthRoutes()

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", r.URL.Path)
	})

	return s
}

// Start begins serving HTTP on addr. With a SessionTTL, idle sessions are
// evicted in the background.
func (s *Server) Start(addr string) error {
	if ttl := s.cfg.SessionTTL; ttl > 0 {
		go func() {
			tick := time.NewTicker(ttl / 4)
			defer tick.Stop()
			for now := range tick.C {
				if n := s.evictIdle(now, ttl); n > 0 {
					log.Debug().Int("sessions", n).Msg("evicted idle sessions")
				}
			}
		}()
	}
	return http.ListenAndServe(addr, s.r)
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ------------------------------ helpers ------------------------------------

type errorRes struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// writeError writes {"error":code,"reason":reason} with status.
func writeError(w http.ResponseWriter, status int, code, reason string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorRes{Error: code, Reason: reason})
}

// bgCtx is used for bookkeeping that must not be cut short by the request.
func bgCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// ------------------------------ puzzles ------------------------------------

// cat is the catalog currently served.
func (s *Server) cat() *puzzle.Catalog { return s.catalog.Load() }

type puzzleItem struct {
	ID          string          `json:"id"`
	Index       int             `json:"index"`
	Category    puzzle.Category `json:"category"`
	Description string          `json:"description"`
	Solved      bool            `json:"solved"`
}

type puzzlesRes struct {
	Total     int          `json:"total"`
	LoadError string       `json:"loadError,omitempty"`
	Puzzles   []puzzleItem `json:"puzzles"`
}

// handlePuzzles lists the catalog with the caller's solved marks.
func (s *Server) handlePuzzles(w http.ResponseWriter, r *http.Request) {
	cat := s.cat()
	res := puzzlesRes{Total: cat.Len(), Puzzles: []puzzleItem{}}
	if err := cat.Err(); err != nil {
		res.LoadError = err.Error()
	}
	tr, err := s.progress.For(r.Context(), s.auth.PlayerID(w, r))
	if err != nil {
		log.Warn().Err(err).Msg("load progress")
	}
	for _, rec := range cat.Records() {
		item := puzzleItem{ID: rec.ID, Index: rec.Index, Category: rec.Category, Description: rec.Description}
		if tr != nil {
			item.Solved = tr.IsSolved(rec.ID)
		}
		res.Puzzles = append(res.Puzzles, item)
	}
	_ = json.NewEncoder(w).Encode(res)
}

// maxUploadBytes bounds an uploaded PGN file.
const maxUploadBytes = 4 << 20

// handleUpload replaces the served catalog with the PGN in the request
// body. Records without a position are dropped as usual; a file with none
// left is rejected and the current catalog stays.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.AllowUpload {
		writeError(w, http.StatusForbidden, "upload_disabled", "")
		return
	}
	b, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "too_large", err.Error())
		return
	}
	cat := puzzle.NewCatalog(string(b))
	if cat.Len() == 0 {
		writeError(w, http.StatusUnprocessableEntity, "no_puzzles", "no record with a FEN tag")
		return
	}
	s.catalog.Store(cat)
	log.Info().Int("puzzles", cat.Len()).Str("user", auth.FromContext(r.Context()).Username).Msg("catalog replaced by upload")
	s.handlePuzzles(w, r)
}
