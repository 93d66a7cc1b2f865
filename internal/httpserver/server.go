// internal/httpserver/server.go
//
// HTTP server wiring for the word-search backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs,
//     access logs).
//   - Public endpoints: "/", "/health".
//   - Puzzle endpoints (optional auth): create, view, toggle, select, regenerate.
//   - Daily puzzle endpoints (optional auth): mounted under /daily.
//   - Auth + history endpoints: /auth/*, /puzzles/mine.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Guests are identified by an anonymous cookie; signed-in players by JWT.
//   - Views never reveal the placement of a word that is not yet found.

package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordsearch/internal/auth"
	"github.com/robalobadob/wordsearch/internal/config"
	"github.com/robalobadob/wordsearch/internal/daily"
	"github.com/robalobadob/wordsearch/internal/game"
	"github.com/robalobadob/wordsearch/internal/puzzle"
	"github.com/robalobadob/wordsearch/internal/store"
	"github.com/robalobadob/wordsearch/internal/words"
)

const defaultCellPx = 40

// Deps are the collaborators a Server needs.
type Deps struct {
	Store  store.Store
	DB     *sql.DB // migrated; holds users and daily results
	Auth   *auth.Service
	Words  *words.Bank
	Config config.Config
	Logger *zerolog.Logger // nil means the global logger
}

// Server bundles router and dependencies.
type Server struct {
	r      *chi.Mux
	store  store.Store
	auth   *auth.Service
	words  *words.Bank
	daily  *daily.Store
	cfg    config.Config
	logger zerolog.Logger
}

// New constructs a Server, installs middleware, and registers routes.
func New(d Deps) *Server {
	logger := log.Logger
	if d.Logger != nil {
		logger = *d.Logger
	}
	s := &Server{
		r:      chi.NewRouter(),
		store:  d.Store,
		auth:   d.Auth,
		words:  d.Words,
		daily:  daily.NewStore(d.DB),
		cfg:    d.Config,
		logger: logger,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(hlog.NewHandler(s.logger))
	s.r.Use(hlog.AccessHandler(accessLog))
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(10 * time.Second))
	s.r.Use(jsonContentType)
	s.r.Use(s.cors)

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service":   "wordsearch-go",
			"endpoints": []string{"/health", "POST /puzzle/new", "GET /puzzle/{id}", "/daily/*", "/auth/*"},
		})
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	// Puzzles: OPTIONAL AUTH (guests can play)
	s.r.Group(func(r chi.Router) {
		r.Use(s.auth.Optional)
		r.Post("/puzzle/new", s.handleNewPuzzle)
		r.Route("/puzzle/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetPuzzle)
			r.Post("/toggle", s.handleToggle)
			r.Post("/select", s.handleSelect)
			r.Post("/regenerate", s.handleRegenerate)
		})
		s.mountDaily(r)
	})

	s.mountAuthRoutes()

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Run serves HTTP on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	s.logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

func accessLog(r *http.Request, status, size int, d time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("reqId", chimw.GetReqID(r.Context())).
		Int("status", status).
		Int("size", size).
		Dur("took", d).
		Msg("request")
}

func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.cfg.ClientOrigin
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

// ------------------------------ helpers ------------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var pe *puzzle.Error
	switch {
	case errors.As(err, &pe) && pe.Code == puzzle.CodeInvalidInput:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": string(pe.Code), "message": pe.Error()})
	case errors.As(err, &pe) && pe.Code == puzzle.CodePlacementFailed:
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": string(pe.Code), "message": pe.Error()})
	case errors.Is(err, errNotYours):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
	case errors.Is(err, store.ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "conflict", "message": "concurrent update, retry"})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found"})
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal"})
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

// options returns generator options from config, with an optional size override.
func (s *Server) options(size int) puzzle.Options {
	if size <= 0 {
		size = s.cfg.GridSize
	}
	return puzzle.Options{Size: size, MaxAttempts: s.cfg.MaxAttempts}
}

// cellPx reads ?cellPx= or derives it from ?gridPx= (the rendered grid width).
func cellPx(r *http.Request, size int) float64 {
	q := r.URL.Query()
	if v, err := strconv.ParseFloat(q.Get("cellPx"), 64); err == nil && v > 0 {
		return v
	}
	if v, err := strconv.ParseFloat(q.Get("gridPx"), 64); err == nil && v > 0 {
		return puzzle.CellSize(v, size)
	}
	return defaultCellPx
}

// ------------------------------ views --------------------------------------

// puzzleView is what clients see of a game.
type puzzleView struct {
	ID       string                    `json:"id"`
	Daily    string                    `json:"daily,omitempty"`
	Size     int                       `json:"size"`
	Grid     puzzle.Grid               `json:"grid"`
	Words    []string                  `json:"words"`
	Found    puzzle.FoundState         `json:"found"`
	State    game.State                `json:"state"`
	CellPx   float64                   `json:"cellPx"`
	Overlays map[string]puzzle.Overlay `json:"overlays"`
}

func viewOf(g *game.Game, cellPx float64) puzzleView {
	return puzzleView{
		ID:       g.ID,
		Daily:    g.Daily,
		Size:     g.Puzzle.Size,
		Grid:     g.Puzzle.Grid,
		Words:    g.Puzzle.Words,
		Found:    g.Found,
		State:    g.State(),
		CellPx:   cellPx,
		Overlays: g.Overlays(cellPx),
	}
}

// markRes is returned by toggle and select.
type markRes struct {
	Word    string          `json:"word"`
	Found   bool            `json:"found"`
	State   game.State      `json:"state"`
	Overlay *puzzle.Overlay `json:"overlay,omitempty"`
}

func markResult(g *game.Game, word string, cellPx float64) markRes {
	res := markRes{Word: word, Found: g.Found[word], State: g.State()}
	if res.Found {
		ov := puzzle.OverlayFor(g.Puzzle.Placements[word], cellPx)
		res.Overlay = &ov
	}
	return res
}

// ------------------------------ PUZZLE -------------------------------------

type newPuzzleReq struct {
	Words string `json:"words"` // comma-separated; empty means pick Count from the bank
	Count int    `json:"count"`
	Size  int    `json:"size"`
}

func (s *Server) handleNewPuzzle(w http.ResponseWriter, r *http.Request) {
	var req newPuzzleReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "bad_json")
		return
	}
	opts := s.options(req.Size)
	if opts.Size < 2 || opts.Size > 40 {
		badRequest(w, "size must be 2-40")
		return
	}

	var list []string
	var err error
	if req.Words == "" && req.Count > 0 {
		list, err = s.words.Pick(puzzle.NewSeededRand(uint64(time.Now().UnixNano())), req.Count, opts.Size)
		if err != nil {
			badRequest(w, err.Error())
			return
		}
	} else if list, err = puzzle.ParseWords(req.Words); err != nil {
		s.writeError(w, r, err)
		return
	}

	g, err := game.New(list, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	g.OwnerID = s.auth.PlayerID(w, r)
	if err := s.store.Create(r.Context(), g); err != nil {
		s.writeError(w, r, err)
		return
	}
	hlog.FromRequest(r).Info().Str("gameId", g.ID).Int("words", len(list)).Int("size", opts.Size).Msg("puzzle created")
	writeJSON(w, http.StatusCreated, viewOf(g, cellPx(r, g.Puzzle.Size)))
}

func (s *Server) handleGetPuzzle(w http.ResponseWriter, r *http.Request) {
	g, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(g, cellPx(r, g.Puzzle.Size)))
}

type toggleReq struct {
	Word string `json:"word"`
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req toggleReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "bad_json")
		return
	}
	s.mark(w, r, chi.URLParam(r, "id"), func(g *game.Game) (string, error) {
		_, _, err := g.Toggle(req.Word)
		return puzzle.Canonical(req.Word), err
	})
}

type selectReq struct {
	From puzzle.Coord `json:"from"`
	To   puzzle.Coord `json:"to"`
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "bad_json")
		return
	}
	s.mark(w, r, chi.URLParam(r, "id"), func(g *game.Game) (string, error) {
		word, _, err := g.Select(req.From, req.To)
		return word, err
	})
}

// mark applies a found-state change atomically, then credits the solve
// (user stats, daily leaderboard) the first time the game becomes solved.
// Daily games only accept moves from their owner.
func (s *Server) mark(w http.ResponseWriter, r *http.Request, id string, apply func(*game.Game) (string, error)) {
	var word string
	var credit bool
	player := s.auth.PlayerID(w, r)
	g, err := s.store.Update(r.Context(), id, func(g *game.Game) error {
		if g.Daily != "" && g.OwnerID != player {
			return errNotYours
		}
		var err error
		if word, err = apply(g); err != nil {
			return err
		}
		credit = g.Credit()
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if credit {
		s.creditSolve(r, g)
	}
	writeJSON(w, http.StatusOK, markResult(g, word, cellPx(r, g.Puzzle.Size)))
}

// creditSolve is best effort: failures are logged, the player still sees
// the solved state.
func (s *Server) creditSolve(r *http.Request, g *game.Game) {
	logger := hlog.FromRequest(r)
	logger.Info().Str("gameId", g.ID).Dur("elapsed", g.Elapsed()).Msg("puzzle solved")
	if u := auth.UserFrom(r.Context()); u != nil && u.ID == g.OwnerID {
		if err := s.auth.RecordSolve(r.Context(), u.ID); err != nil {
			logger.Warn().Err(err).Str("user", u.ID).Msg("record solve")
		}
	}
	if g.Daily != "" && g.OwnerID != "" {
		if err := s.daily.InsertResult(r.Context(), daily.Result{
			UserID:    g.OwnerID,
			Date:      g.Daily,
			Toggles:   g.Toggles,
			ElapsedMs: g.Elapsed().Milliseconds(),
		}); err != nil {
			logger.Warn().Err(err).Str("gameId", g.ID).Msg("insert daily result")
		}
	}
}

func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	g, err := s.store.Update(r.Context(), id, func(g *game.Game) error {
		if g.Daily != "" {
			return puzzle.InvalidInput("", "the daily puzzle cannot be regenerated")
		}
		return g.Regenerate(s.options(g.Puzzle.Size))
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(g, cellPx(r, g.Puzzle.Size)))
}

// ------------------------------- AUTH --------------------------------------

type credentialsReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// mountAuthRoutes registers authentication and gated routes.
func (s *Server) mountAuthRoutes() {
	s.r.Post("/auth/signup", s.handleSignup)
	s.r.Post("/auth/login", s.handleLogin)
	s.r.Post("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		s.auth.ClearCookie(w)
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	s.r.Group(func(r chi.Router) {
		r.Use(s.auth.Required)
		r.Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, auth.UserFrom(r.Context()))
		})
		r.Get("/puzzles/mine", s.handleMine)
	})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentialsReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "invalid_json")
		return
	}
	u, err := s.auth.CreateUser(r.Context(), body.Username, body.Password)
	if errors.Is(err, auth.ErrUsernameTaken) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "Username taken"})
		return
	}
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	s.issueToken(w, r, u, http.StatusCreated)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentialsReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "invalid_json")
		return
	}
	u, err := s.auth.Authenticate(r.Context(), body.Username, body.Password)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid username or password"})
		return
	}
	s.issueToken(w, r, u, http.StatusOK)
}

func (s *Server) issueToken(w http.ResponseWriter, r *http.Request, u *auth.User, status int) {
	tok, exp, err := s.auth.SignToken(u)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.auth.SetCookie(w, tok, exp)
	s.claimAnonGames(r, u.ID)
	writeJSON(w, status, map[string]any{"id": u.ID, "username": u.Username, "token": tok})
}

type puzzleSummary struct {
	ID        string     `json:"id"`
	Daily     string     `json:"daily,omitempty"`
	State     game.State `json:"state"`
	Words     int        `json:"words"`
	Found     int        `json:"found"`
	CreatedAt time.Time  `json:"createdAt"`
}

func (s *Server) handleMine(w http.ResponseWriter, r *http.Request) {
	me := auth.UserFrom(r.Context())
	games, err := s.store.ListByOwner(r.Context(), me.ID, 50)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]puzzleSummary, 0, len(games))
	for _, g := range games {
		out = append(out, puzzleSummary{
			ID:        g.ID,
			Daily:     g.Daily,
			State:     g.State(),
			Words:     len(g.Puzzle.Words),
			Found:     g.Found.Count(),
			CreatedAt: g.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// claimAnonGames hands a guest's games and daily results to the account
// they just signed in with. Best effort: failures are logged.
func (s *Server) claimAnonGames(r *http.Request, userID string) {
	anonID := auth.AnonID(r)
	if anonID == "" || userID == "" {
		return
	}
	logger := hlog.FromRequest(r)
	if err := s.store.ClaimOwner(r.Context(), anonID, userID); err != nil {
		logger.Warn().Err(err).Msg("claim anon games")
	}
	if err := s.daily.ClaimResults(r.Context(), anonID, userID); err != nil {
		logger.Warn().Err(err).Msg("claim anon daily results")
	}
}
