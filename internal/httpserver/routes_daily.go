// internal/httpserver/routes_daily.go
//
// HTTP routes for the "Daily Puzzle" mode.
// Exposes three endpoints under /daily:
//   - POST /daily/new         → start today's puzzle (creates or reuses a game)
//   - POST /daily/toggle      → toggle a word in the caller's daily game
//   - GET  /daily/leaderboard → fastest results for today (or a given date)
//
// Every player gets the same grid on a given day: the date and salt seed one
// generator that picks the words and lays them out. Results are persisted
// once per player per day when the puzzle is first solved.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/wordsearch/internal/daily"
	"github.com/robalobadob/wordsearch/internal/game"
	"github.com/robalobadob/wordsearch/internal/puzzle"
)

// errNotYours rejects moves on another player's daily game.
var errNotYours = errors.New("daily game belongs to another player")

// dailyServer wraps dependencies for /daily endpoints. The player's game
// for the day is looked up in the game store, so every instance sharing
// that store hands out the same one.
type dailyServer struct {
	srv *Server
	now func() time.Time
}

// mountDaily registers all /daily routes on r.
func (s *Server) mountDaily(r chi.Router) {
	dd := &dailyServer{
		srv: s,
		now: func() time.Time { return time.Now().UTC() },
	}
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", dd.handleNew)
		r.Post("/toggle", dd.handleToggle)
		r.Get("/leaderboard", dd.handleLeaderboard)
	})
}

// generate builds the puzzle for date. The same date and salt always give
// the same words in the same places.
func (d *dailyServer) generate(date time.Time) (*game.Game, error) {
	cfg := d.srv.cfg
	seed := daily.Seed(date, cfg.DailySalt)
	rng := puzzle.NewSeededRand(seed)

	list, err := d.srv.words.Pick(rng, cfg.DailyWords, cfg.GridSize)
	if err != nil {
		return nil, err
	}
	g, err := game.New(list, puzzle.Options{Size: cfg.GridSize, MaxAttempts: cfg.MaxAttempts, Rand: rng})
	if err != nil {
		return nil, err
	}
	g.Daily = daily.DateKey(date)
	return g, nil
}

// -----------------------------------------------------------------------------
// /daily/new

// newRes is returned by /daily/new.
type newRes struct {
	GameID string      `json:"gameId,omitempty"`
	Date   string      `json:"date"`
	Played bool        `json:"played"`
	Puzzle *puzzleView `json:"puzzle,omitempty"`
}

// handleNew creates or reuses the caller's daily game for today.
// A player with a recorded result gets Played=true and no game.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	s := d.srv
	uid := s.auth.PlayerID(w, r)
	now := d.now()
	date := daily.DateKey(now)

	played, err := s.daily.AlreadyPlayed(r.Context(), uid, date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if played {
		writeJSON(w, http.StatusOK, newRes{Date: date, Played: true})
		return
	}

	g, err := d.today(r.Context(), uid, date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if g != nil {
		v := viewOf(g, cellPx(r, g.Puzzle.Size))
		writeJSON(w, http.StatusOK, newRes{GameID: g.ID, Date: date, Puzzle: &v})
		return
	}

	g, err = d.generate(now)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	g.OwnerID = uid
	if err := s.store.Create(r.Context(), g); err != nil {
		s.writeError(w, r, err)
		return
	}
	hlog.FromRequest(r).Info().Str("gameId", g.ID).Str("date", date).Msg("daily puzzle started")
	v := viewOf(g, cellPx(r, g.Puzzle.Size))
	writeJSON(w, http.StatusCreated, newRes{GameID: g.ID, Date: date, Puzzle: &v})
}

// today returns the player's daily game for date, or nil if they have not
// started one.
func (d *dailyServer) today(ctx context.Context, uid, date string) (*game.Game, error) {
	games, err := d.srv.store.ListByOwner(ctx, uid, 0)
	if err != nil {
		return nil, err
	}
	for _, g := range games {
		if g.Daily == date {
			return g, nil
		}
	}
	return nil, nil
}

// -----------------------------------------------------------------------------
// /daily/toggle

type dailyToggleReq struct {
	GameID string `json:"gameId"`
	Word   string `json:"word"`
}

// handleToggle toggles a word in a daily game. Ownership and recording the
// result on solve happen in the shared mark path.
func (d *dailyServer) handleToggle(w http.ResponseWriter, r *http.Request) {
	s := d.srv
	var req dailyToggleReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "bad_json")
		return
	}
	if req.GameID == "" {
		badRequest(w, "gameId required")
		return
	}
	s.mark(w, r, req.GameID, func(g *game.Game) (string, error) {
		if g.Daily == "" {
			return "", puzzle.InvalidInput("", "not a daily puzzle")
		}
		_, _, err := g.Toggle(req.Word)
		return puzzle.Canonical(req.Word), err
	})
}

// -----------------------------------------------------------------------------
// /daily/leaderboard

// lbRes is returned by /daily/leaderboard.
type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for ?date= (default today).
func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(d.now())
	} else if _, err := time.Parse(time.DateOnly, date); err != nil {
		badRequest(w, "date must be YYYY-MM-DD")
		return
	}
	rows, err := d.srv.daily.Leaderboard(r.Context(), date, 20)
	if err != nil {
		d.srv.writeError(w, r, err)
		return
	}
	if rows == nil {
		rows = []daily.LBRow{}
	}
	writeJSON(w, http.StatusOK, lbRes{Date: date, Top: rows})
}
