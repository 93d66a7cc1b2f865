package httpserver

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/robalobadob/wordsearch/assets"
	"github.com/robalobadob/wordsearch/internal/auth"
	"github.com/robalobadob/wordsearch/internal/config"
	"github.com/robalobadob/wordsearch/internal/db"
	"github.com/robalobadob/wordsearch/internal/puzzle"
	"github.com/robalobadob/wordsearch/internal/store"
	"github.com/robalobadob/wordsearch/internal/words"
)

var testBank = []string{"apple", "river", "stone", "cloud", "maple", "tiger", "ocean", "piano", "lemon", "grape"}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.Open(db.Memory)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := db.Migrate(context.Background(), conn, assets.Migrations()); err != nil {
		t.Fatal(err)
	}
	return conn
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return newTestServerOn(t, store.NewMemoryStore(), newTestDB(t))
}

// newTestServerOn builds a server over shared storage, like one of several
// instances behind a load balancer.
func newTestServerOn(t *testing.T, st store.Store, conn *sql.DB) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.GridSize = 10
	cfg.DailyWords = 4
	cfg.DailySalt = "test-salt"
	logger := zerolog.Nop()

	return New(Deps{
		Store:  st,
		DB:     conn,
		Auth:   auth.NewService(conn, auth.Config{Secret: "test-secret", TTL: time.Hour}),
		Words:  words.FromList(testBank),
		Config: cfg,
		Logger: &logger,
	})
}

// client remembers cookies between requests, like a browser would.
type client struct {
	t       *testing.T
	h       http.Handler
	cookies map[string]*http.Cookie
}

func newClient(t *testing.T, s *Server) *client {
	return &client{t: t, h: s.Router(), cookies: map[string]*http.Cookie{}}
}

func (c *client) do(method, path string, body any, out any) int {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	if out != nil && rec.Code < 300 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			c.t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code
}

func TestHealth(t *testing.T) {
	c := newClient(t, newTestServer(t))
	var body map[string]bool
	if code := c.do(http.MethodGet, "/health", nil, &body); code != http.StatusOK || !body["ok"] {
		t.Fatalf("GET /health = %d %v", code, body)
	}
	if code := c.do(http.MethodGet, "/nope", nil, nil); code != http.StatusNotFound {
		t.Errorf("GET /nope = %d, want 404", code)
	}
}

func TestNewPuzzle(t *testing.T) {
	c := newClient(t, newTestServer(t))

	var v puzzleView
	code := c.do(http.MethodPost, "/puzzle/new", map[string]any{"words": "cat, Dog, café", "size": 8}, &v)
	if code != http.StatusCreated {
		t.Fatalf("POST /puzzle/new = %d", code)
	}
	if v.ID == "" || v.Size != 8 || len(v.Grid) != 8 || v.State != "playing" {
		t.Errorf("view = %+v", v)
	}
	if len(v.Words) != 3 || v.Words[2] != "CAFE" {
		t.Errorf("Words = %v", v.Words)
	}
	if len(v.Overlays) != 0 {
		t.Errorf("Overlays = %v, want none before anything is found", v.Overlays)
	}
	if _, ok := c.cookies["wordsearch_anon"]; !ok {
		t.Error("guest should receive an anonymous cookie")
	}
}

func TestNewPuzzleFromBank(t *testing.T) {
	c := newClient(t, newTestServer(t))
	var v puzzleView
	if code := c.do(http.MethodPost, "/puzzle/new", map[string]any{"count": 3}, &v); code != http.StatusCreated {
		t.Fatalf("POST /puzzle/new = %d", code)
	}
	if len(v.Words) != 3 || v.Size != 10 {
		t.Errorf("view = %+v", v)
	}
}

func TestNewPuzzleErrors(t *testing.T) {
	c := newClient(t, newTestServer(t))
	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"invalid word", map[string]any{"words": "r2d2"}, http.StatusBadRequest},
		{"empty token", map[string]any{"words": "cat,,dog"}, http.StatusBadRequest},
		{"no words", map[string]any{"words": ""}, http.StatusBadRequest},
		{"too long", map[string]any{"words": "elephant", "size": 4}, http.StatusUnprocessableEntity},
		{"bad size", map[string]any{"words": "cat", "size": 100}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := c.do(http.MethodPost, "/puzzle/new", tt.body, nil); code != tt.want {
				t.Errorf("POST /puzzle/new %v = %d, want %d", tt.body, code, tt.want)
			}
		})
	}
}

func TestToggleAndSolve(t *testing.T) {
	c := newClient(t, newTestServer(t))
	var v puzzleView
	c.do(http.MethodPost, "/puzzle/new", map[string]any{"words": "cat, dog", "size": 8}, &v)

	var m markRes
	if code := c.do(http.MethodPost, "/puzzle/"+v.ID+"/toggle", map[string]string{"word": "cat"}, &m); code != http.StatusOK {
		t.Fatalf("toggle = %d", code)
	}
	if !m.Found || m.Word != "CAT" || m.State != "playing" || m.Overlay == nil {
		t.Errorf("toggle cat = %+v", m)
	}

	c.do(http.MethodPost, "/puzzle/"+v.ID+"/toggle", map[string]string{"word": "DOG"}, &m)
	if m.State != "solved" {
		t.Errorf("state after both words = %s, want solved", m.State)
	}

	var got puzzleView
	if code := c.do(http.MethodGet, "/puzzle/"+v.ID+"?cellPx=20", nil, &got); code != http.StatusOK {
		t.Fatalf("GET puzzle = %d", code)
	}
	if got.State != "solved" || len(got.Overlays) != 2 || got.CellPx != 20 {
		t.Errorf("view = %+v", got)
	}

	c.do(http.MethodPost, "/puzzle/"+v.ID+"/toggle", map[string]string{"word": "dog"}, &m)
	if m.Found || m.State != "playing" || m.Overlay != nil {
		t.Errorf("untoggle dog = %+v", m)
	}

	if code := c.do(http.MethodPost, "/puzzle/"+v.ID+"/toggle", map[string]string{"word": "cow"}, nil); code != http.StatusBadRequest {
		t.Errorf("toggle unknown word = %d, want 400", code)
	}
	if code := c.do(http.MethodPost, "/puzzle/missing/toggle", map[string]string{"word": "cat"}, nil); code != http.StatusNotFound {
		t.Errorf("toggle on missing puzzle = %d, want 404", code)
	}
}

func TestSelect(t *testing.T) {
	s := newTestServer(t)
	c := newClient(t, s)
	var v puzzleView
	c.do(http.MethodPost, "/puzzle/new", map[string]any{"words": "cat, dog", "size": 8}, &v)

	g, err := s.store.Get(context.Background(), v.ID)
	if err != nil {
		t.Fatal(err)
	}
	pl := g.Puzzle.Placements["DOG"]

	var m markRes
	code := c.do(http.MethodPost, "/puzzle/"+v.ID+"/select",
		map[string]any{"from": pl.End(), "to": pl.Start()}, &m)
	if code != http.StatusOK || m.Word != "DOG" || !m.Found {
		t.Fatalf("select = %d %+v", code, m)
	}

	code = c.do(http.MethodPost, "/puzzle/"+v.ID+"/select",
		map[string]any{"from": puzzle.Coord{Row: 0, Col: 0}, "to": puzzle.Coord{Row: 0, Col: 0}}, nil)
	if code != http.StatusBadRequest {
		t.Errorf("select of a non-word = %d, want 400", code)
	}
}

func TestGridPxQuery(t *testing.T) {
	c := newClient(t, newTestServer(t))
	var v puzzleView
	c.do(http.MethodPost, "/puzzle/new", map[string]any{"words": "cat", "size": 12}, &v)

	var got puzzleView
	c.do(http.MethodGet, "/puzzle/"+v.ID+"?gridPx=600", nil, &got)
	if got.CellPx != 50 {
		t.Errorf("CellPx = %v, want 50", got.CellPx)
	}
	c.do(http.MethodGet, "/puzzle/"+v.ID, nil, &got)
	if got.CellPx != defaultCellPx {
		t.Errorf("default CellPx = %v, want %v", got.CellPx, defaultCellPx)
	}
}

func TestRegenerate(t *testing.T) {
	c := newClient(t, newTestServer(t))
	var v puzzleView
	c.do(http.MethodPost, "/puzzle/new", map[string]any{"words": "cat, dog", "size": 8}, &v)
	c.do(http.MethodPost, "/puzzle/"+v.ID+"/toggle", map[string]string{"word": "cat"}, nil)

	var got puzzleView
	if code := c.do(http.MethodPost, "/puzzle/"+v.ID+"/regenerate", nil, &got); code != http.StatusOK {
		t.Fatalf("regenerate = %d", code)
	}
	if got.ID != v.ID || got.Size != 8 || len(got.Found) != 0 || len(got.Overlays) != 0 {
		t.Errorf("after regenerate = %+v", got)
	}
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	c := newClient(t, s)

	if code := c.do(http.MethodGet, "/auth/me", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("GET /auth/me as guest = %d, want 401", code)
	}
	if code := c.do(http.MethodPost, "/auth/signup", map[string]string{"username": "alice", "password": "password1"}, nil); code != http.StatusCreated {
		t.Fatalf("signup = %d", code)
	}
	if code := c.do(http.MethodPost, "/auth/signup", map[string]string{"username": "alice", "password": "password1"}, nil); code != http.StatusConflict {
		t.Errorf("duplicate signup = %d, want 409", code)
	}

	var v puzzleView
	c.do(http.MethodPost, "/puzzle/new", map[string]any{"words": "cat", "size": 6}, &v)
	c.do(http.MethodPost, "/puzzle/"+v.ID+"/toggle", map[string]string{"word": "cat"}, nil)
	// Re-solving the same puzzle is not counted again.
	c.do(http.MethodPost, "/puzzle/"+v.ID+"/toggle", map[string]string{"word": "cat"}, nil)
	c.do(http.MethodPost, "/puzzle/"+v.ID+"/toggle", map[string]string{"word": "cat"}, nil)

	var me auth.User
	if code := c.do(http.MethodGet, "/auth/me", nil, &me); code != http.StatusOK {
		t.Fatalf("GET /auth/me = %d", code)
	}
	if me.Username != "alice" || me.PuzzlesSolved != 1 {
		t.Errorf("me = %+v, want alice with 1 solve", me)
	}

	var mine []puzzleSummary
	if code := c.do(http.MethodGet, "/puzzles/mine", nil, &mine); code != http.StatusOK {
		t.Fatalf("GET /puzzles/mine = %d", code)
	}
	if len(mine) != 1 || mine[0].ID != v.ID || mine[0].State != "solved" || mine[0].Found != 1 {
		t.Errorf("mine = %+v", mine)
	}

	c.do(http.MethodPost, "/auth/logout", nil, nil)
	if code := c.do(http.MethodPost, "/auth/login", map[string]string{"username": "alice", "password": "wrong-pass"}, nil); code != http.StatusUnauthorized {
		t.Errorf("login with bad password = %d, want 401", code)
	}
	if code := c.do(http.MethodPost, "/auth/login", map[string]string{"username": "alice", "password": "password1"}, nil); code != http.StatusOK {
		t.Errorf("login = %d", code)
	}
}

func TestDaily(t *testing.T) {
	s := newTestServer(t)
	alice := newClient(t, s)
	bob := newClient(t, s)

	var a, again, b newRes
	if code := alice.do(http.MethodPost, "/daily/new", nil, &a); code != http.StatusCreated {
		t.Fatalf("daily/new = %d", code)
	}
	alice.do(http.MethodPost, "/daily/new", nil, &again)
	if again.GameID != a.GameID {
		t.Errorf("second daily/new = %s, want the same game %s", again.GameID, a.GameID)
	}
	bob.do(http.MethodPost, "/daily/new", nil, &b)
	if b.GameID == a.GameID {
		t.Error("each player gets their own daily game")
	}
	if a.Puzzle.Grid.String() != b.Puzzle.Grid.String() {
		t.Errorf("daily grids differ:\n%s\n%s", a.Puzzle.Grid, b.Puzzle.Grid)
	}
	if len(a.Puzzle.Words) != 4 {
		t.Errorf("daily words = %v, want 4", a.Puzzle.Words)
	}

	if code := bob.do(http.MethodPost, "/daily/toggle", map[string]string{"gameId": a.GameID, "word": a.Puzzle.Words[0]}, nil); code != http.StatusForbidden {
		t.Errorf("toggling another player's daily = %d, want 403", code)
	}
	if code := alice.do(http.MethodPost, "/puzzle/"+a.GameID+"/regenerate", nil, nil); code != http.StatusBadRequest {
		t.Errorf("regenerating the daily = %d, want 400", code)
	}

	var m markRes
	for _, w := range a.Puzzle.Words {
		if code := alice.do(http.MethodPost, "/daily/toggle", map[string]string{"gameId": a.GameID, "word": w}, &m); code != http.StatusOK {
			t.Fatalf("daily/toggle %s = %d", w, code)
		}
	}
	if m.State != "solved" {
		t.Fatalf("state = %s, want solved", m.State)
	}

	var lb lbRes
	if code := alice.do(http.MethodGet, "/daily/leaderboard", nil, &lb); code != http.StatusOK {
		t.Fatalf("leaderboard = %d", code)
	}
	if len(lb.Top) != 1 || lb.Top[0].Toggles != 4 {
		t.Errorf("leaderboard = %+v", lb)
	}

	var done newRes
	alice.do(http.MethodPost, "/daily/new", nil, &done)
	if !done.Played || done.GameID != "" {
		t.Errorf("daily/new after solving = %+v, want played", done)
	}

	if code := alice.do(http.MethodGet, "/daily/leaderboard?date=yesterday", nil, nil); code != http.StatusBadRequest {
		t.Errorf("leaderboard with bad date = %d, want 400", code)
	}
}

func TestDailyRejectsOtherPlayers(t *testing.T) {
	s := newTestServer(t)
	alice := newClient(t, s)
	bob := newClient(t, s)

	var a newRes
	alice.do(http.MethodPost, "/daily/new", nil, &a)
	g, err := s.store.Get(context.Background(), a.GameID)
	if err != nil {
		t.Fatal(err)
	}

	for _, w := range a.Puzzle.Words {
		if code := bob.do(http.MethodPost, "/puzzle/"+a.GameID+"/toggle", map[string]string{"word": w}, nil); code != http.StatusForbidden {
			t.Errorf("bob toggling %s on alice's daily = %d, want 403", w, code)
		}
		pl := g.Puzzle.Placements[w]
		if code := bob.do(http.MethodPost, "/puzzle/"+a.GameID+"/select",
			map[string]any{"from": pl.Start(), "to": pl.End()}, nil); code != http.StatusForbidden {
			t.Errorf("bob selecting %s on alice's daily = %d, want 403", w, code)
		}
	}

	var got puzzleView
	alice.do(http.MethodGet, "/puzzle/"+a.GameID, nil, &got)
	if got.State != "playing" || got.Found.Count() != 0 {
		t.Errorf("alice's daily after bob's attempts = %s with %d found", got.State, got.Found.Count())
	}
	var again newRes
	alice.do(http.MethodPost, "/daily/new", nil, &again)
	if again.Played || again.GameID != a.GameID {
		t.Errorf("alice's daily/new = %+v, want her unplayed game", again)
	}

	// The owner can still play through the generic routes.
	var m markRes
	if code := alice.do(http.MethodPost, "/puzzle/"+a.GameID+"/toggle", map[string]string{"word": a.Puzzle.Words[0]}, &m); code != http.StatusOK || !m.Found {
		t.Errorf("alice toggling her daily = %d %+v", code, m)
	}
}

func TestDailySharedAcrossInstances(t *testing.T) {
	st, conn := store.NewMemoryStore(), newTestDB(t)
	first := newClient(t, newTestServerOn(t, st, conn))

	var a newRes
	if code := first.do(http.MethodPost, "/daily/new", nil, &a); code != http.StatusCreated {
		t.Fatalf("daily/new = %d", code)
	}

	// Same player, same cookies, another instance.
	second := newClient(t, newTestServerOn(t, st, conn))
	second.cookies = first.cookies
	var b newRes
	if code := second.do(http.MethodPost, "/daily/new", nil, &b); code != http.StatusOK {
		t.Fatalf("daily/new on second instance = %d", code)
	}
	if b.GameID != a.GameID {
		t.Errorf("second instance started game %s, want %s", b.GameID, a.GameID)
	}
}

func TestSignupClaimsGuestGames(t *testing.T) {
	s := newTestServer(t)
	c := newClient(t, s)

	var v puzzleView
	c.do(http.MethodPost, "/puzzle/new", map[string]any{"words": "cat", "size": 6}, &v)
	var d newRes
	c.do(http.MethodPost, "/daily/new", nil, &d)
	for _, w := range d.Puzzle.Words {
		c.do(http.MethodPost, "/daily/toggle", map[string]string{"gameId": d.GameID, "word": w}, nil)
	}

	if code := c.do(http.MethodPost, "/auth/signup", map[string]string{"username": "guest_now", "password": "password1"}, nil); code != http.StatusCreated {
		t.Fatalf("signup = %d", code)
	}

	var mine []puzzleSummary
	if code := c.do(http.MethodGet, "/puzzles/mine", nil, &mine); code != http.StatusOK {
		t.Fatalf("GET /puzzles/mine = %d", code)
	}
	ids := map[string]bool{}
	for _, p := range mine {
		ids[p.ID] = true
	}
	if len(mine) != 2 || !ids[v.ID] || !ids[d.GameID] {
		t.Errorf("mine = %+v, want the guest puzzle and daily", mine)
	}

	var again newRes
	c.do(http.MethodPost, "/daily/new", nil, &again)
	if !again.Played {
		t.Errorf("daily/new after claiming a solved daily = %+v, want played", again)
	}
}

func TestWriteErrorConflict(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.writeError(rec, httptest.NewRequest(http.MethodPost, "/puzzle/x/toggle", nil),
		fmt.Errorf("update: %w", store.ErrConflict))
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}
