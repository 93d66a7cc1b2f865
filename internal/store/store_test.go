package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/robalobadob/wordsearch/assets"
	"github.com/robalobadob/wordsearch/internal/db"
	"github.com/robalobadob/wordsearch/internal/game"
	"github.com/robalobadob/wordsearch/internal/puzzle"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	conn, err := db.Open(db.Memory)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := db.Migrate(context.Background(), conn, assets.Migrations()); err != nil {
		t.Fatal(err)
	}
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": NewSQLiteStore(conn),
	}
}

func newGame(t *testing.T, owner string, created time.Time) *game.Game {
	t.Helper()
	g, err := game.New([]string{"cat", "dog"}, puzzle.Options{Size: 6, Rand: puzzle.NewSeededRand(1)})
	if err != nil {
		t.Fatal(err)
	}
	g.OwnerID = owner
	g.CreatedAt = created
	return g
}

func TestStoreContract(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			g := newGame(t, "owner-1", time.Now().UTC())

			if err := st.Create(ctx, g); err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			got, err := st.Get(ctx, g.ID)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.Puzzle.Grid.String() != g.Puzzle.Grid.String() {
				t.Error("Get() returned a different grid")
			}

			if _, err := st.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
			}

			updated, err := st.Update(ctx, g.ID, func(g *game.Game) error {
				_, _, err := g.Toggle("cat")
				return err
			})
			if err != nil {
				t.Fatalf("Update() error = %v", err)
			}
			if !updated.Found["CAT"] {
				t.Error("Update() result should have CAT found")
			}
			got, _ = st.Get(ctx, g.ID)
			if !got.Found["CAT"] {
				t.Error("stored game should have CAT found")
			}

			boom := errors.New("boom")
			if _, err := st.Update(ctx, g.ID, func(g *game.Game) error {
				_, _, _ = g.Toggle("dog")
				return boom
			}); !errors.Is(err, boom) {
				t.Fatalf("Update() error = %v, want boom", err)
			}
			got, _ = st.Get(ctx, g.ID)
			if got.Found["DOG"] {
				t.Error("failed Update() must not be written")
			}

			if _, err := st.Update(ctx, "missing", func(*game.Game) error { return nil }); !errors.Is(err, ErrNotFound) {
				t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStoreSnapshotsAreIndependent(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			g := newGame(t, "", time.Now().UTC())
			if err := st.Create(ctx, g); err != nil {
				t.Fatal(err)
			}
			snap, _ := st.Get(ctx, g.ID)
			_, _, _ = snap.Toggle("cat")

			again, _ := st.Get(ctx, g.ID)
			if again.Found["CAT"] {
				t.Error("mutating a snapshot leaked into the store")
			}
		})
	}
}

func TestStoreConcurrentUpdates(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			g := newGame(t, "", time.Now().UTC())
			if err := st.Create(ctx, g); err != nil {
				t.Fatal(err)
			}

			const n = 20
			var wg sync.WaitGroup
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, err := st.Update(ctx, g.ID, func(g *game.Game) error {
						g.Toggles++
						return nil
					}); err != nil {
						t.Errorf("Update() error = %v", err)
					}
				}()
			}
			wg.Wait()

			got, _ := st.Get(ctx, g.ID)
			if got.Toggles != n {
				t.Errorf("Toggles = %d, want %d", got.Toggles, n)
			}
		})
	}
}

func TestListByOwner(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
			var ids []string
			for i := 0; i < 3; i++ {
				g := newGame(t, "alice", base.Add(time.Duration(i)*time.Minute))
				if err := st.Create(ctx, g); err != nil {
					t.Fatal(err)
				}
				ids = append(ids, g.ID)
			}
			if err := st.Create(ctx, newGame(t, "bob", base)); err != nil {
				t.Fatal(err)
			}

			list, err := st.ListByOwner(ctx, "alice", 2)
			if err != nil {
				t.Fatalf("ListByOwner() error = %v", err)
			}
			if len(list) != 2 {
				t.Fatalf("ListByOwner() returned %d games, want 2", len(list))
			}
			if list[0].ID != ids[2] || list[1].ID != ids[1] {
				t.Errorf("ListByOwner() order = %s,%s; want newest first", list[0].ID, list[1].ID)
			}

			none, err := st.ListByOwner(ctx, "carol", 10)
			if err != nil || len(none) != 0 {
				t.Errorf("ListByOwner(carol) = %v, %v", none, err)
			}
		})
	}
}

func TestClaimOwner(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
			guest := newGame(t, "anon-1", base)
			other := newGame(t, "anon-2", base)
			for _, g := range []*game.Game{guest, other} {
				if err := st.Create(ctx, g); err != nil {
					t.Fatal(err)
				}
			}

			if err := st.ClaimOwner(ctx, "anon-1", "user-1"); err != nil {
				t.Fatalf("ClaimOwner() error = %v", err)
			}

			mine, err := st.ListByOwner(ctx, "user-1", 10)
			if err != nil || len(mine) != 1 || mine[0].ID != guest.ID {
				t.Fatalf("ListByOwner(user-1) = %v, %v", mine, err)
			}
			got, err := st.Get(ctx, guest.ID)
			if err != nil || got.OwnerID != "user-1" {
				t.Errorf("Get() owner = %q, %v; want user-1", got.OwnerID, err)
			}
			if left, _ := st.ListByOwner(ctx, "anon-1", 10); len(left) != 0 {
				t.Errorf("guest still owns %d games", len(left))
			}
			if kept, _ := st.ListByOwner(ctx, "anon-2", 10); len(kept) != 1 {
				t.Error("another guest's game must not move")
			}
			if err := st.ClaimOwner(ctx, "", "user-1"); err != nil {
				t.Errorf("ClaimOwner with no guest = %v", err)
			}
		})
	}
}
