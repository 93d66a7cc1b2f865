// internal/store/memory.go
//
// In-memory implementation of Store.
// Characteristics:
//   - Stores games keyed by ID in a map.
//   - Concurrency-safe via RWMutex; Update holds the write lock while fn runs.
//   - Hands out copies: a Game's Puzzle and Found values are replaced, never
//     edited in place, so a shallow copy is an independent snapshot.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"sort"
	"sync"

	"github.com/robalobadob/wordsearch/internal/game"
)

type memory struct {
	mu    sync.RWMutex
	games map[string]*game.Game
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{games: make(map[string]*game.Game)}
}

func (m *memory) Create(ctx context.Context, g *game.Game) error {
	cp := *g
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[g.ID] = &cp
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*game.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (m *memory) Update(ctx context.Context, id string, fn func(*game.Game) error) (*game.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	next := *g
	if err := fn(&next); err != nil {
		return nil, err
	}
	m.games[id] = &next
	out := next
	return &out, nil
}

func (m *memory) ListByOwner(ctx context.Context, ownerID string, limit int) ([]*game.Game, error) {
	m.mu.RLock()
	var out []*game.Game
	for _, g := range m.games {
		if g.OwnerID == ownerID {
			cp := *g
			out = append(out, &cp)
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if n := clampLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (m *memory) ClaimOwner(ctx context.Context, from, to string) error {
	if from == "" || to == "" || from == to {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, g := range m.games {
		if g.OwnerID == from {
			next := *g
			next.OwnerID = to
			m.games[id] = &next
		}
	}
	return nil
}

func (m *memory) Close() error { return nil }
