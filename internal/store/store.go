// Package store persists game sessions between HTTP requests.
//
// Three implementations share one contract:
//   - memory: map guarded by a RWMutex; state is lost on restart.
//   - sqlite: one JSON row per game in the games table.
//   - redis:  one JSON value per game with a TTL, for multi-instance setups.
//
// All mutations go through Update so that concurrent requests on the same
// game never interleave.
package store

import (
	"context"
	"errors"

	"github.com/robalobadob/wordsearch/internal/game"
)

// ErrNotFound is returned when no game has the requested ID.
var ErrNotFound = errors.New("store: game not found")

// Store defines the persistence interface for game sessions.
type Store interface {
	// Create stores a new game.
	Create(ctx context.Context, g *game.Game) error

	// Get returns a snapshot of the game with the given ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*game.Game, error)

	// Update applies fn to the game atomically and stores the result.
	// If fn returns an error nothing is written and the error is returned.
	Update(ctx context.Context, id string, fn func(*game.Game) error) (*game.Game, error)

	// ListByOwner returns the owner's most recent games, newest first.
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]*game.Game, error)

	// ClaimOwner moves every game owned by from to to, e.g. a guest's
	// games to the account they just signed in with.
	ClaimOwner(ctx context.Context, from, to string) error

	// Close releases backend resources.
	Close() error
}

const defaultListLimit = 50

func clampLimit(limit int) int {
	if limit <= 0 || limit > defaultListLimit {
		return defaultListLimit
	}
	return limit
}
