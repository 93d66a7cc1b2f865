// internal/game/engine.go
//
// Game engine for a single word-search session.
// Responsibilities:
//   - Create new games from a word list (puzzle generation is delegated to
//     the puzzle package).
//   - Toggle a word's found flag, or mark it via a start/end cell selection.
//   - Regenerate the grid for the same words, resetting found state.
//   - Track state transitions: playing → solved (and back on un-toggle).
//
// A Game is not safe for concurrent use; stores serialize access.
package game

import (
	"time"

	"github.com/google/uuid"

	"github.com/robalobadob/wordsearch/internal/puzzle"
)

// New generates a puzzle for words and wraps it in a fresh game.
func New(words []string, opts puzzle.Options) (*Game, error) {
	p, err := puzzle.Generate(words, opts)
	if err != nil {
		return nil, err
	}
	return &Game{
		ID:        uuid.NewString(),
		Puzzle:    p,
		Found:     puzzle.ResetFound(),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Toggle flips the found flag of a word in the puzzle.
// Returns the new flag and the resulting state.
func (g *Game) Toggle(word string) (bool, State, error) {
	w := puzzle.Canonical(word)
	if !g.Puzzle.Has(w) {
		return false, g.State(), puzzle.InvalidInput(w, "not in this puzzle")
	}
	g.Found = g.Found.Toggle(w)
	g.Toggles++
	g.touch()
	return g.Found[w], g.State(), nil
}

// Select resolves a drag from one cell to another to a word and marks it
// found. A selection that does not cover a word's full run is rejected.
func (g *Game) Select(from, to puzzle.Coord) (string, State, error) {
	w, ok := g.Puzzle.Match(from, to)
	if !ok {
		return "", g.State(), puzzle.InvalidInput("", "selection %s-%s is not a word", from, to)
	}
	if !g.Found[w] {
		g.Found = g.Found.Mark(w)
		g.Toggles++
		g.touch()
	}
	return w, g.State(), nil
}

// Regenerate lays the same words out again. Found state is reset only when
// the new puzzle is generated; on error the game is left unchanged.
func (g *Game) Regenerate(opts puzzle.Options) error {
	if opts.Size <= 0 {
		opts.Size = g.Puzzle.Size
	}
	p, err := puzzle.Generate(g.Puzzle.Words, opts)
	if err != nil {
		return err
	}
	g.Puzzle = p
	g.Found = puzzle.ResetFound()
	g.Toggles = 0
	g.Credited = false
	g.SolvedAt = time.Time{}
	return nil
}

// State reports solved once every word is marked.
func (g *Game) State() State {
	if g.Found.Count() == len(g.Puzzle.Words) {
		return StateSolved
	}
	return StatePlaying
}

// Overlays returns the line to draw over each found word.
func (g *Game) Overlays(cellPx float64) map[string]puzzle.Overlay {
	out := make(map[string]puzzle.Overlay, len(g.Found))
	for w, found := range g.Found {
		if !found {
			continue
		}
		if pl, ok := g.Puzzle.Placements[w]; ok {
			out[w] = puzzle.OverlayFor(pl, cellPx)
		}
	}
	return out
}

// Elapsed is the time from creation to the first solve, or zero while
// the game is unsolved.
func (g *Game) Elapsed() time.Duration {
	if g.SolvedAt.IsZero() {
		return 0
	}
	return g.SolvedAt.Sub(g.CreatedAt)
}

// Credit marks a solved game as counted and reports whether this call did
// it. It is false while playing and on every call after the first.
func (g *Game) Credit() bool {
	if g.State() != StateSolved || g.Credited {
		return false
	}
	g.Credited = true
	return true
}

// touch keeps SolvedAt in step with the state.
func (g *Game) touch() {
	switch {
	case g.State() == StateSolved && g.SolvedAt.IsZero():
		g.SolvedAt = time.Now().UTC()
	case g.State() == StatePlaying:
		g.SolvedAt = time.Time{}
	}
}
