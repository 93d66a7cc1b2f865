// internal/puzzle/generator.go
//
// Word-search generation.
// Responsibilities:
//   - Place every word along a straight line in one of eight directions,
//     allowing crossings only where the letters agree.
//   - Bound the random search per word and fail with PLACEMENT_FAILED.
//   - Fill the remaining cells with uniformly random letters A–Z.
//   - Verify the finished grid before handing it out.
//
// Generation is pure: each call owns its grid, placements and rng, and the
// caller receives either a complete Puzzle or an error.
package puzzle

import (
	"math/rand/v2"
)

const (
	DefaultSize        = 15
	DefaultMaxAttempts = 10000
)

// Options tunes Generate. The zero value uses the defaults.
type Options struct {
	Size        int        // side length of the grid (default 15)
	MaxAttempts int        // random samples per word before giving up (default 10000)
	Rand        *rand.Rand // source of randomness; nil means a freshly seeded PCG
}

func (o Options) withDefaults() Options {
	if o.Size <= 0 {
		o.Size = DefaultSize
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return o
}

// NewSeededRand returns a deterministic rng for reproducible puzzles.
func NewSeededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Generate builds a puzzle containing every word.
// Words are canonicalized and de-duplicated the same way ParseWords does.
func Generate(words []string, opts Options) (*Puzzle, error) {
	list, err := normalizeWords(words)
	if err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	grid := NewGrid(opts.Size)
	placements := make(map[string]Placement, len(list))
	for _, w := range list {
		pl, err := placeWord(grid, w, opts)
		if err != nil {
			return nil, err
		}
		placements[w] = pl
	}
	fill(grid, opts.Rand)

	p := &Puzzle{Size: opts.Size, Grid: grid, Words: list, Placements: placements}
	if err := Verify(p); err != nil {
		return nil, err
	}
	return p, nil
}

// placeWord samples (direction, start) pairs until the word fits, then
// writes it into grid.
func placeWord(grid Grid, word string, opts Options) (Placement, error) {
	size := grid.Size()
	if len(word) > size {
		return Placement{}, newError(CodePlacementFailed, word,
			"%d letters do not fit in a %dx%d grid", len(word), size, size)
	}
	for attempt := 0; attempt < opts.MaxAttempts; attempt++ {
		d := Directions[opts.Rand.IntN(len(Directions))]
		start := Coord{Row: opts.Rand.IntN(size), Col: opts.Rand.IntN(size)}
		if !canPlace(grid, word, start, d) {
			continue
		}
		return write(grid, word, start, d), nil
	}
	return Placement{}, newError(CodePlacementFailed, word,
		"no free line after %d attempts", opts.MaxAttempts)
}

// canPlace reports whether every letter of word lands inside the grid on a
// cell that is unset or already holds that letter.
func canPlace(grid Grid, word string, start Coord, d Direction) bool {
	for i := 0; i < len(word); i++ {
		c := start.Step(d, i)
		if !grid.In(c) {
			return false
		}
		if ch := grid[c.Row][c.Col]; ch != unset && ch != word[i] {
			return false
		}
	}
	return true
}

func write(grid Grid, word string, start Coord, d Direction) Placement {
	cells := make([]Coord, len(word))
	for i := 0; i < len(word); i++ {
		c := start.Step(d, i)
		grid[c.Row][c.Col] = word[i]
		cells[i] = c
	}
	return Placement{Word: word, Direction: d, Cells: cells}
}

// fill assigns a random letter to every unset cell.
func fill(grid Grid, rng *rand.Rand) {
	for _, row := range grid {
		for j := range row {
			if row[j] == unset {
				row[j] = byte('A' + rng.IntN(26))
			}
		}
	}
}

// Verify checks a puzzle's invariants: a full A–Z grid, and every placement
// spelling its word along a straight line of in-bounds cells. Two words can
// only disagree at a shared cell if one of them fails to spell itself, so
// this also rules out conflicting overlaps.
func Verify(p *Puzzle) error {
	if p == nil || p.Grid.Size() != p.Size {
		return newError(CodeInternal, "", "grid size mismatch")
	}
	for r, row := range p.Grid {
		if len(row) != p.Size {
			return newError(CodeInternal, "", "row %d has %d cells", r, len(row))
		}
		for c, ch := range row {
			if ch < 'A' || ch > 'Z' {
				return newError(CodeInternal, "", "cell (%d,%d) holds %q", r, c, ch)
			}
		}
	}
	for _, w := range p.Words {
		pl, ok := p.Placements[w]
		if !ok {
			return newError(CodeInternal, w, "word has no placement")
		}
		if len(pl.Cells) != len(w) || !pl.Direction.Valid() {
			return newError(CodeInternal, w, "placement does not match word")
		}
		for i, c := range pl.Cells {
			if c != pl.Start().Step(pl.Direction, i) {
				return newError(CodeInternal, w, "placement is not a straight line")
			}
			if p.Grid.At(c) != w[i] {
				return newError(CodeInternal, w, "cell %s holds %q, want %q", c, p.Grid.At(c), w[i])
			}
		}
	}
	return nil
}
