// internal/puzzle/types.go
//
// Core type definitions for the word-search engine.
// Defines:
//   - Direction: one of the eight straight-line step vectors.
//   - Coord: a (row, col) cell address.
//   - Placement: the cells a word occupies, in reading order.
//   - Grid: the square letter matrix.
//   - Puzzle: an immutable generated puzzle (grid + placements).

package puzzle

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Direction is the step a word takes from one letter to the next.
type Direction int

const (
	Up Direction = iota
	UpRight
	Right
	DownRight
	Down
	DownLeft
	Left
	UpLeft
)

// Directions lists every direction in declaration order.
var Directions = [...]Direction{Up, UpRight, Right, DownRight, Down, DownLeft, Left, UpLeft}

var directionNames = [...]string{
	Up:        "up",
	UpRight:   "up-right",
	Right:     "right",
	DownRight: "down-right",
	Down:      "down",
	DownLeft:  "down-left",
	Left:      "left",
	UpLeft:    "up-left",
}

var directionDeltas = [...][2]int{
	Up:        {-1, 0},
	UpRight:   {-1, 1},
	Right:     {0, 1},
	DownRight: {1, 1},
	Down:      {1, 0},
	DownLeft:  {1, -1},
	Left:      {0, -1},
	UpLeft:    {-1, -1},
}

// Valid reports whether d is one of the eight defined directions.
func (d Direction) Valid() bool { return d >= Up && d <= UpLeft }

// Delta returns the (row, col) unit step of d.
func (d Direction) Delta() (dr, dc int) {
	if !d.Valid() {
		return 0, 0
	}
	v := directionDeltas[d]
	return v[0], v[1]
}

func (d Direction) String() string {
	if !d.Valid() {
		return fmt.Sprintf("direction(%d)", int(d))
	}
	return directionNames[d]
}

// MarshalText encodes d by name ("up-right", ...).
func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("puzzle: invalid direction %d", int(d))
	}
	return []byte(directionNames[d]), nil
}

// UnmarshalText decodes a direction name.
func (d *Direction) UnmarshalText(b []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(b)))
	for i, n := range directionNames {
		if n == name {
			*d = Direction(i)
			return nil
		}
	}
	return fmt.Errorf("puzzle: unknown direction %q", name)
}

// Coord addresses a grid cell.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Step returns the coordinate n steps away from c along d.
func (c Coord) Step(d Direction, n int) Coord {
	dr, dc := d.Delta()
	return Coord{Row: c.Row + dr*n, Col: c.Col + dc*n}
}

func (c Coord) String() string { return fmt.Sprintf("(%d,%d)", c.Row, c.Col) }

// Placement records where a word sits in the grid.
// Cells are in the order the word reads; Cells[i] holds Word[i].
type Placement struct {
	Word      string    `json:"word"`
	Direction Direction `json:"direction"`
	Cells     []Coord   `json:"cells"`
}

// Start returns the first cell, or the zero Coord for an empty placement.
func (p Placement) Start() Coord {
	if len(p.Cells) == 0 {
		return Coord{}
	}
	return p.Cells[0]
}

// End returns the last cell, or the zero Coord for an empty placement.
func (p Placement) End() Coord {
	if len(p.Cells) == 0 {
		return Coord{}
	}
	return p.Cells[len(p.Cells)-1]
}

// unset marks a cell no word or filler has written yet.
const unset byte = 0

// Grid is a square matrix of uppercase letters, indexed [row][col].
// It encodes to JSON as one string per row.
type Grid [][]byte

// NewGrid returns a size×size grid with every cell unset.
func NewGrid(size int) Grid {
	g := make(Grid, size)
	for i := range g {
		g[i] = make([]byte, size)
	}
	return g
}

// Size returns the side length of the grid.
func (g Grid) Size() int { return len(g) }

// In reports whether c lies inside the grid.
func (g Grid) In(c Coord) bool {
	return c.Row >= 0 && c.Row < len(g) && c.Col >= 0 && c.Col < len(g)
}

// At returns the letter at c, or 0 when c is outside the grid or unset.
func (g Grid) At(c Coord) byte {
	if !g.In(c) {
		return unset
	}
	return g[c.Row][c.Col]
}

// Rows returns the grid as one string per row.
func (g Grid) Rows() []string {
	out := make([]string, len(g))
	for i, row := range g {
		b := make([]byte, len(row))
		for j, ch := range row {
			if ch == unset {
				ch = '.'
			}
			b[j] = ch
		}
		out[i] = string(b)
	}
	return out
}

// String renders the grid with letters separated by spaces.
func (g Grid) String() string {
	var sb strings.Builder
	for _, row := range g.Rows() {
		for j := 0; j < len(row); j++ {
			if j > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteByte(row[j])
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (g Grid) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Rows())
}

func (g *Grid) UnmarshalJSON(b []byte) error {
	var rows []string
	if err := json.Unmarshal(b, &rows); err != nil {
		return err
	}
	out := make(Grid, len(rows))
	for i, r := range rows {
		if len(r) != len(rows) {
			return fmt.Errorf("puzzle: grid row %d has %d cells, want %d", i, len(r), len(rows))
		}
		out[i] = []byte(r)
	}
	*g = out
	return nil
}

// Puzzle is a fully generated word search. It is not modified after
// Generate returns; regenerating produces a new Puzzle.
type Puzzle struct {
	Size       int                  `json:"size"`
	Grid       Grid                 `json:"grid"`
	Words      []string             `json:"words"`
	Placements map[string]Placement `json:"placements"`
}

// Placement returns the placement of a word given in any case.
func (p *Puzzle) Placement(word string) (Placement, bool) {
	pl, ok := p.Placements[Canonical(word)]
	return pl, ok
}

// Has reports whether word (in any case) is part of the puzzle.
func (p *Puzzle) Has(word string) bool {
	_, ok := p.Placement(word)
	return ok
}

// Directions returns the direction each word was laid out in.
func (p *Puzzle) Directions() map[string]Direction {
	out := make(map[string]Direction, len(p.Placements))
	for w, pl := range p.Placements {
		out[w] = pl.Direction
	}
	return out
}
