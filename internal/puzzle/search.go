package puzzle

// Find returns every straight run of cells in g that spells word, in any of
// the eight directions. A palindrome is reported once per direction it reads in.
func (g Grid) Find(word string) []Placement {
	w := Canonical(word)
	if w == "" {
		return nil
	}
	var out []Placement
	for r := range g {
		for c := range g[r] {
			start := Coord{Row: r, Col: c}
			if g.At(start) != w[0] {
				continue
			}
			for _, d := range Directions {
				if len(w) == 1 && d != Right {
					continue
				}
				if matches(g, w, start, d) {
					cells := make([]Coord, len(w))
					for i := range cells {
						cells[i] = start.Step(d, i)
					}
					out = append(out, Placement{Word: w, Direction: d, Cells: cells})
				}
			}
		}
	}
	return out
}

func matches(g Grid, word string, start Coord, d Direction) bool {
	for i := 0; i < len(word); i++ {
		if g.At(start.Step(d, i)) != word[i] {
			return false
		}
	}
	return true
}

// Match returns the word whose placement runs between a and b, in either
// order. It is how a player's drag selection is resolved to a word.
func (p *Puzzle) Match(a, b Coord) (string, bool) {
	for _, w := range p.Words {
		pl := p.Placements[w]
		s, e := pl.Start(), pl.End()
		if (s == a && e == b) || (s == b && e == a) {
			return w, true
		}
	}
	return "", false
}
