package puzzle

// FoundState maps a canonical word to whether the player has marked it.
// Absent means not found. Values are treated as immutable: Toggle returns
// a new map.
type FoundState map[string]bool

// ResetFound returns the empty state used for every newly generated puzzle.
func ResetFound() FoundState { return FoundState{} }

// Toggle returns a copy of f with word's flag flipped.
func (f FoundState) Toggle(word string) FoundState {
	w := Canonical(word)
	next := f.with(len(f) + 1)
	next[w] = !f[w]
	return next
}

// Mark returns a copy of f with word set to found.
func (f FoundState) Mark(word string) FoundState {
	next := f.with(len(f) + 1)
	next[Canonical(word)] = true
	return next
}

// Found reports whether word is marked.
func (f FoundState) Found(word string) bool { return f[Canonical(word)] }

// Count returns the number of words marked found.
func (f FoundState) Count() int {
	n := 0
	for _, v := range f {
		if v {
			n++
		}
	}
	return n
}

func (f FoundState) with(capacity int) FoundState {
	next := make(FoundState, capacity)
	for k, v := range f {
		next[k] = v
	}
	return next
}
