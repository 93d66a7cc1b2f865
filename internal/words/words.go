// internal/words/words.go
//
// Word bank used when the server picks words itself (daily puzzle, random
// puzzle requests).
//
// Loading behavior (Load):
//  1. If a path is given (WORDS_FILE), read one word per line from it.
//  2. Otherwise use the bank embedded in the assets package.
//
// Every line goes through puzzle.ParseWords rules: it is trimmed,
// diacritics are folded, it is uppercased, and lines that are not pure
// A–Z are skipped. Duplicates collapse.
package words

import (
	"bufio"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/robalobadob/wordsearch/assets"
	"github.com/robalobadob/wordsearch/internal/puzzle"
)

// ErrNotEnoughWords is returned by Pick when the bank cannot satisfy a request.
var ErrNotEnoughWords = errors.New("words: not enough words of that length")

// Bank is an immutable list of canonical words.
type Bank struct {
	words []string
}

// Load reads the bank from path, or the embedded default when path is empty.
func Load(path string) (*Bank, error) {
	var lines []string
	var err error
	if path != "" {
		lines, err = readWordFile(path)
	} else {
		lines, err = assets.WordList()
	}
	if err != nil {
		return nil, err
	}
	b := FromList(lines)
	if b.Len() == 0 {
		return nil, fmt.Errorf("words: bank %q is empty", path)
	}
	return b, nil
}

// FromList builds a bank from raw entries, skipping invalid ones.
func FromList(list []string) *Bank {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, raw := range list {
		ws, err := puzzle.ParseWords(raw)
		if err != nil || len(ws) != 1 {
			continue
		}
		if _, dup := seen[ws[0]]; dup {
			continue
		}
		seen[ws[0]] = struct{}{}
		out = append(out, ws[0])
	}
	return &Bank{words: out}
}

// readWordFile loads one entry per line, ignoring blanks and # comments.
func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		w := strings.TrimSpace(sc.Text())
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		out = append(out, w)
	}
	return out, sc.Err()
}

// Len returns the number of words in the bank.
func (b *Bank) Len() int { return len(b.words) }

// Pick returns n distinct words of at most maxLen letters, chosen with rng.
// The same rng state always yields the same words.
func (b *Bank) Pick(rng *rand.Rand, n, maxLen int) ([]string, error) {
	var pool []string
	for _, w := range b.words {
		if maxLen <= 0 || len(w) <= maxLen {
			pool = append(pool, w)
		}
	}
	if n <= 0 || n > len(pool) {
		return nil, fmt.Errorf("%w: want %d, have %d", ErrNotEnoughWords, n, len(pool))
	}
	// Partial Fisher-Yates over a copy.
	for i := 0; i < n; i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n:n], nil
}
