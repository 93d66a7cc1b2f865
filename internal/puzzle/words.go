package puzzle

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Canonical returns the form a word is stored and looked up under:
// trimmed, diacritics folded to the base letter, uppercased.
// "  café " becomes "CAFE". It does not validate.
func Canonical(word string) string {
	word = strings.TrimSpace(word)
	// Transformers and casers carry state; build fresh ones per call.
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if s, _, err := transform.String(fold, word); err == nil {
		word = s
	}
	return cases.Upper(language.Und).String(word)
}

// ParseWords splits comma-separated input into canonical words.
//
// Rules:
//   - every token is trimmed and canonicalized;
//   - an empty token (",," or a trailing comma) is rejected;
//   - a token with anything but A–Z after folding is rejected;
//   - duplicates collapse, keeping the first occurrence's position.
func ParseWords(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, InvalidInput("", "word list is empty")
	}
	return normalizeWords(strings.Split(raw, ","))
}

// normalizeWords canonicalizes, validates and de-duplicates words.
func normalizeWords(in []string) ([]string, error) {
	if len(in) == 0 {
		return nil, InvalidInput("", "word list is empty")
	}
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for i, raw := range in {
		w := Canonical(raw)
		if w == "" {
			return nil, InvalidInput("", "word %d is empty", i+1)
		}
		if !isLetters(w) {
			return nil, InvalidInput(strings.TrimSpace(raw), "only letters A-Z are allowed")
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out, nil
}

// isLetters reports whether s is non-empty and all uppercase ASCII letters.
func isLetters(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}
