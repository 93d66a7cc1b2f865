package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/robalobadob/wordsearch/internal/puzzle"
	"github.com/robalobadob/wordsearch/internal/words"
)

// generateOpts holds the flags for the generate command.
type generateOpts struct {
	words       string // comma-separated; empty picks count words from the bank
	count       int    // how many bank words to pick
	size        int    // grid side length
	seed        uint64 // 0 means random
	maxAttempts int    // retries per word
	solve       bool   // also print where every word is
	json        bool   // machine-readable output
	wordsFile   string // bank to pick from
}

func newGenerateCmd() *cobra.Command {
	opts := generateOpts{
		size:        puzzle.DefaultSize,
		count:       10,
		maxAttempts: puzzle.DefaultMaxAttempts,
	}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a puzzle and print it",
		Example: `  wordsearch generate --words "cat, dog, bird" --size 8
  wordsearch generate --count 12 --seed 42 --solve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, &opts)
		},
	}
	cmd.Flags().StringVarP(&opts.words, "words", "w", "", "comma-separated words to hide")
	cmd.Flags().IntVarP(&opts.count, "count", "n", opts.count, "number of bank words to pick when --words is empty")
	cmd.Flags().IntVarP(&opts.size, "size", "s", opts.size, "grid side length")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "random seed for a reproducible grid (0 = random)")
	cmd.Flags().IntVar(&opts.maxAttempts, "max-attempts", opts.maxAttempts, "placement attempts per word")
	cmd.Flags().BoolVar(&opts.solve, "solve", false, "print the solution")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print JSON")
	cmd.Flags().StringVar(&opts.wordsFile, "words-file", "", "word bank file, one word per line (default embedded)")
	return cmd
}

func runGenerate(cmd *cobra.Command, opts *generateOpts) error {
	logger := zerolog.Ctx(cmd.Context())
	seed := opts.seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := puzzle.NewSeededRand(seed)

	var list []string
	var err error
	if opts.words != "" {
		list, err = puzzle.ParseWords(opts.words)
	} else {
		var bank *words.Bank
		if bank, err = words.Load(opts.wordsFile); err == nil {
			list, err = bank.Pick(rng, opts.count, opts.size)
		}
	}
	if err != nil {
		return err
	}

	p, err := puzzle.Generate(list, puzzle.Options{Size: opts.size, MaxAttempts: opts.maxAttempts, Rand: rng})
	if err != nil {
		return err
	}
	logger.Debug().Uint64("seed", seed).Int("size", p.Size).Strs("words", p.Words).Msg("generated")

	out := cmd.OutOrStdout()
	if opts.json {
		return writePuzzleJSON(out, p, seed, opts.solve)
	}
	return writePuzzleText(out, p, opts.solve)
}

type generateJSON struct {
	Seed       uint64                      `json:"seed"`
	Size       int                         `json:"size"`
	Grid       puzzle.Grid                 `json:"grid"`
	Words      []string                    `json:"words"`
	Placements map[string]puzzle.Placement `json:"placements,omitempty"`
}

func writePuzzleJSON(w io.Writer, p *puzzle.Puzzle, seed uint64, solve bool) error {
	v := generateJSON{Seed: seed, Size: p.Size, Grid: p.Grid, Words: p.Words}
	if solve {
		v.Placements = p.Placements
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writePuzzleText(w io.Writer, p *puzzle.Puzzle, solve bool) error {
	var b strings.Builder
	for _, row := range p.Grid.Rows() {
		b.WriteString(strings.Join(strings.Split(row, ""), " "))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	for _, word := range p.Words {
		if !solve {
			fmt.Fprintln(&b, word)
			continue
		}
		pl := p.Placements[word]
		fmt.Fprintf(&b, "%-*s %-10s %s -> %s\n", longest(p.Words), word, pl.Direction, pl.Start(), pl.End())
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func longest(ws []string) int {
	n := 0
	for _, w := range ws {
		n = max(n, len(w))
	}
	return n
}
