// internal/game/types.go
//
// Core type definitions for a word-search play session.
// Defines:
//   - State: coarse session state (playing/solved).
//   - Game: one puzzle plus the player's found words.

package game

import (
	"time"

	"github.com/robalobadob/wordsearch/internal/puzzle"
)

// State is the coarse lifecycle of a game.
type State string

const (
	StatePlaying State = "playing"
	StateSolved  State = "solved"
)

// Game holds one puzzle and what the player has marked in it.
// Puzzle and Found are replaced, never edited in place.
type Game struct {
	ID        string            `json:"id"`                 // UUID
	OwnerID   string            `json:"ownerId,omitempty"`  // user ID or anonymous cookie ID
	Daily     string            `json:"daily,omitempty"`    // YYYY-MM-DD for daily puzzles
	Puzzle    *puzzle.Puzzle    `json:"puzzle"`             // current generation
	Found     puzzle.FoundState `json:"found"`              // reset on every generation
	Toggles   int               `json:"toggles"`            // found/unfound actions so far
	Credited  bool              `json:"credited,omitempty"` // this solve already counted toward stats
	CreatedAt time.Time         `json:"createdAt"`          // when the session started
	SolvedAt  time.Time         `json:"solvedAt,omitempty"` // first time every word was found
}
