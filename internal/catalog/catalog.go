// Package catalog persists the game and screenshot records the guessing
// game is played against.
package catalog

import "time"

// Difficulty is the assigned guessing difficulty of a screenshot.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// TierForIndex maps a screenshot's position in the provider listing to a
// difficulty tier. Earlier screenshots tend to be recognizable key art,
// later ones obscure gameplay moments.
func TierForIndex(i int) Difficulty {
	switch {
	case i < 2:
		return DifficultyEasy
	case i < 4:
		return DifficultyMedium
	default:
		return DifficultyHard
	}
}

// Game is one catalog entry, keyed by its natural slug.
type Game struct {
	ID           int64
	RawgID       int64
	Slug         string
	Title        string
	Released     string // YYYY-MM-DD, may be empty
	Developer    string
	Publisher    string
	Genres       []string
	Platforms    []string
	QualityScore int
	CoverURL     string
	AddedAt      time.Time
	UpdatedAt    time.Time
}

// Screenshot references a locally stored asset for a game.
type Screenshot struct {
	ID         int64
	GameID     int64
	LocalPath  string
	SourceURL  string
	Difficulty Difficulty
	AddedAt    time.Time
}

// GameFilter specifies criteria for listing games.
type GameFilter struct {
	Title    *string
	MinScore *int
	Genre    *string
	Limit    int
	Offset   int
}
