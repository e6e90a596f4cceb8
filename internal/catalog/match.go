package catalog

import (
	"sort"

	"github.com/hbollon/go-edlib"
)

// TitleMatch is one fuzzy search hit against the catalog.
type TitleMatch struct {
	Game  *Game
	Score float64 // Jaro-Winkler similarity (0.0-1.0)
}

// minMatchScore filters out hits with no meaningful similarity.
const minMatchScore = 0.55

// SearchTitles ranks catalog games by fuzzy similarity to the query.
// Jaro-Winkler favors shared prefixes, which suits game titles where
// sequels differ only in a trailing numeral or subtitle.
func (s *Store) SearchTitles(query string, limit int) ([]TitleMatch, error) {
	games, _, err := s.ListGames(GameFilter{})
	if err != nil {
		return nil, err
	}

	normalized := NormalizeTitle(query)

	var matches []TitleMatch
	for _, g := range games {
		score := float64(edlib.JaroWinklerSimilarity(normalized, NormalizeTitle(g.Title)))
		if score < minMatchScore {
			continue
		}
		matches = append(matches, TitleMatch{Game: g, Score: score})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}
