package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const gameColumns = `id, rawg_id, slug, title, released, developer, publisher,
	genres, platforms, quality_score, cover_url, added_at, updated_at`

// listSep joins genre and platform lists for storage in a single column.
const listSep = ","

func addGame(q querier, g *Game) error {
	now := time.Now()
	result, err := q.Exec(`
		INSERT INTO games (rawg_id, slug, title, released, developer, publisher, genres, platforms, quality_score, cover_url, added_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.RawgID, g.Slug, g.Title, g.Released, g.Developer, g.Publisher,
		strings.Join(g.Genres, listSep), strings.Join(g.Platforms, listSep),
		g.QualityScore, g.CoverURL, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert game: %w", mapSQLiteError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	g.ID = id
	g.AddedAt = now
	g.UpdatedAt = now
	return nil
}

// AddGame inserts a new game into the catalog.
// Sets ID, AddedAt, and UpdatedAt on the struct.
func (s *Store) AddGame(g *Game) error { return addGame(s.db, g) }

// AddGame inserts a new game within a transaction.
func (t *Tx) AddGame(g *Game) error { return addGame(t.tx, g) }

func scanGame(row *sql.Row) (*Game, error) {
	g := &Game{}
	var genres, platforms string
	err := row.Scan(&g.ID, &g.RawgID, &g.Slug, &g.Title, &g.Released, &g.Developer,
		&g.Publisher, &genres, &platforms, &g.QualityScore, &g.CoverURL, &g.AddedAt, &g.UpdatedAt)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	g.Genres = splitList(genres)
	g.Platforms = splitList(platforms)
	return g, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, listSep)
}

// GetGame retrieves a game by ID.
// Returns ErrNotFound if the game does not exist.
func (s *Store) GetGame(id int64) (*Game, error) {
	g, err := scanGame(s.db.QueryRow(`SELECT `+gameColumns+` FROM games WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("get game %d: %w", id, err)
	}
	return g, nil
}

// FindGame looks a game up by slug or provider id, whichever matches.
// Returns nil, nil when no such game exists; this is the import dedup check.
func (s *Store) FindGame(slug string, rawgID int64) (*Game, error) {
	g, err := scanGame(s.db.QueryRow(
		`SELECT `+gameColumns+` FROM games WHERE slug = ? OR rawg_id = ?`, slug, rawgID))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find game %q: %w", slug, err)
	}
	return g, nil
}

// ListGames returns games matching the filter plus the unfiltered match count.
func (s *Store) ListGames(f GameFilter) ([]*Game, int, error) {
	var conditions []string
	var args []any

	if f.Title != nil {
		conditions = append(conditions, "title LIKE ?")
		args = append(args, "%"+*f.Title+"%")
	}
	if f.MinScore != nil {
		conditions = append(conditions, "quality_score >= ?")
		args = append(args, *f.MinScore)
	}
	if f.Genre != nil {
		conditions = append(conditions, "genres LIKE ?")
		args = append(args, "%"+*f.Genre+"%")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM games "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count games: %w", err)
	}

	query := `SELECT ` + gameColumns + ` FROM games ` + whereClause + ` ORDER BY id`
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list games: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Game
	for rows.Next() {
		g := &Game{}
		var genres, platforms string
		if err := rows.Scan(&g.ID, &g.RawgID, &g.Slug, &g.Title, &g.Released, &g.Developer,
			&g.Publisher, &genres, &platforms, &g.QualityScore, &g.CoverURL, &g.AddedAt, &g.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan game: %w", err)
		}
		g.Genres = splitList(genres)
		g.Platforms = splitList(platforms)
		results = append(results, g)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate games: %w", err)
	}

	return results, total, nil
}

// CountGames returns the number of games in the catalog.
func (s *Store) CountGames() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM games").Scan(&n); err != nil {
		return 0, fmt.Errorf("count games: %w", err)
	}
	return n, nil
}
