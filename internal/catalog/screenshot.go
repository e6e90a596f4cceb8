package catalog

import (
	"fmt"
	"time"
)

func addScreenshot(q querier, s *Screenshot) error {
	now := time.Now()
	result, err := q.Exec(`
		INSERT INTO screenshots (game_id, local_path, source_url, difficulty, added_at)
		VALUES (?, ?, ?, ?, ?)`,
		s.GameID, s.LocalPath, s.SourceURL, s.Difficulty, now,
	)
	if err != nil {
		return fmt.Errorf("insert screenshot: %w", mapSQLiteError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	s.ID = id
	s.AddedAt = now
	return nil
}

// AddScreenshot inserts a new screenshot record.
// Sets ID and AddedAt on the struct.
func (s *Store) AddScreenshot(shot *Screenshot) error { return addScreenshot(s.db, shot) }

// AddScreenshot inserts a new screenshot record within a transaction.
func (t *Tx) AddScreenshot(shot *Screenshot) error { return addScreenshot(t.tx, shot) }

func listScreenshots(q querier, gameID int64) ([]*Screenshot, error) {
	rows, err := q.Query(`
		SELECT id, game_id, local_path, source_url, difficulty, added_at
		FROM screenshots WHERE game_id = ? ORDER BY id`, gameID)
	if err != nil {
		return nil, fmt.Errorf("list screenshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Screenshot
	for rows.Next() {
		shot := &Screenshot{}
		if err := rows.Scan(&shot.ID, &shot.GameID, &shot.LocalPath, &shot.SourceURL,
			&shot.Difficulty, &shot.AddedAt); err != nil {
			return nil, fmt.Errorf("scan screenshot: %w", err)
		}
		results = append(results, shot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate screenshots: %w", err)
	}
	return results, nil
}

// ListScreenshots returns all screenshots for a game in insertion order.
func (s *Store) ListScreenshots(gameID int64) ([]*Screenshot, error) {
	return listScreenshots(s.db, gameID)
}

// ListScreenshots returns all screenshots for a game within a transaction.
func (t *Tx) ListScreenshots(gameID int64) ([]*Screenshot, error) {
	return listScreenshots(t.tx, gameID)
}

// CountScreenshots returns the number of stored screenshots.
func (s *Store) CountScreenshots() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM screenshots").Scan(&n); err != nil {
		return 0, fmt.Errorf("count screenshots: %w", err)
	}
	return n, nil
}
