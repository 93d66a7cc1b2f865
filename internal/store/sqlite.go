package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/robalobadob/wordsearch/internal/game"
)

// timeLayout is fixed-width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// sqliteStore keeps each game as a JSON document in the games table.
// Update runs inside an IMMEDIATE transaction (see db.Open), which takes
// the write lock up front so concurrent updates queue instead of failing.
type sqliteStore struct {
	db *sql.DB
}

// NewSQLiteStore returns a Store backed by an already-migrated database.
func NewSQLiteStore(db *sql.DB) Store {
	return &sqliteStore{db: db}
}

func (s *sqliteStore) Create(ctx context.Context, g *game.Game) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode game: %w", err)
	}
	now := time.Now().UTC().Format(timeLayout)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO games (id, owner_id, daily, state, data, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?)`,
		g.ID, nullable(g.OwnerID), nullable(g.Daily), string(g.State()), string(data),
		g.CreatedAt.UTC().Format(timeLayout), now)
	return err
}

func (s *sqliteStore) Get(ctx context.Context, id string) (*game.Game, error) {
	return scanGame(s.db.QueryRowContext(ctx, `SELECT data FROM games WHERE id=?`, id))
}

func (s *sqliteStore) Update(ctx context.Context, id string, fn func(*game.Game) error) (*game.Game, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	g, err := scanGame(tx.QueryRowContext(ctx, `SELECT data FROM games WHERE id=?`, id))
	if err != nil {
		return nil, err
	}
	if err := fn(g); err != nil {
		return nil, err
	}
	data, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("encode game: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE games SET state=?, data=?, updated_at=? WHERE id=?`,
		string(g.State()), string(data), time.Now().UTC().Format(timeLayout), id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *sqliteStore) ListByOwner(ctx context.Context, ownerID string, limit int) ([]*game.Game, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM games WHERE owner_id=? ORDER BY created_at DESC LIMIT ?`,
		ownerID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*game.Game{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var g game.Game
		if err := json.Unmarshal([]byte(data), &g); err != nil {
			return nil, fmt.Errorf("decode game: %w", err)
		}
		out = append(out, &g)
	}
	return out, rows.Err()
}

// Close is a no-op; the database handle belongs to the caller.
// ClaimOwner rewrites the owner column and the owner inside the JSON
// document together.
func (s *sqliteStore) ClaimOwner(ctx context.Context, from, to string) error {
	if from == "" || to == "" || from == to {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE games SET owner_id=?, data=json_set(data, '$.ownerId', ?), updated_at=?
		 WHERE owner_id=?`,
		to, to, time.Now().UTC().Format(timeLayout), from)
	return err
}

func (s *sqliteStore) Close() error { return nil }

func scanGame(row *sql.Row) (*game.Game, error) {
	var data string
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var g game.Game
	if err := json.Unmarshal([]byte(data), &g); err != nil {
		return nil, fmt.Errorf("decode game: %w", err)
	}
	return &g, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
