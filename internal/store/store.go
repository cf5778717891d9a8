// Package store persists the saved login and finished-match history in a
// local SQLite file, the client's stand-in for browser local storage.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/farklezone/farkle-client/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS login (
	id       INTEGER PRIMARY KEY CHECK (id = 1),
	username TEXT NOT NULL,
	seed     TEXT NOT NULL,
	method   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS matches (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	match_id       TEXT NOT NULL,
	opponent       TEXT NOT NULL,
	winner         TEXT NOT NULL,
	self_score     INTEGER NOT NULL,
	opponent_score INTEGER NOT NULL,
	finished_at    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_matches_finished_at ON matches (finished_at DESC);
`

// Login is the locally saved identity.
type Login struct {
	Username string
	Seed     string

	// Method records how the wallet signs: "keypair" or an external signer
	// identifier.
	Method string
}

// MatchRecord is one finished match.
type MatchRecord struct {
	MatchID       string        `json:"match_id"`
	Opponent      domain.Player `json:"opponent"`
	Winner        domain.Player `json:"winner"`
	SelfScore     int           `json:"self_score"`
	OpponentScore int           `json:"opponent_score"`
	FinishedAt    time.Time     `json:"finished_at"`
}

// Store wraps the SQLite handle.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// The driver is file-backed; concurrent writers contend on one lock.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveLogin stores login, replacing any previous one.
func (s *Store) SaveLogin(ctx context.Context, login Login) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO login (id, username, seed, method) VALUES (1, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET username = excluded.username, seed = excluded.seed, method = excluded.method`,
		login.Username, login.Seed, login.Method)
	return err
}

// LoadLogin returns the saved login, or nil when none has been saved.
func (s *Store) LoadLogin(ctx context.Context) (*Login, error) {
	var login Login
	err := s.db.QueryRowContext(ctx,
		`SELECT username, seed, method FROM login WHERE id = 1`).
		Scan(&login.Username, &login.Seed, &login.Method)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &login, nil
}

// ClearLogin forgets the saved login.
func (s *Store) ClearLogin(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM login WHERE id = 1`)
	return err
}

// RecordMatch appends one finished match to the history.
func (s *Store) RecordMatch(ctx context.Context, rec MatchRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO matches (match_id, opponent, winner, self_score, opponent_score, finished_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.MatchID, rec.Opponent, rec.Winner, rec.SelfScore, rec.OpponentScore, rec.FinishedAt.UnixMilli())
	return err
}

// ListMatches returns up to limit finished matches, most recent first.
func (s *Store) ListMatches(ctx context.Context, limit int) ([]MatchRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT match_id, opponent, winner, self_score, opponent_score, finished_at
		FROM matches ORDER BY finished_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []MatchRecord
	for rows.Next() {
		var rec MatchRecord
		var finishedAt int64
		if err := rows.Scan(&rec.MatchID, &rec.Opponent, &rec.Winner, &rec.SelfScore, &rec.OpponentScore, &finishedAt); err != nil {
			return nil, err
		}
		rec.FinishedAt = time.UnixMilli(finishedAt).UTC()
		records = append(records, rec)
	}
	return records, rows.Err()
}
