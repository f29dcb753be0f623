package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Goofygiraffe06/janseva/internal/logging"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps the token in a small key/value table so a login survives
// restarts of the console.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// :memory: databases are per connection
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS client_storage (
		key TEXT PRIMARY KEY NOT NULL CHECK(key <> ''),
		value TEXT NOT NULL
	);`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("session: create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (string, error) {
	var token string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM client_storage WHERE key = ?`, TokenKey).Scan(&token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNoToken
		}
		logging.ErrorLog("session.SQLiteStore load error: %v", err)
		return "", err
	}
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

func (s *SQLiteStore) Save(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO client_storage (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, TokenKey, token)
	return err
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM client_storage WHERE key = ?`, TokenKey)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
