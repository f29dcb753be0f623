package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Goofygiraffe06/janseva/internal/logging"
	"github.com/Goofygiraffe06/janseva/internal/models"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore holds dev server accounts.
type SQLiteStore struct {
	db *sql.DB
}

var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")
)

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// one connection keeps :memory: databases shared and serialises writers
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY NOT NULL,
		email TEXT UNIQUE NOT NULL CHECK(email <> ''),
		username TEXT NOT NULL CHECK(username <> ''),
		password_hash TEXT NOT NULL CHECK(password_hash <> ''),
		verified INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

// UpsertPending creates an unverified account, or refreshes the name and
// password of one that was never verified. A verified account with the same
// email yields ErrUserExists.
func (s *SQLiteStore) UpsertPending(ctx context.Context, user models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, username, password_hash, verified, created_at)
		VALUES (?, ?, ?, ?, 0, ?)
		ON CONFLICT(email) DO UPDATE SET
			username = excluded.username,
			password_hash = excluded.password_hash
		WHERE users.verified = 0`,
		user.ID, user.Email, user.Username, user.PasswordHash, user.CreatedAt.Unix())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserExists
	}
	return nil
}

// MarkVerified activates the account.
func (s *SQLiteStore) MarkVerified(ctx context.Context, email string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET verified = 1 WHERE email = ?`, email)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *SQLiteStore) GetUser(ctx context.Context, email string) (models.User, bool) {
	var (
		user     models.User
		verified int
		created  int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, username, password_hash, verified, created_at
		FROM users
		WHERE email = ?`, email).
		Scan(&user.ID, &user.Email, &user.Username, &user.PasswordHash, &verified, &created)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logging.ErrorLog("store.GetUser error: %v", err)
		}
		return models.User{}, false
	}

	user.Verified = verified == 1
	user.CreatedAt = time.Unix(created, 0)
	return user, true
}

func (s *SQLiteStore) Exists(ctx context.Context, email string) bool {
	_, found := s.GetUser(ctx, email)
	return found
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
