package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	domainErrors "github.com/polkiloo/farmsupply/internal/domain/errors"
	"github.com/polkiloo/farmsupply/internal/domain/model"
)

const consoleSlot = "console"

// SessionStore keeps the console session in a local SQLite file.
type SessionStore struct {
	db *sql.DB
}

// Open creates the database file and the session table when missing.
func Open(ctx context.Context, path string) (*SessionStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	const ddl = `CREATE TABLE IF NOT EXISTS console_sessions (
		slot TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		principal_id INTEGER NOT NULL,
		username TEXT NOT NULL,
		role TEXT NOT NULL,
		token TEXT NOT NULL,
		saved_at TEXT NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SessionStore{db: db}, nil
}

// Close releases the database handle.
func (s *SessionStore) Close() error {
	return s.db.Close()
}

func (s *SessionStore) Save(ctx context.Context, rec model.SessionRecord) error {
	const upsert = `INSERT INTO console_sessions (slot, session_id, principal_id, username, role, token, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			session_id=excluded.session_id,
			principal_id=excluded.principal_id,
			username=excluded.username,
			role=excluded.role,
			token=excluded.token,
			saved_at=excluded.saved_at`
	_, err := s.db.ExecContext(ctx, upsert, consoleSlot, rec.ID, rec.Principal.ID, rec.Principal.Username,
		string(rec.Principal.Role), rec.Token, rec.SavedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SessionStore) Load(ctx context.Context) (model.SessionRecord, error) {
	const query = `SELECT session_id, principal_id, username, role, token, saved_at
		FROM console_sessions WHERE slot = ?`
	var (
		rec     model.SessionRecord
		role    string
		savedAt string
	)
	err := s.db.QueryRowContext(ctx, query, consoleSlot).Scan(
		&rec.ID, &rec.Principal.ID, &rec.Principal.Username, &role, &rec.Token, &savedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.SessionRecord{}, domainErrors.ErrNotFound
		}
		return model.SessionRecord{}, fmt.Errorf("load session: %w", err)
	}
	rec.Principal.Role = model.Role(role)
	if rec.SavedAt, err = time.Parse(time.RFC3339Nano, savedAt); err != nil {
		return model.SessionRecord{}, fmt.Errorf("load session: saved_at: %w", err)
	}
	return rec, nil
}

func (s *SessionStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM console_sessions WHERE slot = ?`, consoleSlot); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
