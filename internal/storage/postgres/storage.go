package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	domainErrors "github.com/polkiloo/farmsupply/internal/domain/errors"
	"github.com/polkiloo/farmsupply/internal/domain/model"
)

// consoleSlot keys the single row holding the live session.
const consoleSlot = "console"

type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Storage persists the console session in PostgreSQL.
type Storage struct {
	pool   pgxPool
	logger *zap.Logger
}

// New connects to dsn and makes sure the session table exists.
func New(ctx context.Context, dsn string, logger *zap.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Storage) initSchema(ctx context.Context) error {
	const stmt = `CREATE TABLE IF NOT EXISTS console_sessions (
            slot TEXT PRIMARY KEY,
            session_id TEXT NOT NULL,
            principal_id BIGINT NOT NULL,
            username TEXT NOT NULL,
            role TEXT NOT NULL,
            token TEXT NOT NULL,
            saved_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`
	if _, err := s.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// Save replaces the stored session with rec.
func (s *Storage) Save(ctx context.Context, rec model.SessionRecord) error {
	return s.WithinTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM console_sessions WHERE slot=$1`, consoleSlot); err != nil {
			return err
		}
		const insert = `INSERT INTO console_sessions (slot, session_id, principal_id, username, role, token, saved_at)
                        VALUES ($1, $2, $3, $4, $5, $6, $7)`
		_, err := tx.Exec(ctx, insert, consoleSlot, rec.ID, rec.Principal.ID, rec.Principal.Username,
			string(rec.Principal.Role), rec.Token, rec.SavedAt)
		return err
	})
}

// Load returns the stored session or domainErrors.ErrNotFound.
func (s *Storage) Load(ctx context.Context) (model.SessionRecord, error) {
	const query = `SELECT session_id, principal_id, username, role, token, saved_at
                   FROM console_sessions WHERE slot=$1`
	var (
		rec  model.SessionRecord
		role string
	)
	err := s.pool.QueryRow(ctx, query, consoleSlot).Scan(
		&rec.ID, &rec.Principal.ID, &rec.Principal.Username, &role, &rec.Token, &rec.SavedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.SessionRecord{}, domainErrors.ErrNotFound
		}
		return model.SessionRecord{}, err
	}
	rec.Principal.Role = model.Role(role)
	return rec, nil
}

// Clear removes the stored session. Clearing an empty table is not an error.
func (s *Storage) Clear(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM console_sessions WHERE slot=$1`, consoleSlot)
	return err
}

// WithinTransaction executes fn inside a transaction boundary.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Warn("rollback failed", zap.Error(rbErr))
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}
