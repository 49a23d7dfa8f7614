// Package store keeps a journal of player sessions in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/gstoney/mcserver/internal/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	player    TEXT    NOT NULL,
	name      TEXT    NOT NULL,
	remote    TEXT    NOT NULL,
	joined_at INTEGER NOT NULL,
	left_at   INTEGER,
	reason    TEXT
);
CREATE INDEX IF NOT EXISTS sessions_player ON sessions (player, joined_at);
`

// Session is one stay of a player on the server. Left is zero while the
// player is online.
type Session struct {
	ID     int64
	Player uuid.UUID
	Name   string
	Remote string
	Joined time.Time
	Left   time.Time
	Reason string
}

type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path. ":memory:" gives a private
// in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		l := logging.Component("store")
		l.Warn().Err(err).Msg("failed to enable WAL mode")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate %s: %w", path, err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// BeginSession records a join and returns the session id.
func (s *Store) BeginSession(ctx context.Context, player uuid.UUID, name, remote string, at time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (player, name, remote, joined_at) VALUES (?, ?, ?, ?)`,
		player.String(), name, remote, at.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("begin session for %s: %w", name, err)
	}
	return res.LastInsertId()
}

// EndSession closes an open session. Closing it twice is an error.
func (s *Store) EndSession(ctx context.Context, id int64, at time.Time, reason string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET left_at = ?, reason = ? WHERE id = ? AND left_at IS NULL`,
		at.UnixMilli(), reason, id)
	if err != nil {
		return fmt.Errorf("end session %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("end session %d: %w", id, sql.ErrNoRows)
	}
	return nil
}

// CloseOpenSessions ends every session left open, e.g. by a crash.
func (s *Store) CloseOpenSessions(ctx context.Context, at time.Time, reason string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET left_at = ?, reason = ? WHERE left_at IS NULL`,
		at.UnixMilli(), reason)
	if err != nil {
		return 0, fmt.Errorf("close open sessions: %w", err)
	}
	return res.RowsAffected()
}

// Sessions lists a player's sessions, newest first.
func (s *Store) Sessions(ctx context.Context, player uuid.UUID) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, player, name, remote, joined_at, left_at, reason
		 FROM sessions WHERE player = ? ORDER BY joined_at DESC, id DESC`,
		player.String())
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var (
			ss     Session
			id     string
			joined int64
			left   sql.NullInt64
			reason sql.NullString
		)
		if err := rows.Scan(&ss.ID, &id, &ss.Name, &ss.Remote, &joined, &left, &reason); err != nil {
			return nil, err
		}
		if ss.Player, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("session %d: %w", ss.ID, err)
		}
		ss.Joined = time.UnixMilli(joined)
		if left.Valid {
			ss.Left = time.UnixMilli(left.Int64)
		}
		ss.Reason = reason.String
		out = append(out, ss)
	}
	return out, rows.Err()
}

// Online counts open sessions.
func (s *Store) Online(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE left_at IS NULL`).Scan(&n)
	return n, err
}
