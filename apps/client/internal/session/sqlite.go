package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const defaultLocalDBName = "client_session.db"

type SQLiteBackend struct {
	db  *sql.DB
	key string
}

// DefaultSQLitePath places the database under the user config directory,
// falling back to the working directory.
func DefaultSQLitePath() string {
	if dir, err := os.UserConfigDir(); err == nil && strings.TrimSpace(dir) != "" {
		return filepath.Join(dir, "HoldemSync", defaultLocalDBName)
	}
	return defaultLocalDBName
}

func NewSQLiteBackend(dbPath, key string) (*SQLiteBackend, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if key = strings.TrimSpace(key); key == "" {
		key = DefaultKey
	}
	if dbPath != ":memory:" {
		parent := filepath.Dir(dbPath)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSQLiteSessionSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteBackend{db: db, key: key}, nil
}

func ensureSQLiteSessionSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS client_sessions (
    key           TEXT PRIMARY KEY,
    value         TEXT NOT NULL,
    updated_at_ms INTEGER NOT NULL
);`)
	return err
}

func (b *SQLiteBackend) Load(ctx context.Context) (Record, bool, error) {
	var raw string
	err := b.db.QueryRowContext(ctx, `SELECT value FROM client_sessions WHERE key = ?`, b.key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	r, err := decodeRecord([]byte(raw))
	if err != nil {
		return Record{}, false, err
	}
	return r, true, nil
}

func (b *SQLiteBackend) Save(ctx context.Context, r Record) error {
	raw, err := encodeRecord(r)
	if err != nil {
		return err
	}
	_, err = b.db.ExecContext(ctx, `
INSERT INTO client_sessions (key, value, updated_at_ms)
VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at_ms = excluded.updated_at_ms`,
		b.key, string(raw), time.Now().UTC().UnixMilli())
	return err
}

func (b *SQLiteBackend) Clear(ctx context.Context) error {
	_, err := b.db.ExecContext(ctx, `DELETE FROM client_sessions WHERE key = ?`, b.key)
	return err
}

func (b *SQLiteBackend) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}
