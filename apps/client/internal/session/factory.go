package session

import (
	"fmt"
	"strings"
)

const (
	ModeMemory   = "memory"
	ModeSQLite   = "sqlite"
	ModePostgres = "postgres"
)

type Options struct {
	Mode      string
	LocalPath string
	DSN       string
	Key       string
}

// NormalizeMode maps user spellings onto the supported modes. Empty selects SQLite.
func NormalizeMode(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	switch raw {
	case "", ModeSQLite, "local", "file":
		return ModeSQLite
	case ModeMemory, "mem":
		return ModeMemory
	case ModePostgres, "postgresql", "db":
		return ModePostgres
	default:
		return raw
	}
}

func NewBackend(opts Options) (Backend, string, error) {
	mode := NormalizeMode(opts.Mode)

	switch mode {
	case ModeSQLite:
		path := opts.LocalPath
		if strings.TrimSpace(path) == "" {
			path = DefaultSQLitePath()
		}
		b, err := NewSQLiteBackend(path, opts.Key)
		if err != nil {
			return nil, mode, err
		}
		return b, mode, nil
	case ModePostgres:
		dsn := opts.DSN
		if strings.TrimSpace(dsn) == "" {
			dsn = defaultSessionDSN
		}
		b, err := NewPostgresBackend(dsn, opts.Key)
		if err != nil {
			return nil, mode, err
		}
		return b, mode, nil
	case ModeMemory:
		return NewMemoryBackend(), mode, nil
	default:
		return nil, mode, fmt.Errorf("invalid SESSION_MODE %q (supported: %s, %s, %s)", mode, ModeSQLite, ModeMemory, ModePostgres)
	}
}
