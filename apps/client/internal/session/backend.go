package session

import "context"

// Backend persists a single session record. Implementations return errors
// freely; Session turns them into best-effort behaviour.
type Backend interface {
	Load(ctx context.Context) (Record, bool, error)
	Save(ctx context.Context, r Record) error
	Clear(ctx context.Context) error
	Close() error
}
