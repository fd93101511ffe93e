package session

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const opTimeout = 3 * time.Second

// Session is the best-effort face of a Backend: reads degrade to an empty
// record and writes never fail the caller.
type Session struct {
	backend Backend
	log     *zap.Logger
}

func New(backend Backend, logger *zap.Logger) *Session {
	if backend == nil {
		backend = NewMemoryBackend()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{backend: backend, log: logger.Named("session")}
}

// NewMemory is a Session without persistence.
func NewMemory() *Session {
	return New(NewMemoryBackend(), nil)
}

func (s *Session) Load() Record {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	r, ok, err := s.backend.Load(ctx)
	if err != nil {
		s.log.Warn("load failed, starting fresh", zap.Error(err))
		return Record{}
	}
	if !ok {
		return Record{}
	}
	return r
}

func (s *Session) Save(userID, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := s.backend.Save(ctx, Record{UserID: userID, Name: name}); err != nil {
		s.log.Warn("save failed", zap.Error(err))
	}
}

func (s *Session) Clear() {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := s.backend.Clear(ctx); err != nil {
		s.log.Warn("clear failed", zap.Error(err))
	}
}

func (s *Session) Close() error {
	return s.backend.Close()
}
