package session

import (
	"context"
	"sync"
)

// MemoryBackend keeps the record in process memory. Nothing survives a restart.
type MemoryBackend struct {
	mu     sync.Mutex
	raw    []byte
	closed bool
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (m *MemoryBackend) Load(context.Context) (Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return Record{}, false, ErrClosed
	}
	if m.raw == nil {
		return Record{}, false, nil
	}
	r, err := decodeRecord(m.raw)
	if err != nil {
		return Record{}, false, err
	}
	return r, true, nil
}

func (m *MemoryBackend) Save(_ context.Context, r Record) error {
	raw, err := encodeRecord(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.raw = raw
	return nil
}

func (m *MemoryBackend) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.raw = nil
	return nil
}

func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
