package session

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory es el store in-process. Para desarrollo y tests.
type Memory struct {
	mu sync.Mutex
	c  *gocache.Cache
}

// NewMemory crea un store en memoria con el TTL default dado.
func NewMemory(defaultTTL time.Duration) *Memory {
	return &Memory{c: gocache.New(defaultTTL, time.Minute)}
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	cp := make([]byte, len(value))
	copy(cp, value)
	m.mu.Lock()
	m.c.Set(key, cp, ttl)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Consume(_ context.Context, key string) ([]byte, error) {
	// read-then-delete bajo el mismo lock para que dos lectores no
	// consuman el mismo envelope
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.c.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	m.c.Delete(key)
	b, _ := v.([]byte)
	return b, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	m.c.Delete(key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error {
	m.c.Flush()
	return nil
}
