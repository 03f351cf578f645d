// Package history keeps the last few transcribed chunks of each session so
// the next chunk can be prompted with context and de-duplicated against it.
package history

import (
	"context"
	"sync"
)

type Store interface {
	// Recent returns the stored chunks of session, oldest first.
	Recent(ctx context.Context, session string) ([]string, error)
	// Append stores text as the newest chunk of session, evicting the oldest
	// beyond the store's size.
	Append(ctx context.Context, session, text string) error
	Close() error
}

// Memory is a process-local Store.
type Memory struct {
	mu     sync.Mutex
	size   int
	chunks map[string][]string
}

func NewMemory(size int) *Memory {
	return &Memory{size: size, chunks: make(map[string][]string)}
}

func (m *Memory) Recent(_ context.Context, session string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.chunks[session]...), nil
}

func (m *Memory) Append(_ context.Context, session, text string) error {
	if m.size <= 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c := append(m.chunks[session], text)
	if len(c) > m.size {
		c = append([]string(nil), c[len(c)-m.size:]...)
	}
	m.chunks[session] = c
	return nil
}

func (m *Memory) Close() error { return nil }
