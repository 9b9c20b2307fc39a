package draft

import (
	"context"
	"sync"

	"github.com/and161185/ohmylink/internal/model"
)

// MemoryPersister keeps the durable copy in process memory. Used by tests and --no-persist sessions.
type MemoryPersister struct {
	mu     sync.Mutex
	stored *model.Profile
	writes int
}

// NewMemoryPersister returns a persister optionally preloaded with p.
func NewMemoryPersister(p *model.Profile) *MemoryPersister {
	m := &MemoryPersister{}
	if p != nil {
		c := p.Clone()
		m.stored = &c
	}
	return m
}

func (m *MemoryPersister) Read(context.Context) (*model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stored == nil {
		return nil, nil
	}
	c := m.stored.Clone()
	return &c, nil
}

func (m *MemoryPersister) Write(_ context.Context, p model.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := p.Clone()
	m.stored = &c
	m.writes++
	return nil
}

func (m *MemoryPersister) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stored = nil
	return nil
}

// Writes returns how many times Write was called.
func (m *MemoryPersister) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
