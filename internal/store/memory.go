package store

import (
	"context"
	"sync"

	"spendly/internal/core"
)

// MemoryPersister keeps saved snapshots in process memory.
type MemoryPersister struct {
	mu    sync.Mutex
	saves []core.Snapshot
	err   error
}

// NewMemoryPersister returns a persister, optionally pre-seeded with a snapshot.
func NewMemoryPersister(seed ...core.Snapshot) *MemoryPersister {
	p := &MemoryPersister{}
	for _, s := range seed {
		p.saves = append(p.saves, s.Clone())
	}
	return p
}

// Load returns the most recent snapshot.
func (p *MemoryPersister) Load(_ context.Context) (core.Snapshot, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.saves) == 0 {
		return core.Snapshot{}, false, nil
	}
	return p.saves[len(p.saves)-1].Clone(), true, nil
}

// Save records snap, or returns the error set with FailWith.
func (p *MemoryPersister) Save(_ context.Context, snap core.Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.saves = append(p.saves, snap.Clone())
	return nil
}

// FailWith makes subsequent saves fail with err; nil restores normal behaviour.
func (p *MemoryPersister) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Saves returns the number of successful saves.
func (p *MemoryPersister) Saves() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.saves)
}
