package board

import (
	"context"
	"sync"
)

type memoryEntry struct {
	seq  uint64
	snap Snapshot
}

type Memory struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]*memoryEntry)}
}

func (m *Memory) Begin(_ context.Context, key string, total int) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.getOrCreateLocked(key)
	e.seq++
	e.snap = Snapshot{
		Invocation: e.seq,
		Version:    e.snap.Version + 1,
		Loading:    true,
		Results:    Placeholders(total),
	}
	return e.seq, nil
}

func (m *Memory) Settle(_ context.Context, key string, id uint64, results []Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok || e.snap.Invocation != id {
		return ErrStale
	}
	e.snap.Version++
	e.snap.Loading = false
	e.snap.Error = ""
	e.snap.Results = cloneResults(results)
	return nil
}

func (m *Memory) Fail(_ context.Context, key string, id uint64, msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok || e.snap.Invocation != id {
		return ErrStale
	}
	e.snap.Version++
	e.snap.Loading = false
	e.snap.Error = msg
	e.snap.Results = []Result{}
	return nil
}

func (m *Memory) Snapshot(_ context.Context, key string) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return Snapshot{Results: []Result{}}, nil
	}
	snap := e.snap
	snap.Results = cloneResults(e.snap.Results)
	return snap, nil
}

func (m *Memory) getOrCreateLocked(key string) *memoryEntry {
	if e, ok := m.entries[key]; ok {
		return e
	}
	e := &memoryEntry{}
	m.entries[key] = e
	return e
}
