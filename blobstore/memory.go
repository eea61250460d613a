package blobstore

import (
	"context"
	"slices"
	"sync"
	"time"
)

type memEntry struct {
	blob    Blob
	expires time.Time
}

// Memory is an in-process Store. It is safe for concurrent use.
type Memory struct {
	opts Options
	now  func() time.Time

	mu      sync.Mutex
	entries map[string]memEntry
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-process store.
func NewMemory(opts Options) *Memory {
	return &Memory{
		opts:    opts.resolved(),
		now:     time.Now,
		entries: make(map[string]memEntry),
	}
}

func (m *Memory) Put(ctx context.Context, b Blob) (Ref, error) {
	if err := ctx.Err(); err != nil {
		return Ref{}, err
	}
	now := m.now()
	id := NewID()
	ref := m.opts.ref(id, b, now)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneLocked(now)
	m.entries[id] = memEntry{
		blob:    Blob{Data: slices.Clone(b.Data), ContentType: b.ContentType},
		expires: ref.ExpiresAt,
	}
	return ref, nil
}

func (m *Memory) Get(ctx context.Context, id string) (Blob, bool, error) {
	if err := ctx.Err(); err != nil {
		return Blob{}, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return Blob{}, false, nil
	}
	if !m.now().Before(e.expires) {
		delete(m.entries, id)
		return Blob{}, false, nil
	}
	return e.blob, true, nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
	return nil
}

// Len returns the number of live blobs.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneLocked(m.now())
	return len(m.entries)
}

func (m *Memory) pruneLocked(now time.Time) {
	for id, e := range m.entries {
		if !now.Before(e.expires) {
			delete(m.entries, id)
		}
	}
}
