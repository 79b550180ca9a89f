package db

import (
	"context"
	"errors"
	"sync"

	"github.com/priyanshu1258/Hackathon/services/api/reading"
)

// ErrClosed is returned by a MemStore after Close.
var ErrClosed = errors.New("store closed")

type pairKey struct {
	category reading.Category
	building reading.Building
}

// MemStore is an in-process store with the same contract as Store.
// Listeners are called synchronously from Append, after the entry is visible.
type MemStore struct {
	mu        sync.RWMutex
	logs      map[pairKey][]reading.Entry
	latest    map[reading.Category]map[reading.Building]reading.Snapshot
	listeners map[int]func(Change)
	nextID    int
	closed    bool
	done      chan struct{}
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		logs:      make(map[pairKey][]reading.Entry),
		latest:    make(map[reading.Category]map[reading.Building]reading.Snapshot),
		listeners: make(map[int]func(Change)),
		done:      make(chan struct{}),
	}
}

// Ping reports ErrClosed after Close and the context error otherwise.
func (m *MemStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	return ctx.Err()
}

// Close makes every further call fail with ErrClosed and releases blocked
// Listen calls.
func (m *MemStore) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	close(m.done)
}

// Append adds r to the pair's log and calls every listener with the new entry.
func (m *MemStore) Append(ctx context.Context, c reading.Category, b reading.Building, r reading.Reading) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id, err := newEntryID()
	if err != nil {
		return "", err
	}
	entry := reading.Entry{ID: id, Reading: r}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return "", ErrClosed
	}
	key := pairKey{c, b}
	m.logs[key] = append(m.logs[key], entry)
	listeners := make([]func(Change), 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()

	change := Change{Category: c, Building: b, Entry: entry}
	for _, fn := range listeners {
		fn(change)
	}
	return id, nil
}

// SetLatest replaces the latest snapshot of a pair.
func (m *MemStore) SetLatest(ctx context.Context, c reading.Category, b reading.Building, snap reading.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.latest[c] == nil {
		m.latest[c] = make(map[reading.Building]reading.Snapshot)
	}
	m.latest[c][b] = snap
	return nil
}

// ReadLatestAll returns a copy of every latest snapshot.
func (m *MemStore) ReadLatestAll(ctx context.Context) (map[reading.Category]map[reading.Building]reading.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}

	out := make(map[reading.Category]map[reading.Building]reading.Snapshot, len(m.latest))
	for c, byBuilding := range m.latest {
		out[c] = copySnapshots(byBuilding)
	}
	return out, nil
}

// ReadLatest returns a copy of one category's latest snapshots.
func (m *MemStore) ReadLatest(ctx context.Context, c reading.Category) (map[reading.Building]reading.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	return copySnapshots(m.latest[c]), nil
}

// ReadRecent returns the newest limit entries of a pair, oldest first.
func (m *MemStore) ReadRecent(ctx context.Context, c reading.Category, b reading.Building, limit int) ([]reading.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}

	log := m.logs[pairKey{c, b}]
	start := 0
	if limit >= 0 && len(log) > limit {
		start = len(log) - limit
	}
	out := make([]reading.Entry, len(log)-start)
	copy(out, log[start:])
	return out, nil
}

// Trim drops all but the newest keep entries of a pair.
func (m *MemStore) Trim(ctx context.Context, c reading.Category, b reading.Building, keep int) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}

	key := pairKey{c, b}
	log := m.logs[key]
	if keep < 0 || len(log) <= keep {
		return 0, nil
	}
	removed := len(log) - keep
	kept := make([]reading.Entry, keep)
	copy(kept, log[removed:])
	m.logs[key] = kept
	return int64(removed), nil
}

// Listen registers fn for every later Append and blocks until ctx is done
// or the store is closed.
func (m *MemStore) Listen(ctx context.Context, fn func(Change)) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	var err error
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case <-m.done:
		err = ErrClosed
	}

	m.mu.Lock()
	delete(m.listeners, id)
	m.mu.Unlock()
	return err
}

// ListenerCount returns the number of active Listen calls.
func (m *MemStore) ListenerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.listeners)
}

func copySnapshots(src map[reading.Building]reading.Snapshot) map[reading.Building]reading.Snapshot {
	out := make(map[reading.Building]reading.Snapshot, len(src))
	for b, snap := range src {
		out[b] = snap
	}
	return out
}
