// Package state keeps the per-actor in-memory mirrors of tasks and projects.
// Every mutation writes remotely first and patches the mirror only after the
// store confirmed it.
package state

import (
	"slices"
	"sync"

	"fmac-task/internal/models"
)

// Status is the load state of a mirror.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// mirror is the list a state hook owns. Mutations replace the slice instead
// of writing into it, so a snapshot handed out earlier never changes.
//
// Mutations confirmed while a load is in flight are also kept in pending and
// replayed over the load result, which may have been read before they
// committed.
type mirror[T any] struct {
	mu      sync.RWMutex
	actor   models.Actor
	items   []T
	status  Status
	err     error
	seq     uint64
	pending []func([]T) []T
	id      func(T) string
	updated func(T) string
}

func newMirror[T any](id, updated func(T) string) *mirror[T] {
	return &mirror[T]{status: StatusIdle, id: id, updated: updated}
}

func (m *mirror[T]) snapshot() []T {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.items)
}

func (m *mirror[T]) state() (Status, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status, m.err
}

func (m *mirror[T]) currentActor() models.Actor {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.actor
}

func (m *mirror[T]) find(id string) (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, it := range m.items {
		if m.id(it) == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// reset switches the owner and empties the list. Loads already in flight
// become stale.
func (m *mirror[T]) reset(actor models.Actor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actor = actor
	m.items = nil
	m.status = StatusIdle
	m.err = nil
	m.pending = nil
	m.seq++
}

// begin marks a load as started and returns its ticket.
func (m *mirror[T]) begin() (uint64, models.Actor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.status = StatusLoading
	m.pending = nil
	return m.seq, m.actor
}

// finish applies a load result unless a newer load or owner superseded it.
// A failed load keeps the previous items visible.
func (m *mirror[T]) finish(seq uint64, items []T, err error) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if seq != m.seq {
		return false
	}
	pending := m.pending
	m.pending = nil
	if err != nil {
		m.status = StatusError
		m.err = err
		return true
	}
	for _, apply := range pending {
		items = apply(items)
	}
	m.items = items
	m.status = StatusReady
	m.err = nil
	return true
}

// record applies fn to the live list and keeps it for replay if a load is
// running. Callers hold mu.
func (m *mirror[T]) record(fn func([]T) []T) {
	m.items = fn(m.items)
	if m.status == StatusLoading {
		m.pending = append(m.pending, fn)
	}
}

func (m *mirror[T]) index(items []T, id string) int {
	return slices.IndexFunc(items, func(it T) bool { return m.id(it) == id })
}

// insert prepends a confirmed item if owner still owns the list. A copy
// already present with a newer updatedAt is kept instead.
func (m *mirror[T]) insert(owner string, item T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.actor.ID != owner {
		return
	}
	key := m.id(item)
	m.record(func(items []T) []T {
		if idx := m.index(items, key); idx >= 0 && m.updated(items[idx]) > m.updated(item) {
			return items
		}
		next := make([]T, 0, len(items)+1)
		next = append(next, item)
		for _, it := range items {
			if m.id(it) != key {
				next = append(next, it)
			}
		}
		return next
	})
}

// replace swaps in a confirmed item unless the cached copy carries a newer
// updatedAt, which means a later write already landed.
func (m *mirror[T]) replace(owner string, item T) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.actor.ID != owner {
		return false
	}
	key := m.id(item)
	idx := m.index(m.items, key)
	ok := idx >= 0 && m.updated(item) >= m.updated(m.items[idx])
	if ok || m.status == StatusLoading {
		m.record(func(items []T) []T {
			i := m.index(items, key)
			if i < 0 || m.updated(item) < m.updated(items[i]) {
				return items
			}
			next := slices.Clone(items)
			next[i] = item
			return next
		})
	}
	return ok
}

func (m *mirror[T]) remove(owner, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.actor.ID != owner {
		return
	}
	m.record(func(items []T) []T {
		if m.index(items, id) < 0 {
			return items
		}
		return slices.DeleteFunc(slices.Clone(items), func(it T) bool { return m.id(it) == id })
	})
}

// rewrite maps every item through fn; fn returns false to leave an item
// untouched.
func (m *mirror[T]) rewrite(fn func(T) (T, bool)) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	changed := 0
	m.record(func(items []T) []T {
		changed = 0
		next := make([]T, len(items))
		for i, it := range items {
			if out, ok := fn(it); ok {
				next[i] = out
				changed++
				continue
			}
			next[i] = it
		}
		if changed == 0 {
			return items
		}
		return next
	})
	return changed
}
