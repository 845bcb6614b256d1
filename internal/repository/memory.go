package repository

import (
	"errors"
	"sort"
	"sync"
)

// ErrNotFound is returned when no row exists for the requested key.
var ErrNotFound = errors.New("record not found")

// table is a keyed in-memory collection. Rows are cloned on the way in and
// on the way out so callers never share state with the stored copy.
type table[V any] struct {
	mu    sync.RWMutex
	rows  map[string]V
	clone func(V) V
}

func newTable[V any](clone func(V) V) *table[V] {
	return &table[V]{rows: make(map[string]V), clone: clone}
}

func (t *table[V]) put(key string, v V) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows[key] = t.clone(v)
}

func (t *table[V]) get(key string) (V, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.rows[key]
	if !ok {
		var zero V
		return zero, false
	}
	return t.clone(v), true
}

func (t *table[V]) has(key string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.rows[key]
	return ok
}

func (t *table[V]) len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// filter returns copies of the rows accepted by keep, in key order. A nil
// keep accepts every row.
func (t *table[V]) filter(keep func(V) bool) []V {
	t.mu.RLock()
	defer t.mu.RUnlock()

	keys := make([]string, 0, len(t.rows))
	for k := range t.rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]V, 0, len(keys))
	for _, k := range keys {
		v := t.clone(t.rows[k])
		if keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// mutate applies fn to a copy of the row and stores the copy only when fn
// succeeds, so a failed mutation leaves the row untouched.
func (t *table[V]) mutate(key string, fn func(V) error) (V, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var zero V
	current, ok := t.rows[key]
	if !ok {
		return zero, ErrNotFound
	}
	next := t.clone(current)
	if err := fn(next); err != nil {
		return zero, err
	}
	t.rows[key] = next
	return t.clone(next), nil
}

// upsert stores merge(existing, found) under key in a single critical section.
func (t *table[V]) upsert(key string, merge func(existing V, found bool) V) V {
	t.mu.Lock()
	defer t.mu.Unlock()

	existing, ok := t.rows[key]
	if ok {
		existing = t.clone(existing)
	}
	next := t.clone(merge(existing, ok))
	t.rows[key] = next
	return t.clone(next)
}

func (t *table[V]) remove(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[key]; !ok {
		return false
	}
	delete(t.rows, key)
	return true
}
