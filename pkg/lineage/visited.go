package lineage

import "sync"

// Visited is the set of objects already passed to the lineage source during
// one root traversal. It only grows.
type Visited struct {
	mu   sync.Mutex
	keys map[ObjectKey]struct{}
}

// NewVisited returns an empty set.
func NewVisited() *Visited {
	return &Visited{keys: make(map[ObjectKey]struct{})}
}

// Seen reports whether key was marked.
func (v *Visited) Seen(key ObjectKey) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.keys[key]
	return ok
}

// Mark adds key to the set.
func (v *Visited) Mark(key ObjectKey) {
	v.mu.Lock()
	v.keys[key] = struct{}{}
	v.mu.Unlock()
}

// MarkIfNew adds key and reports true if it was not present. The check and
// the mark happen under one lock, so concurrent callers never both win.
func (v *Visited) MarkIfNew(key ObjectKey) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.keys[key]; ok {
		return false
	}
	v.keys[key] = struct{}{}
	return true
}

// Len returns the number of marked keys.
func (v *Visited) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.keys)
}
