package tasklist

import "sync"

// entityList is the shared, single-writer-owned list underlying the
// reconciler. Every patch runs under the lock against the current items, so
// rollbacks merge by identifier instead of overwriting the whole list and
// unrelated in-flight mutations do not stomp each other's updates.
type entityList[E any] struct {
	id func(E) string

	mu    sync.Mutex
	items []E
}

func newEntityList[E any](id func(E) string) *entityList[E] {
	return &entityList[E]{id: id}
}

// snapshot returns a copy of the current items.
func (l *entityList[E]) snapshot() []E {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]E, len(l.items))
	copy(out, l.items)
	return out
}

// replaceAll swaps in a wholesale new list.
func (l *entityList[E]) replaceAll(items []E) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = items
}

// insertFront prepends an item.
func (l *entityList[E]) insertFront(item E) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append([]E{item}, l.items...)
}

// get returns a copy of the item with the given id.
func (l *entityList[E]) get(id string) (E, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, it := range l.items {
		if l.id(it) == id {
			return it, true
		}
	}
	var zero E
	return zero, false
}

// replaceByID substitutes the item currently holding id, keeping its
// position. Returns false if no such item remains.
func (l *entityList[E]) replaceByID(id string, item E) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, it := range l.items {
		if l.id(it) == id {
			l.items[i] = item
			return true
		}
	}
	return false
}

// patchByID applies fn to the item with the given id in place.
func (l *entityList[E]) patchByID(id string, fn func(*E)) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.items {
		if l.id(l.items[i]) == id {
			fn(&l.items[i])
			return true
		}
	}
	return false
}

// removeByID removes and returns the item with the given id.
func (l *entityList[E]) removeByID(id string) (E, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, it := range l.items {
		if l.id(it) == id {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return it, true
		}
	}
	var zero E
	return zero, false
}

// restoreFront reinserts an item at the front unless an item with the same
// id is already present.
func (l *entityList[E]) restoreFront(item E) {
	id := l.id(item)
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, it := range l.items {
		if l.id(it) == id {
			return
		}
	}
	l.items = append([]E{item}, l.items...)
}

// stage runs the shared three-phase optimistic flow: apply the tentative
// patch, run the backend call, then confirm with the server record or apply
// the inverse patch. apply and revert run under the list lock at their
// respective moments; the call runs unlocked so overlapping mutations
// resolve in completion order.
func stage[E, R any](l *entityList[E], apply func(*entityList[E]), call func() (R, error), confirm func(*entityList[E], R), revert func(*entityList[E])) (R, error) {
	apply(l)
	result, err := call()
	if err != nil {
		var zero R
		return zero, &stagedError[E]{err: err, list: l, revert: revert}
	}
	confirm(l, result)
	return result, nil
}

// stagedError defers the inverse patch so the caller can decide whether to
// roll back: session-expiry failures keep the optimistic state as shown.
type stagedError[E any] struct {
	err    error
	list   *entityList[E]
	revert func(*entityList[E])
}

func (e *stagedError[E]) Error() string { return e.err.Error() }
func (e *stagedError[E]) Unwrap() error { return e.err }

func (e *stagedError[E]) rollback() {
	if e.revert != nil {
		e.revert(e.list)
	}
}
