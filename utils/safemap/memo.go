package safemap

import "sync"

type memoEntry[V any] struct {
	once  sync.Once
	value V
}

// Memo runs a function at most once per key, no matter how many goroutines
// ask for the same key concurrently. Late callers block until the first
// call returns and then share its value.
type Memo[K comparable, V any] struct {
	entries *Map[K, *memoEntry[V]]
}

func NewMemo[K comparable, V any]() *Memo[K, V] {
	return &Memo[K, V]{entries: New[K, *memoEntry[V]]()}
}

// Do returns the memoized value for key, computing it with fn on first use.
func (m *Memo[K, V]) Do(key K, fn func() V) V {
	e, _ := m.entries.GetOrSet(key, &memoEntry[V]{})
	e.once.Do(func() {
		e.value = fn()
	})
	return e.value
}

// Len is the number of distinct keys seen.
func (m *Memo[K, V]) Len() int {
	return m.entries.Len()
}

// Get returns the value stored for key without computing one. Call it only
// after every Do for that key has returned.
func (m *Memo[K, V]) Get(key K) (V, bool) {
	var zero V
	e, ok := m.entries.Get(key)
	if !ok {
		return zero, false
	}
	return e.value, true
}
