package safemap

import (
	"github.com/puzpuzpuz/xsync/v3"
)

// Map is a concurrent map backed by xsync.MapOf.
type Map[K comparable, V any] struct {
	internal *xsync.MapOf[K, V]
}

func New[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{
		internal: xsync.NewMapOf[K, V](),
	}
}

// Get reports whether key was present.
func (sm *Map[K, V]) Get(key K) (V, bool) {
	return sm.internal.Load(key)
}

// GetOrSet stores value unless key is present; loaded tells which happened.
func (sm *Map[K, V]) GetOrSet(key K, value V) (actual V, loaded bool) {
	return sm.internal.LoadOrStore(key, value)
}

func (sm *Map[K, V]) Len() int {
	return sm.internal.Size()
}

