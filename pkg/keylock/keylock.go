// Package keylock serializes work per string key inside one process.
package keylock

import (
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
)

// Map hands out one mutex per key. Mutexes are never evicted; keys are
// expected to be low-cardinality (org ids, storage keys).
type Map struct {
	locks *xsync.MapOf[string, *sync.Mutex]
}

func New() *Map {
	return &Map{locks: xsync.NewMapOf[string, *sync.Mutex]()}
}

// Lock blocks until key is free and returns the matching unlock.
func (m *Map) Lock(key string) (unlock func()) {
	mu, _ := m.locks.LoadOrCompute(key, func() *sync.Mutex {
		return &sync.Mutex{}
	})
	mu.Lock()
	return mu.Unlock
}

// Do runs fn while holding key.
func (m *Map) Do(key string, fn func() error) error {
	unlock := m.Lock(key)
	defer unlock()
	return fn()
}
