package keylock

import "sync"

// KeyedMutex serializes writers that share a key. Persisted series and
// models use full-overwrite updates, which are not safe under
// concurrent writers to the same ticker; every write path takes the
// ticker's lock first. Locks for distinct keys do not contend.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates an empty keyed mutex
func New() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key, creating it on first use, and
// returns the matching unlock function.
func (k *KeyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	lock, ok := k.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		k.locks[key] = lock
	}
	k.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
