package services

import (
	"sync"

	"github.com/custodia-labs/policy-store/internal/core/domain"
)

// recordKey identifies one record across namespaces.
type recordKey struct {
	ns domain.Namespace
	id string
}

// keyLock serialises critical sections per record. Different records
// never contend. Entries are dropped once no goroutine holds or waits
// for them, so the map stays proportional to in-flight writes.
type keyLock struct {
	mu    sync.Mutex
	locks map[recordKey]*refMutex
}

type refMutex struct {
	mu   sync.Mutex
	refs int
}

func newKeyLock() *keyLock {
	return &keyLock{locks: make(map[recordKey]*refMutex)}
}

// Lock blocks until the record lock is held and returns its release func.
func (k *keyLock) Lock(ns domain.Namespace, id string) (unlock func()) {
	key := recordKey{ns: ns, id: id}

	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.mu.Lock()

	return func() {
		m.mu.Unlock()

		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// size returns the number of live entries.
func (k *keyLock) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
