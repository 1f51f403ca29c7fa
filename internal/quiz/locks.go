package quiz

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type refLock struct {
	sync.Mutex
	refs int
}

// keyedMutex serialises work per key and forgets keys nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: map[string]*refLock{}}
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// inflight tracks cancel functions of outstanding backend calls by request id.
type inflight struct {
	mu      sync.Mutex
	cancels map[uuid.UUID]context.CancelFunc
}

func newInflight() *inflight {
	return &inflight{cancels: map[uuid.UUID]context.CancelFunc{}}
}

func (i *inflight) add(id uuid.UUID, cancel context.CancelFunc) {
	i.mu.Lock()
	i.cancels[id] = cancel
	i.mu.Unlock()
}

func (i *inflight) done(id uuid.UUID) {
	i.mu.Lock()
	delete(i.cancels, id)
	i.mu.Unlock()
}

func (i *inflight) cancel(id uuid.UUID) bool {
	i.mu.Lock()
	cancel, ok := i.cancels[id]
	delete(i.cancels, id)
	i.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

func (i *inflight) has(id uuid.UUID) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	_, ok := i.cancels[id]
	return ok
}

func (i *inflight) count() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.cancels)
}
