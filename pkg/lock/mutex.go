package lock

import (
	"context"
	"sync"
)

// KeyedMutex is the in-process Locker. Entries are reference counted and
// dropped once nobody holds or waits on them.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	ch   chan struct{}
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*entry)}
}

func (m *KeyedMutex) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = normalizeKeys(keys)
	held := make([]string, 0, len(keys))

	for _, k := range keys {
		if err := m.lockOne(ctx, k); err != nil {
			m.unlock(held)
			return nil, err
		}
		held = append(held, k)
	}

	var once sync.Once
	return func() { once.Do(func() { m.unlock(held) }) }, nil
}

func (m *KeyedMutex) lockOne(ctx context.Context, key string) error {
	m.mu.Lock()
	e, ok := m.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		m.locks[key] = e
	}
	e.refs++
	m.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		m.release(key, e, false)
		return ctx.Err()
	}
}

func (m *KeyedMutex) unlock(keys []string) {
	for i := len(keys) - 1; i >= 0; i-- {
		m.mu.Lock()
		e := m.locks[keys[i]]
		m.mu.Unlock()
		m.release(keys[i], e, true)
	}
}

func (m *KeyedMutex) release(key string, e *entry, held bool) {
	if held {
		<-e.ch
	}
	m.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(m.locks, key)
	}
	m.mu.Unlock()
}
