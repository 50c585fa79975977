// Package locks serializes work per key.
//
// Capacity and primary-caregiver checks are read-then-write sequences over
// several documents with no store transaction around them. Holding a lock on
// the caregiver (or elder) for the duration of the sequence closes the race
// where two concurrent requests both pass the check and jointly overshoot a
// ceiling.
//
// Three modes are available:
//   - local: in-process keyed mutex (single instance deployments)
//   - redis: SET NX lease shared by every instance
//   - none:  no locking; reproduces the unguarded behavior
package locks

import (
	"context"
	"fmt"
	"sync"
)

// Lock modes accepted by New.
const (
	ModeLocal = "local"
	ModeRedis = "redis"
	ModeNone  = "none"
)

// Unlock releases a held lock. It is safe to call once.
type Unlock func()

// Locker acquires a lock on key, blocking until it is free or ctx ends.
type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}

// Key builds a lock key from a scope and its identifiers.
func Key(scope string, ids ...string) string {
	k := scope
	for _, id := range ids {
		k += ":" + id
	}
	return k
}

// ValidMode reports whether mode is one of the supported lock modes.
func ValidMode(mode string) bool {
	switch mode {
	case ModeLocal, ModeRedis, ModeNone:
		return true
	}
	return false
}

/* -------------------------------------------------------------------------- */
/* Local                                                                      */
/* -------------------------------------------------------------------------- */

type entry struct {
	ch   chan struct{}
	refs int
}

// Local is an in-process keyed mutex. Entries are dropped once no goroutine
// holds or waits on them.
type Local struct {
	mu   sync.Mutex
	keys map[string]*entry
}

// NewLocal returns an empty Local locker.
func NewLocal() *Local {
	return &Local{keys: make(map[string]*entry)}
}

func (l *Local) acquire(key string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.keys[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.keys[key] = e
	}
	e.refs++
	return e
}

func (l *Local) release(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.keys, key)
	}
}

// Lock implements Locker.
func (l *Local) Lock(ctx context.Context, key string) (Unlock, error) {
	e := l.acquire(key)
	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, fmt.Errorf("lock %s: %w", key, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.release(key, e)
		})
	}, nil
}

// size reports how many keys are tracked; used by tests.
func (l *Local) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.keys)
}

/* -------------------------------------------------------------------------- */
/* None                                                                       */
/* -------------------------------------------------------------------------- */

// None never blocks.
type None struct{}

// Lock implements Locker.
func (None) Lock(ctx context.Context, key string) (Unlock, error) {
	return func() {}, nil
}
