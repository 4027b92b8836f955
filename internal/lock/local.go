package lock

import (
	"context"
	"sync"

	"github.com/roach88/treeorder/internal/ordering"
)

// Local is an in-process keyed mutex. The zero value is not usable; call
// NewLocal.
type Local struct {
	mu    sync.Mutex
	slots map[string]*slot
}

// slot is one key's semaphore plus the number of holders and waiters.
type slot struct {
	ch   chan struct{}
	refs int
}

// Ensure Local implements ordering.GroupLocker at compile time.
var _ ordering.GroupLocker = (*Local)(nil)

// NewLocal creates an empty Local locker.
func NewLocal() *Local {
	return &Local{slots: make(map[string]*slot)}
}

// Lock blocks until group is free or ctx is done.
func (l *Local) Lock(ctx context.Context, group string) (func(), error) {
	s := l.acquireSlot(group)

	select {
	case s.ch <- struct{}{}:
		return sync.OnceFunc(func() {
			<-s.ch
			l.releaseSlot(group, s)
		}), nil
	case <-ctx.Done():
		l.releaseSlot(group, s)
		return nil, ctx.Err()
	}
}

// Held reports the number of keys currently tracked. Used by tests.
func (l *Local) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

func (l *Local) acquireSlot(group string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.slots[group]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[group] = s
	}
	s.refs++
	return s
}

func (l *Local) releaseSlot(group string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s.refs--
	if s.refs == 0 {
		delete(l.slots, group)
	}
}
