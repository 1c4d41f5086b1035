package lock

import (
	"context"
	"fmt"
	"sync"

	"github.com/lending/equity/internal/domain/shared"
)

// poolSlot is a one-token semaphore for a single pool key
type poolSlot struct {
	token   chan struct{}
	waiters int
}

// MemoryPoolLocker serializes pool mutations within one process.
// Each pool code has its own slot, so mutations of different pools proceed
// in parallel. Idle slots are dropped once nobody holds or waits for them.
type MemoryPoolLocker struct {
	mu    sync.Mutex
	slots map[string]*poolSlot
}

// NewMemoryPoolLocker creates a new in-process keyed locker
func NewMemoryPoolLocker() *MemoryPoolLocker {
	return &MemoryPoolLocker{slots: make(map[string]*poolSlot)}
}

// Acquire blocks until the pool is free or ctx is done
func (l *MemoryPoolLocker) Acquire(ctx context.Context, poolCode string) (func(), error) {
	slot := l.join(poolCode)

	select {
	case slot.token <- struct{}{}:
	case <-ctx.Done():
		l.leave(poolCode, slot)
		return nil, fmt.Errorf("%w: pool %q: %v", shared.ErrLockUnavailable, poolCode, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-slot.token
			l.leave(poolCode, slot)
		})
	}, nil
}

// Held reports the number of pool keys currently held or awaited
func (l *MemoryPoolLocker) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

func (l *MemoryPoolLocker) join(poolCode string) *poolSlot {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot, ok := l.slots[poolCode]
	if !ok {
		slot = &poolSlot{token: make(chan struct{}, 1)}
		l.slots[poolCode] = slot
	}
	slot.waiters++
	return slot
}

func (l *MemoryPoolLocker) leave(poolCode string, slot *poolSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot.waiters--
	if slot.waiters == 0 {
		delete(l.slots, poolCode)
	}
}
