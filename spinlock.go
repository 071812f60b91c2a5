package klock

import (
	"strconv"
	"sync/atomic"

	"github.com/llxisdsh/klock/internal/opt"
)

// Spinlock is a busy-wait mutual exclusion lock built directly on
// test-and-set.
//
// It has no owner, no wait queue and no fairness: whoever wins the bit owns
// the lock until it clears it. Acquire never yields or sleeps, so it is only
// suitable for critical sections shorter than a park/unpark round trip.
//
// The lock word is padded to a cache line so neighbouring spinlocks do not
// false-share.
type Spinlock struct {
	_    noCopy
	held uint32
	_    [opt.CacheLineSize_ - 4]byte
	idx  int
}

// NewSpinlock allocates and initializes a Spinlock.
func (k *Kernel) NewSpinlock() (*Spinlock, error) {
	l := &Spinlock{}
	if err := l.Init(k); err != nil {
		return nil, err
	}
	return l, nil
}

// Init resets the lock to unheld. It fails with a *CapacityError once the
// kernel's spinlock limit has been reached, leaving l unusable.
func (l *Spinlock) Init(k *Kernel) error {
	n, err := k.reserve(KindSpinlock)
	if err != nil {
		return err
	}
	l.idx = n
	atomic.StoreUint32(&l.held, 0)
	return nil
}

// Acquire spins until it observes the lock free.
func (l *Spinlock) Acquire() {
	for testAndSet(&l.held) != 0 {
		runtime_doSpin()
	}
}

// TryAcquire makes a single test-and-set attempt.
func (l *Spinlock) TryAcquire() bool {
	return testAndSet(&l.held) == 0
}

// Release clears the lock. Releasing an unheld spinlock has no effect.
func (l *Spinlock) Release() {
	atomic.StoreUint32(&l.held, 0)
}

// Held reports whether some caller currently owns the lock.
func (l *Spinlock) Held() bool {
	return atomic.LoadUint32(&l.held) != 0
}

func (l *Spinlock) String() string {
	return "spinlock#" + strconv.Itoa(l.idx)
}
