package klock

import (
	"strconv"
	"sync/atomic"
)

// QueueLock is a blocking mutual exclusion lock.
//
// Implementation:
// A guard bit, taken with test-and-set and a short backoff, protects the
// held flag and a FIFO wait queue. An uncontended Acquire sets the flag and
// drops the guard. A contended Acquire queues the caller, records its
// parking intent, drops the guard and parks. Release hands the lock
// directly to the head waiter without clearing the flag, so waiters are
// granted ownership strictly in arrival order and newcomers cannot barge.
//
// The guard is never held while a process is parked.
type QueueLock struct {
	_     noCopy
	k     *Kernel
	idx   int
	guard guard
	held  uint32 // written under guard
	q     waitQueue
}

// NewQueueLock allocates and initializes a QueueLock.
func (k *Kernel) NewQueueLock() (*QueueLock, error) {
	l := &QueueLock{}
	if err := l.Init(k); err != nil {
		return nil, err
	}
	return l, nil
}

// Init resets the lock to unheld with an empty queue. It fails with a
// *CapacityError once the kernel's queue-lock limit has been reached.
func (l *QueueLock) Init(k *Kernel) error {
	n, err := k.reserve(KindQueueLock)
	if err != nil {
		return err
	}
	l.k = k
	l.idx = n
	l.guard = guard{}
	atomic.StoreUint32(&l.held, 0)
	l.q = waitQueue{}
	return nil
}

// Acquire blocks p until it owns the lock.
func (l *QueueLock) Acquire(p *Process) {
	k := l.k
	k.own(p)
	l.guard.lock(k.cfg.guardBackoff)
	if atomic.LoadUint32(&l.held) == 0 {
		atomic.StoreUint32(&l.held, 1)
		l.guard.unlock()
		k.trace(p, l, "acquired")
		return
	}
	l.q.enqueue(p)
	k.setPark(p)
	l.guard.unlock()
	k.trace(p, l, "parking")
	k.park(p, nil)
	k.trace(p, l, "acquired after wait")
}

// Release gives the lock to the longest waiting process, or marks it free
// when nobody waits. Releasing an unheld lock is a no-op.
func (l *QueueLock) Release(p *Process) {
	k := l.k
	k.own(p)
	l.guard.lock(k.cfg.guardBackoff)
	if l.q.empty() {
		atomic.StoreUint32(&l.held, 0)
		l.guard.unlock()
		k.trace(p, l, "released")
		return
	}
	next := l.q.dequeue()
	k.unpark(next)
	l.guard.unlock()
	k.trace(p, l, "handed off to "+next.String())
}

// Held reports whether the lock is owned.
func (l *QueueLock) Held() bool {
	return atomic.LoadUint32(&l.held) != 0
}

// Waiters returns the queued processes in grant order.
func (l *QueueLock) Waiters() []*Process {
	l.guard.lock(l.k.cfg.guardBackoff)
	defer l.guard.unlock()
	return l.q.snapshot()
}

func (l *QueueLock) String() string {
	return "lock#" + strconv.Itoa(l.idx)
}
