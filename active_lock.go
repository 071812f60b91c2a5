package klock

import (
	"strconv"
	"sync/atomic"
)

// LockID is the identity of an ActiveLock, unique within its Kernel.
type LockID int32

// NoLock is the LockID of "no lock": the pending lock of a process that is
// not blocked.
const NoLock LockID = -1

// ActiveLock is a QueueLock instrumented for deadlock detection.
//
// The kernel records which process holds each active lock and which active
// lock each blocked process waits for. Every contended Acquire walks the
// resulting wait-for chain before the caller parks; if the chain leads back
// to the caller a DeadlockEvent is reported. Detection is diagnostic only:
// the processes on the cycle stay blocked and breaking the cycle is up to
// the caller (lock ordering, TryAcquire with backoff, or intervention).
type ActiveLock struct {
	_     noCopy
	k     *Kernel
	id    LockID
	guard guard
	held  uint32 // written under guard
	q     waitQueue
}

// NewActiveLock allocates and initializes an ActiveLock.
func (k *Kernel) NewActiveLock() (*ActiveLock, error) {
	l := &ActiveLock{}
	if err := l.Init(k); err != nil {
		return nil, err
	}
	return l, nil
}

// Init resets the lock and assigns it the next lock identity. It fails with
// a *CapacityError once the kernel's active-lock limit has been reached.
func (l *ActiveLock) Init(k *Kernel) error {
	n, err := k.reserve(KindActiveLock)
	if err != nil {
		return err
	}
	l.k = k
	l.id = LockID(n)
	l.guard = guard{}
	atomic.StoreUint32(&l.held, 0)
	l.q = waitQueue{}
	k.mask.disable()
	k.holderOf[l.id] = nil
	k.mask.restore()
	return nil
}

// ID returns the lock identity.
func (l *ActiveLock) ID() LockID {
	return l.id
}

// Acquire blocks p until it owns the lock. On contention it first checks
// whether waiting would close a wait-for cycle and reports it if so.
func (l *ActiveLock) Acquire(p *Process) {
	k := l.k
	k.own(p)
	k.trace(p, l, "acquiring")
	l.guard.lock(k.cfg.guardBackoff)
	if atomic.LoadUint32(&l.held) == 0 {
		atomic.StoreUint32(&l.held, 1)
		k.mask.disable()
		k.holderOf[l.id] = p
		k.mask.restore()
		l.guard.unlock()
		k.trace(p, l, "acquired")
		return
	}

	var ev events
	k.mask.disable()
	p.pending = l.id
	if e, ok := k.findCycle(p, l.id); ok {
		ev.deadlocks = append(ev.deadlocks, e)
	}
	k.mask.restore()

	l.q.enqueue(p)
	k.setPark(p)
	l.guard.unlock()
	k.emit(&ev)
	k.trace(p, l, "parking")
	k.park(p, nil)
	k.trace(p, l, "acquired after wait")
}

// TryAcquire takes the lock only if it is free. It never queues or parks.
func (l *ActiveLock) TryAcquire(p *Process) bool {
	k := l.k
	k.own(p)
	l.guard.lock(k.cfg.guardBackoff)
	if atomic.LoadUint32(&l.held) != 0 {
		l.guard.unlock()
		k.trace(p, l, "try-acquire failed")
		return false
	}
	atomic.StoreUint32(&l.held, 1)
	k.mask.disable()
	k.holderOf[l.id] = p
	k.mask.restore()
	l.guard.unlock()
	k.trace(p, l, "try-acquire succeeded")
	return true
}

// Release passes the lock to the longest waiting process, or frees it.
// Releasing an unheld lock is a no-op.
func (l *ActiveLock) Release(p *Process) {
	k := l.k
	k.own(p)
	l.guard.lock(k.cfg.guardBackoff)
	k.mask.disable()
	var next *Process
	if l.q.empty() {
		atomic.StoreUint32(&l.held, 0)
		k.holderOf[l.id] = nil
	} else {
		next = l.q.dequeue()
		next.pending = NoLock
		k.holderOf[l.id] = next
		k.unparkLocked(next)
	}
	p.pending = NoLock
	k.mask.restore()
	l.guard.unlock()
	if next != nil {
		k.trace(p, l, "handed off to "+next.String())
	} else {
		k.trace(p, l, "released")
	}
}

// Held reports whether the lock is owned.
func (l *ActiveLock) Held() bool {
	return atomic.LoadUint32(&l.held) != 0
}

// Holder returns the current owner, or nil.
func (l *ActiveLock) Holder() *Process {
	l.k.mask.disable()
	defer l.k.mask.restore()
	return l.k.holderOf[l.id]
}

// Waiters returns the queued processes in grant order.
func (l *ActiveLock) Waiters() []*Process {
	l.guard.lock(l.k.cfg.guardBackoff)
	defer l.guard.unlock()
	return l.q.snapshot()
}

func (l *ActiveLock) String() string {
	return "alock#" + strconv.Itoa(int(l.id))
}
