package klock

import (
	"slices"
)

// findCycle follows the wait-for chain that starts with p waiting on lock
// id: the lock's holder, the lock that holder waits on, its holder, and so
// on. Each process waits on at most one lock, so the chain has a single
// outgoing edge per step and a deadlock exists exactly when it returns to
// p. The walk stops at a free lock, at a holder that is not blocked, or
// after one step per registered process, which also ends it on a cycle
// that p only leads into.
//
// Callers hold the mask.
func (k *Kernel) findCycle(p *Process, id LockID) (DeadlockEvent, bool) {
	limit := k.Count(KindProcess) + 1
	chain := []PID{p.pid}
	lock := id
	for range limit {
		h := k.holderOf[lock]
		if h == nil {
			return DeadlockEvent{}, false
		}
		if h == p {
			slices.Sort(chain)
			return DeadlockEvent{Lock: id, Processes: chain}, true
		}
		if h.pending == NoLock {
			return DeadlockEvent{}, false
		}
		chain = append(chain, h.pid)
		lock = h.pending
	}
	return DeadlockEvent{}, false
}
