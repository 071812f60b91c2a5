package klock

import (
	"errors"
	"fmt"
)

// ErrCapacityExceeded is returned (wrapped in a *CapacityError) when an
// initialization would exceed the fixed instance count for its kind.
var ErrCapacityExceeded = errors.New("klock: capacity exceeded")

// Kind names the object types a Kernel keeps bounded counts of.
type Kind uint8

const (
	// KindSpinlock counts Spinlocks.
	KindSpinlock Kind = iota
	// KindQueueLock counts QueueLocks.
	KindQueueLock
	// KindActiveLock counts ActiveLocks and bounds their LockIDs.
	KindActiveLock
	// KindPILock counts PILocks.
	KindPILock
	// KindProcess counts registered processes.
	KindProcess

	kindCount
)

func (k Kind) String() string {
	switch k {
	case KindSpinlock:
		return "spinlock"
	case KindQueueLock:
		return "queue lock"
	case KindActiveLock:
		return "active lock"
	case KindPILock:
		return "priority-inheritance lock"
	case KindProcess:
		return "process"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// CapacityError reports which kind ran out of slots and at what limit.
// It unwraps to ErrCapacityExceeded.
type CapacityError struct {
	Kind  Kind
	Limit int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("klock: %s capacity of %d exceeded", e.Kind, e.Limit)
}

func (e *CapacityError) Unwrap() error {
	return ErrCapacityExceeded
}
