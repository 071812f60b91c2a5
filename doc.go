// Package klock implements the lock layer of a small teaching kernel on top
// of goroutines.
//
// A Kernel plays the part of the kernel's global tables: it registers
// processes, keeps a priority-ordered ready list and counts lock instances
// against fixed limits. Four lock types are built on it:
//
//   - Spinlock: a test-and-set busy-wait lock with no owner and no queue.
//   - QueueLock: a blocking lock whose waiters park in FIFO order and are
//     handed ownership directly on release.
//   - ActiveLock: a QueueLock that tracks holders and pending acquisitions
//     and reports wait-for cycles through the kernel's Observer.
//   - PILock: a QueueLock whose holder inherits the priority of higher
//     priority waiters until it releases the lock.
//
// Goroutines take part in blocking locks through a *Process obtained from
// Kernel.NewProcess, which they pass to every Acquire and Release. A process
// waits on at most one lock at a time.
//
// Deadlock and priority-change events are delivered to the Observer set
// with WithObserver; by default they are logged through logrus.
package klock
