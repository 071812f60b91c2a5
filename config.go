package klock

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Default per-kind instance limits.
const (
	DefaultMaxSpinlocks   = 20
	DefaultMaxLocks       = 20
	DefaultMaxActiveLocks = 20
	DefaultMaxPILocks     = 20
	DefaultMaxProcesses   = 100
)

const (
	defaultGuardBackoff    = 500 * time.Microsecond
	defaultRetryBackoff    = 5 * time.Millisecond
	defaultMaxRetryBackoff = 100 * time.Millisecond
)

// Config defines the options a Kernel is built with.
// It is filled in by the With* functions passed to NewKernel.
type Config struct {
	// limits holds the maximum number of instances per Kind.
	limits [kindCount]int

	// guardBackoff is the sleep taken between test-and-set attempts on a
	// blocking lock's guard once spinning has been exhausted.
	guardBackoff time.Duration

	// retryBackoff and maxRetryBackoff shape the exponential schedule
	// AcquireAll sleeps on between rounds of try-acquire.
	retryBackoff    time.Duration
	maxRetryBackoff time.Duration

	// donateForward reproduces the hand-off rule that gives the incoming
	// holder of a PILock the outgoing holder's restored priority.
	donateForward bool

	observer Observer
	logger   *logrus.Logger
}

func defaultConfig() Config {
	c := Config{
		guardBackoff:    defaultGuardBackoff,
		retryBackoff:    defaultRetryBackoff,
		maxRetryBackoff: defaultMaxRetryBackoff,
		logger:          logrus.StandardLogger(),
	}
	c.limits[KindSpinlock] = DefaultMaxSpinlocks
	c.limits[KindQueueLock] = DefaultMaxLocks
	c.limits[KindActiveLock] = DefaultMaxActiveLocks
	c.limits[KindPILock] = DefaultMaxPILocks
	c.limits[KindProcess] = DefaultMaxProcesses
	return c
}

// WithMaxSpinlocks sets how many spinlocks may be initialized.
// Non-positive values are ignored.
func WithMaxSpinlocks(n int) func(*Config) {
	return withLimit(KindSpinlock, n)
}

// WithMaxLocks sets how many queue locks may be initialized.
func WithMaxLocks(n int) func(*Config) {
	return withLimit(KindQueueLock, n)
}

// WithMaxActiveLocks sets how many active (deadlock-detecting) locks may be
// initialized. It also bounds the range of lock identities.
func WithMaxActiveLocks(n int) func(*Config) {
	return withLimit(KindActiveLock, n)
}

// WithMaxPILocks sets how many priority-inheritance locks may be initialized.
func WithMaxPILocks(n int) func(*Config) {
	return withLimit(KindPILock, n)
}

// WithMaxProcesses sets the size of the process table.
func WithMaxProcesses(n int) func(*Config) {
	return withLimit(KindProcess, n)
}

func withLimit(kind Kind, n int) func(*Config) {
	return func(c *Config) {
		if n > 0 {
			c.limits[kind] = n
		}
	}
}

// WithGuardBackoff sets the sleep between guard acquisition attempts.
func WithGuardBackoff(d time.Duration) func(*Config) {
	return func(c *Config) {
		if d > 0 {
			c.guardBackoff = d
		}
	}
}

// WithRetryBackoff sets the initial and maximum sleep between rounds of
// AcquireAll.
func WithRetryBackoff(initial, maxDelay time.Duration) func(*Config) {
	return func(c *Config) {
		if initial > 0 {
			c.retryBackoff = initial
		}
		if maxDelay >= c.retryBackoff {
			c.maxRetryBackoff = maxDelay
		}
	}
}

// WithObserver routes deadlock and priority-change events to o instead of
// the kernel's logger.
func WithObserver(o Observer) func(*Config) {
	return func(c *Config) {
		c.observer = o
	}
}

// WithLogger sets the logger used for debug traces, warnings and, unless
// WithObserver is given, diagnostic events.
func WithLogger(l *logrus.Logger) func(*Config) {
	return func(c *Config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDonateForward switches PILock hand-off to the donate-forward rule:
// the incoming holder takes over the outgoing holder's restored priority
// instead of inheriting only from the waiters queued behind it.
func WithDonateForward() func(*Config) {
	return func(c *Config) {
		c.donateForward = true
	}
}
