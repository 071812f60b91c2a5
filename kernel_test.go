package klock

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
)

func TestKernel_Defaults(t *testing.T) {
	k := NewKernel(WithLogger(quietLogger()))
	for _, tt := range []struct {
		kind Kind
		want int
	}{
		{KindSpinlock, 20},
		{KindQueueLock, 20},
		{KindActiveLock, 20},
		{KindPILock, 20},
		{KindProcess, 100},
	} {
		if got := k.Limit(tt.kind); got != tt.want {
			t.Errorf("Limit(%v) = %d, want %d", tt.kind, got, tt.want)
		}
		if got := k.Count(tt.kind); got != 0 {
			t.Errorf("Count(%v) = %d, want 0", tt.kind, got)
		}
	}
}

func TestKernel_CapacityPerKind(t *testing.T) {
	k, _ := newTestKernel(t,
		WithMaxSpinlocks(2),
		WithMaxLocks(2),
		WithMaxActiveLocks(2),
		WithMaxPILocks(2),
		WithMaxProcesses(2),
	)
	inits := map[Kind]func() error{
		KindSpinlock:   func() error { _, err := k.NewSpinlock(); return err },
		KindQueueLock:  func() error { _, err := k.NewQueueLock(); return err },
		KindActiveLock: func() error { _, err := k.NewActiveLock(); return err },
		KindPILock:     func() error { _, err := k.NewPILock(); return err },
		KindProcess:    func() error { _, err := k.NewProcess("p", 1); return err },
	}
	for kind, create := range inits {
		for i := range 2 {
			if err := create(); err != nil {
				t.Fatalf("%v #%d: %v", kind, i, err)
			}
		}
		err := create()
		var ce *CapacityError
		if !errors.As(err, &ce) || ce.Kind != kind || ce.Limit != 2 {
			t.Fatalf("%v: err = %v, want capacity error", kind, err)
		}
		if !errors.Is(err, ErrCapacityExceeded) {
			t.Fatalf("%v: err does not unwrap to ErrCapacityExceeded", kind)
		}
		if got := k.Count(kind); got != 2 {
			t.Fatalf("Count(%v) = %d after a failed init", kind, got)
		}
	}
}

func TestKernel_IgnoresNonPositiveLimits(t *testing.T) {
	k := NewKernel(WithLogger(quietLogger()), WithMaxLocks(0), WithMaxProcesses(-3))
	if k.Limit(KindQueueLock) != DefaultMaxLocks || k.Limit(KindProcess) != DefaultMaxProcesses {
		t.Fatalf("limits = %d, %d", k.Limit(KindQueueLock), k.Limit(KindProcess))
	}
}

func TestKernel_Processes(t *testing.T) {
	k, _ := newTestKernel(t)
	a := mustProcess(t, k, "a", 10)
	b := mustProcess(t, k, "b", 20)
	if a.PID() != 1 || b.PID() != 2 {
		t.Fatalf("pids = %d, %d", a.PID(), b.PID())
	}
	if got, ok := k.Lookup(2); !ok || got != b {
		t.Fatalf("Lookup(2) = %v, %v", got, ok)
	}
	if _, ok := k.Lookup(3); ok {
		t.Fatalf("Lookup(3) found a process")
	}
	if diff := cmp.Diff([]PID{1, 2}, pids(k.Processes())); diff != "" {
		t.Fatalf("Processes mismatch (-want +got):\n%s", diff)
	}
	if a.Name() != "a" || a.Kernel() != k || a.String() != "P1" {
		t.Fatalf("accessors: %q %p %q", a.Name(), a.Kernel(), a.String())
	}
	if a.State() != StateRunning || a.PendingLock() != NoLock || a.BlockedOn() != nil {
		t.Fatalf("fresh process state = %v pending = %d", a.State(), a.PendingLock())
	}
	checkPriority(t, a, 10, false)
}

func TestKernel_ForeignProcessPanics(t *testing.T) {
	k1, _ := newTestKernel(t)
	k2, _ := newTestKernel(t)
	l, _ := k1.NewQueueLock()
	p := mustProcess(t, k2, "stranger", 1)

	for name, fn := range map[string]func(){
		"foreign": func() { l.Acquire(p) },
		"nil":     func() { l.Release(nil) },
	} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("%s: expected panic", name)
				}
			}()
			fn()
		}()
	}
	if l.Held() {
		t.Fatalf("lock taken by a rejected process")
	}
}

func TestKernel_DebugTrace(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetLevel(logrus.DebugLevel)
	k := NewKernel(WithLogger(log), WithObserver(&Recorder{}))
	l, _ := k.NewActiveLock()
	p, _ := k.NewProcess("tracer", 1)
	l.Acquire(p)
	l.Release(p)
	out := buf.String()
	for _, want := range []string{"process registered", "acquired", "released", "alock#0", "component=klock"} {
		if !strings.Contains(out, want) {
			t.Errorf("trace output lacks %q:\n%s", want, out)
		}
	}
}

func TestKernel_CapacityWarning(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	k := NewKernel(WithLogger(log), WithMaxPILocks(1))
	if _, err := k.NewPILock(); err != nil {
		t.Fatal(err)
	}
	if _, err := k.NewPILock(); err == nil {
		t.Fatalf("expected capacity error")
	}
	if !strings.Contains(buf.String(), "level=warning") || !strings.Contains(buf.String(), "capacity exceeded") {
		t.Fatalf("warning not logged: %q", buf.String())
	}
}

func TestConfig_RetryBackoff(t *testing.T) {
	c := defaultConfig()
	WithRetryBackoff(2*time.Millisecond, time.Millisecond)(&c)
	if c.retryBackoff != 2*time.Millisecond || c.maxRetryBackoff != defaultMaxRetryBackoff {
		t.Fatalf("retry = %v, max = %v", c.retryBackoff, c.maxRetryBackoff)
	}
	WithRetryBackoff(0, time.Second)(&c)
	if c.retryBackoff != 2*time.Millisecond || c.maxRetryBackoff != time.Second {
		t.Fatalf("retry = %v, max = %v", c.retryBackoff, c.maxRetryBackoff)
	}
}
