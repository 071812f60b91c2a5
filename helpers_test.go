package klock

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestKernel(t *testing.T, options ...func(*Config)) (*Kernel, *Recorder) {
	t.Helper()
	rec := &Recorder{}
	opts := append([]func(*Config){
		WithLogger(quietLogger()),
		WithObserver(rec),
		WithGuardBackoff(20 * time.Microsecond),
	}, options...)
	return NewKernel(opts...), rec
}

func mustProcess(t *testing.T, k *Kernel, name string, prio Priority) *Process {
	t.Helper()
	p, err := k.NewProcess(name, prio)
	if err != nil {
		t.Fatalf("NewProcess(%q): %v", name, err)
	}
	return p
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

// waitBlocked waits until p has suspended inside an acquire.
func waitBlocked(t *testing.T, p *Process) {
	t.Helper()
	waitFor(t, p.String()+" to block", func() bool {
		return p.State() == StateWaiting
	})
}

func pids(ps []*Process) []PID {
	out := make([]PID, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.PID())
	}
	return out
}
