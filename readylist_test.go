package klock

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReadyList_Order(t *testing.T) {
	k, _ := newTestKernel(t)
	a := mustProcess(t, k, "a", 10)
	b := mustProcess(t, k, "b", 30)
	c := mustProcess(t, k, "c", 20)
	d := mustProcess(t, k, "d", 30)

	var r readyList
	for _, p := range []*Process{a, b, c, d} {
		r.insert(p)
	}
	// Highest first, arrival order among equals.
	if diff := cmp.Diff([]PID{2, 4, 3, 1}, pids(r.snapshot())); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if !r.contains(c) {
		t.Fatalf("expected %v in list", c)
	}
	if !r.remove(c) || r.contains(c) {
		t.Fatalf("remove(%v) failed", c)
	}
	if r.remove(c) {
		t.Fatalf("second remove(%v) reported success", c)
	}
	if diff := cmp.Diff([]PID{2, 4, 1}, pids(r.snapshot())); diff != "" {
		t.Fatalf("order after remove mismatch (-want +got):\n%s", diff)
	}
}

func TestReadyList_Reposition(t *testing.T) {
	k, _ := newTestKernel(t)
	a := mustProcess(t, k, "a", 10)
	b := mustProcess(t, k, "b", 20)
	c := mustProcess(t, k, "c", 30)
	outside := mustProcess(t, k, "outside", 5)

	var r readyList
	r.insert(a)
	r.insert(b)
	r.insert(c)

	a.prio = 25
	if !r.reposition(a) {
		t.Fatalf("reposition(%v) = false", a)
	}
	if diff := cmp.Diff([]PID{3, 1, 2}, pids(r.snapshot())); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if r.reposition(outside) || r.contains(outside) {
		t.Fatalf("reposition inserted a process that was not ready")
	}
}

func TestBoostTo_RepositionsReadyProcess(t *testing.T) {
	k, _ := newTestKernel(t)
	a := mustProcess(t, k, "a", 10)
	b := mustProcess(t, k, "b", 20)

	var ev events
	k.mask.disable()
	k.ready.insert(a)
	k.ready.insert(b)
	a.boostTo(40, &ev)
	k.mask.restore()

	if diff := cmp.Diff([]PID{1, 2}, pids(k.Ready())); diff != "" {
		t.Fatalf("ready mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]PriorityChange{{PID: 1, From: 10, To: 40}}, ev.changes); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
	checkPriority(t, a, 40, true)
}
