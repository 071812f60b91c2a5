package klock

// waitQueue is a FIFO of processes blocked on one lock. It is guarded by
// the owning lock's guard.
type waitQueue struct {
	head *waitNode
	tail *waitNode
	n    int
}

type waitNode struct {
	next *waitNode
	p    *Process
}

func (q *waitQueue) empty() bool {
	return q.head == nil
}

func (q *waitQueue) len() int {
	return q.n
}

func (q *waitQueue) enqueue(p *Process) {
	w := &waitNode{p: p}
	if q.tail == nil {
		q.head = w
		q.tail = w
	} else {
		q.tail.next = w
		q.tail = w
	}
	q.n++
}

// dequeue removes and returns the head, or nil if the queue is empty.
func (q *waitQueue) dequeue() *Process {
	w := q.head
	if w == nil {
		return nil
	}
	q.head = w.next
	if q.head == nil {
		q.tail = nil
	}
	q.n--
	return w.p
}

// each calls fn for every queued process in FIFO order until fn returns
// false.
func (q *waitQueue) each(fn func(p *Process) bool) {
	for w := q.head; w != nil; w = w.next {
		if !fn(w.p) {
			return
		}
	}
}

func (q *waitQueue) snapshot() []*Process {
	out := make([]*Process, 0, q.n)
	q.each(func(p *Process) bool {
		out = append(out, p)
		return true
	})
	return out
}
