// Package tick drives fixed-rate components from a single cooperative
// loop. Every callback runs to completion on the goroutine that calls
// Run, in deadline order, so the components it drives need no locks
package tick

import (
	"container/heap"
	"context"
	"time"

	"rallypoint/internal/clock"
)

// Loop is a deadline-ordered queue of callbacks. Its methods must only be
// called from the goroutine running Run, or before Run starts
type Loop struct {
	clock clock.Clock
	queue timerQueue
	seq   uint64
	err   error
}

// Handle is a callback scheduled on a Loop
type Handle struct {
	deadline  time.Time
	seq       uint64
	fn        func()
	cancelled bool
}

// Cancel prevents the callback from running. Cancelling a fired or
// already cancelled handle does nothing
func (h *Handle) Cancel() {
	h.cancelled = true
}

// Deadline returns the time the callback is scheduled for
func (h *Handle) Deadline() time.Time {
	return h.deadline
}

// NewLoop creates an empty loop reading time from c
func NewLoop(c clock.Clock) *Loop {
	return &Loop{clock: c}
}

// Now returns the loop's current time
func (l *Loop) Now() time.Time {
	return l.clock.Now()
}

// CallAt schedules fn to run at the absolute time deadline. Callbacks
// with equal deadlines run in the order they were scheduled
func (l *Loop) CallAt(deadline time.Time, fn func()) *Handle {
	l.seq++
	h := &Handle{deadline: deadline, seq: l.seq, fn: fn}
	heap.Push(&l.queue, h)
	return h
}

// Pending returns the number of callbacks still waiting to run
func (l *Loop) Pending() int {
	n := 0
	for _, h := range l.queue {
		if !h.cancelled {
			n++
		}
	}
	return n
}

// Fail records a fatal error. Run returns the first one recorded
func (l *Loop) Fail(err error) {
	if err != nil && l.err == nil {
		l.err = err
	}
}

// Err returns the fatal error recorded by Fail, if any
func (l *Loop) Err() error {
	return l.err
}

// RunDue runs every callback whose deadline has been reached, including
// ones scheduled by those callbacks that are already due. It returns the
// deadline of the next pending callback, or ok=false if none is left.
// It stops early once a fatal error has been recorded
func (l *Loop) RunDue() (next time.Time, ok bool) {
	for l.err == nil && len(l.queue) > 0 {
		h := l.queue[0]
		if h.cancelled {
			heap.Pop(&l.queue)
			continue
		}
		if h.deadline.After(l.clock.Now()) {
			return h.deadline, true
		}
		heap.Pop(&l.queue)
		h.fn()
	}
	return time.Time{}, false
}

// Run runs callbacks as their deadlines come due until ctx is done or a
// callback records a fatal error, which is returned
func (l *Loop) Run(ctx context.Context) error {
	for {
		next, ok := l.RunDue()
		if l.err != nil {
			return l.err
		}
		if !ok {
			<-ctx.Done()
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-l.clock.After(next.Sub(l.clock.Now())):
		}
	}
}

type timerQueue []*Handle

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if q[i].deadline.Equal(q[j].deadline) {
		return q[i].seq < q[j].seq
	}
	return q[i].deadline.Before(q[j].deadline)
}

func (q timerQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *timerQueue) Push(x any) { *q = append(*q, x.(*Handle)) }

func (q *timerQueue) Pop() any {
	old := *q
	n := len(old)
	h := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return h
}
