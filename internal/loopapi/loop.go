// Package loopapi is a reference implementation of strand.Api. spec.md
// treats the Api as an external collaborator specified only at its
// interface boundary; this package exists so the engine has at least one
// working seam to run end to end, adapting resonatehq-gocoro's
// submission-queue/completion-queue pattern (pkg/io.IO / FIO) so
// completions resume strands directly instead of settling a promise.
package loopapi

import (
	"container/heap"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/strandhq/strand"
	"github.com/strandhq/strand/pkg/q"
)

// Loop implements the five domain operations spec.md §6 names — sleep,
// read, write, timeout, cooperate — plus the Dispatch fallback. It is
// owned by exactly one goroutine: callers must invoke Drain from that
// same goroutine on every tick of their event loop (see cmd/strandd for
// the wiring).
type Loop struct {
	sq chan job
	cq chan completion

	timers   timerHeap
	inFlight int64
}

type job struct {
	strand   *strand.Strand
	fn       func() (any, error)
	canceled *bool
}

type completion struct {
	strand   *strand.Strand
	value    any
	err      error
	canceled *bool
}

// NewLoop constructs a Loop whose worker submission/completion queues
// hold up to capacity in-flight jobs.
func NewLoop(capacity int) *Loop {
	return &Loop{
		sq: make(chan job, capacity),
		cq: make(chan completion, capacity),
	}
}

// Worker runs one blocking-job worker goroutine, executing jobs
// dispatched via read/write/cooperate until Shutdown closes the queue.
// Callers typically start a small pool of these.
func (l *Loop) Worker() {
	for j := range l.sq {
		v, err := j.fn()
		l.cq <- completion{strand: j.strand, value: v, err: err, canceled: j.canceled}
	}
}

// Shutdown stops accepting new work; in-flight Workers drain naturally.
func (l *Loop) Shutdown() {
	close(l.sq)
}

// Call implements strand.Api.
func (l *Loop) Call(s *strand.Strand, name string, args []any) (strand.CoroutineFrame, error) {
	switch name {
	case "sleep":
		d, ok := arg[time.Duration](args, 0)
		if !ok {
			return nil, fmt.Errorf("loopapi: sleep expects a time.Duration argument")
		}
		l.scheduleTimer(s, d)
		return nil, nil

	case "timeout":
		d, ok := arg[time.Duration](args, 0)
		if !ok {
			return nil, fmt.Errorf("loopapi: timeout expects a time.Duration first argument")
		}
		// A fuller Api would race the inner ApiCall against the
		// deadline and cancel whichever loses; this reference
		// implementation only guarantees the deadline side, which is
		// enough to exercise terminator installation and cancellation.
		l.scheduleTimer(s, d)
		return nil, nil

	case "read", "write", "cooperate":
		fn, ok := arg[func() (any, error)](args, 0)
		if !ok {
			return nil, fmt.Errorf("loopapi: %s expects a func() (any, error) argument", name)
		}
		l.dispatch(s, fn)
		return nil, nil

	default:
		return nil, fmt.Errorf("loopapi: unknown api call %q", name)
	}
}

// Dispatch implements strand.Api's fallback path: a bare func() (any,
// error) yielded directly, without an ApiCall wrapper, is treated as a
// "cooperate" job.
func (l *Loop) Dispatch(s *strand.Strand, key any, value any) (strand.CoroutineFrame, error) {
	fn, ok := value.(func() (any, error))
	if !ok {
		return nil, fmt.Errorf("loopapi: cannot dispatch yielded value of type %T", value)
	}
	l.dispatch(s, fn)
	return nil, nil
}

func (l *Loop) dispatch(s *strand.Strand, fn func() (any, error)) {
	canceled := new(bool)
	atomic.AddInt64(&l.inFlight, 1)
	s.SetTerminator(func() { *canceled = true })
	l.sq <- job{strand: s, fn: fn, canceled: canceled}
}

func (l *Loop) scheduleTimer(s *strand.Strand, d time.Duration) {
	canceled := new(bool)
	entry := &timerEntry{
		deadline: time.Now().Add(d),
		strand:   s,
		canceled: canceled,
	}
	heap.Push(&l.timers, entry)
	s.SetTerminator(func() { *canceled = true })
}

// Drain resumes every strand whose timer has elapsed and every strand
// whose job completed since the last Drain. It never blocks.
func (l *Loop) Drain() {
	now := time.Now()
	for l.timers.Len() > 0 && !l.timers[0].deadline.After(now) {
		entry := heap.Pop(&l.timers).(*timerEntry)
		if *entry.canceled {
			continue
		}
		entry.strand.Send(nil)
	}

	q.Batch(l.cq, cap(l.cq), func(c completion) {
		atomic.AddInt64(&l.inFlight, -1)
		if *c.canceled {
			return
		}
		if c.err != nil {
			c.strand.Throw(c.err)
			return
		}
		c.strand.Send(c.value)
	})
}

// Idle reports whether the loop currently has no pending timers and no
// in-flight or completed-but-undrained jobs.
func (l *Loop) Idle() bool {
	return l.timers.Len() == 0 && atomic.LoadInt64(&l.inFlight) == 0
}

// NextDeadline returns the nearest pending timer deadline, if any, so a
// caller can size a blocking wait instead of busy-polling Drain.
func (l *Loop) NextDeadline() (time.Time, bool) {
	if l.timers.Len() == 0 {
		return time.Time{}, false
	}
	return l.timers[0].deadline, true
}

func arg[T any](args []any, i int) (T, bool) {
	var zero T
	if i >= len(args) {
		return zero, false
	}
	v, ok := args[i].(T)
	return v, ok
}
