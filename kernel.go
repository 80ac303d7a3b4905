package strand

import (
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/strandhq/strand/pkg/q"
)

// Kernel creates strands with unique IDs, receives their completion
// notifications, and is the default primary listener for every strand it
// creates (spec.md §2, §6).
type Kernel interface {
	Listener

	// Execute normalizes entry into a strand, assigns it a fresh ID, and
	// starts it.
	Execute(entry any, api Api, opts ...Option) (*Strand, error)

	// NextID returns a fresh, never-reused-while-live strand ID.
	NextID() int64

	// ReportListenerFailure is the StrandListenerException sink invoked
	// by Strand.exit when a listener fails (spec.md §4.8).
	ReportListenerFailure(err *StrandListenerException)
}

// DefaultKernel is the reference Kernel implementation, grounded on
// resonatehq-gocoro's Scheduler[I,O]: strands enter through a channel and
// are drained into a FIFO ready queue, giving "FIFO among ready strands"
// as the only ordering guarantee spec.md §1 promises.
type DefaultKernel struct {
	// InstanceID distinguishes this kernel from others in the same
	// process (e.g. under test, or several event loops in one binary).
	InstanceID uuid.UUID

	log *slog.Logger

	nextID int64

	in      chan *Strand
	ready   q.Queue[*Strand]
	results map[int64]result

	running bool
}

type result struct {
	value any
	err   error
}

// NewDefaultKernel constructs a DefaultKernel. size bounds the channel
// strands are submitted through before a Run drains them into the ready
// queue; log receives listener-failure and unhandled-error diagnostics
// (nil selects slog.Default()).
func NewDefaultKernel(size int, log *slog.Logger) *DefaultKernel {
	if log == nil {
		log = slog.Default()
	}
	return &DefaultKernel{
		InstanceID: uuid.New(),
		log:        log,
		in:         make(chan *Strand, size),
		results:    make(map[int64]result),
	}
}

func (k *DefaultKernel) NextID() int64 {
	return atomic.AddInt64(&k.nextID, 1)
}

// Execute constructs a strand for entry, submits it to the ready queue,
// and drives it via Run. It is the Kernel-side half of `new Strand(...)`
// + `start()` from spec.md §6.
func (k *DefaultKernel) Execute(entry any, api Api, opts ...Option) (*Strand, error) {
	s, err := NewStrand(k, api, k.NextID(), entry, opts...)
	if err != nil {
		return nil, err
	}
	k.in <- s
	k.Run()
	return s, nil
}

// Run drains every strand currently queued for entry and starts each in
// FIFO order. A strand body that itself calls Execute reaches Run again
// while the outer call's loop is still on the stack (Start has not
// returned yet); such a nested call only enqueues its strand and returns,
// letting the outermost loop drain it in turn. Without this guard, the
// nested call would drain and start whatever the outer loop had not yet
// reached, running strands underneath an unrelated strand's call frame
// instead of flatly in arrival order.
func (k *DefaultKernel) Run() {
	q.Batch(k.in, len(k.in), func(s *Strand) {
		k.ready.Enqueue(s)
	})

	if k.running {
		return
	}
	k.running = true
	defer func() { k.running = false }()

	for s := range k.ready.Pop() {
		s.Start()
	}
}

// Send implements Listener: the kernel is the default primary listener,
// recording each strand's successful result.
func (k *DefaultKernel) Send(value any, from *Strand) {
	k.results[from.ID()] = result{value: value}
}

// Throw implements Listener: the kernel logs unhandled strand failures,
// wrapped as spec.md §6's StrandFailedException, and records the result.
func (k *DefaultKernel) Throw(err error, from *Strand) {
	failure := &StrandFailedException{Strand: from, Cause: err}
	k.results[from.ID()] = result{err: failure}
	k.log.Error("strand failed", "kernel", k.InstanceID, "strand", from.ID(), "error", failure)
}

// ReportListenerFailure logs a listener failure. The kernel has no
// listener of its own to escalate to, so logging is where the
// first-failure-wins chain of spec.md §4.8 terminates.
func (k *DefaultKernel) ReportListenerFailure(err *StrandListenerException) {
	k.log.Error("strand listener failed", "kernel", k.InstanceID, "strand", err.Strand.ID(), "error", err)
}

// Result returns the recorded outcome for a strand that has exited under
// this kernel's default listening, if any.
func (k *DefaultKernel) Result(id int64) (value any, err error, ok bool) {
	r, ok := k.results[id]
	return r.value, r.err, ok
}
