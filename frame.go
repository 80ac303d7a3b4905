package strand

// Outcome classifies what happened the last time a CoroutineFrame was
// resumed.
type Outcome int

const (
	// Yielded means the frame is still suspended and produced a value
	// for the interpreter to dispatch.
	Yielded Outcome = iota
	// Returned means the frame completed normally.
	Returned
	// Threw means the frame completed by raising an error.
	Threw
)

// FrameObservation is what a CoroutineFrame reports after a resume: it is
// yielded (still suspended, Value holds the yielded value), returned
// (Value holds the final result), or threw (Err holds the failure).
type FrameObservation struct {
	Outcome Outcome
	Value   any
	Err     error
}

// CoroutineFrame is an opaque suspendable computation: one level of a
// strand's logical call stack. Implementations may be backed by a
// goroutine blocked on a channel (as Handle-based frames in this package
// are), by a codegen'd state machine, or by anything else that honors the
// resume-with-value / resume-with-error / observe contract.
type CoroutineFrame interface {
	ResumeSend(v any) FrameObservation
	ResumeThrow(err error) FrameObservation
}

// KeyedFrame is an optional capability a CoroutineFrame may implement:
// frames whose underlying language construct associates a key with each
// yield point (spec §4.3's "key half of the suspending expression") can
// expose it here so Api.Dispatch can make use of it. Frames that do not
// support keyed yields simply don't implement this interface; strand
// then passes nil.
type KeyedFrame interface {
	CurrentKey() any
}

// Body is a user-supplied coroutine: it receives a Handle for suspending
// itself via Yield and returns the frame's final result.
type Body func(*Handle) (any, error)

// Handle is passed to a running Body so it can suspend itself.
type Handle struct {
	in  chan resumeMsg
	out chan yieldMsg
}

type resumeMsg struct {
	isThrow bool
	value   any
	err     error
}

type yieldMsg struct {
	done  bool
	value any
	ret   any
	err   error
}

// Yield suspends the running Body, handing v to the strand's interpreter
// as the yielded value, and blocks until the strand resumes this frame
// with either a value or an error.
func (h *Handle) Yield(v any) (any, error) {
	h.out <- yieldMsg{value: v}
	msg := <-h.in
	if msg.isThrow {
		return nil, msg.err
	}
	return msg.value, nil
}

// generatorFrame adapts a Body into a CoroutineFrame using a goroutine
// blocked on a pair of unbuffered channels as the suspension mechanism —
// the same bridge resonatehq-gocoro's Coroutine type uses, generalized
// from a per-coroutine generic yield type to the single any-typed
// YieldValue taxonomy this engine dispatches on.
type generatorFrame struct {
	h       *Handle
	started bool
}

func newGeneratorFrame(body Body) *generatorFrame {
	h := &Handle{
		in:  make(chan resumeMsg),
		out: make(chan yieldMsg),
	}

	go func() {
		first := <-h.in
		if first.isThrow {
			// Thrown before the body ever ran: it never observes the
			// error. Surface it as an immediate failure of the frame.
			h.out <- yieldMsg{done: true, err: first.err}
			close(h.out)
			return
		}

		ret, err := body(h)
		h.out <- yieldMsg{done: true, ret: ret, err: err}
		close(h.out)
	}()

	return &generatorFrame{h: h}
}

func (g *generatorFrame) ResumeSend(v any) FrameObservation {
	g.started = true
	g.h.in <- resumeMsg{value: v}
	return g.observe()
}

func (g *generatorFrame) ResumeThrow(err error) FrameObservation {
	g.started = true
	g.h.in <- resumeMsg{isThrow: true, err: err}
	return g.observe()
}

func (g *generatorFrame) observe() FrameObservation {
	msg := <-g.h.out
	if msg.done {
		if msg.err != nil {
			return FrameObservation{Outcome: Threw, Err: msg.err}
		}
		return FrameObservation{Outcome: Returned, Value: msg.ret}
	}
	return FrameObservation{Outcome: Yielded, Value: msg.value}
}

// oneShotFrame is the frame produced by entry-point normalization's final
// fallback (spec §3): it yields its wrapped value exactly once, then
// returns whatever it is resumed with.
type oneShotFrame struct {
	value   any
	yielded bool
}

func newOneShotFrame(v any) *oneShotFrame {
	return &oneShotFrame{value: v}
}

func (f *oneShotFrame) ResumeSend(v any) FrameObservation {
	if !f.yielded {
		f.yielded = true
		return FrameObservation{Outcome: Yielded, Value: f.value}
	}
	return FrameObservation{Outcome: Returned, Value: v}
}

func (f *oneShotFrame) ResumeThrow(err error) FrameObservation {
	if !f.yielded {
		f.yielded = true
	}
	return FrameObservation{Outcome: Threw, Err: err}
}
