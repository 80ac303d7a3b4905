package strand

import "fmt"

// Strand is a scheduled cooperative task: a stack of suspendable
// coroutine frames driven forward by this type's own step interpreter.
//
// A Strand is owned by its Kernel for scheduling purposes but shared by
// reference with listeners, linked strands, and any awaitable parked on
// it. Mutation of strand state is restricted to Strand's own methods;
// external callers observe only ID, HasExited, and completion via the
// Listener protocol.
//
// Per spec.md §5, the entire model is single-threaded and cooperative:
// every method here assumes it is called from the one goroutine the
// owning Kernel's event loop runs on. No locking is used, and Start must
// never be re-entered from within itself — callers that would otherwise
// re-enter (a synchronous awaitable resume) set state to READY and
// return, letting the in-progress Start loop pick the resume back up.
type Strand struct {
	id     int64
	kernel Kernel
	api    Api

	stack   []CoroutineFrame
	current CoroutineFrame

	state  State
	action action
	value  any // pending send value, thrown error (action==actionThrow), or, once EXITED, the final result

	primaryListener Listener
	listeners       []Listener
	terminator      func()
	linked          map[*Strand]struct{}

	tracing bool
	traces  []FrameTrace
}

// Option configures a Strand at construction time.
type Option func(*Strand)

// WithTracing enables recording of CoroutineTrace/YieldTrace annotations
// (spec.md §4.4) into Strand.Trace. Costs nothing when omitted: the
// accumulator is left nil and no trace values are appended to it.
func WithTracing() Option {
	return func(s *Strand) { s.tracing = true }
}

// NewStrand constructs a strand from one of the four entry-point shapes
// normalizeEntryPoint accepts (spec.md §3). The kernel becomes the
// strand's initial primary listener. The strand starts in StateReady; a
// caller must invoke Start to begin driving it.
func NewStrand(kernel Kernel, api Api, id int64, entry any, opts ...Option) (*Strand, error) {
	frame, err := normalizeEntryPoint(entry)
	if err != nil {
		return nil, err
	}

	s := &Strand{
		id:      id,
		kernel:  kernel,
		api:     api,
		current: frame,
		state:   StateReady,
		action:  actionSend,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.primaryListener = kernel

	return s, nil
}

func (s *Strand) ID() int64      { return s.id }
func (s *Strand) Kernel() Kernel { return s.kernel }
func (s *Strand) HasExited() bool {
	return s.state == StateExited
}

// StrandState exposes the current position in the state machine, mainly
// for tests and diagnostics; it is not part of the propagation contract.
func (s *Strand) StrandState() State { return s.state }

// Trace returns the recorded trace annotations, or nil if tracing was
// never enabled via WithTracing.
func (s *Strand) Trace() []FrameTrace { return s.traces }

// Awaitable returns a handle other strands can yield to be resumed when
// this strand completes (spec.md §6's `awaitable() -> self`).
func (s *Strand) Awaitable() StrandAwaitable {
	return StrandAwaitable{s: s}
}

/////////////////////////////////////////////////////////////////////
// Interpreter
/////////////////////////////////////////////////////////////////////

// Start advances the strand until it either parks (SUSPENDED_INACTIVE),
// is terminated, or exits. It is a no-op if the strand has already
// exited, and must not be re-entered while already running (spec.md
// §4.2/§5).
func (s *Strand) Start() {
	if s.state == StateExited {
		return
	}

	for {
		if s.action == actionNone {
			return
		}
		s.state = StateRunning

		obs := s.resumeCurrent()
		if s.state == StateExited {
			// The frame terminated its own strand while it ran.
			return
		}
		s.action = actionNone
		s.value = nil

		switch obs.Outcome {
		case Returned:
			s.action, s.value = actionSend, obs.Value
			if s.popOrExit() {
				return
			}
			continue
		case Threw:
			s.action, s.value = actionThrow, obs.Err
			if s.popOrExit() {
				return
			}
			continue
		}

		// Yielded: begin dispatch.
		s.state = StateSuspendedActive
		y := obs.Value

		if s.handleTrace(&y) {
			continue
		}

		s.dispatchYield(y)

		switch s.state {
		case StateRunning, StateReady:
			continue
		case StateExited:
			return
		default:
			s.state = StateSuspendedInactive
			return
		}
	}
}

func (s *Strand) resumeCurrent() FrameObservation {
	switch s.action {
	case actionSend:
		return s.current.ResumeSend(s.value)
	case actionThrow:
		err, _ := s.value.(error)
		return s.current.ResumeThrow(err)
	default:
		assertInvariant(false, "resumeCurrent called with no pending action")
		return FrameObservation{}
	}
}

// popOrExit implements spec.md §4.2 step 7: if a parent frame remains,
// pop it into current and report "keep looping"; otherwise call exit and
// report "done".
func (s *Strand) popOrExit() (done bool) {
	if n := len(s.stack); n > 0 {
		s.current = s.stack[n-1]
		s.stack = s.stack[:n-1]
		s.state = StateRunning
		return false
	}
	s.exit()
	return true
}

// handleTrace implements the developer-mode trace hooks of spec.md §4.4.
// It returns true if the caller should loop back to step 1 (a
// CoroutineTrace resumes the frame transparently); otherwise dispatch
// should proceed with *y, which handleTrace may have replaced (a
// YieldTrace's Inner value).
func (s *Strand) handleTrace(y *any) bool {
	switch t := (*y).(type) {
	case CoroutineTrace:
		if s.tracing {
			s.traces = append(s.traces, FrameTrace{Function: t.Function, Location: t.Location})
		}
		s.action, s.value = actionSend, nil
		s.state = StateReady
		return true
	case YieldTrace:
		if s.tracing {
			s.traces = append(s.traces, FrameTrace{Location: t.Location})
		}
		*y = t.Inner
		return false
	default:
		return false
	}
}

// dispatchYield implements the yield dispatch table of spec.md §4.3.
func (s *Strand) dispatchYield(y any) {
	switch v := y.(type) {
	case CoroutineFrame:
		s.pushFrame(v)
	case Body:
		s.pushFrame(newGeneratorFrame(v))
	case CoroutineProvider:
		provided, err := v.Coroutine()
		if err != nil {
			s.fail(err)
			return
		}
		frame, err := normalize(provided, false)
		if err != nil {
			s.fail(err)
			return
		}
		s.pushFrame(frame)
	case ApiCall:
		frame, err := s.api.Call(s, v.Name, v.Args)
		if err != nil {
			s.fail(err)
			return
		}
		if frame != nil {
			s.pushFrame(frame)
		}
		// else: the call has arranged (or declined) its own resumption.
	case Awaitable:
		v.Await(s, s.api)
		// parked, unless Await synchronously resumed us (state==READY now).
	case AwaitableProvider:
		s.dispatchYield(v.Awaitable())
	default:
		var key any
		if kf, ok := s.current.(KeyedFrame); ok {
			key = kf.CurrentKey()
		}
		frame, err := s.api.Dispatch(s, key, y)
		if err != nil {
			s.fail(err)
			return
		}
		if frame != nil {
			s.pushFrame(frame)
		}
	}
}

func (s *Strand) pushFrame(f CoroutineFrame) {
	s.stack = append(s.stack, s.current)
	s.current = f
	s.state = StateRunning
	s.action = actionSend
	s.value = nil
}

// fail records a dispatch-time error (spec.md §7 "dispatch errors") to
// be fed back into the yielding frame on the next loop iteration, as
// though the frame's own yield had thrown.
func (s *Strand) fail(err error) {
	s.action = actionThrow
	s.value = err
	s.state = StateReady
}

/////////////////////////////////////////////////////////////////////
// Resumption
/////////////////////////////////////////////////////////////////////

// Send resumes the strand with a value, per spec.md §4.6.
func (s *Strand) Send(value any) {
	s.resume(actionSend, value)
}

// Throw resumes the strand with an error, per spec.md §4.6.
func (s *Strand) Throw(err error) {
	s.resume(actionThrow, err)
}

func (s *Strand) resume(act action, value any) {
	if s.state == StateExited {
		return
	}

	s.terminator = nil
	s.action = act
	s.value = value

	switch s.state {
	case StateSuspendedInactive:
		s.Start()
	case StateSuspendedActive:
		s.state = StateReady
	default:
		assertInvariant(false, "send/throw called while strand is not suspended")
	}
}

// Terminate discards the strand's call stack unconditionally and exits
// it with a TerminatedException, invoking the terminator hook if one is
// installed. Legal from any non-EXITED state, including from within a
// running frame's own yield dispatch (spec.md §9's open question:
// self-termination is preserved as legal, matching the source).
func (s *Strand) Terminate() {
	if s.state == StateExited {
		return
	}

	s.stack = nil
	s.action = actionThrow
	s.value = &TerminatedException{Strand: s}

	if t := s.terminator; t != nil {
		s.terminator = nil
		t()
	}

	s.exit()
}

// SetTerminator installs a one-shot cleanup callback invoked on
// termination. It is cleared automatically on every resume (spec.md
// §4.6) to prevent double-cancel.
func (s *Strand) SetTerminator(fn func()) {
	s.terminator = fn
}

/////////////////////////////////////////////////////////////////////
// Listener and linking protocol (spec.md §4.7)
/////////////////////////////////////////////////////////////////////

// SetPrimaryListener replaces the strand's primary listener. If the
// strand has already exited, the new listener is notified immediately
// with the final result. Otherwise, if the replaced listener was not the
// kernel, it is notified with a PrimaryListenerRemovedException.
func (s *Strand) SetPrimaryListener(l Listener) {
	if s.state == StateExited {
		s.notifyFinal(l)
		return
	}

	previous := s.primaryListener
	s.primaryListener = l

	if previous != nil && previous != Listener(s.kernel) {
		previous.Throw(&PrimaryListenerRemovedException{Previous: previous, Strand: s}, s)
	}
}

// ClearPrimaryListener removes the primary listener without installing a
// replacement.
func (s *Strand) ClearPrimaryListener() {
	s.primaryListener = nil
}

// Await registers l as a secondary listener (spec.md §6's `await(L,
// api)`). If the strand has already exited, l is notified immediately.
// api is accepted for signature parity with the external contract but is
// not otherwise used by this bookkeeping operation.
func (s *Strand) Await(l Listener, api Api) {
	_ = api
	if s.state == StateExited {
		s.notifyFinal(l)
		return
	}
	s.listeners = append(s.listeners, l)
}

// Link registers other to be terminated when this strand exits. Links
// are uni-directional.
func (s *Strand) Link(other *Strand) {
	if s.linked == nil {
		s.linked = make(map[*Strand]struct{})
	}
	s.linked[other] = struct{}{}
}

// Unlink removes a link previously registered with Link.
func (s *Strand) Unlink(other *Strand) {
	delete(s.linked, other)
}

func (s *Strand) notifyFinal(l Listener) {
	if s.action == actionSend {
		l.Send(s.value, s)
		return
	}
	err, _ := s.value.(error)
	l.Throw(err, s)
}

// exit is called exactly once per strand (spec.md §4.8).
func (s *Strand) exit() {
	s.state = StateExited
	s.current = nil

	all := make([]Listener, 0, 1+len(s.listeners))
	if s.primaryListener != nil {
		all = append(all, s.primaryListener)
	}
	all = append(all, s.listeners...)
	s.primaryListener = nil
	s.listeners = nil

	act, val := s.action, s.value

	for _, l := range all {
		if err := s.notify(l, act, val); err != nil {
			s.kernel.ReportListenerFailure(&StrandListenerException{Strand: s, Cause: err})
			break
		}
	}

	linked := s.linked
	s.linked = nil
	for other := range linked {
		func() {
			defer func() { recover() }()
			other.Terminate()
		}()
	}
}

// notify invokes l's Send or Throw, recovering a panic as the Go
// equivalent of "the listener itself throws" (spec.md §4.8).
func (s *Strand) notify(l Listener, act action, val any) (failure error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				failure = e
			} else {
				failure = fmt.Errorf("strand: listener panic: %v", r)
			}
		}
	}()

	if act == actionSend {
		l.Send(val, s)
	} else {
		err, _ := val.(error)
		l.Throw(err, s)
	}
	return nil
}

// StrandAwaitable adapts a Strand to the Awaitable interface so a
// coroutine can yield another strand and be resumed when it completes.
// Obtained via Strand.Awaitable.
type StrandAwaitable struct {
	s *Strand
}

func (a StrandAwaitable) Await(awaiter *Strand, api Api) {
	a.s.Await(ListenerFunc{
		OnSend: func(value any, from *Strand) { awaiter.Send(value) },
		OnThrow: func(err error, from *Strand) { awaiter.Throw(err) },
	}, api)
}

func assertInvariant(cond bool, msg string) {
	if !cond {
		panic("strand: " + msg)
	}
}
