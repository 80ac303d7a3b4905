package strand

// Api dispatches yielded ApiCall values and performs event-loop-backed
// suspensions on a strand's behalf. Its concrete implementations are
// external collaborators (spec.md §1); this package only specifies the
// contract. See internal/loopapi for a reference implementation.
type Api interface {
	// Call performs the named domain operation for s with the given
	// arguments. If it returns a non-nil CoroutineFrame, the frame is
	// pushed onto s's stack and entered immediately. Otherwise the call
	// is responsible for arranging s's eventual resumption (or none at
	// all, if the operation is fire-and-forget) via s.Send/s.Throw, and
	// must install a terminator on s if it reserved a loop-side resource.
	Call(s *Strand, name string, args []any) (CoroutineFrame, error)

	// Dispatch is the fallback entry point for yielded values that match
	// none of the taxonomy in yield.go — e.g. promise/future interop from
	// a host ecosystem this engine doesn't know about natively. key is
	// the current frame's CurrentKey(), or nil if the frame doesn't
	// support keyed yields.
	Dispatch(s *Strand, key any, value any) (CoroutineFrame, error)
}
