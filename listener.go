package strand

// Listener receives a strand's terminal result: exactly one of Send or
// Throw is invoked per completed strand per listener.
type Listener interface {
	Send(value any, from *Strand)
	Throw(err error, from *Strand)
}

// ListenerFunc adapts two plain functions into a Listener, mirroring the
// promise.Complete(v, e) two-in-one shape used elsewhere in this module
// for the common case where the caller doesn't need a dedicated type.
type ListenerFunc struct {
	OnSend  func(value any, from *Strand)
	OnThrow func(err error, from *Strand)
}

func (f ListenerFunc) Send(value any, from *Strand) {
	if f.OnSend != nil {
		f.OnSend(value, from)
	}
}

func (f ListenerFunc) Throw(err error, from *Strand) {
	if f.OnThrow != nil {
		f.OnThrow(err, from)
	}
}
