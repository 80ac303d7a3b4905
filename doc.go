// Package strand implements a cooperative coroutine scheduler: a strand
// engine that multiplexes many logical tasks onto a single event-loop
// thread.
//
// A [Strand] is a lightweight task whose body is a stack of suspendable
// coroutine frames. The engine drives each strand forward by feeding
// values into its top frame, interpreting whatever it yields — a nested
// frame, an awaitable, an API call — and propagating results and errors
// up the strand's logical call stack.
//
// The event loop itself, and the [Api] that implements domain operations
// atop it, are external collaborators specified only at their interface
// boundary; see package internal/loopapi for a reference implementation.
package strand
