package strand

import "github.com/strandhq/strand/pkg/promise"

// PromiseAwaitable adapts a promise.Promise[T] to this package's
// Awaitable interface, so a coroutine can yield a promise and be resumed
// once it settles. Registration never blocks: it hooks the promise's
// OnComplete, which fires synchronously and immediately if the promise
// is already settled, and is queued otherwise (see promise_adapter_test.go
// for both paths).
type PromiseAwaitable[T any] struct {
	P promise.Promise[T]
}

func (a PromiseAwaitable[T]) Await(awaiter *Strand, api Api) {
	a.P.OnComplete(func(v T, err error) {
		if err != nil {
			awaiter.Throw(err)
			return
		}
		awaiter.Send(v)
	})
}
