package strand

import "fmt"

// CoroutineProvider is a polymorphic producer the strand constructor (or
// the yield dispatcher) may encounter: something that hands back its
// underlying coroutine on request instead of being one directly.
type CoroutineProvider interface {
	Coroutine() (any, error)
}

// InvalidEntryPoint is raised at construction time when a callable entry
// point was invoked but did not produce a suspendable.
type InvalidEntryPoint struct {
	Got any
}

func (e *InvalidEntryPoint) Error() string {
	return fmt.Sprintf("strand: entry point callable did not produce a coroutine, got %T", e.Got)
}

// normalizeEntryPoint implements the four-shape constructor rule of
// spec.md §3:
//
//  1. a suspendable coroutine (CoroutineFrame or Body) is used as-is;
//  2. a CoroutineProvider is asked for its coroutine;
//  3. a zero-argument callable is invoked; if the result is not itself a
//     coroutine, construction fails with InvalidEntryPoint;
//  4. any other value is wrapped in a one-shot frame that yields the
//     value once, then returns the resume result.
func normalizeEntryPoint(entry any) (CoroutineFrame, error) {
	return normalize(entry, true)
}

func normalize(entry any, allowInvoke bool) (CoroutineFrame, error) {
	switch v := entry.(type) {
	case CoroutineFrame:
		return v, nil
	case Body:
		return newGeneratorFrame(v), nil
	case func(*Handle) (any, error):
		return newGeneratorFrame(Body(v)), nil
	case CoroutineProvider:
		provided, err := v.Coroutine()
		if err != nil {
			return nil, err
		}
		return normalize(provided, false)
	case func() any:
		if !allowInvoke {
			return newOneShotFrame(v), nil
		}
		result := v()
		switch result.(type) {
		case CoroutineFrame, Body, CoroutineProvider:
			return normalize(result, false)
		default:
			return nil, &InvalidEntryPoint{Got: result}
		}
	default:
		return newOneShotFrame(entry), nil
	}
}
