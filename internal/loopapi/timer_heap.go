package loopapi

import (
	"time"

	"github.com/strandhq/strand"
)

// timerEntry is one pending sleep/timeout, ordered by deadline. Grounded
// on the min-heap-by-deadline idiom in
// other_examples/joeycumines-go-utilpkg__loop.go's timerHeap.
type timerEntry struct {
	deadline time.Time
	strand   *strand.Strand
	canceled *bool
	index    int
}

type timerHeap []*timerEntry

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool { return h[i].deadline.Before(h[j].deadline) }

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	e := x.(*timerEntry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}
