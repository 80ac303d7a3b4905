package q

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueEnqueueDequeueFIFOOrder(t *testing.T) {
	q := Queue[int]{}
	q.Enqueue(1)
	q.Enqueue(2)
	q.Enqueue(3)

	first, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, 1, first)

	expected := 2
	for remaining := range q.Pop() {
		assert.Equal(t, expected, remaining)
		expected++
	}
}

func TestQueuePopEmpty(t *testing.T) {
	q := Queue[string]{}
	n := 0
	for range q.Pop() {
		n++
	}
	assert.Equal(t, 0, n)
}

func TestQueuePopEarlyStop(t *testing.T) {
	q := Queue[int]{}
	q.Enqueue(1)
	q.Enqueue(2)
	q.Enqueue(3)

	var seen []int
	for v := range q.Pop() {
		seen = append(seen, v)
		if v == 2 {
			break
		}
	}

	assert.Equal(t, []int{1, 2}, seen)
	remaining, ok := q.Dequeue()
	assert.True(t, ok)
	assert.Equal(t, 3, remaining)
}

func TestBatch(t *testing.T) {
	c := make(chan int, 10)
	c <- 1
	c <- 2
	c <- 3

	var got []int
	Batch(c, 2, func(v int) { got = append(got, v) })

	assert.Equal(t, []int{1, 2}, got)
	assert.Len(t, c, 1)
}

func TestBatchClosedChannel(t *testing.T) {
	c := make(chan int)
	close(c)

	var got []int
	Batch(c, 5, func(v int) { got = append(got, v) })

	assert.Nil(t, got)
}
