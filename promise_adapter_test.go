package strand

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strandhq/strand/pkg/promise"
)

// A promise already resolved before it is yielded settles the strand
// within the same Start() call: OnComplete fires synchronously.
func TestPromiseAwaitableResumesSynchronouslyWhenAlreadySettled(t *testing.T) {
	k := newTestKernel()
	l := &recordingListener{}

	p := promise.New[int]()
	p.Resolve(42)

	body := Body(func(h *Handle) (any, error) {
		v, err := h.Yield(PromiseAwaitable[int]{P: p})
		require.NoError(t, err)
		return v, nil
	})

	s, err := NewStrand(k, noopApi{}, k.NextID(), body)
	require.NoError(t, err)
	s.SetPrimaryListener(l)
	s.Start()

	require.True(t, s.HasExited())
	assert.Equal(t, []any{42}, l.sent)
	assert.Empty(t, l.thrown)
}

// A promise still pending when yielded parks the strand; resolving it
// later queues through OnComplete and resumes the strand from outside
// the original Start() call.
func TestPromiseAwaitableResumesLaterWhenSettledAfterYield(t *testing.T) {
	k := newTestKernel()
	l := &recordingListener{}

	p := promise.New[string]()

	body := Body(func(h *Handle) (any, error) {
		v, err := h.Yield(PromiseAwaitable[string]{P: p})
		require.NoError(t, err)
		return v, nil
	})

	s, err := NewStrand(k, noopApi{}, k.NextID(), body)
	require.NoError(t, err)
	s.SetPrimaryListener(l)
	s.Start()

	require.Equal(t, StateSuspendedInactive, s.StrandState())
	assert.Empty(t, l.sent)

	p.Resolve("later")

	require.True(t, s.HasExited())
	assert.Equal(t, []any{"later"}, l.sent)
}

// Rejecting the promise throws into the yielding frame instead of
// sending a value.
func TestPromiseAwaitableRejectThrowsIntoStrand(t *testing.T) {
	k := newTestKernel()
	l := &recordingListener{}
	boom := errors.New("boom")

	p := promise.New[int]()

	body := Body(func(h *Handle) (any, error) {
		return h.Yield(PromiseAwaitable[int]{P: p})
	})

	s, err := NewStrand(k, noopApi{}, k.NextID(), body)
	require.NoError(t, err)
	s.SetPrimaryListener(l)
	s.Start()

	p.Reject(boom)

	require.True(t, s.HasExited())
	require.Len(t, l.thrown, 1)
	assert.ErrorIs(t, l.thrown[0], boom)
}
