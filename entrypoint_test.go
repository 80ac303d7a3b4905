package strand

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFrame struct{}

func (stubFrame) ResumeSend(v any) FrameObservation  { return FrameObservation{Outcome: Returned, Value: v} }
func (stubFrame) ResumeThrow(err error) FrameObservation { return FrameObservation{Outcome: Threw, Err: err} }

type stubProvider struct {
	frame CoroutineFrame
	err   error
}

func (p stubProvider) Coroutine() (any, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.frame, nil
}

func TestNormalizeCoroutineFrameUsedAsIs(t *testing.T) {
	f := stubFrame{}
	got, err := normalizeEntryPoint(f)
	require.NoError(t, err)
	assert.Equal(t, f, got)
}

func TestNormalizeBodyWrappedInGeneratorFrame(t *testing.T) {
	body := Body(func(h *Handle) (any, error) { return "ok", nil })
	got, err := normalizeEntryPoint(body)
	require.NoError(t, err)
	_, isGenerator := got.(*generatorFrame)
	assert.True(t, isGenerator)
}

func TestNormalizeProviderAskedForCoroutine(t *testing.T) {
	inner := stubFrame{}
	got, err := normalizeEntryPoint(stubProvider{frame: inner})
	require.NoError(t, err)
	assert.Equal(t, inner, got)
}

func TestNormalizeProviderErrorSurfaces(t *testing.T) {
	boom := errors.New("boom")
	_, err := normalizeEntryPoint(stubProvider{err: boom})
	assert.ErrorIs(t, err, boom)
}

func TestNormalizeZeroArgCallableInvoked(t *testing.T) {
	inner := stubFrame{}
	entry := func() any { return inner }
	got, err := normalizeEntryPoint(entry)
	require.NoError(t, err)
	assert.Equal(t, inner, got)
}

func TestNormalizeZeroArgCallableReturningInvalidShape(t *testing.T) {
	entry := func() any { return 42 }
	_, err := normalizeEntryPoint(entry)
	var invalid *InvalidEntryPoint
	assert.ErrorAs(t, err, &invalid)
}

func TestNormalizeFallbackWrapsAsOneShot(t *testing.T) {
	got, err := normalizeEntryPoint(99)
	require.NoError(t, err)
	oneShot, ok := got.(*oneShotFrame)
	require.True(t, ok)
	assert.Equal(t, 99, oneShot.value)
}

func TestNormalizeZeroArgCallableCanReturnBody(t *testing.T) {
	body := Body(func(h *Handle) (any, error) { return "ok", nil })
	entry := func() any { return body }
	got, err := normalizeEntryPoint(entry)
	require.NoError(t, err)
	_, isGenerator := got.(*generatorFrame)
	assert.True(t, isGenerator)
}

func TestNormalizeZeroArgCallableCanReturnProvider(t *testing.T) {
	inner := stubFrame{}
	entry := func() any { return stubProvider{frame: inner} }
	got, err := normalizeEntryPoint(entry)
	require.NoError(t, err)
	assert.Equal(t, inner, got)
}
