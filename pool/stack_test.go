package pool

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStackPushPopCurrent(t *testing.T) {
	s := NewStack()
	assert.Nil(t, s.Current())

	root := New(NewAllocManager(0))
	s.Push(root, "root")
	assert.Equal(t, root, s.Current())
	assert.Equal(t, 1, s.Depth())

	f, err := s.Pop()
	require.NoError(t, err)
	assert.Equal(t, root, f.Pool())
	assert.Equal(t, 0, s.Depth())
}

func TestStackPopOnEmptyIsImbalance(t *testing.T) {
	// With Debug true the imbalance panics; the error return is the
	// Debug-false path.
	old := Debug
	Debug = false
	defer func() { Debug = old }()

	s := NewStack()
	_, err := s.Pop()
	assert.True(t, errors.Is(err, ErrStackImbalance))
}

// TestPerformTemporaryAlwaysDestroysScratch checks that a per-call
// scratch pool created under Perform is always torn down, whether the call
// body succeeds or fails.
func TestPerformTemporaryAlwaysDestroysScratch(t *testing.T) {
	s := NewStack()
	parent := New(NewAllocManager(0))

	var destroyed bool
	err := PerformTemporary(s, parent, "ok-case", func(scratch *Pool) error {
		scratch.RegisterCleanup(func(any) { destroyed = true }, nil)
		_, allocErr := scratch.Alloc(32, 0)
		return allocErr
	})
	require.NoError(t, err)
	assert.True(t, destroyed)
	assert.Equal(t, 0, s.Depth())

	destroyed = false
	boom := errors.New("boom")
	err = PerformTemporary(s, parent, "error-case", func(scratch *Pool) error {
		scratch.RegisterCleanup(func(any) { destroyed = true }, nil)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.True(t, destroyed, "scratch pool must still be destroyed when fn fails")
	assert.Equal(t, 0, s.Depth())
}

// TestPerformConditionalSkipsDuplicatePush checks the conditional-push
// contract: when p is already the current pool the call runs fn in the
// existing frame, and pushes a fresh frame otherwise.
func TestPerformConditionalSkipsDuplicatePush(t *testing.T) {
	s := NewStack()
	p := New(NewAllocManager(0))

	err := Perform(s, p, "outer", func() error {
		depthBefore := s.Depth()
		return PerformConditional(s, p, "inner", func() error {
			assert.Equal(t, depthBefore, s.Depth(), "same pool on top must not be pushed again")
			assert.Same(t, p, s.Current())
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 0, s.Depth())

	other := New(NewAllocManager(0))
	err = Perform(s, p, "outer", func() error {
		depthBefore := s.Depth()
		return PerformConditional(s, other, "inner", func() error {
			assert.Equal(t, depthBefore+1, s.Depth(), "a different pool must be pushed")
			assert.Same(t, other, s.Current())
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 0, s.Depth())
}

// TestPerformDiscardOnError checks that the commit-or-discard variant
// keeps the pool on success and destroys it when fn fails.
func TestPerformDiscardOnError(t *testing.T) {
	s := NewStack()
	p := New(NewAllocManager(0))

	err := PerformDiscardOnError(s, p, "commit", func() error {
		_, allocErr := p.Alloc(16, 0)
		return allocErr
	})
	require.NoError(t, err)

	_, err = p.Alloc(16, 0)
	require.NoError(t, err)

	boom := errors.New("rejected")
	p2 := New(NewAllocManager(0))
	err = PerformDiscardOnError(s, p2, "rollback", func() error {
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = p2.Alloc(16, 0)
	assert.ErrorIs(t, err, ErrDestroying, "a failed PerformDiscardOnError must destroy its pool")
}

func TestPerformClearReusesHandle(t *testing.T) {
	s := NewStack()
	p := New(NewAllocManager(0))

	var ranFirst, ranSecond bool
	err := PerformClear(s, p, "first", func(scratch *Pool) error {
		scratch.RegisterCleanup(func(any) { ranFirst = true }, nil)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ranFirst)

	err = PerformClear(s, p, "second", func(scratch *Pool) error {
		scratch.RegisterCleanup(func(any) { ranSecond = true }, nil)
		_, allocErr := scratch.Alloc(16, 0)
		return allocErr
	})
	require.NoError(t, err)
	assert.True(t, ranSecond)
}
