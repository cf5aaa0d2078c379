package reactor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagPacking(t *testing.T) {
	tests := []struct {
		op     OpType
		handle uint32
	}{
		{Accept, 0},
		{Recv, 1},
		{Send, 0xFFFFFFFF},
		{Recv, 12345},
	}

	for _, tt := range tests {
		tag := NewTag(tt.op, tt.handle)
		assert.Equal(t, tt.op, tag.Op())
		assert.Equal(t, tt.handle, tag.Handle())
	}
}

func TestSubmitFlushWait(t *testing.T) {
	r := New(8)

	err := r.Submit(NewTag(Recv, 7), func() Result {
		return Result{N: 42}
	})
	require.NoError(t, err)
	require.Zero(t, r.InFlight())

	r.Flush()
	require.Equal(t, 1, r.InFlight())

	c, ok := r.Wait(context.Background())
	require.True(t, ok)
	assert.Equal(t, Recv, c.Tag.Op())
	assert.Equal(t, uint32(7), c.Tag.Handle())
	assert.Equal(t, 42, c.N)
	assert.Zero(t, r.InFlight())
}

func TestCompletionCarriesErrorAndAttachment(t *testing.T) {
	r := New(2)
	boom := errors.New("boom")

	require.NoError(t, r.Submit(NewTag(Accept, 0), func() Result {
		return Result{Err: boom, Attachment: "peer"}
	}))
	r.Flush()

	c, ok := r.Wait(context.Background())
	require.True(t, ok)
	assert.ErrorIs(t, c.Err, boom)
	assert.Equal(t, "peer", c.Attachment)
}

func TestDepthLimit(t *testing.T) {
	r := New(2)
	require.NoError(t, r.Submit(NewTag(Recv, 1), func() Result { return Result{} }))
	require.NoError(t, r.Submit(NewTag(Recv, 2), func() Result { return Result{} }))
	require.ErrorIs(t, r.Submit(NewTag(Recv, 3), func() Result { return Result{} }), ErrQueueFull)

	r.Flush()
	_, ok := r.Wait(context.Background())
	require.True(t, ok)

	// Reaping one completion frees one slot.
	require.NoError(t, r.Submit(NewTag(Recv, 3), func() Result { return Result{} }))
}

func TestWaitHonoursContext(t *testing.T) {
	r := New(2)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, ok := r.Wait(ctx)
	require.False(t, ok)
}

func TestWaitDeliversInPostOrder(t *testing.T) {
	r := New(4)
	gate := make(chan struct{})

	for i := uint32(1); i <= 3; i++ {
		i := i
		require.NoError(t, r.Submit(NewTag(Send, i), func() Result {
			<-gate
			return Result{N: int(i)}
		}))
	}
	r.Flush()

	// Release operations one at a time: each Wait reaps the one completion
	// just posted. Which operation takes the gate is not fixed, so the
	// handles are compared as a set.
	seen := make([]uint32, 0, 3)
	for i := 0; i < 3; i++ {
		gate <- struct{}{}
		c, ok := r.Wait(context.Background())
		require.True(t, ok)
		seen = append(seen, c.Tag.Handle())
	}
	assert.ElementsMatch(t, []uint32{1, 2, 3}, seen)
}
