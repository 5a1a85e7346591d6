package pipeline

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessKeepsOrder(t *testing.T) {
	items := make([]int, 50)
	for i := range items {
		items[i] = i
	}

	out, err := Process(context.Background(), items, 4, func(_ context.Context, v int) int {
		return v * v
	})

	require.NoError(t, err)
	require.Len(t, out, 50)
	for i, v := range out {
		assert.Equal(t, i*i, v)
	}
}

func TestProcessBoundsConcurrency(t *testing.T) {
	var running, peak int32
	items := make([]int, 40)

	_, err := Process(context.Background(), items, 3, func(_ context.Context, _ int) struct{} {
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		atomic.AddInt32(&running, -1)
		return struct{}{}
	})

	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
}

func TestProcessCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Process(ctx, []int{1, 2, 3}, 2, func(_ context.Context, v int) int { return v })

	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessEmpty(t *testing.T) {
	out, err := Process(context.Background(), []string{}, 4, func(_ context.Context, s string) string { return s })

	require.NoError(t, err)
	assert.Empty(t, out)
}
