package forecast

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scored(p, q int, score float64, stable bool) candidate {
	return candidate{p: p, q: q, score: score, model: &armaModel{p: p, q: q, stable: stable}}
}

func TestSelectBest(t *testing.T) {
	t.Run("lowest criterion wins", func(t *testing.T) {
		cands := []candidate{scored(0, 0, 120, true), scored(1, 0, 100, true), scored(2, 1, 101, true)}
		assert.Equal(t, 1, selectBest(cands))
	})

	t.Run("ties prefer fewer parameters", func(t *testing.T) {
		cands := []candidate{scored(2, 1, 100, true), scored(0, 1, 100+1e-12, true), scored(1, 1, 100, true)}
		assert.Equal(t, 1, selectBest(cands))
	})

	t.Run("equal size ties prefer lower p", func(t *testing.T) {
		cands := []candidate{scored(1, 0, 50, true), scored(0, 1, 50, true)}
		assert.Equal(t, 1, selectBest(cands))
	})

	t.Run("unstable and failed candidates are skipped", func(t *testing.T) {
		cands := []candidate{
			scored(3, 3, 10, false),
			{p: 2, q: 2, err: errors.New("boom")},
			scored(1, 0, math.NaN(), true),
			scored(0, 1, 90, true),
		}
		assert.Equal(t, 3, selectBest(cands))
	})

	t.Run("nothing stable", func(t *testing.T) {
		cands := []candidate{scored(1, 0, 10, false), scored(0, 1, 11, false)}
		assert.Equal(t, -1, selectBest(cands))
		assert.True(t, anyFeasible(cands))
	})

	t.Run("nothing feasible", func(t *testing.T) {
		cands := []candidate{{p: 0, q: 0, err: errTooFewObservations}}
		assert.Equal(t, -1, selectBest(cands))
		assert.False(t, anyFeasible(cands))
	})
}

func TestEffectiveOrders(t *testing.T) {
	p, q := effectiveOrders(100, 5, 5)
	assert.Equal(t, 5, p)
	assert.Equal(t, 5, q)

	p, q = effectiveOrders(10, 5, 5)
	assert.Equal(t, 3, p)
	assert.Equal(t, 3, q)

	p, q = effectiveOrders(0, 5, 5)
	assert.Zero(t, p)
	assert.Zero(t, q)
}

func TestFitGridKeepsGridOrder(t *testing.T) {
	w := centred(simulateARMA(9, 120, 0.4, 0, 0))

	cands, err := fitGrid(context.Background(), w, gridSpec{maxP: 2, maxQ: 2, includeMean: true, criterion: CriterionBIC, workers: 3})

	require.NoError(t, err)
	require.Len(t, cands, 9)
	i := 0
	for p := 0; p <= 2; p++ {
		for q := 0; q <= 2; q++ {
			assert.Equal(t, p, cands[i].p)
			assert.Equal(t, q, cands[i].q)
			i++
		}
	}
	best := selectBest(cands)
	require.GreaterOrEqual(t, best, 0)
}

func TestFitGridHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fitGrid(ctx, centred(simulateARMA(9, 120, 0.4, 0, 0)), gridSpec{maxP: 2, maxQ: 2})

	assert.ErrorIs(t, err, context.Canceled)
}
