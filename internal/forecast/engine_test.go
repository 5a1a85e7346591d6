package forecast

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/stockcast/backend-go/internal/domain"
)

func assertWellFormed(t *testing.T, s domain.ForecastSeries, horizon int) {
	t.Helper()
	require.Equal(t, horizon, s.Len())
	assert.Len(t, s.Dates(), horizon)
	assert.Len(t, s.Values(), horizon)
	assert.Len(t, s.Intervals(), horizon)
	for i := 0; i < s.Len(); i++ {
		p := s.At(i)
		assert.GreaterOrEqual(t, p.Lower, 0.0, "lower at %d", i)
		assert.LessOrEqual(t, p.Lower, p.Value, "lower <= value at %d", i)
		assert.LessOrEqual(t, p.Value, p.Upper, "value <= upper at %d", i)
		assert.False(t, math.IsNaN(p.Value) || math.IsInf(p.Upper, 0))
		if i > 0 {
			assert.Equal(t, s.At(i-1).Date.AddDate(0, 0, 1), p.Date)
		}
	}
}

func TestForecastConstantDemand(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	series := demandSeries(constantSeries(20, 30))

	res, err := engine.Forecast(context.Background(), series, 30)

	require.NoError(t, err)
	assertWellFormed(t, res.Series, 30)
	assert.Equal(t, domain.ARIMAParams{P: 0, D: 0, Q: 0}, res.Series.Params)
	assert.Equal(t, domain.MethodARIMA, res.Series.Method)
	assert.False(t, res.Degraded)
	assert.Empty(t, res.Warnings)
	for _, v := range res.Series.Values() {
		assert.InDelta(t, 20.0, v, 1e-6)
	}
	assert.Equal(t, "2024-01-31", res.Series.Dates()[0])
}

func TestForecastNoisyDemandIsWellFormed(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	series := demandSeries(simulateARMA(21, 120, 0.6, 0.2, 15))

	for _, h := range []int{7, 30, 90} {
		res, err := engine.Forecast(context.Background(), series, h)
		require.NoError(t, err)
		assertWellFormed(t, res.Series, h)
		assert.Equal(t, 0.95, res.Series.ConfidenceLevel)
		assert.Positive(t, res.CandidatesEvaluated)
	}
}

func TestForecastIntermittentDemandClampsAtZero(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	values := make([]float64, 90)
	for i := range values {
		if rng.Float64() < 0.3 {
			values[i] = float64(1 + rng.Intn(3))
		}
	}

	res, err := NewEngine(DefaultConfig()).Forecast(context.Background(), demandSeries(values), 60)

	require.NoError(t, err)
	assertWellFormed(t, res.Series, 60)
}

func TestForecastIsDeterministic(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	series := demandSeries(simulateARMA(8, 200, 0.5, -0.3, 30))

	first, err := engine.Forecast(context.Background(), series, 45)
	require.NoError(t, err)
	second, err := engine.Forecast(context.Background(), series, 45)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestForecastTrendingDemandIsDifferenced(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	values := make([]float64, 300)
	level := 50.0
	for i := range values {
		level += 1 + rng.NormFloat64()
		values[i] = level
	}

	res, err := NewEngine(DefaultConfig()).Forecast(context.Background(), demandSeries(values), 14)

	require.NoError(t, err)
	assert.Equal(t, 1, res.Series.Params.D)
	assertWellFormed(t, res.Series, 14)
	assert.Greater(t, res.Series.At(13).Value, values[len(values)-1])
}

func TestForecastFlagsNonStationarySeries(t *testing.T) {
	never := func(context.Context, []float64) (bool, error) { return false, nil }
	engine := NewEngine(DefaultConfig(), WithStationarityTest(never))

	res, err := engine.Forecast(context.Background(), demandSeries(simulateARMA(13, 80, 0.3, 0, 20)), 10)

	require.NoError(t, err)
	if res.Series.Method == domain.MethodARIMA {
		assert.Equal(t, 2, res.Series.Params.D)
	}
	assert.True(t, res.Degraded)
	assert.Contains(t, res.Warnings, domain.WarningNonStationary)
	assertWellFormed(t, res.Series, 10)
}

func TestForecastRejectsHorizon(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	series := demandSeries(constantSeries(20, 30))

	for _, h := range []int{0, 6, 91, 150} {
		_, err := engine.Forecast(context.Background(), series, h)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument, "horizon %d", h)
	}
	assert.NoError(t, engine.ValidateHorizon(7))
	assert.NoError(t, engine.ValidateHorizon(90))
}

func TestForecastRejectsOverlongWindow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxWindowDays = 60

	_, err := NewEngine(cfg).Forecast(context.Background(), demandSeries(constantSeries(20, 61)), 7)

	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestForecastInsufficientHistory(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	_, err := engine.Forecast(context.Background(), demandSeries(constantSeries(20, 5)), 30)
	assert.ErrorIs(t, err, domain.ErrInsufficientHistory)

	_, err = engine.Forecast(context.Background(), DemandSeries{}, 30)
	assert.ErrorIs(t, err, domain.ErrInsufficientHistory)

	// plenty of days but only ten of them with sales
	values := make([]float64, 60)
	for i := 0; i < 10; i++ {
		values[i*6] = 3
	}
	_, err = engine.Forecast(context.Background(), demandSeries(values), 30)
	assert.ErrorIs(t, err, domain.ErrInsufficientHistory)
}

func TestForecastTimeout(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := engine.Forecast(ctx, demandSeries(simulateARMA(1, 100, 0.5, 0, 10)), 30)

	assert.ErrorIs(t, err, domain.ErrForecastTimeout)
}

func TestForecastTimeoutCoversDifferencing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FitTimeout = 100 * time.Millisecond
	cfg.MaxWindowDays = 0
	engine := NewEngine(cfg)

	// decades of daily random walk: the ADF lag search alone outlasts the budget
	rng := rand.New(rand.NewSource(17))
	values := make([]float64, 40000)
	level := 50.0
	for i := range values {
		level += rng.NormFloat64()
		values[i] = math.Max(1, level)
	}

	start := time.Now()
	_, err := engine.Forecast(context.Background(), demandSeries(values), 30)

	assert.ErrorIs(t, err, domain.ErrForecastTimeout)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestForecastStationarityTestSeesDeadline(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FitTimeout = 10 * time.Millisecond
	blocking := func(ctx context.Context, _ []float64) (bool, error) {
		<-ctx.Done()
		return false, ctx.Err()
	}

	_, err := NewEngine(cfg, WithStationarityTest(blocking)).
		Forecast(context.Background(), demandSeries(constantSeries(20, 30)), 7)

	assert.ErrorIs(t, err, domain.ErrForecastTimeout)
}

func TestForecastFallsBackWhenNoCandidateFits(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinHistoryDays = 1
	engine := NewEngine(cfg, WithStationarityTest(func(context.Context, []float64) (bool, error) { return false, nil }))

	// three points leave two differences: nothing is estimable
	res, err := engine.Forecast(context.Background(), demandSeries([]float64{4, 9, 5}), 7)

	require.NoError(t, err)
	assert.Equal(t, domain.MethodMovingAverage, res.Series.Method)
	assert.True(t, res.Degraded)
	assert.Contains(t, res.Warnings, domain.WarningNoFeasibleCandidate)
	assert.Zero(t, res.CandidatesEvaluated)
	assertWellFormed(t, res.Series, 7)
	assert.InDelta(t, 6.0, res.Series.At(0).Value, 1e-12)
}
