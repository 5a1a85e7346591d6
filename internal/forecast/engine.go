package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/andresuchdata/stockcast/backend-go/internal/domain"
)

// Config controls model search and projection. The zero value is not usable; start
// from DefaultConfig.
type Config struct {
	// MinHistoryDays is the minimum number of distinct days with sales.
	MinHistoryDays int
	// MaxWindowDays bounds the calendar span of the history a forecast is fitted on.
	MaxWindowDays int
	// MinHorizon and MaxHorizon bound the accepted forecast horizon in days.
	MinHorizon int
	MaxHorizon int
	// MaxP, MaxQ and MaxD bound the ARIMA order grid.
	MaxP int
	MaxQ int
	MaxD int
	// Criterion is CriterionAIC or CriterionBIC.
	Criterion string
	// ConfidenceLevel of the two-sided forecast intervals.
	ConfidenceLevel float64
	// FallbackWindow is the moving-average window used when no ARIMA candidate is usable.
	FallbackWindow int
	// FitTimeout bounds the whole order search.
	FitTimeout time.Duration
	// MaxEvaluations bounds objective evaluations per candidate refinement; 0 keeps the
	// Hannan-Rissanen estimates.
	MaxEvaluations int
	// Workers bounds concurrently fitted candidates; 0 means unbounded.
	Workers int
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		MinHistoryDays:  14,
		MaxWindowDays:   3650,
		MinHorizon:      7,
		MaxHorizon:      90,
		MaxP:            5,
		MaxQ:            5,
		MaxD:            2,
		Criterion:       CriterionAIC,
		ConfidenceLevel: 0.95,
		FallbackWindow:  7,
		FitTimeout:      10 * time.Second,
		MaxEvaluations:  1000,
		Workers:         4,
	}
}

// Option customises an Engine.
type Option func(*Engine)

// WithStationarityTest replaces the ADF test used to choose the differencing order.
func WithStationarityTest(test StationarityTest) Option {
	return func(e *Engine) {
		e.stationarity = test
	}
}

// Engine fits ARIMA models to daily demand and projects them forward.
// It holds no per-request state and is safe for concurrent use.
type Engine struct {
	cfg          Config
	stationarity StationarityTest
}

// Result is a forecast together with its quality signals.
type Result struct {
	Series              domain.ForecastSeries
	Warnings            []string
	Degraded            bool
	CandidatesEvaluated int
}

// NewEngine creates an engine.
func NewEngine(cfg Config, opts ...Option) *Engine {
	e := &Engine{cfg: cfg, stationarity: ADFTest}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// ValidateHorizon rejects horizons outside the configured range.
func (e *Engine) ValidateHorizon(h int) error {
	if h < e.cfg.MinHorizon || h > e.cfg.MaxHorizon {
		return fmt.Errorf("%w: periods must be between %d and %d, got %d",
			domain.ErrInvalidArgument, e.cfg.MinHorizon, e.cfg.MaxHorizon, h)
	}
	return nil
}

// Forecast projects demand horizon days past the end of series.
func (e *Engine) Forecast(ctx context.Context, series DemandSeries, horizon int) (*Result, error) {
	if err := e.ValidateHorizon(horizon); err != nil {
		return nil, err
	}
	if e.cfg.MaxWindowDays > 0 && series.Len() > e.cfg.MaxWindowDays {
		return nil, fmt.Errorf("%w: history spans %d days, at most %d allowed",
			domain.ErrInvalidArgument, series.Len(), e.cfg.MaxWindowDays)
	}
	if days := saleDays(series.Values); series.Len() == 0 || days < e.cfg.MinHistoryDays {
		return nil, fmt.Errorf("%w: %d days with sales, need %d",
			domain.ErrInsufficientHistory, days, e.cfg.MinHistoryDays)
	}

	fitCtx, cancel := context.WithTimeout(ctx, e.cfg.FitTimeout)
	defer cancel()

	res := &Result{}
	diff, err := Differencer{MaxD: e.cfg.MaxD, Test: e.stationarity}.Select(fitCtx, series.Values)
	if err != nil {
		return nil, e.searchError(err)
	}
	if !diff.Stationary {
		res.Warnings = append(res.Warnings, domain.WarningNonStationary)
	}

	// level mean when d = 0, drift when d = 1
	includeMean := diff.D <= 1
	mu := 0.0
	if includeMean {
		mu = stat.Mean(diff.Series, nil)
	}
	wc := make([]float64, len(diff.Series))
	for i, v := range diff.Series {
		wc[i] = v - mu
	}

	cands, err := fitGrid(fitCtx, wc, gridSpec{
		maxP:        e.cfg.MaxP,
		maxQ:        e.cfg.MaxQ,
		includeMean: includeMean,
		criterion:   e.cfg.Criterion,
		workers:     e.cfg.Workers,
		fit:         fitSettings{maxEvaluations: e.cfg.MaxEvaluations},
	})
	if err != nil {
		return nil, e.searchError(err)
	}
	for _, c := range cands {
		if c.err == nil && c.model != nil {
			res.CandidatesEvaluated++
		}
	}

	var means, stdErr []float64
	out := domain.ForecastSeries{ConfidenceLevel: e.cfg.ConfidenceLevel}

	if best := selectBest(cands); best >= 0 {
		c := cands[best]
		means, stdErr = projectARIMA(diff, wc, mu, c.model, horizon)
		out.Params = domain.ARIMAParams{P: c.p, D: diff.D, Q: c.q}
		out.Method = domain.MethodARIMA
		out.Criterion = domain.Criterion{Name: e.cfg.Criterion, Value: c.score}
	} else {
		warning := domain.WarningNoStableModel
		if !anyFeasible(cands) {
			warning = domain.WarningNoFeasibleCandidate
		}
		res.Warnings = append(res.Warnings, warning)

		ma := fitMovingAverage(series.Values, e.cfg.FallbackWindow)
		means, stdErr = ma.project(horizon)
		out.Params = domain.ARIMAParams{}
		out.Method = domain.MethodMovingAverage
		out.Criterion = domain.Criterion{Name: "none"}
	}

	out.Points = buildPoints(series.End().AddDate(0, 0, 1), means, stdErr, e.cfg.ConfidenceLevel)
	res.Series = out
	res.Degraded = len(res.Warnings) > 0

	return res, nil
}

// searchError maps an expired fit deadline onto ErrForecastTimeout.
func (e *Engine) searchError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: order search exceeded %s", domain.ErrForecastTimeout, e.cfg.FitTimeout)
	}
	return err
}

func saleDays(values []float64) int {
	n := 0
	for _, v := range values {
		if v > 0 {
			n++
		}
	}
	return n
}
