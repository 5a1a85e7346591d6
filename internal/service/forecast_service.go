package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/andresuchdata/stockcast/backend-go/internal/domain"
	"github.com/andresuchdata/stockcast/backend-go/internal/forecast"
	"github.com/andresuchdata/stockcast/backend-go/internal/metrics"
	"github.com/andresuchdata/stockcast/backend-go/internal/replenishment"
	"github.com/andresuchdata/stockcast/backend-go/internal/repository"
	"github.com/andresuchdata/stockcast/backend-go/pkg/telemetry"
)

// ForecastRequest identifies the product, horizon and optional history window.
type ForecastRequest struct {
	ProductID int64
	Periods   int
	From      time.Time
	To        time.Time
}

type ForecastService struct {
	products repository.ProductRepository
	history  *DemandHistoryReader
	engine   *forecast.Engine
	calc     *replenishment.Calculator
	metrics  metrics.Recorder
	tracer   trace.Tracer
}

func NewForecastService(
	products repository.ProductRepository,
	sales repository.SalesRepository,
	engine *forecast.Engine,
	calc *replenishment.Calculator,
	recorder metrics.Recorder,
) *ForecastService {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &ForecastService{
		products: products,
		history:  NewDemandHistoryReader(sales, engine.Config().MinHistoryDays, engine.Config().MaxWindowDays),
		engine:   engine,
		calc:     calc,
		metrics:  recorder,
		tracer:   telemetry.Tracer(),
	}
}

// Forecast runs the full request: validation, history read, model fit and
// replenishment metrics. Model degradation is reported in the response, not as an error.
func (s *ForecastService) Forecast(ctx context.Context, req ForecastRequest) (*domain.ForecastResponse, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "forecast.request", trace.WithAttributes(
		attribute.Int64("product.id", req.ProductID),
		attribute.Int("forecast.periods", req.Periods),
	))
	defer span.End()

	resp, err := s.forecast(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metrics.RecordForecastOutcome(ErrorKind(err))
		log.Warn().Err(err).Int64("product_id", req.ProductID).Int("periods", req.Periods).Msg("forecast failed")
		return nil, err
	}

	outcome := metrics.OutcomeOK
	if resp.ModelDegraded {
		outcome = metrics.OutcomeDegraded
	}
	s.metrics.RecordForecastOutcome(outcome)
	s.metrics.ObserveForecast(resp.Forecast.Method, time.Since(start).Seconds())

	params := resp.Forecast.Params
	span.SetAttributes(
		attribute.String("forecast.method", resp.Forecast.Method),
		attribute.Bool("forecast.degraded", resp.ModelDegraded),
	)
	log.Info().
		Int64("product_id", req.ProductID).
		Int("periods", req.Periods).
		Str("method", resp.Forecast.Method).
		Ints("order", []int{params.P, params.D, params.Q}).
		Bool("degraded", resp.ModelDegraded).
		Dur("duration", time.Since(start)).
		Msg("forecast computed")

	return resp, nil
}

func (s *ForecastService) forecast(ctx context.Context, req ForecastRequest) (*domain.ForecastResponse, error) {
	if err := s.engine.ValidateHorizon(req.Periods); err != nil {
		return nil, err
	}

	product, err := s.products.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if err := replenishment.ValidateProduct(*product); err != nil {
		return nil, err
	}

	readCtx, readSpan := s.tracer.Start(ctx, "forecast.read_history")
	series, err := s.history.Read(readCtx, req.ProductID, req.From, req.To)
	readSpan.End()
	if err != nil {
		return nil, err
	}

	fitCtx, fitSpan := s.tracer.Start(ctx, "forecast.fit")
	result, err := s.engine.Forecast(fitCtx, series, req.Periods)
	if result != nil {
		fitSpan.SetAttributes(attribute.Int("forecast.candidates", result.CandidatesEvaluated))
	}
	fitSpan.End()
	if err != nil {
		return nil, err
	}

	_, replSpan := s.tracer.Start(ctx, "forecast.replenishment")
	metricsOut, err := s.calc.Calculate(replenishment.Stats(series.Values), *product)
	replSpan.End()
	if err != nil {
		return nil, err
	}

	return AssembleForecastResponse(*product, result, metricsOut), nil
}

// ErrorKind labels an error for metrics.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInsufficientHistory):
		return "insufficient_history"
	case errors.Is(err, domain.ErrInvalidProductParameters):
		return "invalid_product_parameters"
	case errors.Is(err, domain.ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, domain.ErrForecastTimeout):
		return "timeout"
	default:
		return "error"
	}
}
