package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/andresuchdata/stockcast/backend-go/internal/cache"
	"github.com/andresuchdata/stockcast/backend-go/internal/domain"
	"github.com/andresuchdata/stockcast/backend-go/internal/forecast"
	"github.com/andresuchdata/stockcast/backend-go/internal/replenishment"
	"github.com/andresuchdata/stockcast/backend-go/internal/repository"
)

type DashboardService struct {
	products repository.ProductRepository
	sales    repository.SalesRepository
	calc     *replenishment.Calculator
	cache    cache.DashboardCache
}

func NewDashboardService(
	products repository.ProductRepository,
	sales repository.SalesRepository,
	calc *replenishment.Calculator,
	dashboardCache cache.DashboardCache,
) *DashboardService {
	if dashboardCache == nil {
		dashboardCache = cache.NewNoopDashboardCache()
	}
	return &DashboardService{products: products, sales: sales, calc: calc, cache: dashboardCache}
}

// Summary returns headline inventory figures, served from cache when fresh.
func (s *DashboardService) Summary(ctx context.Context) (*domain.DashboardSummary, error) {
	if cached, ok, err := s.cache.GetSummary(ctx); err != nil {
		log.Warn().Err(err).Msg("dashboard cache read failed")
	} else if ok {
		return cached, nil
	}

	start := time.Now()
	summary, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetSummary(ctx, summary); err != nil {
		log.Warn().Err(err).Msg("dashboard cache write failed")
	}

	log.Debug().
		Int("products", summary.TotalProducts).
		Int("low_stock", summary.LowStockCount).
		Dur("duration", time.Since(start)).
		Msg("dashboard summary computed")

	return summary, nil
}

func (s *DashboardService) compute(ctx context.Context) (*domain.DashboardSummary, error) {
	products, err := s.products.List(ctx, "")
	if err != nil {
		return nil, err
	}
	history, err := s.sales.DailySalesByProduct(ctx)
	if err != nil {
		return nil, err
	}

	summary := &domain.DashboardSummary{
		TotalProducts:    len(products),
		LowStockProducts: make([]domain.LowStockProduct, 0),
	}
	value := decimal.Zero

	for _, p := range products {
		value = value.Add(decimal.NewFromFloat(p.UnitCost).Mul(decimal.NewFromInt(int64(p.CurrentStock))))

		series, _ := forecast.BuildDailySeries(history[p.ID], time.Time{}, time.Time{})
		m, err := s.calc.Calculate(replenishment.Stats(series.Values), p)
		if err != nil {
			log.Debug().Err(err).Str("code", p.Code).Msg("skipping product with invalid parameters")
			continue
		}
		if m.StockStatus != domain.StockNeedsReorder {
			continue
		}

		summary.LowStockProducts = append(summary.LowStockProducts, domain.LowStockProduct{
			ID:           p.ID,
			Code:         p.Code,
			Name:         p.Name,
			Unit:         p.Unit,
			CurrentStock: p.CurrentStock,
			ReorderPoint: m.ReorderPoint,
			EOQ:          m.EOQ,
		})
	}

	summary.LowStockCount = len(summary.LowStockProducts)
	summary.TotalStockValue = value.Round(2).InexactFloat64()

	return summary, nil
}
