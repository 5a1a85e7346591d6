package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/stockcast/backend-go/internal/cache"
	"github.com/andresuchdata/stockcast/backend-go/internal/domain"
	"github.com/andresuchdata/stockcast/backend-go/internal/repository"
)

type TransactionService struct {
	repo  repository.TransactionRepository
	cache cache.DashboardCache
	now   func() time.Time
}

func NewTransactionService(repo repository.TransactionRepository, dashboardCache cache.DashboardCache) *TransactionService {
	if dashboardCache == nil {
		dashboardCache = cache.NewNoopDashboardCache()
	}
	return &TransactionService{repo: repo, cache: dashboardCache, now: time.Now}
}

// Record appends a stock movement and returns the new stock level.
func (s *TransactionService) Record(ctx context.Context, in domain.TransactionInput) (int, error) {
	if err := validateStruct(ctx, in); err != nil {
		return 0, err
	}

	newStock, err := s.repo.Record(ctx, in, s.now())
	if err != nil {
		return 0, err
	}

	log.Info().
		Int64("product_id", in.ProductID).
		Str("type", string(in.TransactionType)).
		Int("quantity", in.Quantity).
		Int("new_stock", newStock).
		Msg("stock transaction recorded")

	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate dashboard cache")
	}

	return newStock, nil
}

// List returns the newest movements first, optionally for one product.
func (s *TransactionService) List(ctx context.Context, productID int64, limit int) ([]domain.StockTransaction, error) {
	return s.repo.List(ctx, productID, limit)
}
