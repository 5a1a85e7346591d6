package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/stockcast/backend-go/internal/cache"
	"github.com/andresuchdata/stockcast/backend-go/internal/domain"
	"github.com/andresuchdata/stockcast/backend-go/internal/repository"
)

// Defaults applied to optional fields when a product is created.
const (
	DefaultUnit                  = "ขวด"
	DefaultOrderingCost          = 500.0
	DefaultHoldingCostPercentage = 0.2
	DefaultLeadTimeDays          = 7
)

type ProductService struct {
	repo  repository.ProductRepository
	cache cache.DashboardCache
}

func NewProductService(repo repository.ProductRepository, dashboardCache cache.DashboardCache) *ProductService {
	if dashboardCache == nil {
		dashboardCache = cache.NewNoopDashboardCache()
	}
	return &ProductService{repo: repo, cache: dashboardCache}
}

// List returns products whose code, name or category matches search.
func (s *ProductService) List(ctx context.Context, search string) ([]domain.Product, error) {
	return s.repo.List(ctx, strings.TrimSpace(search))
}

func (s *ProductService) Get(ctx context.Context, id int64) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// Create validates the input, fills defaults and stores the product.
func (s *ProductService) Create(ctx context.Context, in domain.ProductInput) (*domain.Product, error) {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(ctx, in); err != nil {
		return nil, err
	}

	p := &domain.Product{
		Code:                  in.Code,
		Name:                  in.Name,
		Category:              in.Category,
		Unit:                  DefaultUnit,
		UnitCost:              in.UnitCost,
		OrderingCost:          DefaultOrderingCost,
		HoldingCostPercentage: DefaultHoldingCostPercentage,
		LeadTimeDays:          DefaultLeadTimeDays,
		CurrentStock:          in.CurrentStock,
	}
	if in.Unit != nil && strings.TrimSpace(*in.Unit) != "" {
		p.Unit = strings.TrimSpace(*in.Unit)
	}
	if in.OrderingCost != nil {
		p.OrderingCost = *in.OrderingCost
	}
	if in.HoldingCostPercentage != nil {
		p.HoldingCostPercentage = *in.HoldingCostPercentage
	}
	if in.LeadTimeDays != nil {
		p.LeadTimeDays = *in.LeadTimeDays
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	return p, nil
}

// Update applies the non-nil fields of upd. Stock is only changed through transactions.
func (s *ProductService) Update(ctx context.Context, id int64, upd domain.ProductUpdate) (*domain.Product, error) {
	if err := validateStruct(ctx, upd); err != nil {
		return nil, err
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil && strings.TrimSpace(*upd.Name) != "" {
		p.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Category != nil {
		p.Category = upd.Category
	}
	if upd.Unit != nil && strings.TrimSpace(*upd.Unit) != "" {
		p.Unit = strings.TrimSpace(*upd.Unit)
	}
	if upd.UnitCost != nil {
		p.UnitCost = *upd.UnitCost
	}
	if upd.OrderingCost != nil {
		p.OrderingCost = *upd.OrderingCost
	}
	if upd.HoldingCostPercentage != nil {
		p.HoldingCostPercentage = *upd.HoldingCostPercentage
	}
	if upd.LeadTimeDays != nil {
		p.LeadTimeDays = *upd.LeadTimeDays
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *ProductService) invalidate(ctx context.Context) {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate dashboard cache")
	}
}
