// backend-go/internal/repository/repository.go
package repository

import (
	"context"
	"time"

	"github.com/andresuchdata/stockcast/backend-go/internal/domain"
)

// ProductRepository owns the product catalogue.
type ProductRepository interface {
	List(ctx context.Context, search string) ([]domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	// GetByCodes returns the products among codes that exist, keyed by code.
	GetByCodes(ctx context.Context, codes []string) (map[string]domain.Product, error)
	Create(ctx context.Context, p *domain.Product) error
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id int64) error
}

// SalesRepository reads and appends daily sales history.
type SalesRepository interface {
	// DailySales returns per-day quantities for a product, ordered by date. Zero
	// from or to leaves that side of the window open.
	DailySales(ctx context.Context, productID int64, from, to time.Time) ([]domain.DailySales, error)
	// DailySalesByProduct returns the full history of every product that has sales.
	DailySalesByProduct(ctx context.Context) (map[int64][]domain.DailySales, error)
	InsertSales(ctx context.Context, records []domain.SalesRecord) error
}

// TransactionRepository appends to the stock movement log.
type TransactionRepository interface {
	// Record applies a movement atomically and returns the resulting stock level.
	Record(ctx context.Context, in domain.TransactionInput, at time.Time) (int, error)
	List(ctx context.Context, productID int64, limit int) ([]domain.StockTransaction, error)
}
