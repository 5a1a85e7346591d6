// backend-go/internal/repository/postgres/product_repository.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/andresuchdata/stockcast/backend-go/internal/domain"
)

const productColumns = `
	id, code, name, category, unit, unit_cost, ordering_cost,
	holding_cost_percentage, lead_time_days, current_stock, created_at`

type productRepository struct {
	db *DB
}

func NewProductRepository(db *DB) *productRepository {
	return &productRepository{db: db}
}

func (r *productRepository) List(ctx context.Context, search string) ([]domain.Product, error) {
	query := `SELECT` + productColumns + `
		FROM products
		WHERE ($1 = '' OR code ILIKE '%' || $1 || '%' OR name ILIKE '%' || $1 || '%'
			OR COALESCE(category, '') ILIKE '%' || $1 || '%')
		ORDER BY code ASC
	`

	products := []domain.Product{}
	if err := sqlx.SelectContext(ctx, r.db, &products, query, search); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return products, nil
}

func (r *productRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT` + productColumns + ` FROM products WHERE id = $1`

	var p domain.Product
	if err := sqlx.GetContext(ctx, r.db, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: product %d", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}

	return &p, nil
}

func (r *productRepository) GetByCodes(ctx context.Context, codes []string) (map[string]domain.Product, error) {
	out := make(map[string]domain.Product, len(codes))
	if len(codes) == 0 {
		return out, nil
	}

	query := `SELECT` + productColumns + ` FROM products WHERE code = ANY($1)`

	var products []domain.Product
	if err := sqlx.SelectContext(ctx, r.db, &products, query, pq.Array(codes)); err != nil {
		return nil, fmt.Errorf("failed to look up product codes: %w", err)
	}
	for _, p := range products {
		out[p.Code] = p
	}

	return out, nil
}

func (r *productRepository) Create(ctx context.Context, p *domain.Product) error {
	query := `
		INSERT INTO products (
			code, name, category, unit, unit_cost, ordering_cost,
			holding_cost_percentage, lead_time_days, current_stock
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		p.Code, p.Name, p.Category, p.Unit, p.UnitCost, p.OrderingCost,
		p.HoldingCostPercentage, p.LeadTimeDays, p.CurrentStock,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		if sqlState(err) == codeUniqueViolation {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateCode, p.Code)
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update writes the editable fields. Stock is only changed through transactions.
func (r *productRepository) Update(ctx context.Context, p *domain.Product) error {
	query := `
		UPDATE products SET
			name = $2, category = $3, unit = $4, unit_cost = $5, ordering_cost = $6,
			holding_cost_percentage = $7, lead_time_days = $8
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Category, p.Unit, p.UnitCost, p.OrderingCost,
		p.HoldingCostPercentage, p.LeadTimeDays,
	)
	if err != nil {
		return fmt.Errorf("failed to update product %d: %w", p.ID, err)
	}

	return expectOneRow(res, p.ID)
}

func (r *productRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if sqlState(err) == codeForeignKeyViolation {
			return fmt.Errorf("%w: product %d", domain.ErrProductInUse, id)
		}
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}

	return expectOneRow(res, id)
}

func expectOneRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: product %d", domain.ErrNotFound, id)
	}
	return nil
}
