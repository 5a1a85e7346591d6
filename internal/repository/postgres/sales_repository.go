// backend-go/internal/repository/postgres/sales_repository.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/andresuchdata/stockcast/backend-go/internal/domain"
)

type salesRepository struct {
	db *DB
}

func NewSalesRepository(db *DB) *salesRepository {
	return &salesRepository{db: db}
}

func (r *salesRepository) DailySales(ctx context.Context, productID int64, from, to time.Time) ([]domain.DailySales, error) {
	query := `
		SELECT sale_date, SUM(quantity)::DOUBLE PRECISION AS quantity
		FROM sales_history
		WHERE product_id = $1
			AND ($2::DATE IS NULL OR sale_date >= $2::DATE)
			AND ($3::DATE IS NULL OR sale_date <= $3::DATE)
		GROUP BY sale_date
		ORDER BY sale_date ASC
	`

	sales := []domain.DailySales{}
	if err := sqlx.SelectContext(ctx, r.db, &sales, query, productID, nullDate(from), nullDate(to)); err != nil {
		return nil, fmt.Errorf("failed to read sales history for product %d: %w", productID, err)
	}

	return sales, nil
}

type productDailySales struct {
	ProductID int64 `db:"product_id"`
	domain.DailySales
}

func (r *salesRepository) DailySalesByProduct(ctx context.Context) (map[int64][]domain.DailySales, error) {
	query := `
		SELECT product_id, sale_date, SUM(quantity)::DOUBLE PRECISION AS quantity
		FROM sales_history
		GROUP BY product_id, sale_date
		ORDER BY product_id, sale_date
	`

	var rows []productDailySales
	if err := sqlx.SelectContext(ctx, r.db, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to read sales history: %w", err)
	}

	out := make(map[int64][]domain.DailySales)
	for _, row := range rows {
		out[row.ProductID] = append(out[row.ProductID], row.DailySales)
	}

	return out, nil
}

func (r *salesRepository) InsertSales(ctx context.Context, records []domain.SalesRecord) error {
	if len(records) == 0 {
		return nil
	}

	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO sales_history (product_id, sale_date, quantity) VALUES ($1, $2, $3)`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, rec := range records {
			if _, err := stmt.ExecContext(ctx, rec.ProductID, rec.SaleDate, rec.Quantity); err != nil {
				return fmt.Errorf("failed to insert sale for product %d: %w", rec.ProductID, err)
			}
		}

		return nil
	})
}

func nullDate(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.Format(domain.DateLayout)
}
