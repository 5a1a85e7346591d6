// backend-go/internal/repository/postgres/transaction_repository.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/andresuchdata/stockcast/backend-go/internal/domain"
)

type transactionRepository struct {
	db *DB
}

func NewTransactionRepository(db *DB) *transactionRepository {
	return &transactionRepository{db: db}
}

// Record locks the product row, applies the movement and appends it to the log. An
// outbound movement also lands in sales_history for its calendar day.
func (r *transactionRepository) Record(ctx context.Context, in domain.TransactionInput, at time.Time) (int, error) {
	var newStock int

	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		var current int
		err := tx.QueryRowxContext(ctx,
			`SELECT current_stock FROM products WHERE id = $1 FOR UPDATE`, in.ProductID,
		).Scan(&current)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: product %d", domain.ErrNotFound, in.ProductID)
			}
			return fmt.Errorf("failed to lock product %d: %w", in.ProductID, err)
		}

		newStock = in.TransactionType.Apply(current, in.Quantity)
		if newStock < 0 {
			return fmt.Errorf("%w: %d on hand, %d requested", domain.ErrInsufficientStock, current, in.Quantity)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO stock_transactions (product_id, transaction_type, quantity, transaction_date, note)
			VALUES ($1, $2, $3, $4, $5)`,
			in.ProductID, in.TransactionType, in.Quantity, at, in.Note,
		); err != nil {
			return fmt.Errorf("failed to append transaction: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE products SET current_stock = $2 WHERE id = $1`, in.ProductID, newStock,
		); err != nil {
			return fmt.Errorf("failed to update stock: %w", err)
		}

		if in.TransactionType == domain.TransactionOut {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO sales_history (product_id, sale_date, quantity) VALUES ($1, $2, $3)`,
				in.ProductID, at.Format(domain.DateLayout), in.Quantity,
			); err != nil {
				return fmt.Errorf("failed to record sale: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return newStock, nil
}

func (r *transactionRepository) List(ctx context.Context, productID int64, limit int) ([]domain.StockTransaction, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}

	query := `
		SELECT t.id, t.product_id, p.code AS product_code, p.name AS product_name,
			t.transaction_type, t.quantity, t.transaction_date, t.note
		FROM stock_transactions t
		JOIN products p ON p.id = t.product_id
		WHERE ($1 = 0 OR t.product_id = $1)
		ORDER BY t.transaction_date DESC, t.id DESC
		LIMIT $2
	`

	txs := []domain.StockTransaction{}
	if err := sqlx.SelectContext(ctx, r.db, &txs, query, productID, limit); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	return txs, nil
}
