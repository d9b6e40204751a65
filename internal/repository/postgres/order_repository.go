// internal/repository/postgres/order_repository.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/andresuchdata/stockforecast/internal/domain"
	"github.com/jmoiron/sqlx"
)

type orderRepository struct {
	db *DB
}

func NewOrderRepository(db *DB) *orderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) OrderHistory(ctx context.Context, productID int64, since time.Time) ([]domain.OrderRecord, error) {
	query := `
		SELECT id, product_id, quantity, status, created_at, synthetic
		FROM orders
		WHERE product_id = $1 AND created_at >= $2
		ORDER BY created_at ASC
	`

	var orders []domain.OrderRecord
	if err := sqlx.SelectContext(ctx, r.db, &orders, query, productID, since); err != nil {
		return nil, fmt.Errorf("failed to load order history: %w", err)
	}

	return orders, nil
}

func (r *orderRepository) CountAccepted(ctx context.Context, productID int64, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM orders
		WHERE product_id = $1 AND status = $2 AND created_at >= $3
	`

	var count int
	if err := sqlx.GetContext(ctx, r.db, &count, query, productID, domain.OrderAccepted, since); err != nil {
		return 0, fmt.Errorf("failed to count accepted orders: %w", err)
	}

	return count, nil
}

func (r *orderRepository) InsertOrders(ctx context.Context, orders []domain.OrderRecord) error {
	if len(orders) == 0 {
		return nil
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO orders (product_id, quantity, status, created_at, synthetic)
			VALUES ($1, $2, $3, $4, $5)
		`

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, o := range orders {
			if _, err := stmt.ExecContext(ctx, o.ProductID, o.Quantity, o.Status, o.CreatedAt, o.Synthetic); err != nil {
				return fmt.Errorf("failed to insert order: %w", err)
			}
		}

		return nil
	})
}

func (r *orderRepository) DeleteSynthetic(ctx context.Context, productID int64) error {
	query := `DELETE FROM orders WHERE product_id = $1 AND synthetic = TRUE`
	if _, err := r.db.ExecContext(ctx, query, productID); err != nil {
		return fmt.Errorf("failed to delete synthetic orders: %w", err)
	}
	return nil
}
