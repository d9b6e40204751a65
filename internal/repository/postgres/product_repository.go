// internal/repository/postgres/product_repository.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andresuchdata/stockforecast/internal/domain"
	"github.com/jmoiron/sqlx"
)

type productRepository struct {
	db *DB
}

func NewProductRepository(db *DB) *productRepository {
	return &productRepository{db: db}
}

func (r *productRepository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	query := `
		SELECT id, name, category, price, stock, created_at, updated_at
		FROM products
		WHERE id = $1
	`

	var product domain.Product
	if err := sqlx.GetContext(ctx, r.db, &product, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product %d not found", id)
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return &product, nil
}

func (r *productRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	query := `
		SELECT id, name, category, price, stock, created_at, updated_at
		FROM products
		ORDER BY name
	`

	var products []domain.Product
	if err := sqlx.SelectContext(ctx, r.db, &products, query); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return products, nil
}

func (r *productRepository) UpsertProduct(ctx context.Context, p *domain.Product) (int64, error) {
	var id int64
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO products (name, category, price, stock, created_at)
			VALUES ($1, $2, $3, $4, NOW())
			ON CONFLICT (name) DO UPDATE
			SET category = EXCLUDED.category,
				price = EXCLUDED.price,
				stock = EXCLUDED.stock,
				updated_at = NOW()
			RETURNING id
		`
		if err := tx.QueryRowContext(ctx, query, p.Name, p.Category, p.Price, p.Stock).Scan(&id); err != nil {
			return fmt.Errorf("failed to upsert product: %w", err)
		}
		return nil
	})
	return id, err
}
