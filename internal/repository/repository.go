package repository

import (
	"context"
	"time"

	"github.com/andresuchdata/stockforecast/internal/domain"
)

// ProductRepository exposes the catalog fields the forecasting engine
// needs. Anything beyond category/price/stock belongs to the host
// application.
type ProductRepository interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	UpsertProduct(ctx context.Context, p *domain.Product) (int64, error)
}

// OrderRepository stores and reads the order records that feed sales
// statistics and training.
type OrderRepository interface {
	OrderHistory(ctx context.Context, productID int64, since time.Time) ([]domain.OrderRecord, error)
	CountAccepted(ctx context.Context, productID int64, since time.Time) (int, error)
	InsertOrders(ctx context.Context, orders []domain.OrderRecord) error
	DeleteSynthetic(ctx context.Context, productID int64) error
}
