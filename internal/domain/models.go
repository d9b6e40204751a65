// internal/domain/models.go
package domain

import "time"

// Product carries the catalog fields the forecasting engine needs.
type Product struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Category  string    `json:"category" db:"category"`
	Price     float64   `json:"price" db:"price"`
	Stock     int       `json:"stock" db:"stock"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// OrderRecord is a single sale event for a product. Only accepted
// orders count toward sales statistics.
type OrderRecord struct {
	ID        int64     `json:"id" db:"id"`
	ProductID int64     `json:"product_id" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	Synthetic bool      `json:"synthetic" db:"synthetic"`
}

// FeatureVector is the engineered input of the depletion model. It is
// derived per estimate and never persisted on its own.
type FeatureVector struct {
	CurrentStock  float64 `json:"current_stock"`
	AvgDailySales float64 `json:"avg_daily_sales"`
	Category      string  `json:"category"`
	Price         float64 `json:"price"`
	Trend7Days    float64 `json:"trend_7days"`
	SalesVariance float64 `json:"sales_variance"`
}

// TrainingSample pairs a feature vector with the observed (or replayed)
// number of days until the stock ran out.
type TrainingSample struct {
	Features FeatureVector `json:"features"`
	Label    int           `json:"days_until_stockout"`
}

// Forecast is the engine output consumed by the host application.
type Forecast struct {
	ProductID int64       `json:"product_id,omitempty"`
	Days      int         `json:"days"`
	Status    StockStatus `json:"status"`
	ModelDays *int        `json:"model_days,omitempty"`
}

// StockStatus is the qualitative classification of a depletion estimate.
type StockStatus struct {
	Kind     string `json:"kind"`
	Days     int    `json:"days"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}
