package forecast

import (
	"testing"

	"github.com/andresuchdata/stockforecast/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestEstimate(t *testing.T) {
	tests := []struct {
		name  string
		price float64
		stock int
		stats SalesStats
		want  int
	}{
		{
			name:  "zero stock bypasses everything",
			price: 6.5,
			stock: 0,
			stats: SalesStats{AvgDailySales: 4},
			want:  0,
		},
		{
			// No history: base rate 8/day gives 16 raw days, the 1.5x
			// large-stock multiplier lifts it to 24, above the 19.35 floor.
			name:  "cheap product with large stock and no history",
			price: 6.5,
			stock: 129,
			stats: SalesStats{},
			want:  24,
		},
		{
			// Base rate 0.05/day; the 200-day floor dominates the raw days.
			name:  "very expensive product with tiny stock",
			price: 1250,
			stock: 3,
			stats: SalesStats{},
			want:  200,
		},
		{
			// Raw 14 days, 1.2x multiplier gives 16, the per-unit floor
			// (80*0.3=24) wins.
			name:  "per-unit floor dominates mid tier",
			price: 15,
			stock: 80,
			stats: SalesStats{AvgDailySales: 10},
			want:  24,
		},
		{
			// Observed 100/day is capped at 8.8 before blending, so the
			// noisy history cannot collapse the estimate.
			name:  "real average is capped before blending",
			price: 5,
			stock: 500,
			stats: SalesStats{AvgDailySales: 100},
			want:  85,
		},
		{
			// Expensive and heavily stocked: the 2.0x multiplier applies.
			name:  "expensive large stock gets strong multiplier",
			price: 300,
			stock: 150,
			stats: SalesStats{},
			want:  500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Estimate(tt.price, tt.stock, tt.stats))
		})
	}
}

func TestEstimateNeverNegative(t *testing.T) {
	for _, stock := range []int{0, 1, 10, 100, 1000} {
		for _, price := range []float64{0.5, 9, 35, 180, 750, 5000} {
			got := Estimate(price, stock, SalesStats{AvgDailySales: 2.5})
			assert.GreaterOrEqual(t, got, 0, "price=%v stock=%d", price, stock)
		}
	}
}

func TestEstimateStatus(t *testing.T) {
	days, status := EstimateStatus(6.5, 129, SalesStats{})
	assert.Equal(t, 24, days)
	assert.Equal(t, domain.StockMedium, status.Kind)
	assert.Equal(t, 24, status.Days)

	days, status = EstimateStatus(1250, 3, SalesStats{})
	assert.Equal(t, 200, days)
	assert.Equal(t, domain.StockGood, status.Kind)

	days, status = EstimateStatus(10, 0, SalesStats{})
	assert.Equal(t, 0, days)
	assert.Equal(t, domain.StockOut, status.Kind)
}

func TestTierFor(t *testing.T) {
	assert.Equal(t, 8.0, tierFor(10).BaseDailySales, "band bounds are inclusive")
	assert.Equal(t, 5.0, tierFor(10.01).BaseDailySales)
	assert.Equal(t, 0.05, tierFor(99999).BaseDailySales)
}

func TestQuantityMultiplier(t *testing.T) {
	assert.Equal(t, 1.0, quantityMultiplier(49, 50))
	assert.Equal(t, 1.2, quantityMultiplier(50, 50))
	assert.Equal(t, 1.5, quantityMultiplier(50, 201))
	assert.Equal(t, 1.5, quantityMultiplier(100, 50))
	assert.Equal(t, 2.0, quantityMultiplier(100, 201))
}

func TestEstimateMonotonicInStock(t *testing.T) {
	// One representative price per band.
	prices := []float64{5, 15, 30, 80, 150, 350, 800, 2000}
	stocks := []int{1, 5, 10, 25, 40, 49, 50, 60, 75, 99, 100, 130, 200, 250, 400}

	for _, price := range prices {
		for _, stock := range stocks {
			lower := Estimate(price, stock, SalesStats{})
			higher := Estimate(price, 2*stock, SalesStats{})
			assert.GreaterOrEqual(t, higher, lower,
				"doubling stock must not shorten the estimate (price=%v stock=%d)", price, stock)
		}
	}
}

func TestPriceTiersBaseRateNonIncreasing(t *testing.T) {
	for i := 1; i < len(priceTiers); i++ {
		assert.LessOrEqual(t, priceTiers[i].BaseDailySales, priceTiers[i-1].BaseDailySales,
			"pricier bands must not assume faster sales (band %d)", i)
	}
}
