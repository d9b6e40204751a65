package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidOrderStatus(t *testing.T) {
	assert.True(t, ValidOrderStatus("pending"))
	assert.True(t, ValidOrderStatus("accepted"))
	assert.True(t, ValidOrderStatus("Rejected"), "status check is case-insensitive")
	assert.False(t, ValidOrderStatus("shipped"))
	assert.False(t, ValidOrderStatus(""))
}

func TestClassifyStock(t *testing.T) {
	tests := []struct {
		name         string
		stock        int
		days         int
		wantKind     string
		wantSeverity string
	}{
		{name: "zero stock is always out", stock: 0, days: 120, wantKind: StockOut, wantSeverity: "danger"},
		{name: "at low threshold", stock: 12, days: 7, wantKind: StockLow, wantSeverity: "danger"},
		{name: "below low threshold", stock: 3, days: 1, wantKind: StockLow, wantSeverity: "danger"},
		{name: "at medium threshold", stock: 80, days: 30, wantKind: StockMedium, wantSeverity: "warning"},
		{name: "above medium threshold", stock: 80, days: 31, wantKind: StockGood, wantSeverity: "success"},
		{name: "long horizon", stock: 500, days: 999, wantKind: StockGood, wantSeverity: "success"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := ClassifyStock(tt.stock, tt.days)
			assert.Equal(t, tt.wantKind, status.Kind)
			assert.Equal(t, tt.wantSeverity, status.Severity)
			assert.NotEmpty(t, status.Message)
		})
	}
}

func TestClassifyStockOutZeroesDays(t *testing.T) {
	status := ClassifyStock(0, 45)
	assert.Equal(t, 0, status.Days)
	assert.Equal(t, "Out of stock", status.Message)
}
