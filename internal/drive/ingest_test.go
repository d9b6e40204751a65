package drive

import (
	"context"
	"testing"
	"time"

	"github.com/andresuchdata/stockforecast/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProducts struct {
	nextID  int64
	upserts []domain.Product
}

func (f *fakeProducts) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return nil, nil
}

func (f *fakeProducts) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return nil, nil
}

func (f *fakeProducts) UpsertProduct(ctx context.Context, p *domain.Product) (int64, error) {
	f.nextID++
	f.upserts = append(f.upserts, *p)
	return f.nextID, nil
}

func ingestColumns() map[string]int {
	return map[string]int{
		"product_name": 0,
		"category":     1,
		"price":        2,
		"stock":        3,
		"quantity":     4,
		"status":       5,
		"created_at":   6,
	}
}

func TestProcessRow(t *testing.T) {
	products := &fakeProducts{}
	svc := &IngestService{products: products}

	report := &IngestReport{}
	seen := map[string]int64{}

	record := []string{"Nitrile Gloves (box)", "medical_consumables", "6.5", "129", "3", "accepted", "2026-02-10 14:30:00"}
	order, err := svc.processRow(context.Background(), record, ingestColumns(), seen, report)
	require.NoError(t, err)

	assert.Equal(t, int64(1), order.ProductID)
	assert.Equal(t, 3, order.Quantity)
	assert.Equal(t, domain.OrderAccepted, order.Status)
	assert.Equal(t, time.Date(2026, 2, 10, 14, 30, 0, 0, time.UTC), order.CreatedAt)
	assert.False(t, order.Synthetic)

	require.Len(t, products.upserts, 1)
	assert.Equal(t, "Nitrile Gloves (box)", products.upserts[0].Name)
	assert.Equal(t, 6.5, products.upserts[0].Price)
	assert.Equal(t, 129, products.upserts[0].Stock)
	assert.Equal(t, 1, report.Products)

	// A second row for the same product reuses the cached id.
	record2 := []string{"Nitrile Gloves (box)", "medical_consumables", "6.5", "129", "1", "rejected", "2026-02-11T09:00:00Z"}
	order2, err := svc.processRow(context.Background(), record2, ingestColumns(), seen, report)
	require.NoError(t, err)
	assert.Equal(t, int64(1), order2.ProductID)
	assert.Len(t, products.upserts, 1)
	assert.Equal(t, 1, report.Products)
}

func TestProcessRowRejectsBadRows(t *testing.T) {
	svc := &IngestService{products: &fakeProducts{}}
	report := &IngestReport{}
	seen := map[string]int64{}

	tests := []struct {
		name   string
		record []string
	}{
		{"empty product name", []string{"", "medical_consumables", "6.5", "129", "3", "accepted", "2026-02-10 14:30:00"}},
		{"unknown status", []string{"Gloves", "medical_consumables", "6.5", "129", "3", "shipped", "2026-02-10 14:30:00"}},
		{"zero quantity", []string{"Gloves", "medical_consumables", "6.5", "129", "0", "accepted", "2026-02-10 14:30:00"}},
		{"bad timestamp", []string{"Gloves", "medical_consumables", "6.5", "129", "3", "accepted", "yesterday"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.processRow(context.Background(), tt.record, ingestColumns(), seen, report)
			assert.Error(t, err)
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	for _, value := range []string{
		"2026-02-10T14:30:00Z",
		"2026-02-10 14:30:00",
		"2026-02-10",
	} {
		_, err := parseTimestamp(value)
		assert.NoError(t, err, value)
	}

	_, err := parseTimestamp("10/02/2026")
	assert.Error(t, err)
}
