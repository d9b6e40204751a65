package forecast

import (
	"testing"
	"time"

	"github.com/andresuchdata/stockforecast/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var aggNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func order(qty int, status string, daysAgo int) domain.OrderRecord {
	return domain.OrderRecord{
		ProductID: 1,
		Quantity:  qty,
		Status:    status,
		CreatedAt: aggNow.AddDate(0, 0, -daysAgo),
	}
}

func TestAggregateEmptyHistory(t *testing.T) {
	stats, err := Aggregate(nil, aggNow, 90)
	require.NoError(t, err)
	assert.Zero(t, stats.AvgDailySales)
	assert.Zero(t, stats.Trend7Days)
	assert.Zero(t, stats.SalesVariance)
}

func TestAggregateOnlyAcceptedCount(t *testing.T) {
	orders := []domain.OrderRecord{
		order(45, domain.OrderAccepted, 30),
		order(45, domain.OrderAccepted, 2),
		order(500, domain.OrderPending, 3),
		order(500, domain.OrderRejected, 4),
	}

	stats, err := Aggregate(orders, aggNow, 90)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, stats.AvgDailySales, 1e-9, "90 units over 90 days")
	assert.InDelta(t, 45.0/7.0, stats.Trend7Days, 1e-9, "only the recent order is in the trend window")
}

func TestAggregateExcludesOutsideWindow(t *testing.T) {
	orders := []domain.OrderRecord{
		order(10, domain.OrderAccepted, 5),
		order(999, domain.OrderAccepted, 91), // before the window
		{ProductID: 1, Quantity: 999, Status: domain.OrderAccepted, CreatedAt: aggNow.Add(time.Hour)}, // future
	}

	stats, err := Aggregate(orders, aggNow, 90)
	require.NoError(t, err)
	assert.InDelta(t, 10.0/90.0, stats.AvgDailySales, 1e-9)
}

func TestAggregateTrendFallsBackToAverage(t *testing.T) {
	orders := []domain.OrderRecord{
		order(18, domain.OrderAccepted, 30),
	}

	stats, err := Aggregate(orders, aggNow, 90)
	require.NoError(t, err)
	assert.Equal(t, stats.AvgDailySales, stats.Trend7Days)
}

func TestAggregateWeeklyVariance(t *testing.T) {
	// Two 7-day buckets over a 14-day window: totals 7 and 21,
	// population variance 49.
	orders := []domain.OrderRecord{
		order(7, domain.OrderAccepted, 10),
		order(21, domain.OrderAccepted, 2),
	}

	stats, err := Aggregate(orders, aggNow, 14)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, stats.AvgDailySales, 1e-9)
	assert.InDelta(t, 3.0, stats.Trend7Days, 1e-9)
	assert.InDelta(t, 49.0, stats.SalesVariance, 1e-9)
}

func TestAggregateDefaultsWindow(t *testing.T) {
	orders := []domain.OrderRecord{
		order(90, domain.OrderAccepted, 10),
	}

	stats, err := Aggregate(orders, aggNow, 0)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, stats.AvgDailySales, 1e-9)
}

func TestAggregateRejectsMalformedRecords(t *testing.T) {
	t.Run("missing timestamp", func(t *testing.T) {
		orders := []domain.OrderRecord{{ID: 7, ProductID: 1, Quantity: 3, Status: domain.OrderAccepted}}
		_, err := Aggregate(orders, aggNow, 90)
		var dataErr *DataError
		require.ErrorAs(t, err, &dataErr)
		assert.Contains(t, dataErr.Error(), "timestamp")
	})

	t.Run("non-positive quantity", func(t *testing.T) {
		orders := []domain.OrderRecord{order(0, domain.OrderAccepted, 5)}
		_, err := Aggregate(orders, aggNow, 90)
		var dataErr *DataError
		require.ErrorAs(t, err, &dataErr)
	})

	t.Run("rejected order with bad quantity still errors", func(t *testing.T) {
		orders := []domain.OrderRecord{order(-2, domain.OrderRejected, 5)}
		_, err := Aggregate(orders, aggNow, 90)
		var dataErr *DataError
		require.ErrorAs(t, err, &dataErr)
	})
}
