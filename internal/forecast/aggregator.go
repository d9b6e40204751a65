package forecast

import (
	"fmt"
	"time"

	"github.com/andresuchdata/stockforecast/internal/domain"
)

// DefaultLookbackDays is the sales history window used when none is
// configured.
const DefaultLookbackDays = 90

const trendWindowDays = 7

// SalesStats are the rolling statistics computed from accepted orders.
type SalesStats struct {
	AvgDailySales float64 `json:"avg_daily_sales"`
	Trend7Days    float64 `json:"trend_7days"`
	SalesVariance float64 `json:"sales_variance"`
}

// Aggregate computes SalesStats from a product's order history over the
// lookback window ending at now. Only accepted orders count. It is a pure
// function of its inputs and rejects malformed records with a *DataError.
func Aggregate(orders []domain.OrderRecord, now time.Time, windowDays int) (SalesStats, error) {
	if windowDays <= 0 {
		windowDays = DefaultLookbackDays
	}
	windowStart := now.AddDate(0, 0, -windowDays)

	accepted := make([]domain.OrderRecord, 0, len(orders))
	for _, o := range orders {
		if o.CreatedAt.IsZero() {
			return SalesStats{}, &DataError{Reason: fmt.Sprintf("order %d has no timestamp", o.ID)}
		}
		if o.Quantity <= 0 {
			return SalesStats{}, &DataError{Reason: fmt.Sprintf("order %d has non-positive quantity %d", o.ID, o.Quantity)}
		}
		if o.Status != domain.OrderAccepted {
			continue
		}
		if o.CreatedAt.Before(windowStart) || o.CreatedAt.After(now) {
			continue
		}
		accepted = append(accepted, o)
	}

	stats := SalesStats{}

	total := 0
	for _, o := range accepted {
		total += o.Quantity
	}
	stats.AvgDailySales = float64(total) / float64(windowDays)

	trendStart := now.AddDate(0, 0, -trendWindowDays)
	recent := 0
	recentCount := 0
	for _, o := range accepted {
		if !o.CreatedAt.Before(trendStart) {
			recent += o.Quantity
			recentCount++
		}
	}
	if recentCount > 0 {
		stats.Trend7Days = float64(recent) / float64(trendWindowDays)
	} else {
		stats.Trend7Days = stats.AvgDailySales
	}

	stats.SalesVariance = weeklyVariance(accepted, windowStart, now)

	return stats, nil
}

// weeklyVariance buckets accepted orders into non-overlapping 7-day windows
// spanning [start, end) and returns the population variance of the bucket
// totals. Fewer than two buckets yield 0.
func weeklyVariance(accepted []domain.OrderRecord, start, end time.Time) float64 {
	var buckets []float64
	for bucketStart := start; bucketStart.Before(end); {
		bucketEnd := bucketStart.AddDate(0, 0, trendWindowDays)
		if bucketEnd.After(end) {
			bucketEnd = end
		}
		sold := 0
		for _, o := range accepted {
			if !o.CreatedAt.Before(bucketStart) && o.CreatedAt.Before(bucketEnd) {
				sold += o.Quantity
			}
		}
		buckets = append(buckets, float64(sold))
		bucketStart = bucketEnd
	}

	if len(buckets) < 2 {
		return 0.0
	}

	mean := 0.0
	for _, v := range buckets {
		mean += v
	}
	mean /= float64(len(buckets))

	variance := 0.0
	for _, v := range buckets {
		d := v - mean
		variance += d * d
	}
	return variance / float64(len(buckets))
}
