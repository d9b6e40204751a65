package forecast

import (
	"math"

	"github.com/andresuchdata/stockforecast/internal/domain"
)

// NoDepletionDays is the sentinel returned when the blended sales rate is
// zero or negative: no stockout is foreseeable.
const NoDepletionDays = 999

// priceTier holds the heuristic policy for one price band. Bands are
// selected by MaxPrice (inclusive upper bound, ascending order).
type priceTier struct {
	MaxPrice float64
	// BaseDailySales is the assumed units/day absent real history.
	BaseDailySales float64
	// HeuristicWeight is the blend weight on BaseDailySales; the real
	// average gets 1-HeuristicWeight.
	HeuristicWeight float64
	// RealSalesCap bounds the real average at RealSalesCap*BaseDailySales
	// before blending, so noisy history cannot dominate.
	RealSalesCap float64
	// MinDays and PerUnitMinDays define the estimate floor:
	// max(MinDays, stock*PerUnitMinDays).
	MinDays        float64
	PerUnitMinDays float64
}

// priceTiers encodes the depletion policy: cheap products sell fast and
// trust observed history; expensive products sell rarely and trust the
// tier's base rate.
var priceTiers = []priceTier{
	{MaxPrice: 10, BaseDailySales: 8.0, HeuristicWeight: 0.2, RealSalesCap: 1.1, MinDays: 10, PerUnitMinDays: 0.15},
	{MaxPrice: 20, BaseDailySales: 5.0, HeuristicWeight: 0.3, RealSalesCap: 1.2, MinDays: 20, PerUnitMinDays: 0.3},
	{MaxPrice: 40, BaseDailySales: 3.0, HeuristicWeight: 0.5, RealSalesCap: 1.2, MinDays: 30, PerUnitMinDays: 0.5},
	{MaxPrice: 100, BaseDailySales: 1.2, HeuristicWeight: 0.7, RealSalesCap: 1.3, MinDays: 60, PerUnitMinDays: 0.8},
	{MaxPrice: 200, BaseDailySales: 1.0, HeuristicWeight: 0.6, RealSalesCap: 1.5, MinDays: 40, PerUnitMinDays: 0.8},
	{MaxPrice: 500, BaseDailySales: 0.6, HeuristicWeight: 0.8, RealSalesCap: 2.0, MinDays: 60, PerUnitMinDays: 1.5},
	{MaxPrice: 1000, BaseDailySales: 0.25, HeuristicWeight: 0.8, RealSalesCap: 2.0, MinDays: 150, PerUnitMinDays: 5},
	{MaxPrice: math.Inf(1), BaseDailySales: 0.05, HeuristicWeight: 0.8, RealSalesCap: 2.0, MinDays: 200, PerUnitMinDays: 10},
}

// expensivePrice is the price above which large stocks get the stronger
// quantity multiplier.
const expensivePrice = 200

// tierFor returns the policy band for a price.
func tierFor(price float64) priceTier {
	for _, t := range priceTiers {
		if price <= t.MaxPrice {
			return t
		}
	}
	return priceTiers[len(priceTiers)-1]
}

// quantityMultiplier scales raw days up for products holding a lot of
// stock; slow, expensive products get the stronger factor.
func quantityMultiplier(stock int, price float64) float64 {
	switch {
	case stock >= 100:
		if price > expensivePrice {
			return 2.0
		}
		return 1.5
	case stock >= 50:
		if price > expensivePrice {
			return 1.5
		}
		return 1.2
	default:
		return 1.0
	}
}

// Estimate computes the heuristic days-until-stockout for a product. It is
// deterministic, bounded and available without any trained model; the model
// path is advisory only.
func Estimate(price float64, stock int, stats SalesStats) int {
	if stock == 0 {
		return 0
	}

	tier := tierFor(price)

	rate := tier.BaseDailySales
	if stats.AvgDailySales > 0 {
		capped := math.Min(stats.AvgDailySales, tier.BaseDailySales*tier.RealSalesCap)
		rate = tier.HeuristicWeight*tier.BaseDailySales + (1-tier.HeuristicWeight)*capped
	}

	if rate <= 0 {
		return NoDepletionDays
	}

	days := float64(int(float64(stock) / rate))

	if mult := quantityMultiplier(stock, price); mult > 1.0 {
		days = float64(int(days * mult))
	}

	floor := math.Max(tier.MinDays, float64(stock)*tier.PerUnitMinDays)
	days = math.Max(days, floor)

	estimate := int(math.Round(days))
	if estimate < 0 {
		estimate = 0
	}
	return estimate
}

// EstimateStatus returns both the estimate and its classification.
func EstimateStatus(price float64, stock int, stats SalesStats) (int, domain.StockStatus) {
	days := Estimate(price, stock, stats)
	return days, domain.ClassifyStock(stock, days)
}
