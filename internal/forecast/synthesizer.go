package forecast

import (
	"math"
	"math/rand"
	"time"

	"github.com/andresuchdata/stockforecast/internal/domain"
)

// DefaultSyntheticDays is the generation window for bootstrap histories.
const DefaultSyntheticDays = 90

// MinRealOrders is the number of accepted orders below which a product's
// history is considered too sparse to train on and is synthesized instead.
const MinRealOrders = 5

// categoryBaseRates are assumed daily sale counts per category before the
// price factor is applied. Disposables move fastest, durable equipment
// slowest.
var categoryBaseRates = map[string]float64{
	domain.CategoryConsumables:    3.0,
	domain.CategoryPharmaceutical: 2.0,
	domain.CategoryEquipment:      0.2,
}

const defaultCategoryRate = 1.0

// syntheticPriceFactor scales the category rate down as price grows. The
// open top band keeps a 0.05 floor so no product ever has a zero rate.
func syntheticPriceFactor(price float64) float64 {
	switch {
	case price <= 10:
		return 2.0
	case price <= 50:
		return 1.5
	case price <= 100:
		return 1.0
	case price <= 300:
		return 0.5
	case price <= 600:
		return 0.2
	default:
		return math.Max(0.05, 50.0/price)
	}
}

// BaseDailyRate derives the assumed sales rate used to drive generation
// for a product with no usable history.
func BaseDailyRate(category string, price float64) float64 {
	rate, ok := categoryBaseRates[category]
	if !ok {
		rate = defaultCategoryRate
	}
	return rate * syntheticPriceFactor(price)
}

// Synthesizer generates plausible order histories for products lacking
// real data. All randomness flows through the injected source so a fixed
// seed reproduces the exact same history.
type Synthesizer struct {
	rng *rand.Rand
}

func NewSynthesizer(seed int64) *Synthesizer {
	return &Synthesizer{rng: rand.New(rand.NewSource(seed))}
}

// Generate emits a synthetic order stream for the product covering the
// given number of days ending at now. The records are shaped exactly like
// real history and feed the aggregator unchanged.
func (s *Synthesizer) Generate(product domain.Product, now time.Time, days int) []domain.OrderRecord {
	if days <= 0 {
		days = DefaultSyntheticDays
	}

	rate := BaseDailyRate(product.Category, product.Price)
	orderProb := math.Min(0.9, rate/2.0)

	maxQuantity := product.Stock + 50
	if maxQuantity > 20 {
		maxQuantity = 20
	}
	if maxQuantity < 1 {
		maxQuantity = 1
	}

	var records []domain.OrderRecord
	first := now.AddDate(0, 0, -days)
	start := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, first.Location())

	for day := 0; day <= days; day++ {
		if s.rng.Float64() >= orderProb {
			continue
		}

		for i := 0; i < s.ordersToday(); i++ {
			status := domain.OrderAccepted
			if s.rng.Float64() >= 0.9 {
				status = domain.OrderRejected
			}

			// Randomize within business hours (08:00-20:59)
			at := start.AddDate(0, 0, day).
				Add(time.Duration(8+s.rng.Intn(13)) * time.Hour).
				Add(time.Duration(s.rng.Intn(60)) * time.Minute)

			records = append(records, domain.OrderRecord{
				ProductID: product.ID,
				Quantity:  1 + s.rng.Intn(maxQuantity),
				Status:    status,
				CreatedAt: at,
				Synthetic: true,
			})
		}
	}

	return records
}

// ordersToday draws how many orders land on a generated day: mostly one,
// occasionally two or three (70/25/5).
func (s *Synthesizer) ordersToday() int {
	switch r := s.rng.Float64(); {
	case r < 0.70:
		return 1
	case r < 0.95:
		return 2
	default:
		return 3
	}
}
