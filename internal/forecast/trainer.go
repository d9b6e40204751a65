package forecast

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/andresuchdata/stockforecast/internal/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// initialStockScenarios are the assumed starting stocks replayed against
// each product's order sequence to produce training labels.
var initialStockScenarios = []int{50, 100, 200, 500}

// HistorySource yields a product's order history for sample building.
type HistorySource interface {
	OrderHistory(ctx context.Context, productID int64, since time.Time) ([]domain.OrderRecord, error)
}

// TrainerConfig tunes sample construction.
type TrainerConfig struct {
	LookbackDays  int
	SyntheticDays int
	MinRealOrders int
	Seed          int64
	// Parallelism caps how many products are processed concurrently.
	Parallelism int
}

// Trainer builds TrainingSamples from product histories, synthesizing
// bootstrap history for products whose real data is too sparse.
type Trainer struct {
	source HistorySource
	cfg    TrainerConfig
}

func NewTrainer(source HistorySource, cfg TrainerConfig) *Trainer {
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = DefaultLookbackDays
	}
	if cfg.SyntheticDays <= 0 {
		cfg.SyntheticDays = DefaultSyntheticDays
	}
	if cfg.MinRealOrders <= 0 {
		cfg.MinRealOrders = MinRealOrders
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 4
	}
	return &Trainer{source: source, cfg: cfg}
}

// BuildSamples assembles the training set across all products. Products
// with malformed history are skipped and logged rather than aborting the
// whole batch.
func (t *Trainer) BuildSamples(ctx context.Context, products []domain.Product, now time.Time) ([]domain.TrainingSample, error) {
	var (
		mu      sync.Mutex
		samples []domain.TrainingSample
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(t.cfg.Parallelism)

	for _, product := range products {
		g.Go(func() error {
			productSamples, err := t.productSamples(ctx, product, now)
			if err != nil {
				log.Warn().Err(err).Int64("product_id", product.ID).
					Str("product", product.Name).
					Msg("skipping product in training set")
				return nil
			}
			mu.Lock()
			samples = append(samples, productSamples...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return samples, nil
}

func (t *Trainer) productSamples(ctx context.Context, product domain.Product, now time.Time) ([]domain.TrainingSample, error) {
	since := now.AddDate(0, 0, -t.cfg.LookbackDays)
	history, err := t.source.OrderHistory(ctx, product.ID, since)
	if err != nil {
		return nil, err
	}

	accepted := acceptedOnly(history)
	if len(accepted) < t.cfg.MinRealOrders {
		// Too little real data: bootstrap with a synthetic history seeded
		// per product so repeated runs stay reproducible.
		synth := NewSynthesizer(t.cfg.Seed + product.ID)
		history = synth.Generate(product, now, t.cfg.SyntheticDays)
		accepted = acceptedOnly(history)
		if len(accepted) < t.cfg.MinRealOrders {
			return nil, nil
		}
	}

	stats, err := Aggregate(history, now, t.cfg.LookbackDays)
	if err != nil {
		return nil, err
	}

	sort.Slice(accepted, func(i, j int) bool {
		return accepted[i].CreatedAt.Before(accepted[j].CreatedAt)
	})

	var samples []domain.TrainingSample
	for _, initialStock := range initialStockScenarios {
		label := replayDepletion(accepted, initialStock, stats.AvgDailySales)
		if label <= 0 || label > MaxLabelDays {
			continue
		}
		samples = append(samples, domain.TrainingSample{
			Features: domain.FeatureVector{
				CurrentStock:  float64(initialStock),
				AvgDailySales: stats.AvgDailySales,
				Category:      product.Category,
				Price:         product.Price,
				Trend7Days:    stats.Trend7Days,
				SalesVariance: stats.SalesVariance,
			},
			Label: label,
		})
	}
	return samples, nil
}

// replayDepletion walks the chronological accepted orders, decrementing a
// simulated stock counter and counting one day per order consumed. If the
// stock survives the whole sequence, the remainder is extrapolated at the
// average rate.
func replayDepletion(chronological []domain.OrderRecord, initialStock int, avgDailySales float64) int {
	stock := initialStock
	days := 0
	for _, o := range chronological {
		if stock <= 0 {
			break
		}
		stock -= o.Quantity
		days++
	}
	if stock > 0 && avgDailySales > 0 {
		days += int(float64(stock) / avgDailySales)
	}
	return days
}

func acceptedOnly(orders []domain.OrderRecord) []domain.OrderRecord {
	out := make([]domain.OrderRecord, 0, len(orders))
	for _, o := range orders {
		if o.Status == domain.OrderAccepted {
			out = append(out, o)
		}
	}
	return out
}
