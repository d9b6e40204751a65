package forecast

import (
	"fmt"
	"sync"
	"time"

	"github.com/andresuchdata/stockforecast/internal/domain"
	"github.com/rs/zerolog/log"
)

// Service owns the model lifecycle and exposes the two operations the host
// application consumes: Estimate and Train. It is constructed explicitly
// and injectable; there is no package-level singleton.
//
// The heuristic estimate is authoritative. When a model is loaded its
// prediction is computed, logged and attached as an advisory field, but it
// never replaces the heuristic answer.
type Service struct {
	modelPath    string
	lookbackDays int
	seed         int64

	loadOnce sync.Once
	mu       sync.RWMutex
	model    *Model
}

type ServiceOption func(*Service)

// WithLookbackDays overrides the default 90-day sales history window.
func WithLookbackDays(days int) ServiceOption {
	return func(s *Service) {
		if days > 0 {
			s.lookbackDays = days
		}
	}
}

// WithSeed fixes the training RNG seed.
func WithSeed(seed int64) ServiceOption {
	return func(s *Service) { s.seed = seed }
}

// NewService builds a forecast service around the artifact at modelPath.
// The artifact is loaded lazily on first use; a missing or corrupt file
// just means heuristic-only mode.
func NewService(modelPath string, opts ...ServiceOption) *Service {
	s := &Service{
		modelPath:    modelPath,
		lookbackDays: DefaultLookbackDays,
		seed:         42,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// loadModel runs at most once per service. Loads are read-only, so a
// concurrent first use re-reading the artifact would be harmless; the Once
// just keeps it tidy.
func (s *Service) loadModel() {
	s.loadOnce.Do(func() {
		if s.modelPath == "" {
			return
		}
		model, err := LoadModel(s.modelPath)
		if err != nil {
			log.Warn().Err(err).Str("path", s.modelPath).
				Msg("no usable depletion model, running heuristic-only")
			return
		}
		s.mu.Lock()
		s.model = model
		s.mu.Unlock()
		log.Info().Str("path", s.modelPath).
			Time("trained_at", model.Meta.TrainedAt).
			Int("samples", model.Meta.Samples).
			Msg("depletion model loaded")
	})
}

func (s *Service) currentModel() *Model {
	s.loadModel()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// ModelLoaded reports whether a trained model is currently in memory.
func (s *Service) ModelLoaded() bool {
	return s.currentModel().Trained()
}

// Estimate computes the depletion forecast for a product from its order
// history. It fails only on malformed history (*DataError); every model
// problem is degraded to the heuristic path internally.
func (s *Service) Estimate(product domain.Product, history []domain.OrderRecord, now time.Time) (domain.Forecast, error) {
	stats, err := Aggregate(history, now, s.lookbackDays)
	if err != nil {
		return domain.Forecast{}, err
	}

	days, status := EstimateStatus(product.Price, product.Stock, stats)
	forecast := domain.Forecast{Days: days, Status: status}

	if model := s.currentModel(); model.Trained() {
		fv := domain.FeatureVector{
			CurrentStock:  float64(product.Stock),
			AvgDailySales: stats.AvgDailySales,
			Category:      product.Category,
			Price:         product.Price,
			Trend7Days:    stats.Trend7Days,
			SalesVariance: stats.SalesVariance,
		}
		if predicted, err := model.Predict(fv); err == nil {
			forecast.ModelDays = &predicted
			log.Debug().
				Int64("product_id", product.ID).
				Int("heuristic_days", days).
				Int("model_days", predicted).
				Msg("model prediction (advisory)")
		} else {
			log.Warn().Err(err).Int64("product_id", product.ID).
				Msg("model prediction failed, heuristic stands")
		}
	}

	return forecast, nil
}

// Train fits a fresh model on the samples and persists it on success. On
// any failure the previously persisted artifact and the in-memory model
// stay authoritative.
func (s *Service) Train(samples []domain.TrainingSample) (TrainReport, error) {
	s.loadModel()

	fresh := &Model{}
	report, err := fresh.Fit(samples, s.seed)
	if err != nil {
		return TrainReport{}, err
	}

	if s.modelPath != "" {
		if err := fresh.Save(s.modelPath); err != nil {
			return TrainReport{}, fmt.Errorf("persist model: %w", err)
		}
	}

	s.mu.Lock()
	s.model = fresh
	s.mu.Unlock()

	return report, nil
}

// ModelPath returns the artifact location this service persists to.
func (s *Service) ModelPath() string {
	return s.modelPath
}
