package service

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/andresuchdata/stockforecast/internal/cache"
	"github.com/andresuchdata/stockforecast/internal/domain"
	"github.com/andresuchdata/stockforecast/internal/forecast"
	"github.com/andresuchdata/stockforecast/internal/repository"
	"github.com/andresuchdata/stockforecast/internal/storage"
	"github.com/rs/zerolog/log"
)

// StockForecastService wires the forecast engine to persistence: it loads
// product histories, memoizes computed forecasts and runs the out-of-band
// training batch.
type StockForecastService struct {
	products repository.ProductRepository
	orders   repository.OrderRepository
	engine   *forecast.Service
	trainer  *forecast.Trainer
	cache    cache.ForecastCache
	store    storage.ObjectStorage
}

func NewStockForecastService(
	products repository.ProductRepository,
	orders repository.OrderRepository,
	engine *forecast.Service,
	trainer *forecast.Trainer,
	cacheImpl cache.ForecastCache,
	store storage.ObjectStorage,
) *StockForecastService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopForecastCache()
	}
	return &StockForecastService{
		products: products,
		orders:   orders,
		engine:   engine,
		trainer:  trainer,
		cache:    cacheImpl,
		store:    store,
	}
}

// ProductForecast returns the depletion forecast for one product.
func (s *StockForecastService) ProductForecast(ctx context.Context, productID int64) (*domain.Forecast, error) {
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	if cached, ok, err := s.cache.Get(ctx, *product); err == nil && ok {
		return cached, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("forecast: cache get failed")
	}

	now := time.Now()
	history, err := s.orders.OrderHistory(ctx, productID, now.AddDate(0, 0, -forecast.DefaultLookbackDays))
	if err != nil {
		return nil, err
	}

	result, err := s.engine.Estimate(*product, history, now)
	if err != nil {
		return nil, err
	}
	result.ProductID = product.ID

	if err := s.cache.Set(ctx, *product, &result); err != nil {
		log.Warn().Err(err).Msg("forecast: cache set failed")
	}

	return &result, nil
}

// FleetStatus computes the forecast for every product, for dashboards and
// restocking overviews.
func (s *StockForecastService) FleetStatus(ctx context.Context) ([]domain.Forecast, error) {
	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	forecasts := make([]domain.Forecast, 0, len(products))
	for _, product := range products {
		result, err := s.ProductForecast(ctx, product.ID)
		if err != nil {
			log.Warn().Err(err).Int64("product_id", product.ID).
				Msg("forecast: skipping product in fleet status")
			continue
		}
		forecasts = append(forecasts, *result)
	}

	return forecasts, nil
}

// InvalidateProduct drops any cached forecast after an order is accepted
// or the catalog entry changes.
func (s *StockForecastService) InvalidateProduct(ctx context.Context, productID int64) {
	if err := s.cache.Invalidate(ctx, productID); err != nil {
		log.Warn().Err(err).Int64("product_id", productID).
			Msg("forecast: cache invalidation failed")
	}
}

// Train rebuilds the training set from stored histories, fits a fresh
// model and persists it. Meant to run from a background job or the CLI,
// never inline with an estimate request.
func (s *StockForecastService) Train(ctx context.Context) (forecast.TrainReport, error) {
	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return forecast.TrainReport{}, err
	}

	samples, err := s.trainer.BuildSamples(ctx, products, time.Now())
	if err != nil {
		return forecast.TrainReport{}, fmt.Errorf("build training samples: %w", err)
	}

	report, err := s.engine.Train(samples)
	if err != nil {
		return forecast.TrainReport{}, err
	}

	s.backupArtifact(ctx)
	return report, nil
}

// backupArtifact mirrors the freshly persisted model to object storage.
// Failures are logged only; the local artifact is the source of truth.
func (s *StockForecastService) backupArtifact(ctx context.Context) {
	if s.store == nil {
		return
	}

	path := s.engine.ModelPath()
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("forecast: artifact backup read failed")
		return
	}
	if err := s.store.UploadObject(ctx, storage.ModelArtifactKey, data); err != nil {
		log.Warn().Err(err).Msg("forecast: artifact backup upload failed")
		return
	}
	log.Info().Str("key", storage.ModelArtifactKey).Msg("forecast: model artifact backed up")
}

// RestoreArtifact fetches the model artifact from object storage when the
// local file is missing, e.g. on a cold start of a fresh instance.
func (s *StockForecastService) RestoreArtifact(ctx context.Context) error {
	if s.store == nil {
		return nil
	}

	path := s.engine.ModelPath()
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	objects, err := s.store.ListObjects(ctx, storage.ModelArtifactKey)
	if err != nil {
		return fmt.Errorf("probe model artifact: %w", err)
	}
	var remote *storage.ObjectInfo
	for i := range objects {
		if objects[i].Key == storage.ModelArtifactKey {
			remote = &objects[i]
			break
		}
	}
	if remote == nil {
		log.Info().Msg("forecast: no model artifact in object storage, starting untrained")
		return nil
	}

	if err := s.store.DownloadObject(ctx, remote.Key, path); err != nil {
		return fmt.Errorf("restore model artifact: %w", err)
	}
	log.Info().Str("path", path).Int64("bytes", remote.Size).
		Msg("forecast: model artifact restored from object storage")
	return nil
}
