package forecast

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/andresuchdata/stockforecast/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var serviceNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func testProduct() domain.Product {
	return domain.Product{
		ID:       1,
		Name:     "Nitrile Gloves (box)",
		Category: domain.CategoryConsumables,
		Price:    6.5,
		Stock:    129,
	}
}

func TestEstimateHeuristicOnly(t *testing.T) {
	svc := NewService(filepath.Join(t.TempDir(), "missing.gob"))

	result, err := svc.Estimate(testProduct(), nil, serviceNow)
	require.NoError(t, err)

	assert.False(t, svc.ModelLoaded())
	assert.Equal(t, 24, result.Days)
	assert.Equal(t, domain.StockMedium, result.Status.Kind)
	assert.Nil(t, result.ModelDays, "no model means no advisory prediction")
}

func TestEstimateSurvivesCorruptArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "depletion.gob")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))

	svc := NewService(path)
	result, err := svc.Estimate(testProduct(), nil, serviceNow)
	require.NoError(t, err)
	assert.False(t, svc.ModelLoaded())
	assert.Equal(t, 24, result.Days)
}

func TestEstimateRejectsMalformedHistory(t *testing.T) {
	svc := NewService("")

	history := []domain.OrderRecord{{ID: 3, ProductID: 1, Quantity: 5, Status: domain.OrderAccepted}}
	_, err := svc.Estimate(testProduct(), history, serviceNow)

	var dataErr *DataError
	require.ErrorAs(t, err, &dataErr)
}

func TestTrainPersistsAndAttachesAdvisory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models", "depletion.gob")
	svc := NewService(path, WithSeed(42))

	report, err := svc.Train(trainingSet(60))
	require.NoError(t, err)
	assert.Equal(t, 60, report.Samples)
	assert.True(t, svc.ModelLoaded())

	_, err = os.Stat(path)
	require.NoError(t, err, "training must persist the artifact")

	result, err := svc.Estimate(testProduct(), nil, serviceNow)
	require.NoError(t, err)
	assert.Equal(t, 24, result.Days, "the heuristic stays authoritative")
	require.NotNil(t, result.ModelDays)
	assert.GreaterOrEqual(t, *result.ModelDays, 0)
}

func TestTrainFailureKeepsCurrentModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "depletion.gob")
	svc := NewService(path, WithSeed(42))

	_, err := svc.Train(trainingSet(60))
	require.NoError(t, err)
	require.True(t, svc.ModelLoaded())

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = svc.Train(trainingSet(4))
	require.ErrorIs(t, err, ErrInsufficientData)

	assert.True(t, svc.ModelLoaded(), "the previous model stays authoritative")
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after, "a failed fit never touches the artifact")
}

func TestServiceLoadsPersistedArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "depletion.gob")

	trained := NewService(path, WithSeed(42))
	_, err := trained.Train(trainingSet(60))
	require.NoError(t, err)

	// A fresh service over the same path picks the model up lazily.
	fresh := NewService(path)
	assert.True(t, fresh.ModelLoaded())

	result, err := fresh.Estimate(testProduct(), nil, serviceNow)
	require.NoError(t, err)
	assert.NotNil(t, result.ModelDays)
}

func TestWithLookbackDays(t *testing.T) {
	svc := NewService("", WithLookbackDays(30))
	assert.Equal(t, 30, svc.lookbackDays)

	ignored := NewService("", WithLookbackDays(0))
	assert.Equal(t, DefaultLookbackDays, ignored.lookbackDays)
}
