package forecast

import (
	"encoding/gob"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/andresuchdata/stockforecast/internal/domain"
	"github.com/rs/zerolog/log"
)

// Forest hyperparameters.
const (
	MinSamples      = 10
	MaxLabelDays    = 365
	numTrees        = 100
	maxTreeDepth    = 10
	minSamplesSplit = 5
	minSamplesLeaf  = 2
	trainSplit      = 0.8
)

// FeatureCount is the width of the encoded feature matrix.
const FeatureCount = 6

// labelEncoder maps category names to numeric codes. Categories unseen at
// prediction time map to code 0 rather than erroring.
type labelEncoder struct {
	Classes map[string]int
}

func fitEncoder(samples []domain.TrainingSample) *labelEncoder {
	seen := map[string]bool{}
	for _, s := range samples {
		seen[s.Features.Category] = true
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	classes := make(map[string]int, len(names))
	for i, name := range names {
		classes[name] = i
	}
	return &labelEncoder{Classes: classes}
}

func (e *labelEncoder) encode(category string) float64 {
	if code, ok := e.Classes[category]; ok {
		return float64(code)
	}
	return 0
}

// ModelMeta records how the persisted model was produced.
type ModelMeta struct {
	TrainedAt    time.Time
	Samples      int
	Seed         int64
	TrainR2      float64
	ValidationR2 float64
}

// TrainReport is returned to callers after a successful fit.
type TrainReport struct {
	Samples      int     `json:"samples"`
	Discarded    int     `json:"discarded"`
	TrainR2      float64 `json:"train_r2"`
	ValidationR2 float64 `json:"validation_r2"`
}

// Model is a bagged regression-tree ensemble over the engineered features.
// The zero value is untrained; Predict returns ErrModelUnavailable until
// Fit or a load succeeds.
type Model struct {
	Trees   []*regressionTree
	Encoder *labelEncoder
	Meta    ModelMeta
}

// Trained reports whether the model can serve predictions.
func (m *Model) Trained() bool {
	return m != nil && len(m.Trees) > 0 && m.Encoder != nil
}

func (m *Model) featureRow(fv domain.FeatureVector) []float64 {
	return []float64{
		fv.CurrentStock,
		fv.AvgDailySales,
		m.Encoder.encode(fv.Category),
		fv.Price,
		fv.Trend7Days,
		fv.SalesVariance,
	}
}

func validSample(s domain.TrainingSample) bool {
	if s.Label <= 0 || s.Label > MaxLabelDays {
		return false
	}
	for _, v := range []float64{
		s.Features.CurrentStock, s.Features.AvgDailySales,
		s.Features.Price, s.Features.Trend7Days, s.Features.SalesVariance,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Fit trains the ensemble on the given samples. Fewer than MinSamples
// valid samples after filtering fails with ErrInsufficientData and leaves
// the receiver untouched. The seed makes the train/validation split and
// the bootstrap draws reproducible.
func (m *Model) Fit(samples []domain.TrainingSample, seed int64) (TrainReport, error) {
	valid := make([]domain.TrainingSample, 0, len(samples))
	for _, s := range samples {
		if validSample(s) {
			valid = append(valid, s)
		}
	}
	discarded := len(samples) - len(valid)
	if len(valid) < MinSamples {
		return TrainReport{}, fmt.Errorf("%w: have %d, need %d", ErrInsufficientData, len(valid), MinSamples)
	}

	encoder := fitEncoder(valid)

	features := make([][]float64, len(valid))
	labels := make([]float64, len(valid))
	probe := &Model{Encoder: encoder}
	for i, s := range valid {
		features[i] = probe.featureRow(s.Features)
		labels[i] = float64(s.Label)
	}

	rng := rand.New(rand.NewSource(seed))

	// Shuffled 80/20 train/validation split
	perm := rng.Perm(len(valid))
	cut := int(float64(len(valid)) * trainSplit)
	if cut < 1 {
		cut = 1
	}
	trainIdx := perm[:cut]
	valIdx := perm[cut:]

	params := treeParams{
		maxDepth:        maxTreeDepth,
		minSamplesSplit: minSamplesSplit,
		minSamplesLeaf:  minSamplesLeaf,
	}

	trees := make([]*regressionTree, numTrees)
	for t := 0; t < numTrees; t++ {
		// Bootstrap sample of the training split
		boot := make([]int, len(trainIdx))
		for i := range boot {
			boot[i] = trainIdx[rng.Intn(len(trainIdx))]
		}
		trees[t] = fitTree(features, labels, boot, params)
	}

	fitted := &Model{Trees: trees, Encoder: encoder}
	trainR2 := rSquared(fitted, features, labels, trainIdx)
	valR2 := rSquared(fitted, features, labels, valIdx)

	log.Info().
		Int("samples", len(valid)).
		Int("discarded", discarded).
		Float64("train_r2", trainR2).
		Float64("validation_r2", valR2).
		Msg("depletion model trained")

	m.Trees = trees
	m.Encoder = encoder
	m.Meta = ModelMeta{
		TrainedAt:    time.Now().UTC(),
		Samples:      len(valid),
		Seed:         seed,
		TrainR2:      trainR2,
		ValidationR2: valR2,
	}

	return TrainReport{
		Samples:      len(valid),
		Discarded:    discarded,
		TrainR2:      trainR2,
		ValidationR2: valR2,
	}, nil
}

// Predict returns the rounded non-negative estimate for one feature
// vector, or ErrModelUnavailable when the model is unset. Callers must
// fall back to the heuristic on error, never substitute zero.
func (m *Model) Predict(fv domain.FeatureVector) (int, error) {
	if !m.Trained() {
		return 0, ErrModelUnavailable
	}

	row := m.featureRow(fv)
	sum := 0.0
	for _, tree := range m.Trees {
		sum += tree.predict(row)
	}
	days := int(math.Round(sum / float64(len(m.Trees))))
	if days < 0 {
		days = 0
	}
	return days, nil
}

func (m *Model) predictRaw(row []float64) float64 {
	sum := 0.0
	for _, tree := range m.Trees {
		sum += tree.predict(row)
	}
	return sum / float64(len(m.Trees))
}

// rSquared is the coefficient of determination over the given index set.
func rSquared(m *Model, features [][]float64, labels []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}

	mean := 0.0
	for _, i := range idx {
		mean += labels[i]
	}
	mean /= float64(len(idx))

	ssRes, ssTot := 0.0, 0.0
	for _, i := range idx {
		pred := m.predictRaw(features[i])
		ssRes += (labels[i] - pred) * (labels[i] - pred)
		ssTot += (labels[i] - mean) * (labels[i] - mean)
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}

// Save serializes the model atomically: encode to a temp file in the
// destination directory, then rename over the target. A failed save never
// clobbers an existing artifact.
func (m *Model) Save(path string) error {
	if !m.Trained() {
		return ErrModelUnavailable
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "depletion-*.gob")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(m); err != nil {
		tmp.Close()
		return fmt.Errorf("encode model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp artifact: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace model artifact: %w", err)
	}
	return nil
}

// LoadModel reads a persisted artifact. Callers treat any error as "no
// model" and keep running in heuristic-only mode.
func LoadModel(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model artifact: %w", err)
	}
	defer f.Close()

	var m Model
	if err := gob.NewDecoder(f).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}
	if !m.Trained() {
		return nil, fmt.Errorf("model artifact %s is empty", path)
	}
	return &m, nil
}
