package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alphaquant/alpha/backend/internal/features"
	"github.com/alphaquant/alpha/backend/internal/keylock"
	"github.com/alphaquant/alpha/backend/internal/marketdata"
	"github.com/alphaquant/alpha/backend/pkg/logger"
)

// ErrNotTrained is returned by a model repository when no artifact
// exists for a ticker.
var ErrNotTrained = errors.New("model not trained")

// holdoutFraction is the chronological tail held out of training for
// the diagnostic accuracy number. The split is never shuffled so
// evaluation cannot see future-leaking data.
const holdoutFraction = 0.2

// Prediction is the tri-state-plus-errors outcome of an inference call
type Prediction int

const (
	PredictionUp Prediction = iota
	PredictionDown
	PredictionNotTrained
	PredictionDataError
	PredictionInsufficient
)

// String returns the wire form of a prediction
func (p Prediction) String() string {
	switch p {
	case PredictionUp:
		return "UP"
	case PredictionDown:
		return "DOWN"
	case PredictionNotTrained:
		return "NOT_TRAINED"
	case PredictionDataError:
		return "DATA_ERROR"
	case PredictionInsufficient:
		return "INSUFFICIENT_DATA"
	default:
		return "UNKNOWN"
	}
}

// Signal maps a prediction onto the tri-state scoring signal:
// Up is +1, Down is -1, every non-directional outcome is 0.
func (p Prediction) Signal() int {
	switch p {
	case PredictionUp:
		return 1
	case PredictionDown:
		return -1
	default:
		return 0
	}
}

// Artifact is one ticker's persisted trained model: the classifier
// state plus the ordered feature-name list it was fitted on.
type Artifact struct {
	Classifier   *Classifier `json:"classifier"`
	FeatureNames []string    `json:"feature_names"`
	TrainedAt    time.Time   `json:"trained_at"`
	Accuracy     float64     `json:"accuracy"`
}

// SeriesLoader provides cleaned series by ticker
type SeriesLoader interface {
	Load(ctx context.Context, ticker string) (*marketdata.Series, error)
}

// Repository persists one artifact per ticker with overwrite semantics
type Repository interface {
	Save(ctx context.Context, ticker string, artifact *Artifact) error
	Load(ctx context.Context, ticker string) (*Artifact, error)
}

// Manager owns the per-ticker model lifecycle: training, persistence
// and inference. Models are fully independent across tickers.
type Manager struct {
	series SeriesLoader
	repo   Repository
	locks  *keylock.KeyedMutex
	logger *logger.Logger
}

// NewManager creates a new model manager. locks serializes writers to
// the same ticker's artifact and is shared with the refresh pipeline.
func NewManager(series SeriesLoader, repo Repository, locks *keylock.KeyedMutex, log *logger.Logger) *Manager {
	return &Manager{
		series: series,
		repo:   repo,
		locks:  locks,
		logger: log,
	}
}

// Train fits and persists a classifier for one ticker, replacing any
// prior model. Training is idempotent and safe to re-run at any time.
func (m *Manager) Train(ctx context.Context, ticker string) error {
	unlock := m.locks.Lock("model:" + ticker)
	defer unlock()

	series, err := m.series.Load(ctx, ticker)
	if err != nil {
		m.logger.WithError(err).WithField("ticker", ticker).Warn("Training skipped, series unavailable")
		return fmt.Errorf("load series for %q: %w", ticker, err)
	}

	labeled := features.Derive(series)
	if len(labeled) == 0 {
		m.logger.WithField("ticker", ticker).Warn("Training skipped, no usable feature rows")
		return fmt.Errorf("no training rows for %q", ticker)
	}

	featureMatrix := make([][]float64, len(labeled))
	labels := make([]int, len(labeled))
	for i, row := range labeled {
		values, err := row.Row.Values(features.Names)
		if err != nil {
			return fmt.Errorf("build feature vector: %w", err)
		}
		featureMatrix[i] = values
		labels[i] = row.Label
	}

	// Chronological split: first 80% trains, the tail is held out
	splitIdx := int(float64(len(labeled)) * (1 - holdoutFraction))
	if splitIdx < 1 {
		splitIdx = 1
	}

	clf, err := Fit(featureMatrix[:splitIdx], labels[:splitIdx])
	if err != nil {
		return fmt.Errorf("fit classifier for %q: %w", ticker, err)
	}

	// Held-out accuracy is diagnostic only, never gating
	accuracy := 0.0
	if splitIdx < len(labeled) {
		accuracy, err = clf.Accuracy(featureMatrix[splitIdx:], labels[splitIdx:])
		if err != nil {
			return fmt.Errorf("evaluate classifier for %q: %w", ticker, err)
		}
	}

	artifact := &Artifact{
		Classifier:   clf,
		FeatureNames: append([]string(nil), features.Names...),
		TrainedAt:    time.Now().UTC(),
		Accuracy:     accuracy,
	}

	if err := m.repo.Save(ctx, ticker, artifact); err != nil {
		return fmt.Errorf("persist model for %q: %w", ticker, err)
	}

	m.logger.WithFields(map[string]interface{}{
		"ticker":   ticker,
		"rows":     len(labeled),
		"accuracy": accuracy,
	}).Info("Model trained")

	return nil
}

// Predict runs inference for one ticker using its persisted model.
// Every failure mode maps onto an explicit non-directional status
// rather than an error: the scoring engine treats those as a neutral
// signal.
func (m *Manager) Predict(ctx context.Context, ticker string) Prediction {
	artifact, err := m.repo.Load(ctx, ticker)
	if err != nil {
		if !errors.Is(err, ErrNotTrained) {
			m.logger.WithError(err).WithField("ticker", ticker).Error("Model load failed")
			return PredictionDataError
		}
		return PredictionNotTrained
	}

	series, err := m.series.Load(ctx, ticker)
	if err != nil {
		return PredictionDataError
	}

	row, err := features.Latest(series)
	if err != nil {
		return PredictionInsufficient
	}

	values, err := row.Values(artifact.FeatureNames)
	if err != nil {
		m.logger.WithError(err).WithField("ticker", ticker).Error("Stored feature list is unusable")
		return PredictionDataError
	}

	class, err := artifact.Classifier.PredictOne(values)
	if err != nil {
		m.logger.WithError(err).WithField("ticker", ticker).Error("Inference failed")
		return PredictionDataError
	}

	if class == 1 {
		return PredictionUp
	}
	return PredictionDown
}
