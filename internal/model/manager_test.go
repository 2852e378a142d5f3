package model

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphaquant/alpha/backend/internal/features"
	"github.com/alphaquant/alpha/backend/internal/keylock"
	"github.com/alphaquant/alpha/backend/internal/marketdata"
	"github.com/alphaquant/alpha/backend/pkg/config"
	"github.com/alphaquant/alpha/backend/pkg/logger"
)

type fakeSeriesLoader struct {
	series map[string]*marketdata.Series
	err    error
}

func (f *fakeSeriesLoader) Load(_ context.Context, ticker string) (*marketdata.Series, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.series[ticker]
	if !ok {
		return nil, marketdata.ErrNotAvailable
	}
	return s, nil
}

type fakeRepository struct {
	mu        sync.Mutex
	artifacts map[string]*Artifact
	saves     int
	loadErr   error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{artifacts: make(map[string]*Artifact)}
}

func (f *fakeRepository) Save(_ context.Context, ticker string, artifact *Artifact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.artifacts[ticker] = artifact
	f.saves++
	return nil
}

func (f *fakeRepository) Load(_ context.Context, ticker string) (*Artifact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	artifact, ok := f.artifacts[ticker]
	if !ok {
		return nil, ErrNotTrained
	}
	return artifact, nil
}

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "development", LogLevel: "error"})
}

// trainableSeries alternates gains and losses so RSI windows always see
// both, yielding usable feature rows.
func trainableSeries(ticker string, n int) *marketdata.Series {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]marketdata.Bar, n)
	for i := 0; i < n; i++ {
		close := 100.0 + 0.1*float64(i)
		if i%2 == 1 {
			close += 1.5
		}
		bars[i] = marketdata.Bar{
			Date:   start.AddDate(0, 0, i),
			Open:   close - 0.5,
			High:   close + 1,
			Low:    close - 1,
			Close:  close,
			Volume: 1000,
		}
	}
	return &marketdata.Series{Ticker: ticker, Bars: bars}
}

func newTestManager(loader SeriesLoader, repo Repository) *Manager {
	return NewManager(loader, repo, keylock.New(), testLogger())
}

func TestTrainPersistsArtifact(t *testing.T) {
	loader := &fakeSeriesLoader{series: map[string]*marketdata.Series{
		"AAPL": trainableSeries("AAPL", 120),
	}}
	repo := newFakeRepository()
	mgr := newTestManager(loader, repo)

	require.NoError(t, mgr.Train(context.Background(), "AAPL"))

	artifact, err := repo.Load(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.NotNil(t, artifact.Classifier)
	assert.Equal(t, features.Names, artifact.FeatureNames)
	assert.False(t, artifact.TrainedAt.IsZero())
}

func TestTrainOverwritesPriorModel(t *testing.T) {
	loader := &fakeSeriesLoader{series: map[string]*marketdata.Series{
		"AAPL": trainableSeries("AAPL", 120),
	}}
	repo := newFakeRepository()
	mgr := newTestManager(loader, repo)

	require.NoError(t, mgr.Train(context.Background(), "AAPL"))
	require.NoError(t, mgr.Train(context.Background(), "AAPL"))

	assert.Equal(t, 2, repo.saves)
	assert.Len(t, repo.artifacts, 1, "retraining must keep a single artifact per ticker")
}

func TestTrainSeriesUnavailable(t *testing.T) {
	loader := &fakeSeriesLoader{series: map[string]*marketdata.Series{}}
	repo := newFakeRepository()
	mgr := newTestManager(loader, repo)

	err := mgr.Train(context.Background(), "MISSING")
	require.Error(t, err)
	assert.ErrorIs(t, err, marketdata.ErrNotAvailable)
	assert.Empty(t, repo.artifacts)
}

func TestTrainInsufficientHistory(t *testing.T) {
	loader := &fakeSeriesLoader{series: map[string]*marketdata.Series{
		"SHORT": trainableSeries("SHORT", 30),
	}}
	repo := newFakeRepository()
	mgr := newTestManager(loader, repo)

	err := mgr.Train(context.Background(), "SHORT")
	require.Error(t, err)
	assert.Empty(t, repo.artifacts)
}

func TestPredictNotTrained(t *testing.T) {
	loader := &fakeSeriesLoader{series: map[string]*marketdata.Series{
		"AAPL": trainableSeries("AAPL", 120),
	}}
	mgr := newTestManager(loader, newFakeRepository())

	assert.Equal(t, PredictionNotTrained, mgr.Predict(context.Background(), "AAPL"))
}

func TestPredictDirectionalAfterTrain(t *testing.T) {
	loader := &fakeSeriesLoader{series: map[string]*marketdata.Series{
		"AAPL": trainableSeries("AAPL", 120),
	}}
	repo := newFakeRepository()
	mgr := newTestManager(loader, repo)

	require.NoError(t, mgr.Train(context.Background(), "AAPL"))

	pred := mgr.Predict(context.Background(), "AAPL")
	assert.Contains(t, []Prediction{PredictionUp, PredictionDown}, pred)
	assert.NotZero(t, pred.Signal())
}

func TestPredictRepositoryFailure(t *testing.T) {
	loader := &fakeSeriesLoader{series: map[string]*marketdata.Series{
		"AAPL": trainableSeries("AAPL", 120),
	}}
	repo := newFakeRepository()
	repo.loadErr = errors.New("connection refused")
	mgr := newTestManager(loader, repo)

	assert.Equal(t, PredictionDataError, mgr.Predict(context.Background(), "AAPL"))
}

func TestPredictSeriesUnavailable(t *testing.T) {
	loader := &fakeSeriesLoader{series: map[string]*marketdata.Series{
		"AAPL": trainableSeries("AAPL", 120),
	}}
	repo := newFakeRepository()
	mgr := newTestManager(loader, repo)
	require.NoError(t, mgr.Train(context.Background(), "AAPL"))

	loader.err = errors.New("upstream down")
	assert.Equal(t, PredictionDataError, mgr.Predict(context.Background(), "AAPL"))
}

func TestPredictInsufficientHistory(t *testing.T) {
	loader := &fakeSeriesLoader{series: map[string]*marketdata.Series{
		"AAPL": trainableSeries("AAPL", 120),
	}}
	repo := newFakeRepository()
	mgr := newTestManager(loader, repo)
	require.NoError(t, mgr.Train(context.Background(), "AAPL"))

	loader.series["AAPL"] = trainableSeries("AAPL", 10)
	assert.Equal(t, PredictionInsufficient, mgr.Predict(context.Background(), "AAPL"))
}

func TestPredictionStringAndSignal(t *testing.T) {
	assert.Equal(t, "UP", PredictionUp.String())
	assert.Equal(t, "DOWN", PredictionDown.String())
	assert.Equal(t, "NOT_TRAINED", PredictionNotTrained.String())
	assert.Equal(t, "DATA_ERROR", PredictionDataError.String())
	assert.Equal(t, "INSUFFICIENT_DATA", PredictionInsufficient.String())

	assert.Equal(t, 1, PredictionUp.Signal())
	assert.Equal(t, -1, PredictionDown.Signal())
	assert.Equal(t, 0, PredictionNotTrained.Signal())
	assert.Equal(t, 0, PredictionDataError.Signal())
	assert.Equal(t, 0, PredictionInsufficient.Signal())
}
