package advisor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphaquant/alpha/backend/internal/scoring"
	"github.com/alphaquant/alpha/backend/pkg/config"
	"github.com/alphaquant/alpha/backend/pkg/redis"
)

type fakeQuotes struct {
	prices map[string]float64
	calls  map[string]int
}

func newFakeQuotes(prices map[string]float64) *fakeQuotes {
	return &fakeQuotes{prices: prices, calls: make(map[string]int)}
}

func (f *fakeQuotes) LatestPrice(_ context.Context, ticker string) (float64, error) {
	f.calls[ticker]++
	price, ok := f.prices[ticker]
	if !ok {
		return 0, errors.New("no quote")
	}
	return price, nil
}

func disabledCache(t *testing.T) *redis.Cache {
	t.Helper()
	client, err := redis.New(&config.Config{})
	require.NoError(t, err)
	return redis.NewCache(client, "alpha-test")
}

func TestAssessComputesPnL(t *testing.T) {
	quotes := newFakeQuotes(map[string]float64{"AAPL": 60})
	scorer := &fakeScorer{scores: map[string]*scoring.ScoreSet{
		"AAPL": {Short: 55, Medium: 60, Long: 65},
	}}
	assessor := NewAssessor(quotes, disabledCache(t), scorer, testLogger())

	result := assessor.Assess(context.Background(), []Holding{
		{Symbol: "AAPL", Quantity: 10, PurchasePrice: 50},
	})

	require.Len(t, result.Details, 1)
	detail := result.Details[0]
	assert.Empty(t, detail.Error)
	assert.Equal(t, 60.0, detail.CurrentPrice)
	assert.Equal(t, 500.0, detail.PurchaseValue)
	assert.Equal(t, 600.0, detail.CurrentValue)
	assert.Equal(t, 20.0, detail.ProfitLossPercent)
	require.NotNil(t, detail.Scores)
	assert.Equal(t, 60.0, detail.Scores.Medium)

	assert.Equal(t, 500.0, result.TotalPurchaseValue)
	assert.Equal(t, 600.0, result.TotalCurrentValue)
	assert.Equal(t, 20.0, result.TotalProfitLossPercent)
}

func TestAssessQuoteFailureExcludedFromTotals(t *testing.T) {
	quotes := newFakeQuotes(map[string]float64{"AAPL": 60})
	scorer := &fakeScorer{scores: map[string]*scoring.ScoreSet{
		"AAPL": {Short: 55},
	}}
	assessor := NewAssessor(quotes, disabledCache(t), scorer, testLogger())

	result := assessor.Assess(context.Background(), []Holding{
		{Symbol: "AAPL", Quantity: 10, PurchasePrice: 50},
		{Symbol: "GONE", Quantity: 5, PurchasePrice: 100},
	})

	require.Len(t, result.Details, 2)
	failed := result.Details[1]
	assert.Equal(t, "GONE", failed.Symbol)
	assert.NotEmpty(t, failed.Error)
	assert.Zero(t, failed.CurrentValue)
	assert.Nil(t, failed.Scores)

	assert.Equal(t, 500.0, result.TotalPurchaseValue)
	assert.Equal(t, 600.0, result.TotalCurrentValue)
	assert.Equal(t, 20.0, result.TotalProfitLossPercent)
}

func TestAssessScoringFailureStillCounted(t *testing.T) {
	quotes := newFakeQuotes(map[string]float64{"NEW": 40})
	assessor := NewAssessor(quotes, disabledCache(t), &fakeScorer{}, testLogger())

	result := assessor.Assess(context.Background(), []Holding{
		{Symbol: "NEW", Quantity: 2, PurchasePrice: 50},
	})

	require.Len(t, result.Details, 1)
	detail := result.Details[0]
	assert.Empty(t, detail.Error)
	assert.Nil(t, detail.Scores)
	assert.Equal(t, -20.0, detail.ProfitLossPercent)
	assert.Equal(t, 100.0, result.TotalPurchaseValue)
	assert.Equal(t, 80.0, result.TotalCurrentValue)
	assert.Equal(t, -20.0, result.TotalProfitLossPercent)
}

func TestAssessEmptyPortfolio(t *testing.T) {
	assessor := NewAssessor(newFakeQuotes(nil), disabledCache(t), &fakeScorer{}, testLogger())

	result := assessor.Assess(context.Background(), nil)

	assert.Empty(t, result.Details)
	assert.Zero(t, result.TotalPurchaseValue)
	assert.Zero(t, result.TotalProfitLossPercent)
}

func TestHoldingValidate(t *testing.T) {
	assert.NoError(t, Holding{Symbol: "AAPL", Quantity: 1, PurchasePrice: 10}.Validate())
	assert.Error(t, Holding{Symbol: "", Quantity: 1, PurchasePrice: 10}.Validate())
	assert.Error(t, Holding{Symbol: "AAPL", Quantity: 0, PurchasePrice: 10}.Validate())
	assert.Error(t, Holding{Symbol: "AAPL", Quantity: 1, PurchasePrice: -1}.Validate())
}
