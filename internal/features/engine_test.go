package features

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphaquant/alpha/backend/internal/marketdata"
)

// seriesFromCloses builds a daily series with the given closes
func seriesFromCloses(closes []float64) *marketdata.Series {
	bars := make([]marketdata.Bar, len(closes))
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = marketdata.Bar{
			Date:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1000,
		}
	}
	return &marketdata.Series{Ticker: "TEST", Bars: bars}
}

// oscillating returns n closes that zig-zag around a rising base so
// every window contains both gains and losses
func oscillating(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + float64(i)*0.1
		if i%2 == 1 {
			closes[i] += 1.5
		}
	}
	return closes
}

func TestDeriveTooShort(t *testing.T) {
	rows := Derive(seriesFromCloses(oscillating(30)))
	assert.Empty(t, rows)
}

func TestDeriveRowCount(t *testing.T) {
	// 70 bars: SMA50 defined from index 49, label defined through
	// index 62 (future bar at 69), so 14 rows survive
	rows := Derive(seriesFromCloses(oscillating(70)))
	assert.Len(t, rows, 14)

	for _, row := range rows {
		assert.False(t, math.IsNaN(row.Row.SMA20))
		assert.False(t, math.IsNaN(row.Row.SMA50))
		assert.False(t, math.IsNaN(row.Row.RSI14))
		assert.False(t, math.IsNaN(row.Row.Volatility))
	}
}

func TestDeriveLabels(t *testing.T) {
	// Oscillating-but-rising closes: every bar is below the bar 7
	// days ahead except where the zig-zag dips
	closes := oscillating(70)
	rows := Derive(seriesFromCloses(closes))
	require.NotEmpty(t, rows)

	// Rebuild expected labels for the surviving indexes (49..62)
	for i, row := range rows {
		idx := 49 + i
		expected := 0
		if closes[idx+LabelHorizon] > closes[idx] {
			expected = 1
		}
		assert.Equal(t, expected, row.Label, "label at index %d", idx)
	}
}

func TestDeriveExcludesZeroLossWindows(t *testing.T) {
	// Strictly increasing closes: loss windows are all zero, RSI is
	// undefined everywhere, so no training rows survive
	closes := make([]float64, 70)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	rows := Derive(seriesFromCloses(closes))
	assert.Empty(t, rows)
}

func TestLatest(t *testing.T) {
	series := seriesFromCloses(oscillating(80))
	row, err := Latest(series)
	require.NoError(t, err)

	assert.False(t, math.IsNaN(row.SMA20))
	assert.False(t, math.IsNaN(row.SMA50))
	assert.True(t, row.RSI14 > 0 && row.RSI14 < 100)
	assert.True(t, row.Volatility > 0)
}

func TestLatestInsufficient(t *testing.T) {
	_, err := Latest(seriesFromCloses(oscillating(40)))
	assert.ErrorIs(t, err, ErrInsufficient)
}

func TestLatestEmptySeries(t *testing.T) {
	_, err := Latest(&marketdata.Series{Ticker: "X"})
	assert.ErrorIs(t, err, ErrInsufficient)
}

func TestLatestUsesBoundedTail(t *testing.T) {
	// A long series with an early crash: the tail-bounded computation
	// must match computing over just the last LatestTail bars
	closes := oscillating(400)
	closes[0] = 1 // ancient outlier, outside the tail

	full := seriesFromCloses(closes)
	tail := seriesFromCloses(closes[len(closes)-LatestTail:])

	rowFull, err := Latest(full)
	require.NoError(t, err)
	rowTail, err := Latest(tail)
	require.NoError(t, err)

	assert.InDelta(t, rowTail.SMA20, rowFull.SMA20, 1e-12)
	assert.InDelta(t, rowTail.SMA50, rowFull.SMA50, 1e-12)
	assert.InDelta(t, rowTail.RSI14, rowFull.RSI14, 1e-12)
	assert.InDelta(t, rowTail.Volatility, rowFull.Volatility, 1e-12)
}

func TestLatestSMA(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5}
	assert.InDelta(t, 4.0, LatestSMA(closes, 3), 1e-12) // (3+4+5)/3
	assert.True(t, math.IsNaN(LatestSMA(closes, 10)))
}

func TestLatestRSIConstantSeriesIsNaN(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100
	}
	// No gains and no losses: zero denominator propagates as NaN
	assert.True(t, math.IsNaN(LatestRSI(closes)))
}

func TestRowValuesOrdering(t *testing.T) {
	row := Row{SMA20: 1, SMA50: 2, RSI14: 3, Volatility: 4}

	values, err := row.Values([]string{"volatility_20", "rsi_14", "sma_50", "sma_20"})
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 3, 2, 1}, values)

	_, err = row.Values([]string{"sma_200"})
	assert.Error(t, err)
}
