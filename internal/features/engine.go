package features

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/alphaquant/alpha/backend/internal/marketdata"
)

// ErrInsufficient is returned when a series is too short for every
// indicator to be defined at its final bar.
var ErrInsufficient = errors.New("insufficient history for features")

// Indicator windows. SMA50 dominates: a series shorter than 50 bars
// cannot produce a complete feature row.
const (
	SMAShortWindow = 20
	SMALongWindow  = 50
	RSIWindow      = 14
	VolWindow      = 20

	// LabelHorizon is how many trading days ahead the binary
	// direction label looks.
	LabelHorizon = 7

	// LatestTail bounds how much history the inference-time feature
	// computation reads.
	LatestTail = 100
)

// Names is the canonical feature ordering used at fit time
var Names = []string{"sma_20", "sma_50", "rsi_14", "volatility_20"}

// Row is one bar's derived feature vector
type Row struct {
	SMA20      float64
	SMA50      float64
	RSI14      float64
	Volatility float64
}

// Values returns the row's features in the order given by names.
// names is the feature-name list stored with a trained model, so a
// model always sees the exact layout it was fitted on.
func (r Row) Values(names []string) ([]float64, error) {
	values := make([]float64, 0, len(names))
	for _, name := range names {
		switch name {
		case "sma_20":
			values = append(values, r.SMA20)
		case "sma_50":
			values = append(values, r.SMA50)
		case "rsi_14":
			values = append(values, r.RSI14)
		case "volatility_20":
			values = append(values, r.Volatility)
		default:
			return nil, fmt.Errorf("unknown feature %q", name)
		}
	}
	return values, nil
}

// defined reports whether every feature in the row is a real number
func (r Row) defined() bool {
	return !math.IsNaN(r.SMA20) && !math.IsNaN(r.SMA50) &&
		!math.IsNaN(r.RSI14) && !math.IsNaN(r.Volatility)
}

// LabeledRow pairs a feature row with its future-direction label
type LabeledRow struct {
	Row   Row
	Label int // 1 if Close LabelHorizon bars ahead > Close, else 0
}

// Derive builds the labeled training table for a series. Bars without
// enough trailing history for every indicator, or without a bar
// LabelHorizon days ahead, are excluded.
func Derive(series *marketdata.Series) []LabeledRow {
	closes := series.Closes()

	var rows []LabeledRow
	for i := range closes {
		future := i + LabelHorizon
		if future >= len(closes) {
			break
		}

		row := rowAt(closes, i)
		if !row.defined() {
			continue
		}

		label := 0
		if closes[future] > closes[i] {
			label = 1
		}
		rows = append(rows, LabeledRow{Row: row, Label: label})
	}
	return rows
}

// Latest computes the feature row for the most recent bar using at
// most LatestTail trailing bars. ErrInsufficient when any indicator is
// undefined at the final bar.
func Latest(series *marketdata.Series) (Row, error) {
	tail := series.Tail(LatestTail)
	closes := tail.Closes()
	if len(closes) == 0 {
		return Row{}, ErrInsufficient
	}

	row := rowAt(closes, len(closes)-1)
	if !row.defined() {
		return Row{}, ErrInsufficient
	}
	return row, nil
}

// rowAt computes the four indicators for index i of a close series.
// Undefined indicators come back as NaN.
func rowAt(closes []float64, i int) Row {
	return Row{
		SMA20:      smaAt(closes, i, SMAShortWindow),
		SMA50:      smaAt(closes, i, SMALongWindow),
		RSI14:      rsiAt(closes, i, RSIWindow),
		Volatility: stdDevAt(closes, i, VolWindow),
	}
}

// smaAt is the simple mean of the trailing window ending at i
func smaAt(closes []float64, i, window int) float64 {
	if i+1 < window {
		return math.NaN()
	}
	return stat.Mean(closes[i+1-window:i+1], nil)
}

// stdDevAt is the sample standard deviation of the trailing window
// ending at i
func stdDevAt(closes []float64, i, window int) float64 {
	if i+1 < window {
		return math.NaN()
	}
	return stat.StdDev(closes[i+1-window:i+1], nil)
}

// rsiAt computes the rolling-mean RSI over the trailing window of
// close deltas ending at i. A zero-loss window makes the gain/loss
// ratio undefined; that propagates as NaN and is resolved by the
// scoring engine's NaN policy.
func rsiAt(closes []float64, i, window int) float64 {
	if i < window {
		return math.NaN()
	}

	var gains, losses float64
	for j := i - window + 1; j <= i; j++ {
		delta := closes[j] - closes[j-1]
		if delta > 0 {
			gains += delta
		} else {
			losses += -delta
		}
	}

	meanGain := gains / float64(window)
	meanLoss := losses / float64(window)
	if meanLoss == 0 {
		return math.NaN()
	}

	rs := meanGain / meanLoss
	return 100 - 100/(1+rs)
}

// LatestSMA returns the simple moving average at the final bar of a
// close series, NaN when the series is shorter than the window.
func LatestSMA(closes []float64, window int) float64 {
	return smaAt(closes, len(closes)-1, window)
}

// LatestRSI returns the rolling-mean RSI at the final bar
func LatestRSI(closes []float64) float64 {
	return rsiAt(closes, len(closes)-1, RSIWindow)
}
