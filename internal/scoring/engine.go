package scoring

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/alphaquant/alpha/backend/internal/features"
	"github.com/alphaquant/alpha/backend/internal/marketdata"
	"github.com/alphaquant/alpha/backend/internal/model"
	"github.com/alphaquant/alpha/backend/pkg/logger"
)

// ErrUnavailable is returned when a ticker cannot be scored because
// its series cannot be loaded. Callers omit such tickers rather than
// reporting a zero score.
var ErrUnavailable = errors.New("ticker unavailable for scoring")

// annualWindow is the trailing bar count treated as one trading year
// for the return and volatility components of the long-horizon score.
const annualWindow = 252

// ScoreSet holds the three horizon scores for one ticker, each in
// [0,100] and rounded to two decimals. Scores are recomputed on every
// request and never cached.
type ScoreSet struct {
	Short  float64 `json:"short"`
	Medium float64 `json:"medium"`
	Long   float64 `json:"long"`
}

// SeriesLoader provides cleaned series by ticker
type SeriesLoader interface {
	Load(ctx context.Context, ticker string) (*marketdata.Series, error)
}

// Predictor provides the per-ticker directional model signal
type Predictor interface {
	Predict(ctx context.Context, ticker string) model.Prediction
}

// Engine synthesizes horizon scores from technical indicators and the
// model's directional signal.
type Engine struct {
	series    SeriesLoader
	predictor Predictor
	logger    *logger.Logger
}

// NewEngine creates a new scoring engine
func NewEngine(series SeriesLoader, predictor Predictor, log *logger.Logger) *Engine {
	return &Engine{
		series:    series,
		predictor: predictor,
		logger:    log,
	}
}

// Score computes the three horizon scores for one ticker. A series
// that cannot be loaded yields ErrUnavailable; every other failure
// mode degrades to neutral or zero components instead of erroring.
//
// An undefined component (zero-loss RSI window, history shorter than
// an indicator window) propagates as NaN through the blend and is
// coerced to 0.0 at this boundary, so callers never see NaN. Zero is
// therefore ambiguous between "worst" and "unknown"; see DESIGN.md.
func (e *Engine) Score(ctx context.Context, ticker string) (*ScoreSet, error) {
	series, err := e.series.Load(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, ticker, err)
	}

	closes := series.Closes()
	rsi := features.LatestRSI(closes)
	sma20 := features.LatestSMA(closes, features.SMAShortWindow)
	sma50 := features.LatestSMA(closes, features.SMALongWindow)
	annualReturnPct := trailingReturnPct(closes, annualWindow)
	volatility := annualizedVolatility(closes, annualWindow)

	prediction := e.predictor.Predict(ctx, ticker)
	signal := prediction.Signal()

	e.logger.WithFields(map[string]interface{}{
		"ticker":     ticker,
		"bars":       len(closes),
		"prediction": prediction.String(),
	}).Debug("Scoring inputs ready")

	rsiScore := clip((rsi-30)/40, 0, 1) * 100
	aiComponent := float64(signal)*50 + 50
	short := rsiScore*0.7 + aiComponent*0.3

	trendStrength := sma20/sma50 - 1
	trendScore := clip(trendStrength*5, -1, 1)*50 + 50
	medium := trendScore*0.8 + short*0.2

	returnScore := clip(annualReturnPct, 0, 100)
	volatilityScore := 100 - clip(volatility*200, 0, 100)
	long := returnScore*0.6 + volatilityScore*0.4

	return &ScoreSet{
		Short:  round2(sanitize(short)),
		Medium: round2(sanitize(medium)),
		Long:   round2(sanitize(long)),
	}, nil
}

// trailingReturnPct is the percentage return over the trailing window,
// NaN when the history is too short.
func trailingReturnPct(closes []float64, window int) float64 {
	if len(closes) <= window {
		return math.NaN()
	}
	base := closes[len(closes)-1-window]
	if base == 0 {
		return math.NaN()
	}
	return (closes[len(closes)-1]/base - 1) * 100
}

// annualizedVolatility is the sample standard deviation of the trailing
// daily percentage changes, scaled by the square root of the window.
func annualizedVolatility(closes []float64, window int) float64 {
	if len(closes) < 3 {
		return math.NaN()
	}
	changes := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		changes = append(changes, closes[i]/closes[i-1]-1)
	}
	if len(changes) > window {
		changes = changes[len(changes)-window:]
	}
	return stat.StdDev(changes, nil) * math.Sqrt(float64(window))
}

// clip bounds v to [lo, hi]. NaN passes through untouched so the
// boundary coercion in Score can see it.
func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// sanitize coerces any numeric indeterminate to 0.0
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0.0
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
