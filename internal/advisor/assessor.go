package advisor

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/alphaquant/alpha/backend/internal/scoring"
	"github.com/alphaquant/alpha/backend/pkg/logger"
	"github.com/alphaquant/alpha/backend/pkg/redis"
)

// quoteTTL bounds how stale a cached live quote may be
const quoteTTL = 60 * time.Second

// QuoteSource provides the latest traded price for a symbol
type QuoteSource interface {
	LatestPrice(ctx context.Context, ticker string) (float64, error)
}

// Holding is one caller-supplied portfolio position
type Holding struct {
	Symbol        string  `json:"symbol"`
	Quantity      float64 `json:"quantity"`
	PurchasePrice float64 `json:"purchase_price"`
}

// Validate rejects holdings the assessment math cannot be run on
func (h Holding) Validate() error {
	if h.Symbol == "" {
		return fmt.Errorf("holding symbol must not be empty")
	}
	if h.Quantity <= 0 {
		return fmt.Errorf("holding %s: quantity must be positive", h.Symbol)
	}
	if h.PurchasePrice <= 0 {
		return fmt.Errorf("holding %s: purchase price must be positive", h.Symbol)
	}
	return nil
}

// HoldingAssessment is the per-position result. Error is set and the
// numeric fields zeroed when the live quote could not be fetched; a
// scoring failure only leaves Scores nil.
type HoldingAssessment struct {
	Symbol            string            `json:"symbol"`
	Quantity          float64           `json:"quantity"`
	PurchasePrice     float64           `json:"purchase_price"`
	CurrentPrice      float64           `json:"current_price,omitempty"`
	PurchaseValue     float64           `json:"purchase_value,omitempty"`
	CurrentValue      float64           `json:"current_value,omitempty"`
	ProfitLossPercent float64           `json:"profit_loss_percent,omitempty"`
	Scores            *scoring.ScoreSet `json:"scores,omitempty"`
	Error             string            `json:"error,omitempty"`
}

// Assessment is the full portfolio result. Totals cover only holdings
// that were successfully priced.
type Assessment struct {
	TotalPurchaseValue     float64             `json:"total_purchase_value"`
	TotalCurrentValue      float64             `json:"total_current_value"`
	TotalProfitLossPercent float64             `json:"total_profit_loss_percent"`
	Details                []HoldingAssessment `json:"details"`
}

// Assessor prices and scores a user portfolio
type Assessor struct {
	quotes QuoteSource
	cache  *redis.Cache
	scorer Scorer
	logger *logger.Logger
}

// NewAssessor creates a new portfolio assessor. cache may be backed by
// a disabled Redis client, in which case every quote is fetched live.
func NewAssessor(quotes QuoteSource, cache *redis.Cache, scorer Scorer, log *logger.Logger) *Assessor {
	return &Assessor{
		quotes: quotes,
		cache:  cache,
		scorer: scorer,
		logger: log,
	}
}

// Assess evaluates each holding independently. A failed quote marks
// that holding with an error and excludes it from the portfolio
// totals; a failed score only drops the holding's score set.
func (a *Assessor) Assess(ctx context.Context, holdings []Holding) *Assessment {
	assessment := &Assessment{
		Details: make([]HoldingAssessment, 0, len(holdings)),
	}

	for _, holding := range holdings {
		detail := HoldingAssessment{
			Symbol:        holding.Symbol,
			Quantity:      holding.Quantity,
			PurchasePrice: holding.PurchasePrice,
		}

		price, err := a.latestPrice(ctx, holding.Symbol)
		if err != nil {
			a.logger.WithError(err).WithField("ticker", holding.Symbol).Warn("Quote lookup failed")
			detail.Error = fmt.Sprintf("price unavailable: %v", err)
			assessment.Details = append(assessment.Details, detail)
			continue
		}

		detail.CurrentPrice = round2(price)
		detail.PurchaseValue = round2(holding.Quantity * holding.PurchasePrice)
		detail.CurrentValue = round2(holding.Quantity * price)
		detail.ProfitLossPercent = round2((price/holding.PurchasePrice - 1) * 100)

		if scores, err := a.scorer.Score(ctx, holding.Symbol); err == nil {
			detail.Scores = scores
		} else {
			a.logger.WithError(err).WithField("ticker", holding.Symbol).Warn("Holding scoring failed")
		}

		assessment.TotalPurchaseValue += detail.PurchaseValue
		assessment.TotalCurrentValue += detail.CurrentValue
		assessment.Details = append(assessment.Details, detail)
	}

	if assessment.TotalPurchaseValue > 0 {
		assessment.TotalProfitLossPercent = round2(
			(assessment.TotalCurrentValue/assessment.TotalPurchaseValue - 1) * 100)
	}
	assessment.TotalPurchaseValue = round2(assessment.TotalPurchaseValue)
	assessment.TotalCurrentValue = round2(assessment.TotalCurrentValue)

	return assessment
}

// latestPrice serves a quote from the cache when possible, fetching
// and caching on a miss.
func (a *Assessor) latestPrice(ctx context.Context, symbol string) (float64, error) {
	key := "quote:" + symbol

	var cached float64
	if hit, err := a.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	price, err := a.quotes.LatestPrice(ctx, symbol)
	if err != nil {
		return 0, err
	}

	if err := a.cache.Set(ctx, key, price, quoteTTL); err != nil {
		a.logger.WithError(err).WithField("ticker", symbol).Debug("Quote cache write failed")
	}
	return price, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
