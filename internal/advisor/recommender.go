package advisor

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/alphaquant/alpha/backend/internal/scoring"
	"github.com/alphaquant/alpha/backend/pkg/logger"
)

// Scorer produces a ticker's score set
type Scorer interface {
	Score(ctx context.Context, ticker string) (*scoring.ScoreSet, error)
}

// UniverseResolver produces the current ticker universe in discovery order
type UniverseResolver interface {
	Resolve(ctx context.Context) []string
}

// Recommendation is one ranked entry for a chosen horizon
type Recommendation struct {
	Symbol string  `json:"symbol"`
	Score  float64 `json:"score"`
}

// Recommender ranks the universe by a horizon score. Tickers whose
// series cannot be loaded are omitted from the ranking, not reported
// as zero.
type Recommender struct {
	universe UniverseResolver
	scorer   Scorer
	workers  int
	logger   *logger.Logger
}

// NewRecommender creates a new recommender with a scoring worker pool
// of the given size.
func NewRecommender(universe UniverseResolver, scorer Scorer, workers int, log *logger.Logger) *Recommender {
	if workers < 1 {
		workers = 1
	}
	return &Recommender{
		universe: universe,
		scorer:   scorer,
		workers:  workers,
		logger:   log,
	}
}

// Recommend resolves the universe, scores every ticker concurrently
// and returns the top n for the horizon, sorted descending with ties
// keeping universe discovery order.
func (r *Recommender) Recommend(ctx context.Context, horizon Horizon, topN int) []Recommendation {
	tickers := r.universe.Resolve(ctx)

	// Results land in discovery-order slots so the stable sort's tie
	// break is deterministic regardless of worker completion order.
	results := make([]*Recommendation, len(tickers))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				ticker := tickers[i]
				scores, err := r.scorer.Score(ctx, ticker)
				if err != nil {
					if !errors.Is(err, scoring.ErrUnavailable) {
						r.logger.WithError(err).WithField("ticker", ticker).Warn("Scoring failed")
					}
					continue
				}
				results[i] = &Recommendation{
					Symbol: ticker,
					Score:  horizon.Select(scores),
				}
			}
		}()
	}
	for i := range tickers {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	ranked := make([]Recommendation, 0, len(tickers))
	for _, rec := range results {
		if rec != nil {
			ranked = append(ranked, *rec)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if topN >= 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}

	r.logger.WithFields(map[string]interface{}{
		"horizon":  string(horizon),
		"universe": len(tickers),
		"returned": len(ranked),
	}).Info("Recommendations generated")

	return ranked
}
