package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/alphaquant/alpha/backend/internal/keylock"
	"github.com/alphaquant/alpha/backend/internal/marketdata"
	"github.com/alphaquant/alpha/backend/pkg/config"
	"github.com/alphaquant/alpha/backend/pkg/logger"
)

// Universe produces the current ticker universe
type Universe interface {
	Resolve(ctx context.Context) []string
}

// Fetcher downloads and persists one ticker's historical series
type Fetcher interface {
	Fetch(ctx context.Context, ticker, period, interval string) (*marketdata.Series, error)
}

// Trainer fits and persists one ticker's model
type Trainer interface {
	Train(ctx context.Context, ticker string) error
}

// Refresher orchestrates the full-universe background jobs: bulk data
// refresh and bulk retraining. Both run every ticker over a bounded
// worker pool; a per-ticker failure is logged and never aborts the
// rest of the batch. Concurrent invocations are allowed, with
// per-ticker locks serializing writes to the same key.
type Refresher struct {
	universe Universe
	fetcher  Fetcher
	trainer  Trainer
	locks    *keylock.KeyedMutex
	cfg      config.PipelineConfig
	logger   *logger.Logger
}

// NewRefresher creates a new refresher. locks must be the same
// instance the model manager uses so refresh and retrain never write
// the same ticker concurrently.
func NewRefresher(universe Universe, fetcher Fetcher, trainer Trainer, locks *keylock.KeyedMutex, cfg config.PipelineConfig, log *logger.Logger) *Refresher {
	return &Refresher{
		universe: universe,
		fetcher:  fetcher,
		trainer:  trainer,
		locks:    locks,
		cfg:      cfg,
		logger:   log,
	}
}

// RefreshAll fetches fresh history for every ticker in the universe.
// Returns the number of tickers refreshed successfully.
func (r *Refresher) RefreshAll(ctx context.Context) int {
	return r.runAll(ctx, "refresh", func(ctx context.Context, ticker string) error {
		unlock := r.locks.Lock("series:" + ticker)
		defer unlock()
		_, err := r.fetcher.Fetch(ctx, ticker, r.cfg.FetchPeriod, r.cfg.FetchInterval)
		return err
	})
}

// RetrainAll retrains every ticker's model from its stored series.
// Returns the number of models trained successfully.
func (r *Refresher) RetrainAll(ctx context.Context) int {
	return r.runAll(ctx, "retrain", func(ctx context.Context, ticker string) error {
		return r.trainer.Train(ctx, ticker)
	})
}

func (r *Refresher) runAll(ctx context.Context, job string, work func(ctx context.Context, ticker string) error) int {
	started := time.Now()
	tickers := r.universe.Resolve(ctx)

	r.logger.WithFields(map[string]interface{}{
		"job":      job,
		"universe": len(tickers),
		"workers":  r.workers(),
	}).Info("Batch job started")

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	jobs := make(chan string)
	for w := 0; w < r.workers(); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ticker := range jobs {
				if err := work(ctx, ticker); err != nil {
					r.logger.WithError(err).WithFields(map[string]interface{}{
						"job":    job,
						"ticker": ticker,
					}).Warn("Ticker failed")
					continue
				}
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	for _, ticker := range tickers {
		jobs <- ticker
	}
	close(jobs)
	wg.Wait()

	r.logger.WithFields(map[string]interface{}{
		"job":       job,
		"succeeded": succeeded,
		"failed":    len(tickers) - succeeded,
		"elapsed":   time.Since(started).String(),
	}).Info("Batch job finished")

	return succeeded
}

func (r *Refresher) workers() int {
	if r.cfg.Workers < 1 {
		return 1
	}
	return r.cfg.Workers
}
