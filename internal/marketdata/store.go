package marketdata

import (
	"context"
	"fmt"
	"strconv"

	"github.com/alphaquant/alpha/backend/internal/external/yahoo"
	"github.com/alphaquant/alpha/backend/pkg/logger"
)

// Downloader is the historical price source behind the store
type Downloader interface {
	FetchDaily(ctx context.Context, ticker, period, interval string) ([]yahoo.Bar, error)
}

// Store acquires, validates and persists one OHLCV series per ticker.
type Store struct {
	downloader Downloader
	repo       Repository
	logger     *logger.Logger
}

// NewStore creates a new series store
func NewStore(downloader Downloader, repo Repository, log *logger.Logger) *Store {
	return &Store{
		downloader: downloader,
		repo:       repo,
		logger:     log,
	}
}

// Fetch downloads a ticker's history, persists it (full overwrite) and
// returns the cleaned series. Acquisition failure or an empty cleaned
// result yields ErrNotAvailable; the caller moves on to other tickers.
func (s *Store) Fetch(ctx context.Context, ticker, period, interval string) (*Series, error) {
	bars, err := s.downloader.FetchDaily(ctx, ticker, period, interval)
	if err != nil {
		s.logger.WithError(err).WithField("ticker", ticker).Warn("Historical download failed")
		return nil, ErrNotAvailable
	}

	rows := toRawRows(bars)
	if len(rows) == 0 {
		s.logger.WithField("ticker", ticker).Warn("Historical download returned no rows")
		return nil, ErrNotAvailable
	}

	if err := s.repo.Replace(ctx, ticker, rows); err != nil {
		return nil, fmt.Errorf("persist series for %q: %w", ticker, err)
	}

	series, dropped := Clean(ticker, rows)
	if dropped > 0 {
		s.logger.WithFields(map[string]interface{}{
			"ticker":  ticker,
			"dropped": dropped,
		}).Warn("Dropped invalid rows while cleaning series")
	}
	if series.Len() == 0 {
		return nil, ErrNotAvailable
	}

	s.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"bars":   series.Len(),
	}).Debug("Series fetched and persisted")

	return series, nil
}

// Load reads a previously persisted series, applying the same cleaning
// rule as Fetch. An empty or missing series yields ErrNotAvailable.
func (s *Store) Load(ctx context.Context, ticker string) (*Series, error) {
	rows, err := s.repo.Load(ctx, ticker)
	if err != nil {
		s.logger.WithError(err).WithField("ticker", ticker).Error("Failed to read persisted series")
		return nil, ErrNotAvailable
	}
	if len(rows) == 0 {
		return nil, ErrNotAvailable
	}

	series, dropped := Clean(ticker, rows)
	if dropped > 0 {
		s.logger.WithFields(map[string]interface{}{
			"ticker":  ticker,
			"dropped": dropped,
		}).Warn("Dropped invalid rows while cleaning series")
	}
	if series.Len() == 0 {
		return nil, ErrNotAvailable
	}

	return series, nil
}

// toRawRows converts downloaded bars into persistable raw rows. Null
// cells become blanks so the cleaning pass drops those rows uniformly.
func toRawRows(bars []yahoo.Bar) []RawBar {
	rows := make([]RawBar, 0, len(bars))
	for _, bar := range bars {
		rows = append(rows, RawBar{
			Date:   bar.Date.Format("2006-01-02"),
			Open:   formatCell(bar.Open),
			High:   formatCell(bar.High),
			Low:    formatCell(bar.Low),
			Close:  formatCell(bar.Close),
			Volume: formatCell(bar.Volume),
		})
	}
	return rows
}

func formatCell(value *float64) string {
	if value == nil {
		return ""
	}
	return strconv.FormatFloat(*value, 'f', -1, 64)
}
