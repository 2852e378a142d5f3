package universe

import (
	"context"

	"github.com/alphaquant/alpha/backend/pkg/logger"
)

// Source is one independently-fallible provider of ticker symbols.
// Seed is the hardcoded fallback used when the live lookup fails, so a
// single source outage never empties the universe.
type Source interface {
	Name() string
	Tickers(ctx context.Context) ([]string, error)
	Seed() []string
}

// Resolver produces the deduplicated set of tickers to track by
// merging every configured source.
type Resolver struct {
	sources []Source
	logger  *logger.Logger
}

// NewResolver creates a new universe resolver
func NewResolver(log *logger.Logger, sources ...Source) *Resolver {
	return &Resolver{
		sources: sources,
		logger:  log,
	}
}

// Resolve returns the union of all source ticker lists. A source that
// fails or comes back empty is replaced by its seed list. Duplicates
// across sources collapse; ordering follows first discovery but is not
// part of the contract.
func (r *Resolver) Resolve(ctx context.Context) []string {
	seen := make(map[string]bool)
	var universe []string

	for _, source := range r.sources {
		tickers, err := source.Tickers(ctx)
		if err != nil || len(tickers) == 0 {
			r.logger.WithFields(map[string]interface{}{
				"source": source.Name(),
				"error":  errString(err),
			}).Warn("Universe source failed, using seed list")
			tickers = source.Seed()
		} else {
			r.logger.WithFields(map[string]interface{}{
				"source": source.Name(),
				"count":  len(tickers),
			}).Debug("Universe source resolved")
		}

		for _, ticker := range tickers {
			if ticker == "" || seen[ticker] {
				continue
			}
			seen[ticker] = true
			universe = append(universe, ticker)
		}
	}

	r.logger.WithField("count", len(universe)).Info("Universe resolved")
	return universe
}

func errString(err error) string {
	if err == nil {
		return "empty result"
	}
	return err.Error()
}
