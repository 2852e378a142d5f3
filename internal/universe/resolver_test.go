package universe

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alphaquant/alpha/backend/pkg/config"
	"github.com/alphaquant/alpha/backend/pkg/logger"
)

type fakeSource struct {
	name    string
	tickers []string
	err     error
	seed    []string
}

func (f *fakeSource) Name() string                                { return f.name }
func (f *fakeSource) Tickers(_ context.Context) ([]string, error) { return f.tickers, f.err }
func (f *fakeSource) Seed() []string                              { return f.seed }

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "development", LogLevel: "error"})
}

func TestResolveMergesAndDedupes(t *testing.T) {
	r := NewResolver(testLogger(),
		&fakeSource{name: "a", tickers: []string{"AAPL", "MSFT", "SPY"}},
		&fakeSource{name: "b", tickers: []string{"BTC-USD", "SPY"}},
	)

	got := r.Resolve(context.Background())
	assert.ElementsMatch(t, []string{"AAPL", "MSFT", "SPY", "BTC-USD"}, got)
}

func TestResolveFallsBackToSeedOnError(t *testing.T) {
	r := NewResolver(testLogger(),
		&fakeSource{name: "equity", err: errors.New("network down"), seed: []string{"AAPL", "MSFT"}},
		&fakeSource{name: "crypto", tickers: []string{"BTC-USD"}},
		&fakeSource{name: "supplemental", tickers: []string{"SPY", "GLD"}},
	)

	got := r.Resolve(context.Background())

	// Failed source's seed list is present alongside healthy sources
	assert.ElementsMatch(t, []string{"AAPL", "MSFT", "BTC-USD", "SPY", "GLD"}, got)
}

func TestResolveFallsBackToSeedOnEmpty(t *testing.T) {
	r := NewResolver(testLogger(),
		&fakeSource{name: "equity", tickers: nil, seed: []string{"AAPL"}},
	)

	got := r.Resolve(context.Background())
	assert.Equal(t, []string{"AAPL"}, got)
}

func TestResolveNeverEmptyWithDefaultSources(t *testing.T) {
	// Every source failing still yields the union of seeds
	r := NewResolver(testLogger(),
		&fakeSource{name: "equity", err: errors.New("down"), seed: equitySeed},
		&fakeSource{name: "crypto", err: errors.New("down"), seed: cryptoSeed},
		NewSupplementalSource(),
	)

	got := r.Resolve(context.Background())
	assert.NotEmpty(t, got)
	assert.Contains(t, got, "AAPL")
	assert.Contains(t, got, "BTC-USD")
	assert.Contains(t, got, "SPY")
}

func TestStaticSource(t *testing.T) {
	s := NewSupplementalSource()
	tickers, err := s.Tickers(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, []string{"SPY", "QQQ", "GLD", "SLV", "USO"}, tickers)
	assert.Equal(t, tickers, s.Seed())
}
