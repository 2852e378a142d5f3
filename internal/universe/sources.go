package universe

import (
	"context"

	"github.com/alphaquant/alpha/backend/internal/external/coingecko"
	"github.com/alphaquant/alpha/backend/internal/external/wikipedia"
)

// Seed lists used when a live source is unreachable or comes back
// empty. Small on purpose: enough to keep the pipeline meaningful
// through an outage.
var (
	equitySeed = []string{"AAPL", "MSFT", "AMZN", "GOOGL", "NVDA", "TSLA", "META", "AVGO", "PEP", "COST"}
	cryptoSeed = []string{"BTC-USD", "ETH-USD", "USDT-USD", "BNB-USD", "SOL-USD"}

	// Supplemental ETFs and commodity proxies, always tracked
	supplementalTickers = []string{"SPY", "QQQ", "GLD", "SLV", "USO"}
)

// EquityIndexSource lists the constituents of an equities index
type EquityIndexSource struct {
	client *wikipedia.Client
}

// NewEquityIndexSource creates an index constituent source
func NewEquityIndexSource(client *wikipedia.Client) *EquityIndexSource {
	return &EquityIndexSource{client: client}
}

func (s *EquityIndexSource) Name() string { return "equity-index" }

func (s *EquityIndexSource) Tickers(ctx context.Context) ([]string, error) {
	return s.client.FetchConstituents(ctx)
}

func (s *EquityIndexSource) Seed() []string { return equitySeed }

// CryptoMarketSource lists the top cryptocurrencies by market cap
type CryptoMarketSource struct {
	client *coingecko.Client
	limit  int
}

// NewCryptoMarketSource creates a market-cap ranked crypto source
func NewCryptoMarketSource(client *coingecko.Client, limit int) *CryptoMarketSource {
	if limit <= 0 {
		limit = 100
	}
	return &CryptoMarketSource{client: client, limit: limit}
}

func (s *CryptoMarketSource) Name() string { return "crypto-market-cap" }

func (s *CryptoMarketSource) Tickers(ctx context.Context) ([]string, error) {
	return s.client.FetchTopTickers(ctx, s.limit)
}

func (s *CryptoMarketSource) Seed() []string { return cryptoSeed }

// StaticSource is a fixed supplemental ticker list. It never fails.
type StaticSource struct {
	name    string
	tickers []string
}

// NewStaticSource creates a fixed-list source
func NewStaticSource(name string, tickers []string) *StaticSource {
	return &StaticSource{name: name, tickers: tickers}
}

// NewSupplementalSource returns the default ETF/commodity source
func NewSupplementalSource() *StaticSource {
	return NewStaticSource("supplemental", supplementalTickers)
}

func (s *StaticSource) Name() string { return s.name }

func (s *StaticSource) Tickers(_ context.Context) ([]string, error) {
	return s.tickers, nil
}

func (s *StaticSource) Seed() []string { return s.tickers }
