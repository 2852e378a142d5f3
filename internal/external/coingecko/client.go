package coingecko

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/alphaquant/alpha/backend/pkg/httputil"
	"github.com/alphaquant/alpha/backend/pkg/logger"
)

// Client fetches the market-cap ranked cryptocurrency list from the
// CoinGecko markets API.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new CoinGecko client
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    baseURL,
	}
}

// coinMarket is the subset of the /coins/markets payload we read
type coinMarket struct {
	Symbol string `json:"symbol"`
}

// FetchTopTickers returns the top-N coins by market cap, normalized to
// the SYMBOL-USD pair form used by the historical price source.
func (c *Client) FetchTopTickers(ctx context.Context, limit int) ([]string, error) {
	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("order", "market_cap_desc")
	params.Set("per_page", fmt.Sprintf("%d", limit))
	params.Set("page", "1")
	params.Set("sparkline", "false")

	fullURL := fmt.Sprintf("%s/coins/markets?%s", c.baseURL, params.Encode())

	var coins []coinMarket
	if err := c.httpClient.GetJSON(ctx, fullURL, &coins); err != nil {
		return nil, fmt.Errorf("fetch coin markets failed: %w", err)
	}

	if len(coins) == 0 {
		return nil, fmt.Errorf("empty coin markets response")
	}

	tickers := make([]string, 0, len(coins))
	for _, coin := range coins {
		symbol := strings.ToUpper(strings.TrimSpace(coin.Symbol))
		if symbol == "" {
			continue
		}
		tickers = append(tickers, symbol+"-USD")
	}

	c.logger.WithField("count", len(tickers)).Debug("Fetched crypto tickers")
	return tickers, nil
}
