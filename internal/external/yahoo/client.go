package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/alphaquant/alpha/backend/pkg/httputil"
	"github.com/alphaquant/alpha/backend/pkg/logger"
)

// Client fetches historical bars and live quotes from the Yahoo Finance
// chart API. Both the batch download and the single-quote lookup go
// through this client.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new Yahoo Finance client
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    baseURL,
	}
}

// Bar is one raw daily bar as returned by the chart API. Fields are
// pointers because the API emits explicit nulls on halted/partial days;
// the series store decides what to do with them.
type Bar struct {
	Date   time.Time
	Open   *float64
	High   *float64
	Low    *float64
	Close  *float64
	Volume *float64
}

// chartResponse mirrors the subset of the chart API payload we read
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchDaily downloads the historical bar series for a ticker.
// period is a chart API range ("5y", "1y", ...), interval a bar size ("1d").
func (c *Client) FetchDaily(ctx context.Context, ticker, period, interval string) ([]Bar, error) {
	params := url.Values{}
	params.Set("range", period)
	params.Set("interval", interval)
	params.Set("events", "history")

	fullURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(ticker), params.Encode())

	var payload chartResponse
	if err := c.httpClient.GetJSON(ctx, fullURL, &payload); err != nil {
		return nil, fmt.Errorf("chart request failed: %w", err)
	}

	bars, err := c.toBars(&payload)
	if err != nil {
		return nil, fmt.Errorf("ticker %q: %w", ticker, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"range":  period,
		"count":  len(bars),
	}).Debug("Fetched historical bars")

	return bars, nil
}

// LatestPrice returns the most recent close for a ticker. This is a
// live single-bar lookup, separate from the batch history download.
func (c *Client) LatestPrice(ctx context.Context, ticker string) (float64, error) {
	bars, err := c.FetchDaily(ctx, ticker, "1d", "1d")
	if err != nil {
		return 0, err
	}

	// Walk backwards past trailing nulls
	for i := len(bars) - 1; i >= 0; i-- {
		if bars[i].Close != nil {
			return *bars[i].Close, nil
		}
	}

	return 0, fmt.Errorf("no quote available for %q", ticker)
}

// toBars converts the chart payload into a bar slice
func (c *Client) toBars(payload *chartResponse) ([]Bar, error) {
	if payload.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error: %s (%s)",
			payload.Chart.Error.Description, payload.Chart.Error.Code)
	}

	if len(payload.Chart.Result) == 0 {
		return nil, fmt.Errorf("empty chart result")
	}

	result := payload.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("chart result has no quote data")
	}
	quote := result.Indicators.Quote[0]

	if len(result.Timestamp) == 0 {
		return nil, fmt.Errorf("chart result has no timestamps")
	}

	bars := make([]Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		bar := Bar{Date: time.Unix(ts, 0).UTC()}
		if i < len(quote.Open) {
			bar.Open = quote.Open[i]
		}
		if i < len(quote.High) {
			bar.High = quote.High[i]
		}
		if i < len(quote.Low) {
			bar.Low = quote.Low[i]
		}
		if i < len(quote.Close) {
			bar.Close = quote.Close[i]
		}
		if i < len(quote.Volume) {
			bar.Volume = quote.Volume[i]
		}
		bars = append(bars, bar)
	}

	return bars, nil
}
