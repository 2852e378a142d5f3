package wikipedia

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/alphaquant/alpha/backend/pkg/httputil"
	"github.com/alphaquant/alpha/backend/pkg/logger"
)

// Client scrapes equity index constituent lists from Wikipedia.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	pageURL    string
}

// NewClient creates a new Wikipedia constituents client. pageURL is the
// index article to scrape (e.g. the NASDAQ-100 page).
func NewClient(httpClient *httputil.Client, log *logger.Logger, pageURL string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		pageURL:    pageURL,
	}
}

// FetchConstituents scrapes the constituent table and returns the ticker
// symbols, one per table row. The constituents table on index articles
// carries id="constituents" with the ticker in the first cell of each row.
func (c *Client) FetchConstituents(ctx context.Context) ([]string, error) {
	resp, err := c.httpClient.GetWithHeaders(ctx, c.pageURL, map[string]string{
		"User-Agent": "alpha-screener/2.0",
	})
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse HTML failed: %w", err)
	}

	var tickers []string
	doc.Find("table#constituents tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return // Skip header row
		}
		cell := row.Find("td").First()
		ticker := strings.TrimSpace(cell.Text())
		if ticker != "" {
			tickers = append(tickers, ticker)
		}
	})

	if len(tickers) == 0 {
		return nil, fmt.Errorf("no constituents found at %s", c.pageURL)
	}

	c.logger.WithFields(map[string]interface{}{
		"url":   c.pageURL,
		"count": len(tickers),
	}).Debug("Fetched index constituents")

	return tickers, nil
}
