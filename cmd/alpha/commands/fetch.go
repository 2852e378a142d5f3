package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch [ticker...|all]",
	Short: "Download and store historical price data",
	Long: `Download historical OHLCV data for the given tickers, or for the
whole resolved universe with "all", and persist it to the database.

Example:
  go run ./cmd/alpha fetch all
  go run ./cmd/alpha fetch AAPL BTC-USD SPY`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	app, err := newApplication(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if len(args) == 1 && args[0] == "all" {
		refreshed := app.refresher.RefreshAll(ctx)
		fmt.Printf("Refreshed %d tickers\n", refreshed)
		return nil
	}

	failures := 0
	for _, ticker := range args {
		series, err := app.store.Fetch(ctx, ticker, app.cfg.Pipeline.FetchPeriod, app.cfg.Pipeline.FetchInterval)
		if err != nil {
			app.logger.WithError(err).WithField("ticker", ticker).Error("Fetch failed")
			failures++
			continue
		}
		fmt.Printf("%-10s %d bars\n", ticker, series.Len())
	}
	if failures > 0 {
		return fmt.Errorf("%d of %d tickers failed", failures, len(args))
	}
	return nil
}
