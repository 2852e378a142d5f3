package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// trainCmd represents the train command
var trainCmd = &cobra.Command{
	Use:   "train [ticker...|all]",
	Short: "Train directional models from stored price data",
	Long: `Train a directional classifier for the given tickers, or for the
whole resolved universe with "all". Each ticker's previous model is
replaced.

Example:
  go run ./cmd/alpha train all
  go run ./cmd/alpha train AAPL NVDA`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	app, err := newApplication(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if len(args) == 1 && args[0] == "all" {
		trained := app.refresher.RetrainAll(ctx)
		fmt.Printf("Trained %d models\n", trained)
		return nil
	}

	failures := 0
	for _, ticker := range args {
		if err := app.manager.Train(ctx, ticker); err != nil {
			app.logger.WithError(err).WithField("ticker", ticker).Error("Training failed")
			failures++
			continue
		}
		fmt.Printf("%-10s trained\n", ticker)
	}
	if failures > 0 {
		return fmt.Errorf("%d of %d tickers failed", failures, len(args))
	}
	return nil
}
