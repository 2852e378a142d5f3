package commands

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "alpha",
	Short: "Alpha - multi-horizon asset scoring and recommendation server",
	Long: `Alpha scores a dynamically discovered universe of equities, crypto
assets and ETFs across three investment horizons, backed by per-asset
directional models trained on technical features.

Examples:
  go run ./cmd/alpha api
  go run ./cmd/alpha fetch all
  go run ./cmd/alpha train AAPL BTC-USD
  go run ./cmd/alpha recommend --horizon long --top 5`,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}
