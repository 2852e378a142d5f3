package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alphaquant/alpha/backend/internal/advisor"
)

// recommendCmd represents the recommend command
var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Print the Top-N recommendations for a horizon",
	Long: `Score the whole universe and print the Top-N tickers for the
chosen investment horizon (short, medium or long).

Example:
  go run ./cmd/alpha recommend
  go run ./cmd/alpha recommend --horizon long --top 5`,
	RunE: runRecommend,
}

var (
	recommendHorizon string
	recommendTop     int
)

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().StringVar(&recommendHorizon, "horizon", "medium", "investment horizon (short|medium|long)")
	recommendCmd.Flags().IntVar(&recommendTop, "top", 10, "number of recommendations")
}

func runRecommend(cmd *cobra.Command, args []string) error {
	horizon, err := advisor.ParseHorizon(recommendHorizon)
	if err != nil {
		return err
	}
	if recommendTop < 1 {
		return fmt.Errorf("--top must be positive")
	}

	ctx := cmd.Context()

	app, err := newApplication(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	recommendations := app.recommender.Recommend(ctx, horizon, recommendTop)
	if len(recommendations) == 0 {
		fmt.Println("No scorable tickers. Run `alpha fetch all` first.")
		return nil
	}

	fmt.Printf("Top %d (%s horizon)\n", len(recommendations), horizon)
	for i, rec := range recommendations {
		fmt.Printf("%3d. %-10s %6.2f\n", i+1, rec.Symbol, rec.Score)
	}
	return nil
}
