package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alphaquant/alpha/backend/internal/api"
	"github.com/alphaquant/alpha/backend/internal/api/handlers"
	"github.com/alphaquant/alpha/backend/internal/scheduler"
	"github.com/alphaquant/alpha/backend/internal/scheduler/jobs"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the REST API server",
	Long: `Start the REST API server.

Endpoints:
  GET  /health                  - Health check
  POST /api/update-data         - Trigger full-universe data refresh
  POST /api/update-models       - Trigger full-universe retraining
  GET  /api/recommendations     - Top-N tickers for a horizon
  POST /api/assess-portfolio    - Evaluate a portfolio

Example:
  go run ./cmd/alpha api
  go run ./cmd/alpha api --port 8080 --with-scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort       string
	withScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
	apiCmd.Flags().BoolVar(&withScheduler, "with-scheduler", false, "run the nightly refresh / weekly retrain scheduler")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	app, err := newApplication(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if apiPort != "" {
		app.cfg.Port = apiPort
	}

	log := app.logger

	pipelineHandler := handlers.NewPipelineHandler(app.refresher, log)
	advisorHandler := handlers.NewAdvisorHandler(app.recommender, app.assessor, log)
	router := api.NewRouter(pipelineHandler, advisorHandler, log)
	server := api.New(app.cfg, log, router)

	if withScheduler {
		sched := scheduler.New(log)
		if err := sched.AddJob(jobs.NewDataRefreshJob(app.refresher, log)); err != nil {
			return err
		}
		if err := sched.AddJob(jobs.NewRetrainJob(app.refresher, log)); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("Server running on http://localhost:%s\n", app.cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
