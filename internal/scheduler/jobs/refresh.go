package jobs

import (
	"context"

	"github.com/alphaquant/alpha/backend/pkg/logger"
)

// Refresher is the batch pipeline the scheduled jobs delegate to
type Refresher interface {
	RefreshAll(ctx context.Context) int
	RetrainAll(ctx context.Context) int
}

// DataRefreshJob refreshes the whole universe's price history nightly,
// after the US close.
type DataRefreshJob struct {
	refresher Refresher
	logger    *logger.Logger
}

// NewDataRefreshJob creates the nightly refresh job
func NewDataRefreshJob(refresher Refresher, log *logger.Logger) *DataRefreshJob {
	return &DataRefreshJob{
		refresher: refresher,
		logger:    log,
	}
}

// Name returns the job name
func (j *DataRefreshJob) Name() string {
	return "data_refresh"
}

// Schedule runs every day at 02:00
func (j *DataRefreshJob) Schedule() string {
	return "0 0 2 * * *"
}

// Run executes the refresh
func (j *DataRefreshJob) Run(ctx context.Context) error {
	refreshed := j.refresher.RefreshAll(ctx)
	j.logger.WithField("refreshed", refreshed).Info("Scheduled data refresh finished")
	return nil
}
