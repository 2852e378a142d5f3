package jobs

import (
	"context"

	"github.com/alphaquant/alpha/backend/pkg/logger"
)

// RetrainJob retrains every ticker's model weekly, early Monday so
// fresh models are in place before the week's sessions.
type RetrainJob struct {
	refresher Refresher
	logger    *logger.Logger
}

// NewRetrainJob creates the weekly retrain job
func NewRetrainJob(refresher Refresher, log *logger.Logger) *RetrainJob {
	return &RetrainJob{
		refresher: refresher,
		logger:    log,
	}
}

// Name returns the job name
func (j *RetrainJob) Name() string {
	return "model_retrain"
}

// Schedule runs every Monday at 04:00
func (j *RetrainJob) Schedule() string {
	return "0 0 4 * * 1"
}

// Run executes the retrain
func (j *RetrainJob) Run(ctx context.Context) error {
	trained := j.refresher.RetrainAll(ctx)
	j.logger.WithField("trained", trained).Info("Scheduled retrain finished")
	return nil
}
