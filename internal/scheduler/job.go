package scheduler

import (
	"context"
	"time"
)

// Job is one scheduled unit of work
type Job interface {
	// Name returns the job name
	Name() string

	// Run executes the job
	Run(ctx context.Context) error

	// Schedule returns the cron expression, seconds field included.
	// Example: "0 0 2 * * *" (every day at 02:00).
	Schedule() string
}

// JobResult records one execution
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// historyLimit bounds per-job history retention
const historyLimit = 100

// JobHistory is a bounded per-job execution log
type JobHistory struct {
	Results []JobResult
}

// Add appends a result, evicting the oldest beyond the limit
func (h *JobHistory) Add(result JobResult) {
	h.Results = append(h.Results, result)
	if len(h.Results) > historyLimit {
		h.Results = h.Results[len(h.Results)-historyLimit:]
	}
}

// Latest returns the most recent n results
func (h *JobHistory) Latest(n int) []JobResult {
	if n > len(h.Results) {
		n = len(h.Results)
	}
	if n == 0 {
		return []JobResult{}
	}
	return h.Results[len(h.Results)-n:]
}

// SuccessRate returns the fraction of recorded runs that succeeded
func (h *JobHistory) SuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0.0
	}
	succeeded := 0
	for _, result := range h.Results {
		if result.Success {
			succeeded++
		}
	}
	return float64(succeeded) / float64(len(h.Results))
}
