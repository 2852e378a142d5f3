package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphaquant/alpha/backend/pkg/config"
	"github.com/alphaquant/alpha/backend/pkg/logger"
)

type stubJob struct {
	name     string
	schedule string
	ran      chan struct{}
}

func newStubJob(name, schedule string) *stubJob {
	return &stubJob{name: name, schedule: schedule, ran: make(chan struct{}, 1)}
}

func (j *stubJob) Name() string     { return j.name }
func (j *stubJob) Schedule() string { return j.schedule }

func (j *stubJob) Run(_ context.Context) error {
	select {
	case j.ran <- struct{}{}:
	default:
	}
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "development", LogLevel: "error"})
}

func TestAddJob(t *testing.T) {
	s := New(testLogger())

	require.NoError(t, s.AddJob(newStubJob("refresh", "0 0 2 * * *")))
	assert.Equal(t, []string{"refresh"}, s.Jobs())
}

func TestAddJobDuplicateName(t *testing.T) {
	s := New(testLogger())

	require.NoError(t, s.AddJob(newStubJob("refresh", "0 0 2 * * *")))
	assert.Error(t, s.AddJob(newStubJob("refresh", "0 0 3 * * *")))
}

func TestAddJobInvalidSchedule(t *testing.T) {
	s := New(testLogger())
	assert.Error(t, s.AddJob(newStubJob("bad", "not-a-cron-expr")))
}

func TestRunJobImmediatelyRecordsHistory(t *testing.T) {
	s := New(testLogger())
	job := newStubJob("refresh", "0 0 2 * * *")
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("refresh"))

	select {
	case <-job.ran:
	case <-time.After(time.Second):
		t.Fatal("job never ran")
	}

	// History write happens after Run returns
	assert.Eventually(t, func() bool {
		history, err := s.History("refresh")
		return err == nil && len(history.Results) == 1 && history.Results[0].Success
	}, time.Second, 10*time.Millisecond)
}

func TestRunJobUnknownName(t *testing.T) {
	s := New(testLogger())
	assert.Error(t, s.RunJob("nope"))
}

func TestHistoryUnknownJob(t *testing.T) {
	s := New(testLogger())
	_, err := s.History("nope")
	assert.Error(t, err)
}

func TestJobHistoryBounded(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < historyLimit+20; i++ {
		h.Add(JobResult{JobName: "x", Success: i%2 == 0})
	}
	assert.Len(t, h.Results, historyLimit)
	assert.Len(t, h.Latest(5), 5)
	assert.InDelta(t, 0.5, h.SuccessRate(), 0.05)
}
