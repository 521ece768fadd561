package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name string
	runs atomic.Int64
	err  error
}

func (j *countingJob) Name() string        { return j.name }
func (j *countingJob) Description() string { return "counting job" }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	return j.err
}

func testScheduler() *Scheduler {
	return NewScheduler(SchedulerConfig{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestScheduler_Register(t *testing.T) {
	s := testScheduler()
	job := &countingJob{name: "sweep"}

	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	jobs := s.ListJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "sweep", jobs[0].Name)
	assert.True(t, jobs[0].Enabled)
	assert.Equal(t, "@every 1h0m0s", jobs[0].Schedule)
	assert.False(t, jobs[0].NextRun.IsZero())
}

func TestScheduler_RegisterDuplicate(t *testing.T) {
	s := testScheduler()

	require.NoError(t, s.Register(&countingJob{name: "sweep"}, NewIntervalSchedule(time.Hour)))
	err := s.Register(&countingJob{name: "sweep"}, NewIntervalSchedule(time.Hour))
	assert.ErrorIs(t, err, ErrJobAlreadyExists)
}

func TestScheduler_RegisterNil(t *testing.T) {
	s := testScheduler()

	assert.ErrorIs(t, s.Register(nil, NewIntervalSchedule(time.Hour)), ErrNilJob)
	assert.ErrorIs(t, s.Register(&countingJob{name: "sweep"}, nil), ErrNilSchedule)
}

func TestScheduler_EnableDisable(t *testing.T) {
	s := testScheduler()
	require.NoError(t, s.Register(&countingJob{name: "sweep"}, NewIntervalSchedule(time.Hour)))

	require.NoError(t, s.DisableJob("sweep"))
	assert.False(t, s.ListJobs()[0].Enabled)

	require.NoError(t, s.EnableJob("sweep"))
	assert.True(t, s.ListJobs()[0].Enabled)

	assert.ErrorIs(t, s.DisableJob("nope"), ErrJobNotFound)
	assert.ErrorIs(t, s.EnableJob("nope"), ErrJobNotFound)
}

func TestScheduler_RunNow(t *testing.T) {
	s := testScheduler()
	job := &countingJob{name: "sweep"}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	result, err := s.RunNow(context.Background(), "sweep")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "sweep", result.JobName)
	assert.Equal(t, int64(1), job.runs.Load())

	snap := s.GetMetrics().Snapshot()
	assert.Equal(t, int64(1), snap.TotalExecutions)
	assert.Equal(t, int64(1), snap.TotalSuccesses)
}

func TestScheduler_RunNowFailure(t *testing.T) {
	s := testScheduler()
	jobErr := errors.New("db down")
	require.NoError(t, s.Register(&countingJob{name: "sweep", err: jobErr}, NewIntervalSchedule(time.Hour)))

	result, err := s.RunNow(context.Background(), "sweep")
	assert.ErrorIs(t, err, jobErr)
	assert.False(t, result.Success)

	snap := s.GetMetrics().Snapshot()
	assert.Equal(t, int64(1), snap.TotalFailures)
	assert.Equal(t, float64(0), snap.SuccessRate)
}

func TestScheduler_RunNowUnknownJob(t *testing.T) {
	s := testScheduler()

	_, err := s.RunNow(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestScheduler_StartStop(t *testing.T) {
	s := testScheduler()
	require.NoError(t, s.Register(&countingJob{name: "sweep"}, NewIntervalSchedule(time.Hour)))

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
}

func TestSchedulerMetrics_Snapshot(t *testing.T) {
	m := NewSchedulerMetrics()

	m.RecordExecution("sweep", 10*time.Millisecond, true)
	m.RecordExecution("sweep", 10*time.Millisecond, true)
	m.RecordExecution("sweep", 10*time.Millisecond, false)

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.TotalExecutions)
	assert.Equal(t, int64(2), snap.TotalSuccesses)
	assert.Equal(t, int64(1), snap.TotalFailures)
	assert.InDelta(t, 2.0/3.0, snap.SuccessRate, 1e-9)
	assert.Equal(t, int64(1), m.FailuresByJob["sweep"])
}
