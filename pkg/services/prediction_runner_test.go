package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/al-khabib/tashkent-city-transformers/pkg/models"
)

func resultFor(target string) *PredictionResult {
	return &PredictionResult{
		TargetDate:  target,
		FutureState: &models.FutureState{TargetDate: target},
	}
}

func TestRunnerCompletedReplacesCache(t *testing.T) {
	cache := NewFutureStateCache()
	r := NewPredictionRunner(cache, 5*time.Millisecond)

	job, err := r.Run(context.Background(), func(context.Context) (*PredictionResult, error) {
		return resultFor("2027-04-01"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, JobCompleted, job.State())
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, "2027-04-01", job.Result().TargetDate)
	require.True(t, cache.Loaded())
	assert.Equal(t, "2027-04-01", cache.Current().TargetDate)
}

func TestRunnerFailureKeepsCache(t *testing.T) {
	cache := NewFutureStateCache()
	cache.Replace(&models.FutureState{TargetDate: "2026-12-01"})
	r := NewPredictionRunner(cache, 5*time.Millisecond)

	boom := errors.New("boom")
	job, err := r.Run(context.Background(), func(context.Context) (*PredictionResult, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, JobFailed, job.State())
	assert.Nil(t, job.Result())
	assert.Equal(t, "2026-12-01", cache.Current().TargetDate)

	job, err = r.Run(context.Background(), func(context.Context) (*PredictionResult, error) {
		return nil, nil
	})
	assert.Error(t, err)
	assert.Equal(t, JobFailed, job.State())
}

func TestRunnerCancelledByCaller(t *testing.T) {
	cache := NewFutureStateCache()
	r := NewPredictionRunner(cache, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	workerSawCancel := make(chan bool, 1)

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	job, err := r.Run(ctx, func(jobCtx context.Context) (*PredictionResult, error) {
		<-release
		workerSawCancel <- jobCtx.Err() != nil
		return resultFor("2027-04-01"), nil
	})
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, JobCancelled, job.State())

	// the abandoned worker finishes later, but its result is never published
	close(release)
	select {
	case saw := <-workerSawCancel:
		assert.True(t, saw)
	case <-time.After(time.Second):
		t.Fatal("worker did not finish")
	}
	assert.Eventually(t, func() bool { return r.InFlight() == 0 }, time.Second, 5*time.Millisecond)
	assert.False(t, cache.Loaded())
}

func TestRunnerAlreadyCancelled(t *testing.T) {
	r := NewPredictionRunner(NewFutureStateCache(), 5*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	job, err := r.Run(ctx, func(context.Context) (*PredictionResult, error) {
		called = true
		return resultFor("2027-04-01"), nil
	})
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, JobCancelled, job.State())
	assert.False(t, called)
}

func TestRunnerShutdown(t *testing.T) {
	cache := NewFutureStateCache()
	r := NewPredictionRunner(cache, 5*time.Millisecond)
	assert.False(t, r.ShuttingDown())

	go func() {
		time.Sleep(20 * time.Millisecond)
		r.Shutdown()
	}()
	job, err := r.Run(context.Background(), func(jobCtx context.Context) (*PredictionResult, error) {
		<-jobCtx.Done()
		return nil, jobCtx.Err()
	})
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, JobCancelled, job.State())
	assert.True(t, r.ShuttingDown())
	assert.False(t, cache.Loaded())

	job, err = r.Run(context.Background(), func(context.Context) (*PredictionResult, error) {
		return resultFor("2027-04-01"), nil
	})
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, JobCancelled, job.State())
}

func TestRunnerRecoversPanic(t *testing.T) {
	r := NewPredictionRunner(NewFutureStateCache(), 5*time.Millisecond)
	job, err := r.Run(context.Background(), func(context.Context) (*PredictionResult, error) {
		panic("index out of range")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
	assert.Equal(t, JobFailed, job.State())
}

func TestJobStateString(t *testing.T) {
	assert.Equal(t, "idle", JobIdle.String())
	assert.Equal(t, "running", JobRunning.String())
	assert.Equal(t, "completed", JobCompleted.String())
	assert.Equal(t, "cancelled", JobCancelled.String())
	assert.Equal(t, "failed", JobFailed.String())
	assert.Equal(t, "unknown", JobState(42).String())
}
