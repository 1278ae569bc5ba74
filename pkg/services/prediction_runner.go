package services

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// JobState is the lifecycle of a prediction job.
type JobState int32

const (
	JobIdle JobState = iota
	JobRunning
	JobCompleted
	JobCancelled
	JobFailed
)

func (s JobState) String() string {
	switch s {
	case JobIdle:
		return "idle"
	case JobRunning:
		return "running"
	case JobCompleted:
		return "completed"
	case JobCancelled:
		return "cancelled"
	case JobFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ComputeFunc is the work a job runs. It must return promptly once ctx is done.
type ComputeFunc func(ctx context.Context) (*PredictionResult, error)

// PredictionJob tracks one run through the runner.
type PredictionJob struct {
	ID        string
	StartedAt time.Time

	state  atomic.Int32
	result *PredictionResult
	err    error
}

// State returns the job's current state.
func (j *PredictionJob) State() JobState {
	return JobState(j.state.Load())
}

// Result is set once the job is Completed.
func (j *PredictionJob) Result() *PredictionResult {
	return j.result
}

// Err is set once the job is Cancelled or Failed.
func (j *PredictionJob) Err() error {
	return j.err
}

func (j *PredictionJob) finish(state JobState, result *PredictionResult, err error) {
	j.result = result
	j.err = err
	j.state.Store(int32(state))
}

type jobOutcome struct {
	result *PredictionResult
	err    error
}

// PredictionRunner runs each job on its own goroutine while the caller polls for
// disconnect, shutdown or a result. Cancelled workers are abandoned, not joined:
// they observe their context at the next check and exit on their own.
type PredictionRunner struct {
	root     context.Context
	shutdown context.CancelFunc
	cache    *FutureStateCache
	poll     time.Duration
	inFlight atomic.Int64
}

// NewPredictionRunner returns a runner that publishes completed results to cache.
func NewPredictionRunner(cache *FutureStateCache, poll time.Duration) *PredictionRunner {
	if poll <= 0 {
		poll = 100 * time.Millisecond
	}
	root, cancel := context.WithCancel(context.Background())
	return &PredictionRunner{root: root, shutdown: cancel, cache: cache, poll: poll}
}

// Shutdown cancels every in-flight job. Call it before releasing the model or data handles.
func (r *PredictionRunner) Shutdown() {
	r.shutdown()
}

// Context is done once Shutdown has been called.
func (r *PredictionRunner) Context() context.Context {
	return r.root
}

// ShuttingDown reports whether Shutdown has been called.
func (r *PredictionRunner) ShuttingDown() bool {
	return r.root.Err() != nil
}

// InFlight is the number of workers that have not returned yet, abandoned ones included.
func (r *PredictionRunner) InFlight() int64 {
	return r.inFlight.Load()
}

// Run executes compute and waits for the first of: ctx done (caller gone),
// runner shutdown, or a result. The returned job is in a terminal state.
// A result that arrives after cancellation was observed is discarded.
func (r *PredictionRunner) Run(ctx context.Context, compute ComputeFunc) (*PredictionJob, error) {
	job := &PredictionJob{ID: uuid.New().String(), StartedAt: time.Now()}
	job.state.Store(int32(JobIdle))

	if r.cancelled(ctx) {
		job.finish(JobCancelled, nil, ErrCancelled)
		return job, ErrCancelled
	}

	jobCtx, cancel := context.WithCancel(r.root)
	results := make(chan jobOutcome, 1)

	job.state.Store(int32(JobRunning))
	r.inFlight.Add(1)
	go func() {
		defer r.inFlight.Add(-1)
		defer func() {
			if p := recover(); p != nil {
				results <- jobOutcome{err: fmt.Errorf("prediction worker panicked: %v", p)}
			}
		}()
		res, err := compute(jobCtx)
		results <- jobOutcome{result: res, err: err}
	}()

	ticker := time.NewTicker(r.poll)
	defer ticker.Stop()

	for {
		if r.cancelled(ctx) {
			cancel()
			log.Printf("[predict] job %s cancelled due to disconnect/shutdown", job.ID)
			job.finish(JobCancelled, nil, ErrCancelled)
			return job, ErrCancelled
		}

		select {
		case out := <-results:
			if r.cancelled(ctx) {
				cancel()
				job.finish(JobCancelled, nil, ErrCancelled)
				return job, ErrCancelled
			}
			cancel()
			if out.err != nil {
				job.finish(JobFailed, nil, out.err)
				return job, out.err
			}
			if out.result == nil {
				err := fmt.Errorf("prediction worker returned no result")
				job.finish(JobFailed, nil, err)
				return job, err
			}
			if r.cache != nil {
				r.cache.Replace(out.result.FutureState)
			}
			job.finish(JobCompleted, out.result, nil)
			return job, nil
		case <-ticker.C:
		}
	}
}

func (r *PredictionRunner) cancelled(ctx context.Context) bool {
	return ctx.Err() != nil || r.root.Err() != nil
}
