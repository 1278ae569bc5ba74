package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Refresher runs the cancellable forecast pipeline.
type Refresher interface {
	RunCancellable(ctx context.Context, rawTarget string) (*PredictionJob, error)
}

// RefreshScheduler recomputes the FutureState on a cron schedule so the assistant
// always has a recent run to answer from.
type RefreshScheduler struct {
	cron      *cron.Cron
	refresher Refresher
	target    string
	timeout   time.Duration
}

// NewRefreshScheduler returns a scheduler for target. Overlapping ticks are skipped.
func NewRefreshScheduler(refresher Refresher, target string, timeout time.Duration) *RefreshScheduler {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &RefreshScheduler{
		cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		refresher: refresher,
		target:    target,
		timeout:   timeout,
	}
}

// Start registers the refresh with a cron expression and starts the loop.
func (s *RefreshScheduler) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.RunOnce); err != nil {
		return fmt.Errorf("%w: invalid refresh schedule %q: %v", ErrConfiguration, schedule, err)
	}
	s.cron.Start()
	log.Printf("[scheduler] forecast refresh for %q scheduled at %q", s.target, schedule)
	return nil
}

// RunOnce runs one refresh and logs the outcome.
func (s *RefreshScheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	job, err := s.refresher.RunCancellable(ctx, s.target)
	if err != nil {
		log.Printf("[scheduler] forecast refresh failed: %v", err)
		return
	}
	log.Printf("[scheduler] forecast refresh %s completed for %s", job.ID, job.Result().TargetDate)
}

// Stop stops scheduling and waits for a running refresh to return.
func (s *RefreshScheduler) Stop() {
	<-s.cron.Stop().Done()
}
