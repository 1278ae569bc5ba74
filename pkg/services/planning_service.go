package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/al-khabib/tashkent-city-transformers/pkg/models"
	"github.com/al-khabib/tashkent-city-transformers/pkg/predictor"
)

const postRunHookTimeout = 15 * time.Second

// PredictionResult is the output of one forecast and siting run.
type PredictionResult struct {
	TargetDate  string
	Forecasts   []models.Forecast
	Sites       []models.SuggestedSite
	Failures    []models.DistrictFailure
	FutureState *models.FutureState
}

// PostRunHook receives every completed FutureState, for example to export it.
type PostRunHook interface {
	Name() string
	OnForecastCompleted(ctx context.Context, state *models.FutureState) error
}

// PlanningService runs the whole forecast and siting pipeline across districts.
type PlanningService struct {
	store      *TimeSeriesStore
	builder    *FeatureBuilder
	forecaster *ForecastService
	siting     *SitingService
	stations   *StationService
	runner     *PredictionRunner
	cache      *FutureStateCache
	metrics    *MetricsService
	hooks      []PostRunHook

	hooksMu sync.Mutex
	hooksWG sync.WaitGroup
}

// PlanningDeps are the collaborators of a PlanningService. Metrics and Hooks are optional.
type PlanningDeps struct {
	Store      *TimeSeriesStore
	Builder    *FeatureBuilder
	Forecaster *ForecastService
	Siting     *SitingService
	Stations   *StationService
	Runner     *PredictionRunner
	Cache      *FutureStateCache
	Metrics    *MetricsService
	Hooks      []PostRunHook
}

// NewPlanningService wires the pipeline.
func NewPlanningService(deps PlanningDeps) *PlanningService {
	return &PlanningService{
		store:      deps.Store,
		builder:    deps.Builder,
		forecaster: deps.Forecaster,
		siting:     deps.Siting,
		stations:   deps.Stations,
		runner:     deps.Runner,
		cache:      deps.Cache,
		metrics:    deps.Metrics,
		hooks:      deps.Hooks,
	}
}

// Forecast builds the forecast of a single district.
func (s *PlanningService) Forecast(ctx context.Context, district, rawTarget string) (models.Forecast, error) {
	in, err := s.builder.Build(district, rawTarget)
	if err != nil {
		return models.Forecast{}, err
	}
	return s.forecaster.Forecast(ctx, in)
}

// RunForecastAndSiting forecasts every known district and recommends sites for the
// overloaded ones. A district whose prediction fails is reported in Failures and
// the others continue; a structurally broken predictor fails the whole batch.
func (s *PlanningService) RunForecastAndSiting(ctx context.Context, rawTarget string, stations []models.AssetStation) (*PredictionResult, error) {
	target, err := s.builder.ParseTarget(rawTarget)
	if err != nil {
		return nil, err
	}

	var errs *multierror.Error
	forecasts := make([]models.Forecast, 0)
	failures := make([]models.DistrictFailure, 0)

	districts := s.store.KnownDistricts()
	for _, district := range districts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		in, err := s.builder.BuildAt(district, target)
		if err == nil {
			var f models.Forecast
			f, err = s.forecaster.Forecast(ctx, in)
			if err == nil {
				forecasts = append(forecasts, f)
				continue
			}
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, predictor.ErrFeatureArity) {
			return nil, err
		}
		log.Printf("[predict] district %s failed: %v", district, err)
		errs = multierror.Append(errs, err)
		failures = append(failures, models.DistrictFailure{District: district, Error: err.Error()})
	}

	if len(forecasts) == 0 && errs != nil {
		return nil, fmt.Errorf("%w: every district failed: %v", ErrPredictorFailure, errs.ErrorOrNil())
	}

	sites, err := s.siting.Recommend(ctx, forecasts, stations)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, f := range forecasts {
		total += f.TransformersNeeded
	}

	targetDate := FormatDate(target)
	state := &models.FutureState{
		TargetDate:              targetDate,
		GeneratedAt:             time.Now().UTC(),
		DistrictPredictions:     forecasts,
		SuggestedTPs:            sites,
		TotalTransformersNeeded: total,
		Failures:                failures,
	}

	return &PredictionResult{
		TargetDate:  targetDate,
		Forecasts:   forecasts,
		Sites:       sites,
		Failures:    failures,
		FutureState: state,
	}, nil
}

// RunCancellable runs the pipeline through the runner so it is abandoned when ctx
// ends or the server shuts down. The FutureState cache is replaced only on success.
func (s *PlanningService) RunCancellable(ctx context.Context, rawTarget string) (*PredictionJob, error) {
	if _, err := s.builder.ParseTarget(rawTarget); err != nil {
		return nil, err
	}

	stations := s.stations.All()
	start := time.Now()
	job, err := s.runner.Run(ctx, func(jobCtx context.Context) (*PredictionResult, error) {
		return s.RunForecastAndSiting(jobCtx, rawTarget, stations)
	})
	s.metrics.ObserveRun(job.State(), time.Since(start))
	if err != nil {
		return job, err
	}

	s.metrics.ObserveResult(job.Result(), s.siting.StrategyName())
	s.runHooks(job.Result().FutureState)
	return job, nil
}

// runHooks starts the hooks under the runner's root context, so Shutdown cancels them.
// No hook starts once shutdown has begun.
func (s *PlanningService) runHooks(state *models.FutureState) {
	if len(s.hooks) == 0 {
		return
	}
	root := s.runner.Context()

	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	if root.Err() != nil {
		log.Printf("[predict] shutting down, post-run hooks skipped")
		return
	}
	for _, hook := range s.hooks {
		s.hooksWG.Add(1)
		go func(h PostRunHook) {
			defer s.hooksWG.Done()
			ctx, cancel := context.WithTimeout(root, postRunHookTimeout)
			defer cancel()
			if err := h.OnForecastCompleted(ctx, state); err != nil {
				log.Printf("[predict] post-run hook %s failed: %v", h.Name(), err)
			}
		}(hook)
	}
}

// FutureState returns the latest completed run, or nil.
func (s *PlanningService) FutureState() *models.FutureState {
	return s.cache.Current()
}

// Stations returns the station inventory.
func (s *PlanningService) Stations() *StationService {
	return s.stations
}

// KnownDistricts lists the districts in the time series.
func (s *PlanningService) KnownDistricts() []string {
	return s.store.KnownDistricts()
}

// ProviderName names the grid data source.
func (s *PlanningService) ProviderName() string {
	return s.store.ProviderName()
}

// StrategyName names the siting strategy.
func (s *PlanningService) StrategyName() string {
	return s.siting.StrategyName()
}

// Shutdown cancels every in-flight run and post-run hook.
func (s *PlanningService) Shutdown() {
	s.runner.Shutdown()
}

// WaitForHooks blocks until the running post-run hooks return or timeout passes.
// It reports whether every hook returned. Call it after Shutdown.
func (s *PlanningService) WaitForHooks(timeout time.Duration) bool {
	s.hooksMu.Lock()
	done := make(chan struct{})
	go func() {
		s.hooksWG.Wait()
		close(done)
	}()
	s.hooksMu.Unlock()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
