package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// MetricsService records forecast run metrics on a private Prometheus registry.
type MetricsService struct {
	registry *prometheus.Registry

	runsTotal        *prometheus.CounterVec
	runDuration      *prometheus.HistogramVec
	districtFailures *prometheus.CounterVec
	suggestedSites   *prometheus.CounterVec
	riskScore        *prometheus.GaugeVec
}

// NewMetricsService registers the forecast metrics plus Go and process collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &MetricsService{
		registry: registry,
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grid_forecast_runs_total",
			Help: "Total forecast and siting runs by outcome.",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "grid_forecast_run_duration_seconds",
			Help:    "Duration of forecast and siting runs.",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
		districtFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grid_district_forecast_failures_total",
			Help: "Districts that could not be forecast.",
		}, []string{"district"}),
		suggestedSites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grid_suggested_sites_total",
			Help: "Suggested transformer sites produced by strategy.",
		}, []string{"strategy"}),
		riskScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "grid_district_risk_score",
			Help: "Risk score of each district in the latest completed run.",
		}, []string{"district"}),
	}

	registry.MustRegister(m.runsTotal)
	registry.MustRegister(m.runDuration)
	registry.MustRegister(m.districtFailures)
	registry.MustRegister(m.suggestedSites)
	registry.MustRegister(m.riskScore)
	return m
}

// Registry returns the registry to expose on /metrics.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRun records a finished job.
func (m *MetricsService) ObserveRun(state JobState, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(state.String()).Inc()
	m.runDuration.WithLabelValues(state.String()).Observe(elapsed.Seconds())
}

// ObserveResult records per-district outcomes of a completed run.
func (m *MetricsService) ObserveResult(result *PredictionResult, strategy string) {
	if m == nil || result == nil {
		return
	}
	for _, f := range result.Failures {
		m.districtFailures.WithLabelValues(f.District).Inc()
	}
	for _, f := range result.Forecasts {
		m.riskScore.WithLabelValues(f.District).Set(float64(f.RiskScore))
	}
	m.suggestedSites.WithLabelValues(strategy).Add(float64(len(result.Sites)))
}
