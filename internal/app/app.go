// Package app wires configuration into the planning engine and its HTTP surface.
// Both the long-running server and the serverless entry point build on it.
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	config "github.com/al-khabib/tashkent-city-transformers/configs"
	"github.com/al-khabib/tashkent-city-transformers/pkg/datasource"
	"github.com/al-khabib/tashkent-city-transformers/pkg/handlers"
	"github.com/al-khabib/tashkent-city-transformers/pkg/influxdb"
	"github.com/al-khabib/tashkent-city-transformers/pkg/kafka"
	"github.com/al-khabib/tashkent-city-transformers/pkg/ollama"
	"github.com/al-khabib/tashkent-city-transformers/pkg/predictor"
	"github.com/al-khabib/tashkent-city-transformers/pkg/services"
)

const (
	remotePredictorTimeout = 10 * time.Second
	hookDrainTimeout       = 5 * time.Second
)

// App is a fully wired engine.
type App struct {
	Engine   *gin.Engine
	Planning *services.PlanningService

	scheduler *services.RefreshScheduler
	closers   []func()
}

// New loads the grid data and the model, connects the optional sinks and the
// assistant, and mounts every route. Missing data or model is fatal; unreachable
// Qdrant, InfluxDB or Kafka only disable their feature.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	provider, err := datasource.New(datasource.Options{
		Provider:          cfg.DataSourceProvider,
		CSVPath:           cfg.GridDataCSV,
		XLSXPath:          cfg.GridDataXLSX,
		CompanyAPIBaseURL: cfg.CompanyAPIBaseURL,
		CompanyAPIToken:   cfg.CompanyAPIToken,
		CompanyAPITimeout: cfg.CompanyAPITimeout,
	})
	if err != nil {
		return nil, err
	}
	store, err := services.LoadTimeSeriesStore(ctx, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to load grid data from %s: %w", provider.Name(), err)
	}
	log.Printf("[startup] loaded grid data for %d districts from %s", len(store.KnownDistricts()), store.ProviderName())

	model, modelSource, err := LoadPredictor(cfg)
	if err != nil {
		return nil, err
	}

	strategy, err := services.NewSitingStrategy(cfg.SitingStrategy, cfg.StressThreshold)
	if err != nil {
		return nil, err
	}

	a := &App{}
	hooks := a.connectSinks(ctx, cfg)

	metricsService := services.NewMetricsService()
	cache := services.NewFutureStateCache()
	a.Planning = services.NewPlanningService(services.PlanningDeps{
		Store:   store,
		Builder: services.NewFeatureBuilder(store, time.Now),
		Forecaster: services.NewForecastService(model, services.ForecastSettings{
			UnitsPerDistrict:    cfg.UnitsPerDistrict,
			UnitCapacityMW:      cfg.UnitCapacityMW,
			DefaultTPCapacityMW: cfg.DefaultTPCapacityMW,
		}),
		Siting:   services.NewSitingService(strategy, store, cfg.SitingSeed, cfg.UnitsPerDistrict),
		Stations: services.NewStationService(store, cfg.SitingSeed),
		Runner:   services.NewPredictionRunner(cache, cfg.PollInterval),
		Cache:    cache,
		Metrics:  metricsService,
		Hooks:    hooks,
	})

	chatHandler := a.newChatHandler(cfg)

	if cfg.RefreshCron != "" {
		a.scheduler = services.NewRefreshScheduler(a.Planning, cfg.RefreshTarget, 0)
		if err := a.scheduler.Start(cfg.RefreshCron); err != nil {
			a.Close()
			return nil, err
		}
	}

	monitoringService := services.NewMonitoringService()
	router := &handlers.Router{
		Admin:      handlers.NewAdminHandler(cfg, a.Planning, modelSource),
		Prediction: handlers.NewPredictionHandler(a.Planning),
		Stations:   handlers.NewStationHandler(a.Planning.Stations()),
		Chat:       chatHandler,
		Monitoring: handlers.NewMonitoringHandler(monitoringService),
	}

	r := gin.Default()
	r.Use(services.RequestIDMiddleware())
	r.Use(monitoringService.LoggingMiddleware())
	r.Use(cors.New(CORSConfig(cfg.AllowedOrigins)))
	router.RegisterRoutes(r, cfg.APIKey)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metricsService.Registry(), promhttp.HandlerOpts{})))

	a.Engine = r
	return a, nil
}

// Shutdown abandons in-flight predictions, stops the refresh schedule and waits
// for post-run hooks to return.
func (a *App) Shutdown() {
	a.Planning.Shutdown()
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if !a.Planning.WaitForHooks(hookDrainTimeout) {
		log.Printf("[shutdown] post-run hooks still running after %s", hookDrainTimeout)
	}
}

// Close releases external connections.
func (a *App) Close() {
	for _, c := range a.closers {
		c()
	}
	a.closers = nil
}

func (a *App) newChatHandler(cfg *config.Config) *handlers.ChatHandler {
	client := ollama.NewClient(cfg.OllamaBaseURL, cfg.OllamaLLMModel, cfg.OllamaEmbedModel)

	var retriever services.PassageRetriever
	if cfg.QdrantURL != "" {
		store, err := services.NewVectorStoreService(client, services.VectorStoreOptions{
			URL:        cfg.QdrantURL,
			APIKey:     cfg.QdrantAPIKey,
			Collection: cfg.QdrantCollection,
		})
		if err != nil {
			log.Printf("[startup] policy retrieval disabled: %v", err)
		} else {
			retriever = store
			a.closers = append(a.closers, func() {
				if err := store.Close(); err != nil {
					log.Printf("[shutdown] failed to close vector store: %v", err)
				}
			})
		}
	}

	persona, err := config.LoadAssistantPrompt(cfg.AssistantPromptPath)
	if err != nil {
		log.Printf("[startup] using the built-in assistant prompt: %v", err)
		persona = nil
	}

	chat := services.NewChatService(client, retriever, persona, a.Planning)
	return handlers.NewChatHandler(chat, client.BaseURL(), client.LLMModel())
}

// connectSinks returns the post-run hooks for the configured sinks.
func (a *App) connectSinks(ctx context.Context, cfg *config.Config) []services.PostRunHook {
	var hooks []services.PostRunHook

	if cfg.InfluxURL != "" {
		client, err := influxdb.NewClient(ctx, influxdb.Config{
			URL:    cfg.InfluxURL,
			Token:  cfg.InfluxToken,
			Org:    cfg.InfluxOrg,
			Bucket: cfg.InfluxBucket,
		})
		if err != nil {
			log.Printf("[startup] InfluxDB export disabled: %v", err)
		} else {
			hooks = append(hooks, client)
			a.closers = append(a.closers, client.Close)
		}
	}

	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := kafka.NewAlertPublisher(cfg.KafkaBrokers, cfg.KafkaAlertTopic)
		if err != nil {
			log.Printf("[startup] Kafka overload alerts disabled: %v", err)
		} else {
			hooks = append(hooks, publisher)
			a.closers = append(a.closers, func() {
				if err := publisher.Close(); err != nil {
					log.Printf("[shutdown] failed to close Kafka producer: %v", err)
				}
			})
		}
	}

	return hooks
}

// LoadPredictor prefers the remote predictor when PREDICTOR_URL is set and returns
// a description of the model for /health.
func LoadPredictor(cfg *config.Config) (predictor.Predictor, string, error) {
	if cfg.PredictorURL != "" {
		p := predictor.NewRemotePredictor(cfg.PredictorURL, remotePredictorTimeout)
		return p, p.Describe(), nil
	}
	p, err := predictor.Load(cfg.ModelPath)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", services.ErrConfiguration, err)
	}
	source := cfg.ModelPath
	if d, ok := p.(predictor.Describer); ok {
		source = d.Describe() + ":" + cfg.ModelPath
	}
	log.Printf("[startup] loaded model %s", source)
	return p, source, nil
}

// CORSConfig allows origins and the API key and request id headers.
func CORSConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	c.AllowOrigins = origins
	c.AllowHeaders = append(c.AllowHeaders, "X-API-KEY", services.RequestIDHeader)
	c.ExposeHeaders = []string{services.RequestIDHeader}
	return c
}
