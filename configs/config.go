package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidConfig is returned by Validate for settings the server cannot start with.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the application configuration
type Config struct {
	Port           string
	Environment    string
	APIKey         string
	AdminUsername  string
	AdminPassword  string
	AllowedOrigins []string

	// grid data
	DataSourceProvider string
	GridDataCSV        string
	GridDataXLSX       string
	CompanyAPIBaseURL  string
	CompanyAPIToken    string
	CompanyAPITimeout  time.Duration

	// predictor
	ModelPath    string
	PredictorURL string

	// forecasting and siting
	UnitsPerDistrict    int
	UnitCapacityMW      float64
	DefaultTPCapacityMW float64
	SitingStrategy      string
	SitingSeed          int64
	StressThreshold     float64
	PollInterval        time.Duration

	// assistant
	OllamaBaseURL       string
	OllamaLLMModel      string
	OllamaEmbedModel    string
	QdrantURL           string
	QdrantAPIKey        string
	QdrantCollection    string
	AssistantPromptPath string

	// sinks
	InfluxURL       string
	InfluxOrg       string
	InfluxToken     string
	InfluxBucket    string
	KafkaBrokers    []string
	KafkaAlertTopic string

	// scheduled refresh
	RefreshCron   string
	RefreshTarget string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		APIKey:         getEnv("API_KEY", ""),
		AdminUsername:  getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:  getEnv("ADMIN_PASSWORD", ""),
		AllowedOrigins: getEnvStringSlice("ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://127.0.0.1:5173"}),

		DataSourceProvider: strings.ToLower(getEnv("DATA_SOURCE_PROVIDER", "csv")),
		GridDataCSV:        getEnv("GRID_DATA_CSV", "data/tashkent_grid_historic_data.csv"),
		GridDataXLSX:       getEnv("GRID_DATA_XLSX", ""),
		CompanyAPIBaseURL:  getEnv("COMPANY_API_BASE_URL", ""),
		CompanyAPIToken:    getEnv("COMPANY_API_TOKEN", ""),
		CompanyAPITimeout:  getEnvDuration("COMPANY_API_TIMEOUT", 15*time.Second),

		ModelPath:    getEnv("GRID_MODEL_PATH", "model/grid_model.json"),
		PredictorURL: getEnv("PREDICTOR_URL", ""),

		UnitsPerDistrict:    getEnvInt("UNITS_PER_DISTRICT", 5),
		UnitCapacityMW:      getEnvFloat("UNIT_CAPACITY_MW", 0.075),
		DefaultTPCapacityMW: getEnvFloat("DEFAULT_TP_CAPACITY_MW", 2.5),
		SitingStrategy:      strings.ToLower(getEnv("SITING_STRATEGY", "cluster")),
		SitingSeed:          int64(getEnvInt("SITING_SEED", 42)),
		StressThreshold:     getEnvFloat("STRESS_THRESHOLD", 70),
		PollInterval:        getEnvDuration("PREDICT_POLL_INTERVAL", 100*time.Millisecond),

		OllamaBaseURL:       getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaLLMModel:      getEnv("OLLAMA_LLM_MODEL", "llama3.1:8b"),
		OllamaEmbedModel:    getEnv("OLLAMA_EMBED_MODEL", "nomic-embed-text"),
		QdrantURL:           getEnv("QDRANT_URL", ""),
		QdrantAPIKey:        getEnv("QDRANT_API_KEY", ""),
		QdrantCollection:    getEnv("QDRANT_COLLECTION", "grid_policy_documents"),
		AssistantPromptPath: getEnv("ASSISTANT_PROMPT_PATH", "configs/assistant_prompt.yaml"),

		InfluxURL:       getEnv("INFLUXDB_URL", ""),
		InfluxOrg:       getEnv("INFLUXDB_ORG", "tashkent-grid"),
		InfluxToken:     getEnv("INFLUX_TOKEN", ""),
		InfluxBucket:    getEnv("INFLUXDB_BUCKET", "grid_forecasts"),
		KafkaBrokers:    getEnvStringSlice("KAFKA_BROKERS", nil),
		KafkaAlertTopic: getEnv("KAFKA_ALERT_TOPIC", "grid.overload.alerts"),

		RefreshCron:   getEnv("FORECAST_REFRESH_CRON", ""),
		RefreshTarget: getEnv("FORECAST_REFRESH_TARGET", "next month"),
	}
}

// Validate reports settings that make startup impossible.
func (c *Config) Validate() error {
	switch c.DataSourceProvider {
	case "csv":
		if c.GridDataCSV == "" {
			return fmt.Errorf("%w: GRID_DATA_CSV is required for the csv provider", ErrInvalidConfig)
		}
	case "xlsx":
		if c.GridDataXLSX == "" {
			return fmt.Errorf("%w: GRID_DATA_XLSX is required for the xlsx provider", ErrInvalidConfig)
		}
	case "company_api":
		if c.CompanyAPIBaseURL == "" {
			return fmt.Errorf("%w: COMPANY_API_BASE_URL is required for the company_api provider", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unsupported DATA_SOURCE_PROVIDER %q", ErrInvalidConfig, c.DataSourceProvider)
	}

	if c.PredictorURL == "" && c.ModelPath == "" {
		return fmt.Errorf("%w: either GRID_MODEL_PATH or PREDICTOR_URL must be set", ErrInvalidConfig)
	}

	switch c.SitingStrategy {
	case "cluster", "proximity":
	default:
		return fmt.Errorf("%w: unsupported SITING_STRATEGY %q", ErrInvalidConfig, c.SitingStrategy)
	}

	if c.UnitsPerDistrict <= 0 || c.UnitCapacityMW <= 0 {
		return fmt.Errorf("%w: UNITS_PER_DISTRICT and UNIT_CAPACITY_MW must be positive", ErrInvalidConfig)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: PREDICT_POLL_INTERVAL must be positive", ErrInvalidConfig)
	}
	return nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("15s") and bare seconds ("15").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	value = strings.TrimSpace(value)
	if parsed, err := time.ParseDuration(value); err == nil {
		return parsed
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
