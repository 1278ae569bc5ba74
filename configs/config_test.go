package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	testCases := map[string]string{
		"PORT":                  "9090",
		"ENVIRONMENT":           "test",
		"DATA_SOURCE_PROVIDER":  "XLSX",
		"GRID_DATA_XLSX":        "data/grid.xlsx",
		"UNITS_PER_DISTRICT":    "7",
		"UNIT_CAPACITY_MW":      "0.1",
		"SITING_STRATEGY":       "Proximity",
		"PREDICT_POLL_INTERVAL": "250ms",
		"COMPANY_API_TIMEOUT":   "20",
		"KAFKA_BROKERS":         "kafka-1:9092, kafka-2:9092,",
	}
	for key, value := range testCases {
		t.Setenv(key, value)
	}

	cfg := LoadConfig()

	if cfg.Port != "9090" {
		t.Errorf("Expected Port to be '9090', got '%s'", cfg.Port)
	}
	if cfg.Environment != "test" {
		t.Errorf("Expected Environment to be 'test', got '%s'", cfg.Environment)
	}
	if cfg.DataSourceProvider != "xlsx" {
		t.Errorf("Expected DataSourceProvider to be 'xlsx', got '%s'", cfg.DataSourceProvider)
	}
	if cfg.UnitsPerDistrict != 7 {
		t.Errorf("Expected UnitsPerDistrict to be 7, got %d", cfg.UnitsPerDistrict)
	}
	if cfg.UnitCapacityMW != 0.1 {
		t.Errorf("Expected UnitCapacityMW to be 0.1, got %v", cfg.UnitCapacityMW)
	}
	if cfg.SitingStrategy != "proximity" {
		t.Errorf("Expected SitingStrategy to be 'proximity', got '%s'", cfg.SitingStrategy)
	}
	if cfg.PollInterval != 250*time.Millisecond {
		t.Errorf("Expected PollInterval to be 250ms, got %v", cfg.PollInterval)
	}
	if cfg.CompanyAPITimeout != 20*time.Second {
		t.Errorf("Expected CompanyAPITimeout to be 20s, got %v", cfg.CompanyAPITimeout)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "kafka-2:9092" {
		t.Errorf("Unexpected KafkaBrokers: %v", cfg.KafkaBrokers)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected valid config, got %v", err)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	for _, v := range []string{"PORT", "ENVIRONMENT", "DATA_SOURCE_PROVIDER", "SITING_STRATEGY", "UNITS_PER_DISTRICT", "UNIT_CAPACITY_MW", "PREDICT_POLL_INTERVAL"} {
		t.Setenv(v, "")
	}

	cfg := LoadConfig()

	if cfg.Port != "8080" {
		t.Errorf("Expected default Port to be '8080', got '%s'", cfg.Port)
	}
	if cfg.Environment != "development" {
		t.Errorf("Expected default Environment to be 'development', got '%s'", cfg.Environment)
	}
	if cfg.DataSourceProvider != "csv" || cfg.SitingStrategy != "cluster" {
		t.Errorf("Unexpected defaults: provider=%s strategy=%s", cfg.DataSourceProvider, cfg.SitingStrategy)
	}
	if cfg.PollInterval != 100*time.Millisecond {
		t.Errorf("Expected default PollInterval to be 100ms, got %v", cfg.PollInterval)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		valid  bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"unknown provider", func(c *Config) { c.DataSourceProvider = "parquet" }, false},
		{"api without url", func(c *Config) { c.DataSourceProvider = "company_api"; c.CompanyAPIBaseURL = "" }, false},
		{"no model source", func(c *Config) { c.ModelPath = ""; c.PredictorURL = "" }, false},
		{"remote predictor only", func(c *Config) { c.ModelPath = ""; c.PredictorURL = "http://predictor:8000" }, true},
		{"unknown strategy", func(c *Config) { c.SitingStrategy = "random" }, false},
		{"zero units", func(c *Config) { c.UnitsPerDistrict = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				DataSourceProvider: "csv",
				GridDataCSV:        "data/grid.csv",
				ModelPath:          "model/grid_model.json",
				SitingStrategy:     "cluster",
				UnitsPerDistrict:   5,
				UnitCapacityMW:     0.075,
				PollInterval:       100 * time.Millisecond,
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.valid && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
