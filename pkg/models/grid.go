package models

import (
	"time"
)

// DistrictSnapshot is one monthly observation of a district's grid state.
type DistrictSnapshot struct {
	District             string    `json:"district" mapstructure:"district"`
	SnapshotDate         time.Time `json:"snapshot_date" mapstructure:"-"`
	DistrictRating       float64   `json:"district_rating" mapstructure:"district_rating"`
	PopulationDensity    float64   `json:"population_density" mapstructure:"population_density"`
	AvgTemp              float64   `json:"avg_temp" mapstructure:"avg_temp"`
	AssetAge             float64   `json:"asset_age" mapstructure:"asset_age"`
	CommercialInfraCount float64   `json:"commercial_infra_count" mapstructure:"commercial_infra_count"`
	CurrentCapacityMW    float64   `json:"current_capacity_mw" mapstructure:"current_capacity_mw"`
	ActualPeakLoadMW     float64   `json:"actual_peak_load_mw" mapstructure:"actual_peak_load_mw"`
	AvgTPCapacityMW      *float64  `json:"avg_tp_capacity_mw,omitempty" mapstructure:"avg_tp_capacity_mw"`
}

// FeatureCount is the arity every predictor is trained on.
const FeatureCount = 6

// FeatureVector holds model inputs in the order
// rating, population density, avg temp, asset age, commercial count, months ahead.
type FeatureVector [FeatureCount]float64

// Slice returns the features as a slice.
func (f FeatureVector) Slice() []float64 {
	out := make([]float64, FeatureCount)
	copy(out, f[:])
	return out
}

// AffectingFactors lists the feature values that produced a forecast.
type AffectingFactors struct {
	DistrictRating       float64 `json:"district_rating"`
	PopulationDensity    float64 `json:"population_density"`
	AvgTemp              float64 `json:"avg_temp"`
	AssetAge             float64 `json:"asset_age"`
	CommercialInfraCount float64 `json:"commercial_infra_count"`
	MonthsAhead          int     `json:"months_ahead"`
}

// Risk levels.
const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

// Forecast is the projected load and risk of one district at a target date.
// Exported numbers are rounded for presentation. Raw keeps full precision
// for downstream computation.
type Forecast struct {
	District           string           `json:"district"`
	TargetDate         string           `json:"target_date"`
	MonthsAhead        int              `json:"months_ahead"`
	PredictedLoadKVA   float64          `json:"predicted_load_kva"`
	CurrentCapacityKVA float64          `json:"current_capacity_kva"`
	LoadGapKVA         float64          `json:"load_gap_kva"`
	PredictedLoadMW    float64          `json:"predicted_load_mw"`
	CurrentCapacityMW  float64          `json:"current_capacity_mw"`
	LoadGapMW          float64          `json:"load_gap_mw"`
	LoadPercentage     float64          `json:"load_percentage"`
	RiskLevel          string           `json:"risk_level"`
	RiskScore          int              `json:"risk_score"`
	TransformersNeeded int              `json:"transformers_needed"`
	AffectingFactors   AffectingFactors `json:"affecting_factors"`

	Raw ForecastRaw `json:"-"`
}

// ForecastRaw carries the unrounded rescaled values of a Forecast.
type ForecastRaw struct {
	Target          time.Time
	PredictedLoadMW float64
	CapacityMW      float64
	LoadGapMW       float64
	Utilization     float64
	ScalingFactor   float64
}

// Station statuses.
const (
	StatusGreen  = "green"
	StatusYellow = "yellow"
	StatusRed    = "red"
)

// LoadPoint is one history sample of a station.
type LoadPoint struct {
	Date string  `json:"date"`
	Load float64 `json:"load"`
}

// AssetStation is an existing transformer station.
type AssetStation struct {
	ID                string      `json:"id"`
	District          string      `json:"district"`
	Name              string      `json:"name"`
	Coordinates       [2]float64  `json:"coordinates"`
	LoadWeight        float64     `json:"load_weight"`
	CapacityKVA       int         `json:"capacity_kva"`
	Status            string      `json:"status"`
	InstallDate       int         `json:"install_date"`
	DemographicGrowth float64     `json:"demographic_growth"`
	History           []LoadPoint `json:"history"`
}

// SuggestedSite is a candidate coordinate for a new transformer.
type SuggestedSite struct {
	ID                 string     `json:"id"`
	District           string     `json:"district"`
	Coordinates        [2]float64 `json:"coordinates"`
	ClusterSharePct    float64    `json:"cluster_share_pct"`
	AnchorStationID    string     `json:"anchor_station_id,omitempty"`
	TargetDate         string     `json:"target_date"`
	ExpectedLoadKVA    float64    `json:"expected_load_kva"`
	ExpectedLoadMW     float64    `json:"expected_load_mw"`
	CurrentCapacityKVA float64    `json:"current_capacity_kva"`
	CurrentCapacityMW  float64    `json:"current_capacity_mw"`
	LoadGapKVA         float64    `json:"load_gap_kva"`
	LoadGapMW          float64    `json:"load_gap_mw"`
	LoadPercentage     float64    `json:"load_percentage"`
	TransformersNeeded int        `json:"transformers_needed"`
	ClusterLoadGapKVA  float64    `json:"cluster_load_gap_kva"`
	WhySummary         string     `json:"why_summary"`
	Reasons            []string   `json:"reasons"`
	Recommendation     string     `json:"recommendation"`
}

// DistrictFailure reports a district that could not be forecast.
type DistrictFailure struct {
	District string `json:"district"`
	Error    string `json:"error"`
}

// FutureState is the latest completed forecast and siting run.
type FutureState struct {
	TargetDate              string            `json:"target_date"`
	GeneratedAt             time.Time         `json:"generated_at"`
	DistrictPredictions     []Forecast        `json:"district_predictions"`
	SuggestedTPs            []SuggestedSite   `json:"suggested_tps"`
	TotalTransformersNeeded int               `json:"total_transformers_needed"`
	Failures                []DistrictFailure `json:"failures,omitempty"`
}
