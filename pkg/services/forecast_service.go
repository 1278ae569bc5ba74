package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/al-khabib/tashkent-city-transformers/pkg/models"
	"github.com/al-khabib/tashkent-city-transformers/pkg/predictor"
)

const (
	capacityEpsilon     = 1e-6
	transformerFloorMW  = 0.1
	riskScoreMultiplier = 8
)

// ForecastSettings controls the rescaling from district aggregate to reporting units.
type ForecastSettings struct {
	UnitsPerDistrict    int
	UnitCapacityMW      float64
	DefaultTPCapacityMW float64
}

// DefaultForecastSettings are 5 reporting units of 0.075 MW and 2.5 MW transformers.
func DefaultForecastSettings() ForecastSettings {
	return ForecastSettings{
		UnitsPerDistrict:    5,
		UnitCapacityMW:      0.075,
		DefaultTPCapacityMW: 2.5,
	}
}

// ForecastService turns features into a rescaled load, capacity and risk forecast.
type ForecastService struct {
	predictor predictor.Predictor
	settings  ForecastSettings
}

// NewForecastService returns a forecaster over p.
func NewForecastService(p predictor.Predictor, settings ForecastSettings) *ForecastService {
	return &ForecastService{predictor: p, settings: settings}
}

// Settings returns the rescaling settings.
func (s *ForecastService) Settings() ForecastSettings {
	return s.settings
}

// Forecast predicts the district load for in and derives gap, risk and transformer need.
func (s *ForecastService) Forecast(ctx context.Context, in FeatureInput) (models.Forecast, error) {
	raw, err := s.predictor.Predict(ctx, in.Features)
	if err != nil {
		if errors.Is(err, predictor.ErrFeatureArity) {
			return models.Forecast{}, fmt.Errorf("%w: %s: %w", ErrPredictorFailure, in.District, err)
		}
		return models.Forecast{}, fmt.Errorf("%w: %s: %v", ErrPredictorFailure, in.District, err)
	}
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return models.Forecast{}, fmt.Errorf("%w: %s: non-finite prediction", ErrPredictorFailure, in.District)
	}

	capacity := in.Current.CurrentCapacityMW
	scaling := float64(s.settings.UnitsPerDistrict) * s.settings.UnitCapacityMW / math.Max(capacity, capacityEpsilon)
	predicted := raw * scaling
	capacityScaled := capacity * scaling

	gap := predicted - capacityScaled
	utilization := predicted / math.Max(capacityScaled, capacityEpsilon)
	score := RiskScore(utilization, gap)

	tpCapacity := s.settings.DefaultTPCapacityMW
	if in.Current.AvgTPCapacityMW != nil {
		tpCapacity = *in.Current.AvgTPCapacityMW
	}

	return models.Forecast{
		District:           in.District,
		TargetDate:         FormatDate(in.Target),
		MonthsAhead:        in.MonthsAhead,
		PredictedLoadKVA:   roundTo(predicted*1000, 2),
		CurrentCapacityKVA: roundTo(capacityScaled*1000, 2),
		LoadGapKVA:         roundTo(gap*1000, 2),
		PredictedLoadMW:    roundTo(predicted, 2),
		CurrentCapacityMW:  roundTo(capacityScaled, 2),
		LoadGapMW:          roundTo(gap, 2),
		LoadPercentage:     roundTo(utilization*100, 2),
		RiskLevel:          RiskLevel(score),
		RiskScore:          score,
		TransformersNeeded: TransformersNeeded(gap, tpCapacity*scaling),
		AffectingFactors: models.AffectingFactors{
			DistrictRating:       in.Current.DistrictRating,
			PopulationDensity:    in.Current.PopulationDensity,
			AvgTemp:              in.Current.AvgTemp,
			AssetAge:             in.Current.AssetAge,
			CommercialInfraCount: in.Current.CommercialInfraCount,
			MonthsAhead:          in.MonthsAhead,
		},
		Raw: models.ForecastRaw{
			Target:          in.Target,
			PredictedLoadMW: predicted,
			CapacityMW:      capacityScaled,
			LoadGapMW:       gap,
			Utilization:     utilization,
			ScalingFactor:   scaling,
		},
	}, nil
}

// RiskScore maps utilization to 1..10. Any positive gap bumps the score one step, capped at 10.
func RiskScore(utilization, gap float64) int {
	raw := math.Ceil(utilization * riskScoreMultiplier)
	score := 1
	switch {
	case raw >= 10:
		score = 10
	case raw > 1:
		score = int(raw)
	}
	if gap > 0 {
		score = clampInt(score+1, 1, 10)
	}
	return score
}

// RiskLevel bands a risk score: 1-4 Low, 5-7 Medium, 8-10 High.
func RiskLevel(score int) string {
	switch {
	case score <= 4:
		return models.RiskLow
	case score <= 7:
		return models.RiskMedium
	default:
		return models.RiskHigh
	}
}

// TransformersNeeded is the number of units of unitCapacity needed to close gap. Zero when gap <= 0.
func TransformersNeeded(gap, unitCapacity float64) int {
	if gap <= 0 {
		return 0
	}
	return int(math.Ceil(gap / math.Max(unitCapacity, transformerFloorMW)))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
