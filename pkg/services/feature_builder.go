package services

import (
	"time"

	"github.com/al-khabib/tashkent-city-transformers/pkg/models"
)

// FeatureInput is everything the forecaster needs for one district.
type FeatureInput struct {
	District    string
	Target      time.Time
	MonthsAhead int
	Features    models.FeatureVector
	Current     models.DistrictSnapshot
}

// FeatureBuilder turns the latest district snapshot and a target date into model features.
type FeatureBuilder struct {
	store *TimeSeriesStore
	now   func() time.Time
}

// NewFeatureBuilder returns a builder over store. now defaults to time.Now.
func NewFeatureBuilder(store *TimeSeriesStore, now func() time.Time) *FeatureBuilder {
	if now == nil {
		now = time.Now
	}
	return &FeatureBuilder{store: store, now: now}
}

// Today is the builder's notion of the current date.
func (b *FeatureBuilder) Today() time.Time {
	return b.now()
}

// ParseTarget resolves raw against the builder's clock.
func (b *FeatureBuilder) ParseTarget(raw string) (time.Time, error) {
	return ParseTargetDate(raw, b.now())
}

// Build parses rawTarget and builds the features of district.
func (b *FeatureBuilder) Build(district, rawTarget string) (FeatureInput, error) {
	target, err := b.ParseTarget(rawTarget)
	if err != nil {
		return FeatureInput{}, err
	}
	return b.BuildAt(district, target)
}

// BuildAt builds the features of district for an already resolved target.
func (b *FeatureBuilder) BuildAt(district string, target time.Time) (FeatureInput, error) {
	current, err := b.store.Latest(district)
	if err != nil {
		return FeatureInput{}, err
	}

	months := MonthsAhead(target, b.now())
	return FeatureInput{
		District:    current.District,
		Target:      target,
		MonthsAhead: months,
		Current:     current,
		Features: models.FeatureVector{
			current.DistrictRating,
			current.PopulationDensity,
			current.AvgTemp,
			current.AssetAge,
			current.CommercialInfraCount,
			float64(months),
		},
	}, nil
}
