package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/al-khabib/tashkent-city-transformers/pkg/models"
)

var testToday = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testToday }

type predictorFunc func(ctx context.Context, f models.FeatureVector) (float64, error)

func (p predictorFunc) Predict(ctx context.Context, f models.FeatureVector) (float64, error) {
	return p(ctx, f)
}

func constPredictor(v float64) predictorFunc {
	return func(context.Context, models.FeatureVector) (float64, error) { return v, nil }
}

// scenarioSettings make the rescaling an identity for a 150 MW district.
func scenarioSettings() ForecastSettings {
	return ForecastSettings{UnitsPerDistrict: 5, UnitCapacityMW: 30, DefaultTPCapacityMW: 2.5}
}

// monthlySeries builds n monthly snapshots ending in September 2026.
func monthlySeries(district string, n int, capacity float64, rating float64) []models.DistrictSnapshot {
	out := make([]models.DistrictSnapshot, n)
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(n - 1), 0)
	for i := 0; i < n; i++ {
		out[i] = models.DistrictSnapshot{
			District:             district,
			SnapshotDate:         start.AddDate(0, i, 0),
			DistrictRating:       rating,
			PopulationDensity:    1000 + float64(i)*10,
			AvgTemp:              20 + float64(i%12),
			AssetAge:             20,
			CommercialInfraCount: 100 + float64(i),
			CurrentCapacityMW:    capacity,
			ActualPeakLoadMW:     capacity * 0.8,
		}
	}
	return out
}

func newTestStore(t *testing.T, snaps ...[]models.DistrictSnapshot) *TimeSeriesStore {
	t.Helper()
	var all []models.DistrictSnapshot
	for _, s := range snaps {
		all = append(all, s...)
	}
	store, err := NewTimeSeriesStore("test", all)
	require.NoError(t, err)
	return store
}
