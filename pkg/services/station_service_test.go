package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/al-khabib/tashkent-city-transformers/pkg/models"
)

func eightDistrictStore(t *testing.T) *TimeSeriesStore {
	t.Helper()
	var series [][]models.DistrictSnapshot
	for district := range DistrictCenters {
		series = append(series, monthlySeries(district, 30, 120, 3))
	}
	return newTestStore(t, series...)
}

func TestStationInventory(t *testing.T) {
	svc := NewStationService(eightDistrictStore(t), 42)
	stations := svc.All()
	require.Len(t, stations, 20)

	counts := map[string]int{}
	perDistrict := map[string]int{}
	for i, st := range stations {
		assert.Equal(t, fmt.Sprintf("ts-%03d", i+1), st.ID)
		assert.Equal(t, StatusForLoad(st.LoadWeight), st.Status, st.ID)
		assert.Len(t, st.History, 24)
		assert.Equal(t, 80.0, st.History[0].Load)
		assert.Equal(t, "2026-09-01", st.History[23].Date)
		assert.Contains(t, stationCapacityOptionsKVA, st.CapacityKVA)
		assert.GreaterOrEqual(t, st.InstallDate, 2019)
		assert.LessOrEqual(t, st.InstallDate, 2023)
		assert.Less(t, HaversineMeters(CenterFor(st.District), st.Coordinates), 2000.0)
		counts[st.Status]++
		perDistrict[st.District]++
	}
	assert.Equal(t, map[string]int{models.StatusGreen: 10, models.StatusYellow: 5, models.StatusRed: 5}, counts)
	assert.Len(t, perDistrict, 8)
	for district, n := range perDistrict {
		assert.GreaterOrEqual(t, n, 2, district)
	}
}

func TestStationInventoryStable(t *testing.T) {
	store := eightDistrictStore(t)
	svc := NewStationService(store, 42)
	first := svc.All()
	first[0].LoadWeight = -1

	assert.NotEqual(t, -1.0, svc.All()[0].LoadWeight)
	assert.Equal(t, NewStationService(store, 42).All(), svc.All())
}

func TestStationsByDistrict(t *testing.T) {
	svc := NewStationService(newTestStore(t, monthlySeries("chilonzor", 12, 150, 4), monthlySeries("mirzo ulugbek", 12, 150, 4)), 1)

	chilonzor := svc.ByDistrict(" CHILONZOR")
	require.Len(t, chilonzor, 10)
	for _, st := range chilonzor {
		assert.Equal(t, "Chilonzor", st.District)
	}
	mu := svc.ByDistrict("mirzo ulugbek")
	require.Len(t, mu, 10)
	assert.Equal(t, "Mirzo Ulugbek", mu[0].District)
	assert.Equal(t, "Substation-mirzo-ulugbek-A", mu[0].Name)
	assert.Empty(t, svc.ByDistrict("atlantis"))
}

func TestStatusForLoad(t *testing.T) {
	assert.Equal(t, models.StatusGreen, StatusForLoad(49.9))
	assert.Equal(t, models.StatusYellow, StatusForLoad(50))
	assert.Equal(t, models.StatusYellow, StatusForLoad(79.9))
	assert.Equal(t, models.StatusRed, StatusForLoad(80))
}
