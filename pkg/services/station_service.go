package services

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/al-khabib/tashkent-city-transformers/pkg/models"
)

const (
	targetStationCount = 20
	stationHistoryLen  = 24
)

var stationCapacityOptionsKVA = []int{50, 100, 160, 200, 240, 300, 400}

// StationService builds the inventory of existing transformer stations from the
// time series. The inventory is generated once from the seed and then reused.
type StationService struct {
	store *TimeSeriesStore
	seed  int64

	once     sync.Once
	stations []models.AssetStation
}

// NewStationService returns an inventory service over store.
func NewStationService(store *TimeSeriesStore, seed int64) *StationService {
	return &StationService{store: store, seed: seed}
}

// All returns every station.
func (s *StationService) All() []models.AssetStation {
	s.once.Do(func() {
		s.stations = s.generate()
	})
	out := make([]models.AssetStation, len(s.stations))
	copy(out, s.stations)
	return out
}

// ByDistrict returns the stations of district, matched case-insensitively.
func (s *StationService) ByDistrict(district string) []models.AssetStation {
	key := normalizeDistrict(district)
	var out []models.AssetStation
	for _, st := range s.All() {
		if normalizeDistrict(st.District) == key {
			out = append(out, st)
		}
	}
	return out
}

func (s *StationService) generate() []models.AssetStation {
	rng := rand.New(rand.NewSource(s.seed))

	statuses := make([]string, 0, targetStationCount)
	for i := 0; i < 10; i++ {
		statuses = append(statuses, models.StatusGreen)
	}
	for i := 0; i < 5; i++ {
		statuses = append(statuses, models.StatusYellow, models.StatusRed)
	}
	rng.Shuffle(len(statuses), func(i, j int) { statuses[i], statuses[j] = statuses[j], statuses[i] })

	districts := s.store.KnownDistricts()
	stations := make([]models.AssetStation, 0, targetStationCount)
	statusIdx := 0
	nextID := 1

	for di, district := range districts {
		if statusIdx >= len(statuses) {
			break
		}
		latest, err := s.store.Latest(district)
		if err != nil {
			continue
		}
		capacity := latest.CurrentCapacityMW
		if capacity <= 0 {
			capacity = 120
		}

		rows := s.store.Tail(district, stationHistoryLen)
		history := make([]models.LoadPoint, len(rows))
		for i, r := range rows {
			history[i] = models.LoadPoint{
				Date: FormatDate(r.SnapshotDate),
				Load: roundTo(r.ActualPeakLoadMW/capacity*100, 1),
			}
		}

		remainingStations := targetStationCount - nextID + 1
		remainingDistricts := len(districts) - di
		perDistrict := remainingStations / remainingDistricts
		if perDistrict < 1 {
			perDistrict = 1
		}

		center := CenterFor(district)
		for i := 0; i < perDistrict; i++ {
			if statusIdx >= len(statuses) || nextID > targetStationCount {
				break
			}
			load := roundTo(loadForStatus(rng, statuses[statusIdx]), 1)
			statusIdx++

			stations = append(stations, models.AssetStation{
				ID:       fmt.Sprintf("ts-%03d", nextID),
				Name:     fmt.Sprintf("Substation-%s-%c", strings.ReplaceAll(district, " ", "-"), 'A'+rune(i%26)),
				District: TitleDistrict(district),
				Coordinates: [2]float64{
					roundTo(center[0]+uniform(rng, -0.01, 0.01), 6),
					roundTo(center[1]+uniform(rng, -0.01, 0.01), 6),
				},
				LoadWeight:        load,
				CapacityKVA:       stationCapacityOptionsKVA[rng.Intn(len(stationCapacityOptionsKVA))],
				Status:            StatusForLoad(load),
				InstallDate:       2023 - rng.Intn(5),
				DemographicGrowth: roundTo(1+uniform(rng, 0.15, 0.35), 2),
				History:           history,
			})
			nextID++
		}
	}
	return stations
}

func loadForStatus(rng *rand.Rand, status string) float64 {
	switch status {
	case models.StatusGreen:
		return uniform(rng, 10, 49)
	case models.StatusYellow:
		return uniform(rng, 50, 79)
	default:
		return uniform(rng, 80, 98)
	}
}

// StatusForLoad bands a load percentage into green, yellow or red.
func StatusForLoad(load float64) string {
	switch {
	case load < 50:
		return models.StatusGreen
	case load < 80:
		return models.StatusYellow
	default:
		return models.StatusRed
	}
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
