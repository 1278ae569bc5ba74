package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/al-khabib/tashkent-city-transformers/pkg/datasource"
	"github.com/al-khabib/tashkent-city-transformers/pkg/models"
)

// TimeSeriesStore holds every district snapshot, grouped by district and ordered by date.
// It is read-only after construction.
type TimeSeriesStore struct {
	providerName string
	byDistrict   map[string][]models.DistrictSnapshot
	districts    []string
}

// LoadTimeSeriesStore pulls the full series from provider.
func LoadTimeSeriesStore(ctx context.Context, provider datasource.GridDataProvider) (*TimeSeriesStore, error) {
	snaps, err := provider.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: loading grid data from %s: %v", ErrConfiguration, provider.Name(), err)
	}
	return NewTimeSeriesStore(provider.Name(), snaps)
}

// NewTimeSeriesStore indexes snaps by normalized district key.
func NewTimeSeriesStore(providerName string, snaps []models.DistrictSnapshot) (*TimeSeriesStore, error) {
	if len(snaps) == 0 {
		return nil, fmt.Errorf("%w: grid data contains no snapshots", ErrConfiguration)
	}

	byDistrict := make(map[string][]models.DistrictSnapshot)
	for _, s := range snaps {
		key := normalizeDistrict(s.District)
		s.District = key
		byDistrict[key] = append(byDistrict[key], s)
	}

	districts := make([]string, 0, len(byDistrict))
	for d, rows := range byDistrict {
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].SnapshotDate.Before(rows[j].SnapshotDate)
		})
		districts = append(districts, d)
	}
	sort.Strings(districts)

	return &TimeSeriesStore{
		providerName: providerName,
		byDistrict:   byDistrict,
		districts:    districts,
	}, nil
}

// ProviderName names the source the store was loaded from.
func (s *TimeSeriesStore) ProviderName() string {
	return s.providerName
}

// KnownDistricts returns the district keys in alphabetical order.
func (s *TimeSeriesStore) KnownDistricts() []string {
	out := make([]string, len(s.districts))
	copy(out, s.districts)
	return out
}

// Latest returns the most recent snapshot of district.
func (s *TimeSeriesStore) Latest(district string) (models.DistrictSnapshot, error) {
	rows, ok := s.byDistrict[normalizeDistrict(district)]
	if !ok || len(rows) == 0 {
		return models.DistrictSnapshot{}, fmt.Errorf("%w: %s", ErrUnknownDistrict, district)
	}
	return rows[len(rows)-1], nil
}

// Tail returns up to n of the most recent snapshots of district, oldest first.
func (s *TimeSeriesStore) Tail(district string, n int) []models.DistrictSnapshot {
	rows := s.byDistrict[normalizeDistrict(district)]
	if n >= 0 && len(rows) > n {
		rows = rows[len(rows)-n:]
	}
	out := make([]models.DistrictSnapshot, len(rows))
	copy(out, rows)
	return out
}

func normalizeDistrict(d string) string {
	return strings.ToLower(strings.TrimSpace(d))
}
