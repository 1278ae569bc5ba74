package services

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/al-khabib/tashkent-city-transformers/pkg/models"
)

// Strategy names accepted by SITING_STRATEGY.
const (
	StrategyCluster   = "cluster"
	StrategyProximity = "proximity"
)

// SitingStrategy places candidate sites for one overloaded district forecast.
// Returned sites carry ID, District, Coordinates, ClusterSharePct and optionally AnchorStationID;
// the SitingService fills in the rest.
type SitingStrategy interface {
	Name() string
	Place(ctx context.Context, f models.Forecast, stations []models.AssetStation, rng *rand.Rand) ([]models.SuggestedSite, error)
}

// NewSitingStrategy returns the strategy called name.
func NewSitingStrategy(name string, stressThreshold float64) (SitingStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", StrategyCluster:
		return &ClusterStrategy{Restarts: 10}, nil
	case StrategyProximity:
		return &ProximityStrategy{StressThreshold: stressThreshold, MinDistanceM: 200, MaxDistanceM: 500}, nil
	default:
		return nil, fmt.Errorf("%w: unknown siting strategy %q", ErrConfiguration, name)
	}
}

// ClusterStrategy samples a Gaussian cloud around the district center, widening with
// the overload, and places one site per k-means centroid.
type ClusterStrategy struct {
	Restarts int
}

// Name implements SitingStrategy.
func (c *ClusterStrategy) Name() string { return StrategyCluster }

// Place implements SitingStrategy.
func (c *ClusterStrategy) Place(ctx context.Context, f models.Forecast, _ []models.AssetStation, rng *rand.Rand) ([]models.SuggestedSite, error) {
	if f.Raw.LoadGapMW <= 0 || f.TransformersNeeded <= 0 {
		return nil, nil
	}

	horizon := 1.0
	switch {
	case f.MonthsAhead > 12:
		horizon = 2.0
	case f.MonthsAhead > 6:
		horizon = 1.5
	}
	k := int(float64(f.TransformersNeeded) * horizon)
	if k < 1 {
		k = 1
	}

	samples := k * 8
	if samples < 10 {
		samples = 10
	}
	jitter := 0.007 + math.Min(0.02, math.Max(0, f.Raw.LoadGapMW)/1000)
	center := CenterFor(f.District)

	points := make([][]float64, samples)
	for i := range points {
		points[i] = []float64{
			center[0] + rng.NormFloat64()*jitter,
			center[1] + rng.NormFloat64()*jitter,
		}
	}

	result, err := kMeans(ctx, points, k, c.Restarts, rng)
	if err != nil {
		return nil, err
	}

	counts := result.Counts()
	sites := make([]models.SuggestedSite, len(result.Centroids))
	for i, centroid := range result.Centroids {
		sites[i] = models.SuggestedSite{
			ID:              fmt.Sprintf("%s-tp-%d", f.District, i+1),
			District:        f.District,
			Coordinates:     [2]float64{roundTo(centroid[0], 6), roundTo(centroid[1], 6)},
			ClusterSharePct: roundTo(float64(counts[i])/float64(samples)*100, 1),
		}
	}
	return sites, nil
}

// ProximityStrategy reinforces stressed stations directly: each unit of need gets a
// site at a random bearing and distance from a rotating stressed anchor.
type ProximityStrategy struct {
	StressThreshold float64
	MinDistanceM    float64
	MaxDistanceM    float64
}

// Name implements SitingStrategy.
func (p *ProximityStrategy) Name() string { return StrategyProximity }

// Place implements SitingStrategy.
func (p *ProximityStrategy) Place(ctx context.Context, f models.Forecast, stations []models.AssetStation, rng *rand.Rand) ([]models.SuggestedSite, error) {
	need := f.TransformersNeeded
	if f.Raw.LoadGapMW <= 0 || need <= 0 {
		return nil, nil
	}

	anchors := make([]models.AssetStation, 0)
	for _, st := range stations {
		if normalizeDistrict(st.District) == f.District && st.LoadWeight >= p.StressThreshold {
			anchors = append(anchors, st)
		}
	}
	sort.SliceStable(anchors, func(i, j int) bool {
		if anchors[i].LoadWeight != anchors[j].LoadWeight {
			return anchors[i].LoadWeight > anchors[j].LoadWeight
		}
		return anchors[i].ID < anchors[j].ID
	})

	share := roundTo(100/float64(need), 1)
	sites := make([]models.SuggestedSite, 0, need)
	for i := 0; i < need; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		origin := CenterFor(f.District)
		anchorID := ""
		if len(anchors) > 0 {
			anchor := anchors[i%len(anchors)]
			origin = anchor.Coordinates
			anchorID = anchor.ID
		}
		bearing := rng.Float64() * 360
		distance := uniform(rng, p.MinDistanceM, p.MaxDistanceM)
		coord := OffsetCoordinates(origin, bearing, distance)

		sites = append(sites, models.SuggestedSite{
			ID:              fmt.Sprintf("%s-tp-%d", f.District, i+1),
			District:        f.District,
			Coordinates:     [2]float64{roundTo(coord[0], 6), roundTo(coord[1], 6)},
			ClusterSharePct: share,
			AnchorStationID: anchorID,
		})
	}
	return sites, nil
}

// SitingService recommends new transformer sites for overloaded districts and
// explains each one.
type SitingService struct {
	strategy         SitingStrategy
	store            *TimeSeriesStore
	seed             int64
	unitsPerDistrict int
}

// NewSitingService returns a recommender using strategy. Every call to Recommend
// draws from a fresh source seeded with seed.
func NewSitingService(strategy SitingStrategy, store *TimeSeriesStore, seed int64, unitsPerDistrict int) *SitingService {
	if unitsPerDistrict <= 0 {
		unitsPerDistrict = 5
	}
	return &SitingService{strategy: strategy, store: store, seed: seed, unitsPerDistrict: unitsPerDistrict}
}

// StrategyName names the active strategy.
func (s *SitingService) StrategyName() string {
	return s.strategy.Name()
}

// Recommend places and explains sites for every overloaded forecast.
func (s *SitingService) Recommend(ctx context.Context, forecasts []models.Forecast, stations []models.AssetStation) ([]models.SuggestedSite, error) {
	rng := rand.New(rand.NewSource(s.seed))
	sites := make([]models.SuggestedSite, 0)

	for _, f := range forecasts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		placed, err := s.strategy.Place(ctx, f, stations, rng)
		if err != nil {
			return nil, err
		}
		if len(placed) == 0 {
			continue
		}

		trends := s.store.Trends(f.District)
		stationCount := 0
		for _, st := range stations {
			if normalizeDistrict(st.District) == f.District {
				stationCount++
			}
		}
		if stationCount == 0 {
			stationCount = s.unitsPerDistrict
		}

		for _, site := range placed {
			sites = append(sites, enrichSite(site, f, trends, stationCount))
		}
	}
	return sites, nil
}

func enrichSite(site models.SuggestedSite, f models.Forecast, trends DistrictTrends, stationCount int) models.SuggestedSite {
	site.TargetDate = f.TargetDate
	site.ExpectedLoadKVA = roundTo(f.PredictedLoadKVA, 1)
	site.ExpectedLoadMW = roundTo(f.PredictedLoadKVA/1000, 2)
	site.CurrentCapacityKVA = roundTo(f.CurrentCapacityKVA, 1)
	site.CurrentCapacityMW = roundTo(f.CurrentCapacityKVA/1000, 2)
	site.LoadGapKVA = roundTo(f.LoadGapKVA, 1)
	site.LoadGapMW = roundTo(f.LoadGapKVA/1000, 2)
	site.LoadPercentage = roundTo(f.LoadPercentage, 2)
	site.TransformersNeeded = f.TransformersNeeded
	site.ClusterLoadGapKVA = roundTo(site.ClusterSharePct/100*math.Max(site.LoadGapKVA, 0), 1)

	expected := int(math.Max(site.ExpectedLoadKVA, 0))
	capacity := int(math.Max(site.CurrentCapacityKVA, 0))
	pct := math.Max(site.LoadPercentage, 0)

	site.WhySummary = fmt.Sprintf("By %s, projected demand reaches %d kVA against %d kVA capacity (%s%% utilization).",
		site.TargetDate, expected, capacity, strconv.FormatFloat(pct, 'f', -1, 64))

	overloaded := int(math.Ceil(site.LoadGapKVA / math.Max(site.CurrentCapacityKVA, 1) * float64(stationCount)))
	overloaded = clampInt(overloaded, 0, stationCount)

	site.Reasons = []string{
		fmt.Sprintf("Capacity shortfall is %.0f kVA on %s; this point covers ~%.0f kVA of that deficit.",
			site.LoadGapKVA, site.TargetDate, site.ClusterLoadGapKVA),
		fmt.Sprintf("In %s, about %d of %d current transformers are likely to run above safe limits at peak hours, increasing outage/shutdown risk.",
			TitleDistrict(site.District), overloaded, stationCount),
		fmt.Sprintf("Main stress drivers: population trend %.1f%%, commercial growth %.1f%%, temperature indicator %.1fC. %s",
			trends.PopulationPct, trends.CommercialPct, roundTo(f.AffectingFactors.AvgTemp, 1), SeasonalNote(forecastTarget(f))),
		fmt.Sprintf("Estimated expansion need for transformer group: %d new unit(s).", site.TransformersNeeded),
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Proposed Installation: %s\n\n", site.District))
	sb.WriteString(fmt.Sprintf("Date: %s\n\n", site.TargetDate))
	sb.WriteString(fmt.Sprintf("Expected Load: %d kVA\n\n", expected))
	sb.WriteString(site.WhySummary)
	sb.WriteString("\n\n")
	for i, reason := range site.Reasons {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("%d. %s", i+1, reason))
	}
	site.Recommendation = sb.String()
	return site
}

func forecastTarget(f models.Forecast) time.Time {
	if !f.Raw.Target.IsZero() {
		return f.Raw.Target
	}
	t, _ := time.Parse("2006-01-02", f.TargetDate)
	return t
}
