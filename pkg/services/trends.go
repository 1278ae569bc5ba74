package services

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

const trendWindow = 12

// DistrictTrends compares the last 12 snapshots with the 12 before them.
type DistrictTrends struct {
	PopulationPct float64 `json:"population_pct"`
	CommercialPct float64 `json:"commercial_pct"`
}

// Trends returns year-over-year growth of population density and commercial
// infrastructure. Fewer than 12 snapshots yields zero trends.
func (s *TimeSeriesStore) Trends(district string) DistrictTrends {
	rows := s.Tail(district, 2*trendWindow)
	if len(rows) < trendWindow {
		return DistrictTrends{}
	}

	recent := rows[len(rows)-trendWindow:]
	previous := rows[:len(rows)-trendWindow]
	if len(previous) == 0 {
		return DistrictTrends{}
	}

	recentPop, recentCom := make([]float64, len(recent)), make([]float64, len(recent))
	for i, r := range recent {
		recentPop[i] = r.PopulationDensity
		recentCom[i] = r.CommercialInfraCount
	}
	prevPop, prevCom := make([]float64, len(previous)), make([]float64, len(previous))
	for i, r := range previous {
		prevPop[i] = r.PopulationDensity
		prevCom[i] = r.CommercialInfraCount
	}

	return DistrictTrends{
		PopulationPct: roundTo(pctChange(stat.Mean(recentPop, nil), stat.Mean(prevPop, nil)), 1),
		CommercialPct: roundTo(pctChange(stat.Mean(recentCom, nil), stat.Mean(prevCom, nil)), 1),
	}
}

func pctChange(newVal, oldVal float64) float64 {
	if math.Abs(oldVal) < 1e-6 {
		return 0
	}
	return (newVal - oldVal) / oldVal * 100
}

// SeasonalNote describes how the target month biases peak demand.
func SeasonalNote(target time.Time) string {
	switch target.Month() {
	case time.June, time.July, time.August:
		return "Summer cooling demand is expected to increase grid stress."
	case time.December, time.January, time.February:
		return "Winter heating demand is expected to increase grid stress."
	default:
		return "Baseline seasonal demand still contributes to elevated peak load."
	}
}
