package services

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/al-khabib/tashkent-city-transformers/pkg/models"
)

// Sheet names of the forecast report.
const (
	ForecastSheet = "Forecasts"
	SitesSheet    = "SuggestedSites"
)

var forecastHeader = []interface{}{
	"District", "Target Date", "Months Ahead", "Predicted Load (kVA)", "Capacity (kVA)",
	"Load Gap (kVA)", "Load %", "Risk Score", "Risk Level", "Transformers Needed",
}

var sitesHeader = []interface{}{
	"Site ID", "District", "Latitude", "Longitude", "Share %", "Covered Gap (kVA)",
	"Anchor Station", "Why",
}

// BuildForecastWorkbook renders state as a workbook with one sheet of forecasts
// and one of suggested sites.
func BuildForecastWorkbook(state *models.FutureState) (*excelize.File, error) {
	if state == nil {
		return nil, fmt.Errorf("no forecast has been generated yet")
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", ForecastSheet); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(SitesSheet); err != nil {
		f.Close()
		return nil, err
	}

	rows := [][]interface{}{forecastHeader}
	for _, fc := range state.DistrictPredictions {
		rows = append(rows, []interface{}{
			TitleDistrict(fc.District), fc.TargetDate, fc.MonthsAhead, fc.PredictedLoadKVA,
			fc.CurrentCapacityKVA, fc.LoadGapKVA, fc.LoadPercentage, fc.RiskScore, fc.RiskLevel,
			fc.TransformersNeeded,
		})
	}
	if err := writeRows(f, ForecastSheet, rows); err != nil {
		f.Close()
		return nil, err
	}

	rows = [][]interface{}{sitesHeader}
	for _, s := range state.SuggestedTPs {
		rows = append(rows, []interface{}{
			s.ID, TitleDistrict(s.District), s.Coordinates[0], s.Coordinates[1], s.ClusterSharePct,
			s.ClusterLoadGapKVA, s.AnchorStationID, s.WhySummary,
		})
	}
	if err := writeRows(f, SitesSheet, rows); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// RenderForecastReport renders the workbook of state to bytes.
func RenderForecastReport(state *models.FutureState) ([]byte, error) {
	f, err := BuildForecastWorkbook(state)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}


func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
