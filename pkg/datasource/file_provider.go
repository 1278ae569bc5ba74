package datasource

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/al-khabib/tashkent-city-transformers/pkg/models"
)

// CSVProvider reads the time series from a CSV file with a header row.
type CSVProvider struct {
	Path string
}

// NewCSVProvider returns a provider for the CSV file at path.
func NewCSVProvider(path string) *CSVProvider {
	return &CSVProvider{Path: path}
}

// Name returns "csv".
func (p *CSVProvider) Name() string { return ProviderCSV }

// LoadAll reads and normalizes the whole file.
func (p *CSVProvider) LoadAll(ctx context.Context) ([]models.DistrictSnapshot, error) {
	if p.Path == "" {
		return nil, fmt.Errorf("GRID_DATA_CSV is not configured")
	}
	file, err := os.Open(p.Path)
	if err != nil {
		return nil, fmt.Errorf("district stats CSV not found at %s: %w", p.Path, err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV %s: %w", p.Path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return NormalizeTable(rows)
}

// XLSXProvider reads the time series from the first sheet of a workbook.
type XLSXProvider struct {
	Path string
}

// NewXLSXProvider returns a provider for the workbook at path.
func NewXLSXProvider(path string) *XLSXProvider {
	return &XLSXProvider{Path: path}
}

// Name returns "xlsx".
func (p *XLSXProvider) Name() string { return ProviderXLSX }

// LoadAll reads and normalizes the first sheet.
func (p *XLSXProvider) LoadAll(ctx context.Context) ([]models.DistrictSnapshot, error) {
	if p.Path == "" {
		return nil, fmt.Errorf("GRID_DATA_XLSX is not configured")
	}
	f, err := excelize.OpenFile(p.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", p.Path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from %s: %w", p.Path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return NormalizeTable(rows)
}
