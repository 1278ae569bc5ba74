// Package datasource loads the historic district time series from CSV, XLSX
// or the company grid API and normalizes it into DistrictSnapshot values.
package datasource

import (
	"context"
	"errors"

	"github.com/al-khabib/tashkent-city-transformers/pkg/models"
)

// Provider names accepted by DATA_SOURCE_PROVIDER.
const (
	ProviderCSV        = "csv"
	ProviderXLSX       = "xlsx"
	ProviderCompanyAPI = "company_api"
)

var (
	// ErrMissingColumns is returned when required columns are absent from the source.
	ErrMissingColumns = errors.New("grid data is missing required columns")
	// ErrNoRecords is returned when the source holds no district rows.
	ErrNoRecords = errors.New("grid data contains no district records")
	// ErrUnsupportedProvider is returned by New for unknown provider names.
	ErrUnsupportedProvider = errors.New("unsupported data source provider")
)

// GridDataProvider loads every district snapshot the source holds.
type GridDataProvider interface {
	Name() string
	LoadAll(ctx context.Context) ([]models.DistrictSnapshot, error)
}
