package datasource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sampleCSV = `district,snapshot_date,district_rating,population_density,avg_temp,asset_age,commercial_infra_count,current_capacity_mw,actual_peak_load_mw,avg_tp_capacity_mw
 Chilonzor ,2024-02-01,4,9100,3.5,21,140,150,120.5,
chilonzor,2024-01-01,4,9000,2.1,21,138,150,118.2,2.5
Yunusabad,2024-01-01,5,8000,2.4,12,210,180,140,
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestCSVProviderLoadAll(t *testing.T) {
	p := NewCSVProvider(writeFile(t, "grid.csv", sampleCSV))
	assert.Equal(t, "csv", p.Name())

	snaps, err := p.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, snaps, 3)

	assert.Equal(t, "chilonzor", snaps[0].District)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), snaps[0].SnapshotDate)
	assert.Equal(t, "chilonzor", snaps[1].District)
	assert.Equal(t, 9100.0, snaps[1].PopulationDensity)
	assert.Equal(t, "yunusabad", snaps[2].District)

	require.NotNil(t, snaps[0].AvgTPCapacityMW)
	assert.Equal(t, 2.5, *snaps[0].AvgTPCapacityMW)
	assert.Nil(t, snaps[1].AvgTPCapacityMW)
}

func TestCSVProviderMissingColumns(t *testing.T) {
	p := NewCSVProvider(writeFile(t, "grid.csv", "district,snapshot_date\nchilonzor,2024-01-01\n"))

	_, err := p.LoadAll(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumns))
	assert.Contains(t, err.Error(), "current_capacity_mw")
}

func TestCSVProviderMissingFile(t *testing.T) {
	_, err := NewCSVProvider(filepath.Join(t.TempDir(), "nope.csv")).LoadAll(context.Background())
	assert.Error(t, err)
}

func TestNormalizeRecordsBadDate(t *testing.T) {
	_, err := NormalizeTable([][]string{
		RequiredColumns,
		{"chilonzor", "yesterday", "4", "9000", "2", "21", "138", "150", "118"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 1")
}

func TestXLSXProviderLoadAll(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	header := make([]interface{}, len(RequiredColumns))
	for i, c := range RequiredColumns {
		header[i] = c
	}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"Sergeli", "2024-03-01", 3, 7000, 15.5, 30, 90, 120, 100}))
	path := filepath.Join(t.TempDir(), "grid.xlsx")
	require.NoError(t, f.SaveAs(path))

	p := NewXLSXProvider(path)
	snaps, err := p.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "sergeli", snaps[0].District)
	assert.Equal(t, 15.5, snaps[0].AvgTemp)
	assert.Equal(t, 120.0, snaps[0].CurrentCapacityMW)
}

func TestCompanyAPIProvider(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"bare array", `[{"district":"Olmazor","snapshot_date":"2024-01-01","district_rating":3,"population_density":8500,"avg_temp":1.2,"asset_age":25,"commercial_infra_count":80,"current_capacity_mw":110,"actual_peak_load_mw":95}]`, 1},
		{"data envelope", `{"data":[{"district":"Bektemir","snapshot_date":"2024-01-01","district_rating":2,"population_density":4000,"avg_temp":1.0,"asset_age":30,"commercial_infra_count":40,"current_capacity_mw":60,"actual_peak_load_mw":50,"avg_tp_capacity_mw":2.0}, "skip"]}`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/grid/historic", r.URL.Path)
				assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			p := NewCompanyAPIProvider(server.URL+"/", "secret", time.Second)
			snaps, err := p.LoadAll(context.Background())
			require.NoError(t, err)
			assert.Len(t, snaps, tt.want)
		})
	}
}

func TestCompanyAPIProviderErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("x") == "" {
			_, _ = w.Write([]byte(`{"data":[]}`))
		}
	}))
	defer server.Close()

	_, err := NewCompanyAPIProvider(server.URL, "", time.Second).LoadAll(context.Background())
	assert.True(t, errors.Is(err, ErrNoRecords))

	_, err = NewCompanyAPIProvider("", "", time.Second).LoadAll(context.Background())
	assert.Error(t, err)
}

func TestNewProvider(t *testing.T) {
	p, err := New(Options{Provider: ProviderCompanyAPI, CompanyAPIBaseURL: "http://grid"})
	require.NoError(t, err)
	assert.Equal(t, "company_api", p.Name())

	p, err = New(Options{Provider: ProviderXLSX, XLSXPath: "grid.xlsx"})
	require.NoError(t, err)
	assert.Equal(t, "xlsx", p.Name())

	_, err = New(Options{Provider: "parquet"})
	assert.True(t, errors.Is(err, ErrUnsupportedProvider))
}
