package datasource

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/mapstructure"

	"github.com/al-khabib/tashkent-city-transformers/pkg/models"
)

// RequiredColumns must be present in every source.
var RequiredColumns = []string{
	"district",
	"snapshot_date",
	"district_rating",
	"population_density",
	"avg_temp",
	"asset_age",
	"commercial_infra_count",
	"current_capacity_mw",
	"actual_peak_load_mw",
}

var snapshotDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01",
	"01/02/2006",
}

// NormalizeTable converts a header row plus data rows, as read from CSV or XLSX, into snapshots.
func NormalizeTable(rows [][]string) ([]models.DistrictSnapshot, error) {
	if len(rows) == 0 {
		return nil, ErrNoRecords
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = normalizeColumn(h)
	}
	if err := checkColumns(header); err != nil {
		return nil, err
	}

	records := make([]map[string]interface{}, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		record := make(map[string]interface{}, len(header))
		for i, col := range header {
			if i < len(row) {
				record[col] = row[i]
			}
		}
		records = append(records, record)
	}
	return NormalizeRecords(records)
}

// NormalizeRecords decodes loosely typed records into snapshots.
// District names are lowercased and trimmed; the result is sorted by district then date.
func NormalizeRecords(records []map[string]interface{}) ([]models.DistrictSnapshot, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	columns := make([]string, 0, len(records[0]))
	for k := range records[0] {
		columns = append(columns, normalizeColumn(k))
	}
	if err := checkColumns(columns); err != nil {
		return nil, err
	}

	var result *multierror.Error
	snapshots := make([]models.DistrictSnapshot, 0, len(records))
	for i, raw := range records {
		snap, err := decodeRecord(raw)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("row %d: %w", i+1, err))
			continue
		}
		snapshots = append(snapshots, snap)
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}

	sort.SliceStable(snapshots, func(i, j int) bool {
		if snapshots[i].District != snapshots[j].District {
			return snapshots[i].District < snapshots[j].District
		}
		return snapshots[i].SnapshotDate.Before(snapshots[j].SnapshotDate)
	})
	return snapshots, nil
}

func decodeRecord(raw map[string]interface{}) (models.DistrictSnapshot, error) {
	clean := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			v = s
		}
		if v == nil {
			continue
		}
		clean[normalizeColumn(k)] = v
	}

	var snap models.DistrictSnapshot
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &snap,
	})
	if err != nil {
		return snap, err
	}
	if err := decoder.Decode(clean); err != nil {
		return snap, err
	}

	snap.District = strings.ToLower(strings.TrimSpace(snap.District))
	if snap.District == "" {
		return snap, fmt.Errorf("empty district")
	}

	date, err := parseSnapshotDate(clean["snapshot_date"])
	if err != nil {
		return snap, err
	}
	snap.SnapshotDate = date
	return snap, nil
}

func parseSnapshotDate(v interface{}) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return d, nil
	case string:
		for _, layout := range snapshotDateLayouts {
			if t, err := time.Parse(layout, d); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unparseable snapshot_date %q", d)
	default:
		return time.Time{}, fmt.Errorf("unsupported snapshot_date value %v", v)
	}
}

func checkColumns(columns []string) error {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}
	var missing []string
	for _, req := range RequiredColumns {
		if !present[req] {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return nil
}

func normalizeColumn(name string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
