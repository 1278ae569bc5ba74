package influxdb

import (
	"context"
	"fmt"
	"log"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/al-khabib/tashkent-city-transformers/pkg/models"
)

// Config holds the InfluxDB v2 connection settings.
type Config struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// Client writes completed forecast runs to InfluxDB v2.
type Client struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	cfg      Config
}

// NewClient connects and verifies the server is healthy.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	if _, err := client.Health(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to InfluxDB: %w", err)
	}

	log.Printf("[influxdb] connected to %s (bucket %s)", cfg.URL, cfg.Bucket)
	return &Client{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		cfg:      cfg,
	}, nil
}

// Name implements services.PostRunHook.
func (c *Client) Name() string { return "influxdb" }

// OnForecastCompleted writes one district_forecast point per forecast and one
// suggested_site point per site, timestamped at the target date.
func (c *Client) OnForecastCompleted(ctx context.Context, state *models.FutureState) error {
	points := ForecastPoints(state)
	if len(points) == 0 {
		return nil
	}
	if err := c.writeAPI.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("failed to write forecast points: %w", err)
	}
	return nil
}

// ForecastPoints converts a FutureState into InfluxDB points.
func ForecastPoints(state *models.FutureState) []*write.Point {
	if state == nil {
		return nil
	}
	ts, err := time.Parse("2006-01-02", state.TargetDate)
	if err != nil {
		ts = state.GeneratedAt
	}

	points := make([]*write.Point, 0, len(state.DistrictPredictions)+len(state.SuggestedTPs))
	for _, f := range state.DistrictPredictions {
		points = append(points, write.NewPoint(
			"district_forecast",
			map[string]string{
				"district":   f.District,
				"risk_level": f.RiskLevel,
			},
			map[string]interface{}{
				"predicted_load_kva":   f.PredictedLoadKVA,
				"current_capacity_kva": f.CurrentCapacityKVA,
				"load_gap_kva":         f.LoadGapKVA,
				"load_percentage":      f.LoadPercentage,
				"risk_score":           f.RiskScore,
				"transformers_needed":  f.TransformersNeeded,
				"months_ahead":         f.MonthsAhead,
			},
			ts,
		))
	}

	for _, s := range state.SuggestedTPs {
		points = append(points, write.NewPoint(
			"suggested_site",
			map[string]string{
				"district": s.District,
				"site_id":  s.ID,
			},
			map[string]interface{}{
				"latitude":             s.Coordinates[0],
				"longitude":            s.Coordinates[1],
				"cluster_share_pct":    s.ClusterSharePct,
				"cluster_load_gap_kva": s.ClusterLoadGapKVA,
			},
			ts,
		))
	}
	return points
}

// Close closes the InfluxDB client.
func (c *Client) Close() {
	c.client.Close()
}
