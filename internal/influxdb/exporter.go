package influxdb

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/bher20/npahowtopay/internal/analysis"
	"github.com/bher20/npahowtopay/internal/config"
	"github.com/bher20/npahowtopay/internal/model"
)

const (
	ScenarioMeasurement = "npa_scenario"
	DeltaMeasurement    = "npa_scenario_delta"
)

// Exporter writes completed analyses to an InfluxDB v2 bucket, one point per
// scenario-year, timestamped at January 1 of the simulated year.
type Exporter struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	columns  []string
}

// NewExporter connects to InfluxDB and verifies it is reachable. columns
// selects the scenario fields to write; nil means model.CompareColumns.
func NewExporter(ctx context.Context, cfg config.InfluxConfig, columns []string) (*Exporter, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	if _, err := client.Health(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("influxdb: connect %s: %w", cfg.URL, err)
	}
	if columns == nil {
		columns = model.CompareColumns
	}
	log.Printf("influxdb: exporting to %s bucket=%s", cfg.URL, cfg.Bucket)
	return &Exporter{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		columns:  columns,
	}, nil
}

// Export implements analysis.Exporter.
func (e *Exporter) Export(ctx context.Context, res *analysis.Result) error {
	points, err := Points(res, e.columns)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		return nil
	}
	if err := e.writeAPI.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("influxdb: write %d points: %w", len(points), err)
	}
	log.Printf("influxdb: wrote %d points for analysis %s", len(points), res.ID)
	return nil
}

func (e *Exporter) Close() {
	e.client.Close()
}

func yearTime(year int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
}

// Points builds the scenario and delta points for res. Non-finite values are
// left out because line protocol cannot carry them.
func Points(res *analysis.Result, columns []string) ([]*write.Point, error) {
	var out []*write.Point
	for _, name := range model.ScenarioNames(res.Results) {
		for i := range res.Results[name] {
			row := &res.Results[name][i]
			fields := make(map[string]interface{}, len(columns))
			for _, col := range columns {
				v, err := row.Value(col)
				if err != nil {
					return nil, err
				}
				if !math.IsNaN(v) && !math.IsInf(v, 0) {
					fields[col] = v
				}
			}
			if len(fields) == 0 {
				continue
			}
			out = append(out, write.NewPoint(ScenarioMeasurement, tags(res, name), fields, yearTime(row.Year)))
		}
	}
	for _, d := range res.Deltas {
		fields := make(map[string]interface{}, len(d.Values))
		for col, v := range d.Values {
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				fields[col] = v
			}
		}
		if len(fields) == 0 {
			continue
		}
		out = append(out, write.NewPoint(DeltaMeasurement, tags(res, d.ScenarioID), fields, yearTime(d.Year)))
	}
	return out, nil
}

func tags(res *analysis.Result, scenario string) map[string]string {
	return map[string]string{
		"analysis_id": res.ID,
		"run":         res.RunName,
		"scenario":    scenario,
	}
}
