// Package report renders scenario results and BAU deltas as CSV, with
// currency columns rounded to cents.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bher20/npahowtopay/internal/model"
)

// Columns lists every result column after year, in output order.
func Columns() []string { return model.Columns() }

// CompareColumns returns the default columns differenced against BAU.
func CompareColumns() []string { return append([]string(nil), model.CompareColumns...) }

// Places is the number of decimal places a column is written with.
func Places(col string) int32 {
	switch {
	case strings.Contains(col, "tariff"):
		return 6
	case strings.HasSuffix(col, "_num_users"), col == "total_converts_cumul":
		return 0
	case strings.Contains(col, "usage"):
		return 1
	default:
		return 2
	}
}

// Format renders v for col using half-away-from-zero rounding.
func Format(col string, v float64) string {
	return decimal.NewFromFloat(v).Round(Places(col)).StringFixed(Places(col))
}

// WriteTable writes one scenario's result table.
func WriteTable(w io.Writer, t model.Table) error {
	cw := csv.NewWriter(w)
	cols := Columns()
	if err := cw.Write(append([]string{"year"}, cols...)); err != nil {
		return err
	}
	for i := range t {
		vals := t[i].Values()
		rec := make([]string, 0, len(cols)+1)
		rec = append(rec, strconv.Itoa(t[i].Year))
		for j, col := range cols {
			rec = append(rec, Format(col, vals[j]))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDeltas writes a delta table in wide form: one row per scenario-year.
func WriteDeltas(w io.Writer, d model.DeltaTable, cols []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"scenario_id", "year"}, cols...)); err != nil {
		return err
	}
	for _, r := range d {
		rec := make([]string, 0, len(cols)+2)
		rec = append(rec, r.ScenarioID, strconv.Itoa(r.Year))
		for _, col := range cols {
			v, ok := r.Values[col]
			if !ok {
				return fmt.Errorf("%w: %q missing from delta row %s/%d", model.ErrUnknownColumn, col, r.ScenarioID, r.Year)
			}
			rec = append(rec, Format(col, v))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// LongRow is one value of a delta table in long form.
type LongRow struct {
	ScenarioID string  `json:"scenario_id"`
	Year       int     `json:"year"`
	Column     string  `json:"column"`
	Value      float64 `json:"value"`
}

// LongFormat unpivots a delta table into one row per scenario, year and
// column, with columns in the given order.
func LongFormat(d model.DeltaTable, cols []string) []LongRow {
	out := make([]LongRow, 0, len(d)*len(cols))
	for _, r := range d {
		for _, col := range cols {
			if v, ok := r.Values[col]; ok {
				out = append(out, LongRow{ScenarioID: r.ScenarioID, Year: r.Year, Column: col, Value: v})
			}
		}
	}
	return out
}

// WriteDir writes results/<scenario>.csv for every scenario and deltas.csv
// into dir, creating it if needed.
func WriteDir(dir string, results map[string]model.Table, deltas model.DeltaTable) error {
	if err := os.MkdirAll(filepath.Join(dir, "results"), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for _, name := range model.ScenarioNames(results) {
		if err := writeFile(filepath.Join(dir, "results", name+".csv"), func(w io.Writer) error {
			return WriteTable(w, results[name])
		}); err != nil {
			return err
		}
	}
	return writeFile(filepath.Join(dir, "deltas.csv"), func(w io.Writer) error {
		return WriteDeltas(w, deltas, CompareColumns())
	})
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
