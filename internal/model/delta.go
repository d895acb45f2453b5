package model

import "fmt"

// bauCounterpart maps converts bill columns onto the BAU column they are
// compared with: what the customer would have paid without converting.
var bauCounterpart = map[string]string{
	"converts_total_bill_per_user":    "nonconverts_total_bill_per_user",
	"electric_converts_bill_per_user": "electric_nonconverts_bill_per_user",
	"gas_converts_bill_per_user":      "gas_nonconverts_bill_per_user",
}

// BAUColumn returns the BAU column a scenario column is differenced against.
func BAUColumn(col string) string {
	if c, ok := bauCounterpart[col]; ok {
		return c
	}
	return col
}

// DeltaRow is one scenario-year of differences against BAU.
type DeltaRow struct {
	ScenarioID string             `json:"scenario_id"`
	Year       int                `json:"year"`
	Values     map[string]float64 `json:"values"`
}

// DeltaTable stacks every non-BAU scenario's deltas.
type DeltaTable []DeltaRow

// Scenario returns the rows of one scenario in year order.
func (d DeltaTable) Scenario(id string) DeltaTable {
	var out DeltaTable
	for _, r := range d {
		if r.ScenarioID == id {
			out = append(out, r)
		}
	}
	return out
}

// CreateDeltaTable subtracts the BAU value of each compare column, joined on
// year, from every other scenario. Scenario years without a BAU row are dropped.
func CreateDeltaTable(results map[string]Table, compareCols []string) (DeltaTable, error) {
	bau, ok := results["bau"]
	if !ok {
		return nil, ErrMissingBAU
	}
	for _, col := range compareCols {
		if _, ok := columnIndex[col]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, col)
		}
	}
	bauByYear := bau.ByYear()

	out := DeltaTable{}
	for _, name := range ScenarioNames(results) {
		if name == "bau" {
			continue
		}
		t := results[name]
		for i := range t {
			row := &t[i]
			base, ok := bauByYear[row.Year]
			if !ok {
				continue
			}
			values := make(map[string]float64, len(compareCols))
			for _, col := range compareCols {
				v, _ := row.Value(col)
				b, _ := base.Value(BAUColumn(col))
				values[col] = v - b
			}
			out = append(out, DeltaRow{ScenarioID: name, Year: row.Year, Values: values})
		}
	}
	return out, nil
}
