package params

import (
	"errors"
	"fmt"

	"github.com/bher20/npahowtopay/internal/npa"
)

// YearCost is one row of a {year, cost} schedule.
type YearCost struct {
	Year int     `yaml:"year" json:"year"`
	Cost float64 `yaml:"cost" json:"cost"`
}

// CostSchedule is a {year, cost} table. Years need not be unique.
type CostSchedule []YearCost

// Total sums every row for year.
func (s CostSchedule) Total(year int) float64 {
	total := 0.0
	for _, r := range s {
		if r.Year == year {
			total += r.Cost
		}
	}
	return total
}

// UniformSchedule repeats cost for each year of the inclusive range.
func UniformSchedule(startYear, endYear int, cost float64) CostSchedule {
	out := make(CostSchedule, 0, endYear-startYear+1)
	for y := startYear; y <= endYear; y++ {
		out = append(out, YearCost{Year: y, Cost: cost})
	}
	return out
}

// TimeSeriesParams carries the exogenous per-year inputs of a model run.
type TimeSeriesParams struct {
	NPAProjects                []npa.Record `yaml:"npa_projects" json:"npa_projects"`
	GasFixedOverheadCosts      CostSchedule `yaml:"gas_fixed_overhead_costs" json:"gas_fixed_overhead_costs"`
	ElectricFixedOverheadCosts CostSchedule `yaml:"electric_fixed_overhead_costs" json:"electric_fixed_overhead_costs"`
	GasBAULPPCostsPerYear      CostSchedule `yaml:"gas_bau_lpp_costs_per_year" json:"gas_bau_lpp_costs_per_year"`
}

// WithNPAProjects returns a copy of ts with the project stream replaced.
// The receiver is left untouched so one value can feed many scenario runs.
func (ts TimeSeriesParams) WithNPAProjects(records []npa.Record) TimeSeriesParams {
	ts.NPAProjects = records
	return ts
}

// Validate checks the project stream and that no schedule carries a negative cost.
func (ts TimeSeriesParams) Validate() error {
	errs := []error{npa.Validate(ts.NPAProjects)}
	for name, s := range map[string]CostSchedule{
		"gas_fixed_overhead_costs":      ts.GasFixedOverheadCosts,
		"electric_fixed_overhead_costs": ts.ElectricFixedOverheadCosts,
		"gas_bau_lpp_costs_per_year":    ts.GasBAULPPCostsPerYear,
	} {
		for i, r := range s {
			if r.Cost < 0 {
				errs = append(errs, fmt.Errorf("%w: %s row %d cost=%v", ErrInvalidParam, name, i, r.Cost))
			}
		}
	}
	return errors.Join(errs...)
}
