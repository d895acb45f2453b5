// Package capex keeps the capital-project ledgers of a utility and values
// them over time: straight-line net book value (ratebase), depreciation
// expense and maintenance. Ledgers are append-only; each year's additions are
// built as a separate delta and concatenated on.
package capex

import "math"

// ProjectType classifies a capital project.
type ProjectType string

const (
	SyntheticInitial ProjectType = "synthetic_initial"
	Misc             ProjectType = "misc"
	Pipeline         ProjectType = "pipeline"
	GridUpgrade      ProjectType = "grid_upgrade"
	NPA              ProjectType = "npa"
)

// Project is an immutable capital investment placed in service in ProjectYear.
type Project struct {
	ProjectYear          int         `json:"project_year"`
	ProjectType          ProjectType `json:"project_type"`
	OriginalCost         float64     `json:"original_cost"`
	DepreciationLifetime int         `json:"depreciation_lifetime"`
}

// RetirementYear is the year the project is fully depreciated.
func (p Project) RetirementYear() int { return p.ProjectYear + p.DepreciationLifetime }

// Valuation is the year-end net book value. It is zero before the project
// exists and after it is fully depreciated.
func (p Project) Valuation(year int) float64 {
	if year < p.ProjectYear {
		return 0
	}
	age := float64(year - p.ProjectYear)
	return p.OriginalCost * math.Max(0, 1-age/float64(p.DepreciationLifetime))
}

// Depreciation is the straight-line charge for year; it starts the year
// after the project year.
func (p Project) Depreciation(year int) float64 {
	if p.ProjectYear < year && year <= p.RetirementYear() {
		return p.OriginalCost / float64(p.DepreciationLifetime)
	}
	return 0
}

// Ledger is an append-only set of projects.
type Ledger []Project

// EmptyLedger returns a zero-length, non-nil ledger.
func EmptyLedger() Ledger { return Ledger{} }

// Append returns a new ledger holding l followed by every delta. l is not
// modified and the result never shares l's backing array.
func (l Ledger) Append(deltas ...Ledger) Ledger {
	n := len(l)
	for _, d := range deltas {
		n += len(d)
	}
	out := make(Ledger, 0, n)
	out = append(out, l...)
	for _, d := range deltas {
		out = append(out, d...)
	}
	return out
}

// RatebaseValuation is the net book value of every project at year end.
func RatebaseValuation(year int, l Ledger) float64 {
	total := 0.0
	for _, p := range l {
		total += p.Valuation(year)
	}
	return total
}

// DepreciationExpense is the straight-line depreciation charged in year.
func DepreciationExpense(year int, l Ledger) float64 {
	total := 0.0
	for _, p := range l {
		total += p.Depreciation(year)
	}
	return total
}

// MaintenanceCost charges pct of original cost for every active non-NPA
// project. NPA projects carry no utility maintenance.
func MaintenanceCost(year int, l Ledger, pct float64) float64 {
	total := 0.0
	for _, p := range l {
		if p.ProjectType == NPA {
			continue
		}
		if p.ProjectYear <= year && year <= p.RetirementYear() {
			total += p.OriginalCost * pct
		}
	}
	return total
}
