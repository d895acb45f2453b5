package capex

import (
	"math"

	"github.com/bher20/npahowtopay/internal/npa"
)

// NPVOfCapexInvestment is the present value, at discountRate, of what a
// utility collects on a project of initialCost: return on its net book value
// in every year it is on the books plus straight-line depreciation from the
// year after it is placed in service.
func NPVOfCapexInvestment(initialCost float64, lifetime int, rateOfReturn, discountRate float64) float64 {
	if initialCost == 0 || lifetime < 1 {
		return 0
	}
	p := Project{OriginalCost: initialCost, DepreciationLifetime: lifetime}
	npv := 0.0
	for t := 0; t <= lifetime; t++ {
		cash := rateOfReturn*p.Valuation(t) + p.Depreciation(t)
		npv += cash / math.Pow(1+discountRate, float64(t))
	}
	return npv
}

// SavingsProject is a performance-incentive award paid out evenly over
// PaybackPeriod years starting in ProjectYear.
type SavingsProject struct {
	ProjectYear   int     `json:"project_year"`
	SavingsAmount float64 `json:"savings_amount"`
	PaybackPeriod int     `json:"payback_period"`
}

// EndYear is the first year the award no longer pays.
func (s SavingsProject) EndYear() int { return s.ProjectYear + s.PaybackPeriod }

// SavingsLedger is an append-only set of savings projects.
type SavingsLedger []SavingsProject

// EmptySavingsLedger returns a zero-length, non-nil savings ledger.
func EmptySavingsLedger() SavingsLedger { return SavingsLedger{} }

// Append returns a new savings ledger holding s followed by every delta.
func (s SavingsLedger) Append(deltas ...SavingsLedger) SavingsLedger {
	out := make(SavingsLedger, 0, len(s))
	out = append(out, s...)
	for _, d := range deltas {
		out = append(out, d...)
	}
	return out
}

// IncentiveParams configures the shared-savings incentive for NPAs.
type IncentiveParams struct {
	InstallCost      float64
	NPALifetime      int
	PipelineLifetime int
	GasROR           float64
	DiscountRate     float64
	IncentivePct     float64
	PaybackPeriod    int
}

// NPVSavingsFromNPA awards a share of the net savings from this year's NPAs:
// the present value of the pipeline capex they avoid, less their install
// cost. The install cost is expensed in the year, so it is not discounted.
func NPVSavingsFromNPA(year int, records []npa.Record, p IncentiveParams) SavingsLedger {
	if p.PaybackPeriod < 1 || p.NPALifetime < 1 {
		return EmptySavingsLedger()
	}
	avoided := NPVOfCapexInvestment(npa.ComputeNPAPipeCostAvoided(year, records), p.PipelineLifetime, p.GasROR, p.DiscountRate)
	cost := npa.ComputeNPAInstallCosts(year, records, p.InstallCost)
	savings := (avoided - cost) * p.IncentivePct
	if savings <= 0 {
		return EmptySavingsLedger()
	}
	return SavingsLedger{{ProjectYear: year, SavingsAmount: savings, PaybackPeriod: p.PaybackPeriod}}
}

// PerformanceIncentiveContribution is the amount of every live award paid in year.
func PerformanceIncentiveContribution(year int, s SavingsLedger) float64 {
	total := 0.0
	for _, p := range s {
		if p.ProjectYear <= year && year < p.EndYear() {
			total += p.SavingsAmount / float64(p.PaybackPeriod)
		}
	}
	return total
}
