package capex

import (
	"github.com/bher20/npahowtopay/internal/npa"
	"github.com/bher20/npahowtopay/internal/params"
)

// single wraps one project as a ledger delta, or returns an empty delta when
// the cost is not positive.
func single(year int, t ProjectType, cost float64, lifetime int) Ledger {
	if cost <= 0 {
		return EmptyLedger()
	}
	return Ledger{{
		ProjectYear:          year,
		ProjectType:          t,
		OriginalCost:         cost,
		DepreciationLifetime: lifetime,
	}}
}

// SyntheticInitialProjects back-fills lifetime years of equal-cost vintages
// ending at startYear so that their net book value at startYear equals
// initialRatebase. A vintage of age k is worth (L-k)/L of its cost, so the
// vintages sum to cost*(L+1)/2.
func SyntheticInitialProjects(startYear int, initialRatebase float64, lifetime int) Ledger {
	if initialRatebase <= 0 || lifetime < 1 {
		return EmptyLedger()
	}
	l := float64(lifetime)
	cost := initialRatebase / (l * (l + 1) / 2 / l)

	out := make(Ledger, 0, lifetime)
	for y := startYear - lifetime + 1; y <= startYear; y++ {
		out = append(out, Project{
			ProjectYear:          y,
			ProjectType:          SyntheticInitial,
			OriginalCost:         cost,
			DepreciationLifetime: lifetime,
		})
	}
	return out
}

// NonLPPGasProjects is the baseline gas investment outside leak-prone pipe
// replacement, grown from the current ratebase.
func NonLPPGasProjects(year int, currentRatebase, growth float64, lifetime int, inflation float64) Ledger {
	return single(year, Misc, currentRatebase*growth*(1+inflation), lifetime)
}

// NonNPAElectricProjects is the baseline electric investment, grown from the
// current ratebase.
func NonNPAElectricProjects(year int, currentRatebase, growth float64, lifetime int, inflation float64) Ledger {
	return single(year, Misc, currentRatebase*growth*(1+inflation), lifetime)
}

// LPPGasProjects is the planned leak-prone pipe replacement left over after
// this year's NPAs avoid part of it. Excess avoidance is not carried forward.
func LPPGasProjects(year int, bauLPPCosts params.CostSchedule, records []npa.Record, lifetime int) Ledger {
	cost := bauLPPCosts.Total(year) - npa.ComputeNPAPipeCostAvoided(year, records)
	return single(year, Pipeline, cost, lifetime)
}

// GridUpgradeProjects is the distribution investment needed to serve the
// peak increase of this year's NPAs.
func GridUpgradeProjects(year int, records []npa.Record, peakHPKW, peakAirconKW, costPerKW float64, lifetime int) Ledger {
	peak := npa.ComputePeakKWIncrease(year, records, peakHPKW, peakAirconKW)
	return single(year, GridUpgrade, peak*costPerKW, lifetime)
}

// NPACapexProjects capitalizes the install cost of this year's NPA converts.
// Scattershot converts are never capitalized.
func NPACapexProjects(year int, records []npa.Record, installCostPerUser float64, lifetime int) Ledger {
	return single(year, NPA, npa.ComputeNPAInstallCosts(year, records, installCostPerUser), lifetime)
}
