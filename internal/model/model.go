// Package model runs the year-by-year regulatory accounting of a combined gas
// and electric utility for one "who pays" scenario, allocates the resulting
// revenue requirements to customer bills, and compares scenarios against
// business as usual.
package model

import (
	"errors"
	"fmt"

	"github.com/bher20/npahowtopay/internal/capex"
	"github.com/bher20/npahowtopay/internal/npa"
	"github.com/bher20/npahowtopay/internal/params"
)

var (
	// ErrYearBeforeStart is returned when a year precedes the series start year.
	ErrYearBeforeStart = errors.New("year before start year")
	// ErrDegenerateTariff is returned when a tariff would divide by zero usage or users.
	ErrDegenerateTariff = errors.New("zero usage or users in tariff calculation")
	// ErrMissingBAU is returned when deltas are requested without a bau result.
	ErrMissingBAU = errors.New("results have no bau scenario")
	// ErrUnknownColumn is returned for a column name outside the output contract.
	ErrUnknownColumn = errors.New("unknown column")
)

// YearContext is the per-year ledger snapshot consumed by the cost functions.
type YearContext struct {
	Year                         int
	GasRatebase                  float64
	ElectricRatebase             float64
	GasDepreciationExpense       float64
	ElectricDepreciationExpense  float64
	GasMaintenanceCost           float64
	ElectricMaintenanceCost      float64
	GasNPAOpex                   float64
	ElectricNPAOpex              float64
	GasPerformanceIncentive      float64
	ElectricPerformanceIncentive float64
}

// computeGas fills the gas intermediate columns of row. The performance
// incentive term is zero unless performance_incentive_pct is configured.
func computeGas(row *Row, c YearContext, in params.InputParams, ts params.TimeSeriesParams) {
	overhead := ts.GasFixedOverheadCosts.Total(c.Year)
	users := in.Gas.NumUsersInit - npa.ComputeHPConverts(c.Year, ts.NPAProjects, true, false)
	usage := float64(users) * in.Gas.PerUserHeatingNeedTherms
	volumetric := usage * in.GasGenerationCostPerTherm(c.Year)
	fixed := overhead + c.GasMaintenanceCost + c.GasNPAOpex
	opex := fixed + volumetric

	row.GasNumUsers = users
	row.TotalGasUsageTherms = usage
	row.GasCostsVolumetric = volumetric
	row.GasCostsFixed = fixed
	row.GasOpexCosts = opex
	row.GasRevenueRequirement = c.GasRatebase*in.Gas.ROR + opex + c.GasDepreciationExpense + c.GasPerformanceIncentive
}

// computeElectric fills the electric intermediate columns of row. Converts
// add both space heating and water heating load. As for gas, the performance
// incentive term is zero unless performance_incentive_pct is configured.
func computeElectric(row *Row, c YearContext, in params.InputParams, ts params.TimeSeriesParams) {
	overhead := ts.ElectricFixedOverheadCosts.Total(c.Year)
	converts := npa.ComputeHPConverts(c.Year, ts.NPAProjects, true, false)
	added := float64(converts) * ConvertAddedKWh(in)
	usage := float64(in.Electric.NumUsersInit)*in.Electric.PerUserElectricNeedKWh + added
	volumetric := usage * in.ElectricityGenerationCostPerKWh(c.Year)
	fixed := overhead + c.ElectricMaintenanceCost + c.ElectricNPAOpex
	opex := fixed + volumetric

	row.ElectricNumUsers = in.Electric.NumUsersInit
	row.TotalConvertsCumul = converts
	row.ElectricAddedUsageKWh = added
	row.TotalElectricUsageKWh = usage
	row.ElectricCostsVolumetric = volumetric
	row.ElectricCostsFixed = fixed
	row.ElectricOpexCosts = opex
	row.ElectricRevenueRequirement = c.ElectricRatebase*in.Electric.ROR + opex + c.ElectricDepreciationExpense + c.ElectricPerformanceIncentive
}

// RunModel simulates years [StartYear, EndYear) of one scenario and returns
// the per-year table with bill columns filled in. The scenario must start in
// the inputs' shared start year, where the initial ledger is anchored.
//
// Under BAU only the scattershot part of the project stream is kept: those
// customers still leave the gas system, but nothing triggers NPA spending,
// pipe avoidance or grid upgrades.
func RunModel(sc params.ScenarioParams, in params.InputParams, ts params.TimeSeriesParams) (Table, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	if sc.StartYear != in.Shared.StartYear {
		return nil, fmt.Errorf("%w: start_year %d differs from shared.start_year %d", params.ErrInvalidScenario, sc.StartYear, in.Shared.StartYear)
	}
	if sc.BAU {
		ts = ts.WithNPAProjects(npa.Scattershot(ts.NPAProjects))
	}

	start := in.Shared.StartYear
	gasLedger := capex.SyntheticInitialProjects(start, in.Gas.RatebaseInit, in.Gas.DefaultDepreciationLifetime)
	electricLedger := capex.SyntheticInitialProjects(start, in.Electric.RatebaseInit, in.Electric.DefaultDepreciationLifetime)
	savings := map[params.Utility]capex.SavingsLedger{
		params.Gas:      capex.EmptySavingsLedger(),
		params.Electric: capex.EmptySavingsLedger(),
	}

	gasRatebase := in.Gas.RatebaseInit
	electricRatebase := in.Electric.RatebaseInit

	out := make(Table, 0, max(sc.EndYear-sc.StartYear, 0))
	for year := sc.StartYear; year < sc.EndYear; year++ {
		gasLedger = gasLedger.Append(
			capex.NonLPPGasProjects(year, gasRatebase, in.Gas.BaselineNonLPPRatebaseGrowth, in.Gas.NonLPPDepreciationLifetime, in.Shared.InflationRate),
			capex.LPPGasProjects(year, ts.GasBAULPPCostsPerYear, ts.NPAProjects, in.Gas.PipelineDepreciationLifetime),
		)
		electricLedger = electricLedger.Append(
			capex.NonNPAElectricProjects(year, electricRatebase, in.Electric.BaselineNonNPARatebaseGrowth, in.Electric.DefaultDepreciationLifetime, in.Shared.InflationRate),
			capex.GridUpgradeProjects(year, ts.NPAProjects, in.Electric.HPPeakKW, in.Electric.AirconPeakKW,
				in.DistributionCostPerPeakKWIncrease(year), in.Electric.GridUpgradeDepreciationLifetime),
		)

		var gasOpex, electricOpex float64
		switch {
		case sc.Funds(params.Gas, params.Capex):
			gasLedger = gasLedger.Append(capex.NPACapexProjects(year, ts.NPAProjects, in.NPAInstallCost(year), in.Shared.NPALifetime))
		case sc.Funds(params.Electric, params.Capex):
			electricLedger = electricLedger.Append(capex.NPACapexProjects(year, ts.NPAProjects, in.NPAInstallCost(year), in.Shared.NPALifetime))
		case sc.Funds(params.Gas, params.Opex):
			gasOpex = npa.ComputeNPAInstallCosts(year, ts.NPAProjects, in.NPAInstallCost(year))
		case sc.Funds(params.Electric, params.Opex):
			electricOpex = npa.ComputeNPAInstallCosts(year, ts.NPAProjects, in.NPAInstallCost(year))
		}

		if sc.CapexOpex != nil && *sc.CapexOpex == params.Opex && in.Shared.PerformanceIncentivePct > 0 {
			u := *sc.GasElectric
			savings[u] = savings[u].Append(capex.NPVSavingsFromNPA(year, ts.NPAProjects, capex.IncentiveParams{
				InstallCost:      in.NPAInstallCost(year),
				NPALifetime:      in.Shared.NPALifetime,
				PipelineLifetime: in.Gas.PipelineDepreciationLifetime,
				GasROR:           in.Gas.ROR,
				DiscountRate:     in.Shared.DiscountRate,
				IncentivePct:     in.Shared.PerformanceIncentivePct,
				PaybackPeriod:    in.Shared.IncentivePaybackPeriod,
			}))
		}

		gasRatebase = capex.RatebaseValuation(year, gasLedger)
		electricRatebase = capex.RatebaseValuation(year, electricLedger)

		ctx := YearContext{
			Year:                         year,
			GasRatebase:                  gasRatebase,
			ElectricRatebase:             electricRatebase,
			GasDepreciationExpense:       capex.DepreciationExpense(year, gasLedger),
			ElectricDepreciationExpense:  capex.DepreciationExpense(year, electricLedger),
			GasMaintenanceCost:           capex.MaintenanceCost(year, gasLedger, in.Gas.PipelineMaintenanceCostPct),
			ElectricMaintenanceCost:      capex.MaintenanceCost(year, electricLedger, in.Electric.ElectricMaintenanceCostPct),
			GasNPAOpex:                   gasOpex,
			ElectricNPAOpex:              electricOpex,
			GasPerformanceIncentive:      capex.PerformanceIncentiveContribution(year, savings[params.Gas]),
			ElectricPerformanceIncentive: capex.PerformanceIncentiveContribution(year, savings[params.Electric]),
		}

		row := Row{
			Year:                         year,
			GasRatebase:                  ctx.GasRatebase,
			ElectricRatebase:             ctx.ElectricRatebase,
			GasDepreciationExpense:       ctx.GasDepreciationExpense,
			ElectricDepreciationExpense:  ctx.ElectricDepreciationExpense,
			GasMaintenanceCosts:          ctx.GasMaintenanceCost,
			ElectricMaintenanceCosts:     ctx.ElectricMaintenanceCost,
			GasNPAOpex:                   ctx.GasNPAOpex,
			ElectricNPAOpex:              ctx.ElectricNPAOpex,
			GasPerformanceIncentive:      ctx.GasPerformanceIncentive,
			ElectricPerformanceIncentive: ctx.ElectricPerformanceIncentive,
		}
		computeGas(&row, ctx, in, ts)
		computeElectric(&row, ctx, in, ts)
		out = append(out, row)
	}

	if err := ComputeBillCosts(out, in, sc.StartYear); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name(), err)
	}
	return out, nil
}
