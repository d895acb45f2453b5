package params

import (
	"errors"
	"fmt"
	"math"
)

// KWHPerTherm converts therms of delivered heat to kWh.
const KWHPerTherm = 29.3071

var (
	// ErrInvalidParam is returned when a field-level validator rejects a value.
	ErrInvalidParam = errors.New("invalid parameter")
	// ErrInvalidScenario is returned when ScenarioParams violates its invariant.
	ErrInvalidScenario = errors.New("invalid scenario")
)

// GasParams holds the gas utility inputs.
type GasParams struct {
	RatebaseInit                  float64 `yaml:"ratebase_init" json:"ratebase_init"`
	NumUsersInit                  int     `yaml:"num_users_init" json:"num_users_init"`
	DefaultDepreciationLifetime   int     `yaml:"default_depreciation_lifetime" json:"default_depreciation_lifetime"`
	PipelineDepreciationLifetime  int     `yaml:"pipeline_depreciation_lifetime" json:"pipeline_depreciation_lifetime"`
	NonLPPDepreciationLifetime    int     `yaml:"non_lpp_depreciation_lifetime" json:"non_lpp_depreciation_lifetime"`
	ROR                           float64 `yaml:"ror" json:"ror"`
	PerUserHeatingNeedTherms      float64 `yaml:"per_user_heating_need_therms" json:"per_user_heating_need_therms"`
	PerUserWaterHeatingNeedTherms float64 `yaml:"per_user_water_heating_need_therms" json:"per_user_water_heating_need_therms"`
	GasGenerationCostPerThermInit float64 `yaml:"gas_generation_cost_per_therm_init" json:"gas_generation_cost_per_therm_init"`
	PipelineMaintenanceCostPct    float64 `yaml:"pipeline_maintenance_cost_pct" json:"pipeline_maintenance_cost_pct"`
	BaselineNonLPPRatebaseGrowth  float64 `yaml:"baseline_non_lpp_ratebase_growth" json:"baseline_non_lpp_ratebase_growth"`
	UserBillFixedCharge           float64 `yaml:"user_bill_fixed_charge" json:"user_bill_fixed_charge"`
}

// ElectricParams holds the electric utility inputs.
type ElectricParams struct {
	RatebaseInit                          float64 `yaml:"ratebase_init" json:"ratebase_init"`
	NumUsersInit                          int     `yaml:"num_users_init" json:"num_users_init"`
	DefaultDepreciationLifetime           int     `yaml:"default_depreciation_lifetime" json:"default_depreciation_lifetime"`
	GridUpgradeDepreciationLifetime       int     `yaml:"grid_upgrade_depreciation_lifetime" json:"grid_upgrade_depreciation_lifetime"`
	ROR                                   float64 `yaml:"ror" json:"ror"`
	PerUserElectricNeedKWh                float64 `yaml:"per_user_electric_need_kwh" json:"per_user_electric_need_kwh"`
	AirconPeakKW                          float64 `yaml:"aircon_peak_kw" json:"aircon_peak_kw"`
	DistributionCostPerPeakKWIncreaseInit float64 `yaml:"distribution_cost_per_peak_kw_increase_init" json:"distribution_cost_per_peak_kw_increase_init"`
	HPEfficiency                          float64 `yaml:"hp_efficiency" json:"hp_efficiency"`
	WaterHeaterEfficiency                 float64 `yaml:"water_heater_efficiency" json:"water_heater_efficiency"`
	HPPeakKW                              float64 `yaml:"hp_peak_kw" json:"hp_peak_kw"`
	ElectricityGenerationCostPerKWhInit   float64 `yaml:"electricity_generation_cost_per_kwh_init" json:"electricity_generation_cost_per_kwh_init"`
	ElectricMaintenanceCostPct            float64 `yaml:"electric_maintenance_cost_pct" json:"electric_maintenance_cost_pct"`
	BaselineNonNPARatebaseGrowth          float64 `yaml:"baseline_non_npa_ratebase_growth" json:"baseline_non_npa_ratebase_growth"`
	UserBillFixedCharge                   float64 `yaml:"user_bill_fixed_charge" json:"user_bill_fixed_charge"`
}

// SharedParams holds inputs common to both utilities.
type SharedParams struct {
	StartYear               int     `yaml:"start_year" json:"start_year"`
	InflationRate           float64 `yaml:"inflation_rate" json:"inflation_rate"`
	CostInflationRate       float64 `yaml:"cost_inflation_rate" json:"cost_inflation_rate"`
	DiscountRate            float64 `yaml:"discount_rate" json:"discount_rate"`
	NPALifetime             int     `yaml:"npa_lifetime" json:"npa_lifetime"`
	NPAInstallCostsInit     float64 `yaml:"npa_install_costs_init" json:"npa_install_costs_init"`
	PerformanceIncentivePct float64 `yaml:"performance_incentive_pct" json:"performance_incentive_pct"`
	IncentivePaybackPeriod  int     `yaml:"incentive_payback_period" json:"incentive_payback_period"`
}

// InputParams groups the scalar inputs of a model run.
type InputParams struct {
	Gas      GasParams      `yaml:"gas" json:"gas"`
	Electric ElectricParams `yaml:"electric" json:"electric"`
	Shared   SharedParams   `yaml:"shared" json:"shared"`
}

// escalate grows an initial value by the cost inflation rate from the start year.
func (s SharedParams) escalate(init float64, year int) float64 {
	return init * math.Pow(1+s.CostInflationRate, float64(year-s.StartYear))
}

// GasGenerationCostPerTherm is the inflation-escalated commodity cost for a year.
func (p InputParams) GasGenerationCostPerTherm(year int) float64 {
	return p.Shared.escalate(p.Gas.GasGenerationCostPerThermInit, year)
}

// ElectricityGenerationCostPerKWh is the inflation-escalated generation cost for a year.
func (p InputParams) ElectricityGenerationCostPerKWh(year int) float64 {
	return p.Shared.escalate(p.Electric.ElectricityGenerationCostPerKWhInit, year)
}

// DistributionCostPerPeakKWIncrease is the inflation-escalated grid upgrade cost for a year.
func (p InputParams) DistributionCostPerPeakKWIncrease(year int) float64 {
	return p.Shared.escalate(p.Electric.DistributionCostPerPeakKWIncreaseInit, year)
}

// NPAInstallCost is the inflation-escalated per-household NPA install cost for a year.
func (p InputParams) NPAInstallCost(year int) float64 {
	return p.Shared.escalate(p.Shared.NPAInstallCostsInit, year)
}

// Validate runs the field-level validators over all three groups.
func (p InputParams) Validate() error {
	var errs []error
	check := func(ok bool, field string, v any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s=%v", ErrInvalidParam, field, v))
		}
	}

	g := p.Gas
	check(g.RatebaseInit >= 0, "gas.ratebase_init", g.RatebaseInit)
	check(g.NumUsersInit >= 0, "gas.num_users_init", g.NumUsersInit)
	check(g.DefaultDepreciationLifetime >= 1, "gas.default_depreciation_lifetime", g.DefaultDepreciationLifetime)
	check(g.PipelineDepreciationLifetime >= 1, "gas.pipeline_depreciation_lifetime", g.PipelineDepreciationLifetime)
	check(g.NonLPPDepreciationLifetime >= 1, "gas.non_lpp_depreciation_lifetime", g.NonLPPDepreciationLifetime)
	check(g.PerUserHeatingNeedTherms >= 0, "gas.per_user_heating_need_therms", g.PerUserHeatingNeedTherms)
	check(g.PerUserWaterHeatingNeedTherms >= 0, "gas.per_user_water_heating_need_therms", g.PerUserWaterHeatingNeedTherms)
	check(g.GasGenerationCostPerThermInit >= 0, "gas.gas_generation_cost_per_therm_init", g.GasGenerationCostPerThermInit)
	check(isPct(g.PipelineMaintenanceCostPct), "gas.pipeline_maintenance_cost_pct", g.PipelineMaintenanceCostPct)
	check(g.UserBillFixedCharge >= 0, "gas.user_bill_fixed_charge", g.UserBillFixedCharge)

	e := p.Electric
	check(e.RatebaseInit >= 0, "electric.ratebase_init", e.RatebaseInit)
	check(e.NumUsersInit >= 0, "electric.num_users_init", e.NumUsersInit)
	check(e.DefaultDepreciationLifetime >= 1, "electric.default_depreciation_lifetime", e.DefaultDepreciationLifetime)
	check(e.GridUpgradeDepreciationLifetime >= 1, "electric.grid_upgrade_depreciation_lifetime", e.GridUpgradeDepreciationLifetime)
	check(e.PerUserElectricNeedKWh >= 0, "electric.per_user_electric_need_kwh", e.PerUserElectricNeedKWh)
	check(e.AirconPeakKW >= 0, "electric.aircon_peak_kw", e.AirconPeakKW)
	check(e.HPPeakKW >= 0, "electric.hp_peak_kw", e.HPPeakKW)
	check(e.DistributionCostPerPeakKWIncreaseInit >= 0, "electric.distribution_cost_per_peak_kw_increase_init", e.DistributionCostPerPeakKWIncreaseInit)
	check(e.HPEfficiency > 0, "electric.hp_efficiency", e.HPEfficiency)
	check(e.WaterHeaterEfficiency > 0, "electric.water_heater_efficiency", e.WaterHeaterEfficiency)
	check(e.ElectricityGenerationCostPerKWhInit >= 0, "electric.electricity_generation_cost_per_kwh_init", e.ElectricityGenerationCostPerKWhInit)
	check(isPct(e.ElectricMaintenanceCostPct), "electric.electric_maintenance_cost_pct", e.ElectricMaintenanceCostPct)
	check(e.UserBillFixedCharge >= 0, "electric.user_bill_fixed_charge", e.UserBillFixedCharge)

	s := p.Shared
	check(s.NPALifetime >= 1, "shared.npa_lifetime", s.NPALifetime)
	check(s.NPAInstallCostsInit >= 0, "shared.npa_install_costs_init", s.NPAInstallCostsInit)
	check(s.DiscountRate > -1, "shared.discount_rate", s.DiscountRate)
	check(s.CostInflationRate > -1, "shared.cost_inflation_rate", s.CostInflationRate)
	check(isPct(s.PerformanceIncentivePct), "shared.performance_incentive_pct", s.PerformanceIncentivePct)
	if s.PerformanceIncentivePct > 0 {
		check(s.IncentivePaybackPeriod >= 1, "shared.incentive_payback_period", s.IncentivePaybackPeriod)
	}

	return errors.Join(errs...)
}

func isPct(v float64) bool { return v >= 0 && v <= 1 }
