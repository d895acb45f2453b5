package model

import "fmt"

// Row is one simulated year of one scenario. JSON names are the column
// contract consumed by reports, storage and the HTTP API.
type Row struct {
	Year int `json:"year"`

	GasRatebase                  float64 `json:"gas_ratebase"`
	ElectricRatebase             float64 `json:"electric_ratebase"`
	GasDepreciationExpense       float64 `json:"gas_depreciation_expense"`
	ElectricDepreciationExpense  float64 `json:"electric_depreciation_expense"`
	GasMaintenanceCosts          float64 `json:"gas_maintenance_costs"`
	ElectricMaintenanceCosts     float64 `json:"electric_maintenance_costs"`
	GasNPAOpex                   float64 `json:"gas_npa_opex"`
	ElectricNPAOpex              float64 `json:"electric_npa_opex"`
	GasPerformanceIncentive      float64 `json:"gas_performance_incentive"`
	ElectricPerformanceIncentive float64 `json:"electric_performance_incentive"`

	GasNumUsers           int     `json:"gas_num_users"`
	TotalGasUsageTherms   float64 `json:"total_gas_usage_therms"`
	GasCostsVolumetric    float64 `json:"gas_costs_volumetric"`
	GasCostsFixed         float64 `json:"gas_costs_fixed"`
	GasOpexCosts          float64 `json:"gas_opex_costs"`
	GasRevenueRequirement float64 `json:"gas_revenue_requirement"`

	ElectricNumUsers           int     `json:"electric_num_users"`
	TotalConvertsCumul         int     `json:"total_converts_cumul"`
	ElectricAddedUsageKWh      float64 `json:"electric_added_usage_kwh"`
	TotalElectricUsageKWh      float64 `json:"total_electric_usage_kwh"`
	ElectricCostsVolumetric    float64 `json:"electric_costs_volumetric"`
	ElectricCostsFixed         float64 `json:"electric_costs_fixed"`
	ElectricOpexCosts          float64 `json:"electric_opex_costs"`
	ElectricRevenueRequirement float64 `json:"electric_revenue_requirement"`

	GasInflationAdjustedRevenueRequirement      float64 `json:"gas_inflation_adjusted_revenue_requirement"`
	ElectricInflationAdjustedRevenueRequirement float64 `json:"electric_inflation_adjusted_revenue_requirement"`
	TotalRevenueRequirement                     float64 `json:"total_revenue_requirement"`
	TotalInflationAdjustedRevenueRequirement    float64 `json:"total_inflation_adjusted_revenue_requirement"`

	GasVariableTariffPerTherm    float64 `json:"gas_variable_tariff_per_therm"`
	ElectricVariableTariffPerKWh float64 `json:"electric_variable_tariff_per_kwh"`
	GasFixedChargePerUser        float64 `json:"gas_fixed_charge_per_user"`
	ElectricFixedChargePerUser   float64 `json:"electric_fixed_charge_per_user"`
	GasAvgBillPerUser            float64 `json:"gas_avg_bill_per_user"`
	ElectricAvgBillPerUser       float64 `json:"electric_avg_bill_per_user"`

	GasNonconvertsBillPerUser      float64 `json:"gas_nonconverts_bill_per_user"`
	GasConvertsBillPerUser         float64 `json:"gas_converts_bill_per_user"`
	ElectricConvertsBillPerUser    float64 `json:"electric_converts_bill_per_user"`
	ElectricNonconvertsBillPerUser float64 `json:"electric_nonconverts_bill_per_user"`
	ConvertsTotalBillPerUser       float64 `json:"converts_total_bill_per_user"`
	NonconvertsTotalBillPerUser    float64 `json:"nonconverts_total_bill_per_user"`
}

type column struct {
	name string
	get  func(*Row) float64
}

// columns lists every numeric column after year, in output order.
var columns = []column{
	{"gas_ratebase", func(r *Row) float64 { return r.GasRatebase }},
	{"electric_ratebase", func(r *Row) float64 { return r.ElectricRatebase }},
	{"gas_depreciation_expense", func(r *Row) float64 { return r.GasDepreciationExpense }},
	{"electric_depreciation_expense", func(r *Row) float64 { return r.ElectricDepreciationExpense }},
	{"gas_maintenance_costs", func(r *Row) float64 { return r.GasMaintenanceCosts }},
	{"electric_maintenance_costs", func(r *Row) float64 { return r.ElectricMaintenanceCosts }},
	{"gas_npa_opex", func(r *Row) float64 { return r.GasNPAOpex }},
	{"electric_npa_opex", func(r *Row) float64 { return r.ElectricNPAOpex }},
	{"gas_performance_incentive", func(r *Row) float64 { return r.GasPerformanceIncentive }},
	{"electric_performance_incentive", func(r *Row) float64 { return r.ElectricPerformanceIncentive }},
	{"gas_num_users", func(r *Row) float64 { return float64(r.GasNumUsers) }},
	{"total_gas_usage_therms", func(r *Row) float64 { return r.TotalGasUsageTherms }},
	{"gas_costs_volumetric", func(r *Row) float64 { return r.GasCostsVolumetric }},
	{"gas_costs_fixed", func(r *Row) float64 { return r.GasCostsFixed }},
	{"gas_opex_costs", func(r *Row) float64 { return r.GasOpexCosts }},
	{"gas_revenue_requirement", func(r *Row) float64 { return r.GasRevenueRequirement }},
	{"electric_num_users", func(r *Row) float64 { return float64(r.ElectricNumUsers) }},
	{"total_converts_cumul", func(r *Row) float64 { return float64(r.TotalConvertsCumul) }},
	{"electric_added_usage_kwh", func(r *Row) float64 { return r.ElectricAddedUsageKWh }},
	{"total_electric_usage_kwh", func(r *Row) float64 { return r.TotalElectricUsageKWh }},
	{"electric_costs_volumetric", func(r *Row) float64 { return r.ElectricCostsVolumetric }},
	{"electric_costs_fixed", func(r *Row) float64 { return r.ElectricCostsFixed }},
	{"electric_opex_costs", func(r *Row) float64 { return r.ElectricOpexCosts }},
	{"electric_revenue_requirement", func(r *Row) float64 { return r.ElectricRevenueRequirement }},
	{"gas_inflation_adjusted_revenue_requirement", func(r *Row) float64 { return r.GasInflationAdjustedRevenueRequirement }},
	{"electric_inflation_adjusted_revenue_requirement", func(r *Row) float64 { return r.ElectricInflationAdjustedRevenueRequirement }},
	{"total_revenue_requirement", func(r *Row) float64 { return r.TotalRevenueRequirement }},
	{"total_inflation_adjusted_revenue_requirement", func(r *Row) float64 { return r.TotalInflationAdjustedRevenueRequirement }},
	{"gas_variable_tariff_per_therm", func(r *Row) float64 { return r.GasVariableTariffPerTherm }},
	{"electric_variable_tariff_per_kwh", func(r *Row) float64 { return r.ElectricVariableTariffPerKWh }},
	{"gas_fixed_charge_per_user", func(r *Row) float64 { return r.GasFixedChargePerUser }},
	{"electric_fixed_charge_per_user", func(r *Row) float64 { return r.ElectricFixedChargePerUser }},
	{"gas_avg_bill_per_user", func(r *Row) float64 { return r.GasAvgBillPerUser }},
	{"electric_avg_bill_per_user", func(r *Row) float64 { return r.ElectricAvgBillPerUser }},
	{"gas_nonconverts_bill_per_user", func(r *Row) float64 { return r.GasNonconvertsBillPerUser }},
	{"gas_converts_bill_per_user", func(r *Row) float64 { return r.GasConvertsBillPerUser }},
	{"electric_converts_bill_per_user", func(r *Row) float64 { return r.ElectricConvertsBillPerUser }},
	{"electric_nonconverts_bill_per_user", func(r *Row) float64 { return r.ElectricNonconvertsBillPerUser }},
	{"converts_total_bill_per_user", func(r *Row) float64 { return r.ConvertsTotalBillPerUser }},
	{"nonconverts_total_bill_per_user", func(r *Row) float64 { return r.NonconvertsTotalBillPerUser }},
}

var columnIndex = func() map[string]int {
	m := make(map[string]int, len(columns))
	for i, c := range columns {
		m[c.name] = i
	}
	return m
}()

// Columns returns the numeric column names in output order, excluding year.
func Columns() []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.name
	}
	return out
}

// CompareColumns is the default set of columns differenced against BAU.
var CompareColumns = []string{
	"gas_ratebase",
	"electric_ratebase",
	"gas_depreciation_expense",
	"electric_depreciation_expense",
	"gas_maintenance_costs",
	"electric_maintenance_costs",
	"gas_revenue_requirement",
	"electric_revenue_requirement",
	"gas_inflation_adjusted_revenue_requirement",
	"electric_inflation_adjusted_revenue_requirement",
	"total_inflation_adjusted_revenue_requirement",
	"gas_variable_tariff_per_therm",
	"electric_variable_tariff_per_kwh",
	"gas_nonconverts_bill_per_user",
	"gas_converts_bill_per_user",
	"electric_nonconverts_bill_per_user",
	"electric_converts_bill_per_user",
	"nonconverts_total_bill_per_user",
	"converts_total_bill_per_user",
}

// Value returns the named column.
func (r *Row) Value(col string) (float64, error) {
	i, ok := columnIndex[col]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownColumn, col)
	}
	return columns[i].get(r), nil
}

// Values returns every column in Columns() order.
func (r *Row) Values() []float64 {
	out := make([]float64, len(columns))
	for i, c := range columns {
		out[i] = c.get(r)
	}
	return out
}

// Table is the ordered per-year output of one scenario run.
type Table []Row

// ByYear indexes the table rows by year.
func (t Table) ByYear() map[int]*Row {
	m := make(map[int]*Row, len(t))
	for i := range t {
		m[t[i].Year] = &t[i]
	}
	return m
}
