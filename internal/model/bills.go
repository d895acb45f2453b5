package model

import (
	"fmt"
	"math"

	"github.com/bher20/npahowtopay/internal/params"
)

// InflationAdjust discounts a revenue requirement back to startYear dollars.
func InflationAdjust(revenue float64, year, startYear int, discountRate float64) (float64, error) {
	if year < startYear {
		return 0, fmt.Errorf("%w: year %d, start year %d", ErrYearBeforeStart, year, startYear)
	}
	return revenue / math.Pow(1+discountRate, float64(year-startYear)), nil
}

// VariableTariff is the per-unit rate that recovers what the fixed charges
// leave of the revenue requirement.
func VariableTariff(revenue, usage, fixedCharge float64, numUsers int) (float64, error) {
	if usage == 0 || numUsers <= 0 {
		return 0, fmt.Errorf("%w: usage=%v users=%d", ErrDegenerateTariff, usage, numUsers)
	}
	return (revenue - float64(numUsers)*fixedCharge) / usage, nil
}

// AvgBillPerUser spreads total revenue evenly across users.
func AvgBillPerUser(revenue float64, numUsers int) (float64, error) {
	if numUsers <= 0 {
		return 0, fmt.Errorf("%w: users=%d", ErrDegenerateTariff, numUsers)
	}
	return revenue / float64(numUsers), nil
}

// ConvertAddedKWh is the extra electric load of one converted household.
func ConvertAddedKWh(in params.InputParams) float64 {
	return in.Gas.PerUserHeatingNeedTherms*params.KWHPerTherm/in.Electric.HPEfficiency +
		in.Gas.PerUserWaterHeatingNeedTherms*params.KWHPerTherm/in.Electric.WaterHeaterEfficiency
}

// ComputeBillCosts fills the tariff and bill columns of every row in place.
// Both utilities use a flat per-user fixed charge.
func ComputeBillCosts(t Table, in params.InputParams, startYear int) error {
	gasFixed := in.Gas.UserBillFixedCharge
	electricFixed := in.Electric.UserBillFixedCharge
	convertKWh := ConvertAddedKWh(in)

	for i := range t {
		r := &t[i]
		var err error

		if r.GasInflationAdjustedRevenueRequirement, err = InflationAdjust(r.GasRevenueRequirement, r.Year, startYear, in.Shared.DiscountRate); err != nil {
			return err
		}
		if r.ElectricInflationAdjustedRevenueRequirement, err = InflationAdjust(r.ElectricRevenueRequirement, r.Year, startYear, in.Shared.DiscountRate); err != nil {
			return err
		}
		r.TotalRevenueRequirement = r.GasRevenueRequirement + r.ElectricRevenueRequirement
		r.TotalInflationAdjustedRevenueRequirement = r.GasInflationAdjustedRevenueRequirement + r.ElectricInflationAdjustedRevenueRequirement

		if r.GasVariableTariffPerTherm, err = VariableTariff(r.GasInflationAdjustedRevenueRequirement, r.TotalGasUsageTherms, gasFixed, r.GasNumUsers); err != nil {
			return fmt.Errorf("gas tariff %d: %w", r.Year, err)
		}
		if r.ElectricVariableTariffPerKWh, err = VariableTariff(r.ElectricInflationAdjustedRevenueRequirement, r.TotalElectricUsageKWh, electricFixed, r.ElectricNumUsers); err != nil {
			return fmt.Errorf("electric tariff %d: %w", r.Year, err)
		}
		r.GasFixedChargePerUser = gasFixed
		r.ElectricFixedChargePerUser = electricFixed

		if r.GasAvgBillPerUser, err = AvgBillPerUser(r.GasInflationAdjustedRevenueRequirement, r.GasNumUsers); err != nil {
			return fmt.Errorf("gas avg bill %d: %w", r.Year, err)
		}
		if r.ElectricAvgBillPerUser, err = AvgBillPerUser(r.ElectricInflationAdjustedRevenueRequirement, r.ElectricNumUsers); err != nil {
			return fmt.Errorf("electric avg bill %d: %w", r.Year, err)
		}

		// Converts have left the gas system.
		r.GasNonconvertsBillPerUser = gasFixed + r.GasVariableTariffPerTherm*in.Gas.PerUserHeatingNeedTherms
		r.GasConvertsBillPerUser = 0
		r.ElectricConvertsBillPerUser = electricFixed + r.ElectricVariableTariffPerKWh*(in.Electric.PerUserElectricNeedKWh+convertKWh)
		r.ElectricNonconvertsBillPerUser = electricFixed + r.ElectricVariableTariffPerKWh*in.Electric.PerUserElectricNeedKWh

		r.ConvertsTotalBillPerUser = r.GasConvertsBillPerUser + r.ElectricConvertsBillPerUser
		r.NonconvertsTotalBillPerUser = r.GasNonconvertsBillPerUser + r.ElectricNonconvertsBillPerUser
	}
	return nil
}
