package capex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bher20/npahowtopay/internal/npa"
	"github.com/bher20/npahowtopay/internal/params"
)

func npaFixture() []npa.Record {
	return []npa.Record{
		{ProjectYear: 2025, NumConverts: 10, PipeValuePerUser: 1000, PipeDecommCostPerUser: 100, PeakKWWinterHeadroom: 10, PeakKWSummerHeadroom: 10, AirconPercentAdoptionPreNPA: 0.2},
		{ProjectYear: 2025, NumConverts: 20, PipeValuePerUser: 100, PipeDecommCostPerUser: 200, PeakKWWinterHeadroom: 100, PeakKWSummerHeadroom: 1, AirconPercentAdoptionPreNPA: 0.8},
		{ProjectYear: 2025, NumConverts: 5, PipeValuePerUser: 3000, PipeDecommCostPerUser: 100, PeakKWWinterHeadroom: 1, PeakKWSummerHeadroom: 10, AirconPercentAdoptionPreNPA: 0.8},
	}
}

func threeProjects() Ledger {
	return Ledger{
		{ProjectYear: 2025, ProjectType: Misc, OriginalCost: 1000, DepreciationLifetime: 10},
		{ProjectYear: 2026, ProjectType: Misc, OriginalCost: 1000, DepreciationLifetime: 20},
		{ProjectYear: 2027, ProjectType: Misc, OriginalCost: 1000, DepreciationLifetime: 10},
	}
}

func TestSyntheticInitialProjects(t *testing.T) {
	l := SyntheticInitialProjects(2025, 6000, 3)
	require.Len(t, l, 3)
	for i, p := range l {
		assert.Equal(t, 2023+i, p.ProjectYear)
		assert.Equal(t, SyntheticInitial, p.ProjectType)
		assert.InDelta(t, 3000.0, p.OriginalCost, 1e-9)
		assert.Equal(t, 3, p.DepreciationLifetime)
	}
	assert.InDelta(t, 6000.0, RatebaseValuation(2025, l), 1e-9)
}

func TestSyntheticInitialProjects_MatchesRatebase(t *testing.T) {
	for _, tc := range []struct {
		ratebase float64
		lifetime int
	}{
		{1, 1}, {6000, 3}, {1.5e9, 40}, {123456.789, 7}, {42, 60},
	} {
		l := SyntheticInitialProjects(2030, tc.ratebase, tc.lifetime)
		got := RatebaseValuation(2030, l)
		assert.InEpsilon(t, tc.ratebase, got, 1e-9, "ratebase=%v lifetime=%d", tc.ratebase, tc.lifetime)
	}
}

func TestSyntheticInitialProjects_ZeroRatebase(t *testing.T) {
	l := SyntheticInitialProjects(2025, 0, 30)
	assert.NotNil(t, l)
	assert.Empty(t, l)
}

func TestNonLPPGasProjects(t *testing.T) {
	l := NonLPPGasProjects(2025, 1000, 0.015, 60, 0)
	require.Len(t, l, 1)
	assert.Equal(t, Project{ProjectYear: 2025, ProjectType: Misc, OriginalCost: 15, DepreciationLifetime: 60}, l[0])

	l = NonLPPGasProjects(2025, 1000, 0.015, 60, 0.1)
	assert.InDelta(t, 16.5, l[0].OriginalCost, 1e-9)

	assert.Empty(t, NonLPPGasProjects(2025, 0, 0.015, 60, 0))
}

func TestNonNPAElectricProjects(t *testing.T) {
	l := NonNPAElectricProjects(2025, 1000, 0.03, 60, 0)
	require.Len(t, l, 1)
	assert.Equal(t, Misc, l[0].ProjectType)
	assert.InDelta(t, 30.0, l[0].OriginalCost, 1e-9)
	assert.Equal(t, 60, l[0].DepreciationLifetime)
}

func TestLPPGasProjects(t *testing.T) {
	lpp := params.CostSchedule{{Year: 2025, Cost: 30000}, {Year: 2025, Cost: 20000}, {Year: 2026, Cost: 30000}}
	l := LPPGasProjects(2025, lpp, npaFixture(), 60)
	require.Len(t, l, 1)
	assert.Equal(t, Pipeline, l[0].ProjectType)
	assert.InDelta(t, 23000.0, l[0].OriginalCost, 1e-9)
	assert.Equal(t, 60, l[0].DepreciationLifetime)

	small := params.CostSchedule{{Year: 2025, Cost: 100}, {Year: 2025, Cost: 200}, {Year: 2026, Cost: 300}}
	zero := LPPGasProjects(2025, small, npaFixture(), 60)
	assert.NotNil(t, zero)
	assert.Empty(t, zero)

	// No NPAs next year, so the full plan is built.
	l = LPPGasProjects(2026, lpp, npaFixture(), 60)
	require.Len(t, l, 1)
	assert.InDelta(t, 30000.0, l[0].OriginalCost, 1e-9)
}

func TestGridUpgradeProjects(t *testing.T) {
	l := GridUpgradeProjects(2025, npaFixture(), 2, 3, 1000, 30)
	require.Len(t, l, 1)
	assert.Equal(t, GridUpgrade, l[0].ProjectType)
	assert.InDelta(t, 34000.0, l[0].OriginalCost, 1e-9)
	assert.Equal(t, 30, l[0].DepreciationLifetime)

	assert.Empty(t, GridUpgradeProjects(2026, npaFixture(), 2, 3, 1000, 30))
}

func TestNPACapexProjects(t *testing.T) {
	recs := npa.AppendScattershot(npaFixture(), []npa.Record{{ProjectYear: 2025, NumConverts: 100}})
	l := NPACapexProjects(2025, recs, 1000, 10)
	require.Len(t, l, 1)
	assert.Equal(t, NPA, l[0].ProjectType)
	assert.InDelta(t, 35000.0, l[0].OriginalCost, 1e-9)
	assert.Equal(t, 10, l[0].DepreciationLifetime)
}

func TestRatebaseValuation(t *testing.T) {
	want := []float64{1000, 1900, 2750, 2500, 50, 0}
	for i, year := range []int{2025, 2026, 2027, 2028, 2045, 2046} {
		assert.InDelta(t, want[i], RatebaseValuation(year, threeProjects()), 1e-9, "year %d", year)
	}
	assert.Zero(t, RatebaseValuation(2024, threeProjects()))
}

func TestDepreciationExpense(t *testing.T) {
	want := []float64{0, 100, 150, 250, 50, 50, 0}
	for i, year := range []int{2025, 2026, 2027, 2028, 2045, 2046, 2047} {
		assert.InDelta(t, want[i], DepreciationExpense(year, threeProjects()), 1e-9, "year %d", year)
	}
}

func TestDepreciation_FullRecovery(t *testing.T) {
	for _, lifetime := range []int{1, 3, 7, 30} {
		l := Ledger{{ProjectYear: 2025, ProjectType: Misc, OriginalCost: 1000, DepreciationLifetime: lifetime}}
		total := 0.0
		for y := 2025 + 1; y <= 2025+lifetime; y++ {
			total += DepreciationExpense(y, l)
		}
		assert.InDelta(t, 1000.0, total, 1e-9, "lifetime %d", lifetime)
		assert.Zero(t, DepreciationExpense(2025, l))
		assert.Zero(t, DepreciationExpense(2025+lifetime+1, l))
	}
}

func TestRatebaseValuation_MonotonicDecay(t *testing.T) {
	l := Ledger{{ProjectYear: 2025, ProjectType: Pipeline, OriginalCost: 777, DepreciationLifetime: 9}}
	prev := RatebaseValuation(2025, l)
	assert.InDelta(t, 777.0, prev, 1e-9)
	for y := 2026; y <= 2045; y++ {
		v := RatebaseValuation(y, l)
		assert.LessOrEqual(t, v, prev, "year %d", y)
		if y >= 2034 {
			assert.Zero(t, v, "year %d", y)
		}
		prev = v
	}
}

func TestMaintenanceCost(t *testing.T) {
	l := threeProjects().Append(Ledger{{ProjectYear: 2025, ProjectType: NPA, OriginalCost: 5000, DepreciationLifetime: 10}})

	assert.InDelta(t, 10.0, MaintenanceCost(2025, l, 0.01), 1e-9)
	assert.InDelta(t, 30.0, MaintenanceCost(2027, l, 0.01), 1e-9)
	// First project retires in 2035 and is still charged that year.
	assert.InDelta(t, 30.0, MaintenanceCost(2035, l, 0.01), 1e-9)
	assert.InDelta(t, 20.0, MaintenanceCost(2036, l, 0.01), 1e-9)
	assert.Zero(t, MaintenanceCost(2024, l, 0.01))
}

func TestLedgerAppend_DoesNotAlias(t *testing.T) {
	base := make(Ledger, 0, 10)
	base = append(base, threeProjects()...)

	a := base.Append(Ledger{{ProjectYear: 2030, ProjectType: Misc, OriginalCost: 1, DepreciationLifetime: 1}})
	b := base.Append(Ledger{{ProjectYear: 2031, ProjectType: Misc, OriginalCost: 2, DepreciationLifetime: 1}})

	require.Len(t, base, 3)
	assert.Equal(t, 2030, a[3].ProjectYear)
	assert.Equal(t, 2031, b[3].ProjectYear)
	assert.NotNil(t, EmptyLedger().Append(EmptyLedger()))
}

func TestNPVOfCapexInvestment(t *testing.T) {
	assert.Zero(t, NPVOfCapexInvestment(0, 10, 0.1, 0.05))
	// 100 at t=0, 550 at t=1, 500 at t=2.
	assert.InDelta(t, 1150.0, NPVOfCapexInvestment(1000, 2, 0.1, 0), 1e-9)
	assert.InDelta(t, 100+500+500/1.21, NPVOfCapexInvestment(1000, 2, 0.1, 0.1), 1e-9)
	// With no return and no discounting the utility recovers exactly its cost.
	assert.InDelta(t, 1000.0, NPVOfCapexInvestment(1000, 25, 0, 0), 1e-9)
}

func TestNPVSavingsFromNPA(t *testing.T) {
	p := IncentiveParams{
		InstallCost:      100,
		NPALifetime:      10,
		PipelineLifetime: 1,
		GasROR:           0,
		DiscountRate:     0,
		IncentivePct:     0.5,
		PaybackPeriod:    5,
	}
	s := NPVSavingsFromNPA(2025, npaFixture(), p)
	require.Len(t, s, 1)
	// (27000 avoided - 35*100 install) * 0.5
	assert.InDelta(t, 11750.0, s[0].SavingsAmount, 1e-9)
	assert.Equal(t, 2030, s[0].EndYear())

	for y := 2025; y < 2030; y++ {
		assert.InDelta(t, 2350.0, PerformanceIncentiveContribution(y, s), 1e-9)
	}
	assert.Zero(t, PerformanceIncentiveContribution(2024, s))
	assert.Zero(t, PerformanceIncentiveContribution(2030, s))

	p.InstallCost = 10000
	none := NPVSavingsFromNPA(2025, npaFixture(), p)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
